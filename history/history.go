// Package history persists custom feed urls and per-feed playback progress.
//
// Position and last-track keys are scoped by feed id because track ids are
// only unique within a feed.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/storage"
	"github.com/samber/mo"
)

// Persisted key schema.
const (
	KeyCustomFeedURLs = "custom_feed_urls"
	KeyLastFeedID     = "last_played_feed_id"
	KeyPlaybackSpeed  = "last_playback_speed"

	prefixLastTrack = "last_played_track_id_"
	prefixPosition  = "audio_pos_"
)

// DefaultScope is used for feed-scoped keys when no feed has ever been selected.
const DefaultScope = "default"

// ErrInvalidFeedURLs is returned when a custom url list contains an unusable entry.
var ErrInvalidFeedURLs = errors.New("custom feed urls must be non-empty urls")

// Store is the key schema over a storage.Storage.
type Store struct {
	backend storage.Storage
}

// New returns a Store over backend.
func New(backend storage.Storage) *Store {
	return &Store{backend: backend}
}

// Backend returns the underlying storage.
func (s *Store) Backend() storage.Storage {
	return s.backend
}

// CustomFeedURLs returns the user-added feed urls in add order.
// A corrupted entry is removed and treated as empty.
func (s *Store) CustomFeedURLs() []string {
	raw, ok := s.backend.Get(KeyCustomFeedURLs)
	if !ok {
		return []string{}
	}

	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil || urls == nil {
		if err == nil {
			err = errors.New("not an array")
		}
		log.Errorf("corrupted %s entry, clearing it: %s", KeyCustomFeedURLs, err)
		if err := s.backend.Remove(KeyCustomFeedURLs); err != nil {
			log.Error(err)
		}
		return []string{}
	}

	return urls
}

// SaveCustomFeedURLs replaces the stored url list. Nothing is written when
// any entry is empty or does not parse as a url.
func (s *Store) SaveCustomFeedURLs(urls []string) error {
	for _, u := range urls {
		if strings.TrimSpace(u) == "" {
			log.Errorf("refusing to save custom feed urls: empty entry")
			return ErrInvalidFeedURLs
		}
		if _, err := url.Parse(u); err != nil {
			log.Errorf("refusing to save custom feed urls: %s", err)
			return fmt.Errorf("%w: %s", ErrInvalidFeedURLs, u)
		}
	}

	if urls == nil {
		urls = []string{}
	}

	data, err := json.Marshal(urls)
	if err != nil {
		return err
	}

	return s.backend.Set(KeyCustomFeedURLs, string(data))
}

// LastFeedID returns the last selected feed id.
func (s *Store) LastFeedID() mo.Option[string] {
	return s.option(KeyLastFeedID)
}

// SetLastFeedID records feedID as the last selected feed.
func (s *Store) SetLastFeedID(feedID string) error {
	if feedID == "" {
		return nil
	}
	return s.backend.Set(KeyLastFeedID, feedID)
}

// Scope returns the feed id used for feed-scoped keys:
// feedID itself, else the last known feed id, else DefaultScope.
func (s *Store) Scope(feedID string) string {
	if feedID != "" {
		return feedID
	}
	return s.LastFeedID().OrElse(DefaultScope)
}

// LastTrackID returns the last played track of a feed.
func (s *Store) LastTrackID(feedID string) mo.Option[string] {
	return s.option(prefixLastTrack + s.Scope(feedID))
}

// SetLastTrackID records trackID as the last played track of a feed.
func (s *Store) SetLastTrackID(feedID, trackID string) error {
	if trackID == "" {
		return nil
	}
	return s.backend.Set(prefixLastTrack+s.Scope(feedID), trackID)
}

func (s *Store) positionKey(feedID, trackID string) string {
	return prefixPosition + s.Scope(feedID) + "_" + trackID
}

// Position returns the saved position of a track in seconds, 0 when unknown.
func (s *Store) Position(feedID, trackID string) float64 {
	raw, ok := s.backend.Get(s.positionKey(feedID, trackID))
	if !ok {
		return 0
	}

	return parsePositive(raw, 0)
}

// HasPosition reports whether a position was ever saved for the track.
func (s *Store) HasPosition(feedID, trackID string) bool {
	_, ok := s.backend.Get(s.positionKey(feedID, trackID))
	return ok
}

// SetPosition saves the position of a track.
func (s *Store) SetPosition(feedID, trackID string, seconds float64) error {
	if trackID == "" {
		return nil
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	return s.backend.Set(s.positionKey(feedID, trackID), strconv.FormatFloat(seconds, 'f', -1, 64))
}

// PlaybackRate returns the last global playback rate, 1 when unset or invalid.
func (s *Store) PlaybackRate() float64 {
	raw, ok := s.backend.Get(KeyPlaybackSpeed)
	if !ok {
		return 1
	}

	rate := parsePositive(raw, 1)
	if rate == 0 {
		return 1
	}
	return rate
}

// SetPlaybackRate records the global playback rate.
func (s *Store) SetPlaybackRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return fmt.Errorf("invalid playback rate %v", rate)
	}
	return s.backend.Set(KeyPlaybackSpeed, strconv.FormatFloat(rate, 'f', -1, 64))
}

// Clear removes every persisted value. This is the explicit "clear cache" action.
func (s *Store) Clear() error {
	return s.backend.Clear()
}

func (s *Store) option(key string) mo.Option[string] {
	v, ok := s.backend.Get(key)
	if !ok || v == "" {
		return mo.None[string]()
	}
	return mo.Some(v)
}

func parsePositive(raw string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fallback
	}
	return v
}

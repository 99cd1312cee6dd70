// Package catalog owns the loaded feeds and the current feed selection.
package catalog

import (
	"errors"

	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/history"
	"github.com/feedcast/feedcast/log"
	"github.com/samber/lo"
)

// ErrFeedNotFound is returned when selecting a feed id that is not in the catalog.
var ErrFeedNotFound = errors.New("feed not found")

// FeedSummary is the read model of a feed for selection lists.
type FeedSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	TrackCount int    `json:"trackCount"`
	SourceURL  string `json:"sourceUrl,omitempty"`
}

// AddResult reports the outcome of AddFeeds.
type AddResult struct {
	AddedCount          int      `json:"addedCount"`
	AddedIDs            []string `json:"addedIds"`
	SkippedDuplicateIDs []string `json:"skippedDuplicateIds"`
}

// Manager holds the catalog state. It is not safe for concurrent use.
type Manager struct {
	store     *history.Store
	feeds     []*feed.Feed
	currentID string
	current   []*feed.Track
	listeners []func(feedID string)
}

// New returns an empty catalog persisting selections to store.
// store may be nil, in which case selections are not persisted.
func New(store *history.Store) *Manager {
	return &Manager{store: store, feeds: []*feed.Feed{}, current: []*feed.Track{}}
}

// OnSwitch registers a listener called after every change of the current feed,
// including a reset to no feed (with an empty id).
func (m *Manager) OnSwitch(listener func(feedID string)) {
	m.listeners = append(m.listeners, listener)
}

func (m *Manager) notify() {
	for _, l := range m.listeners {
		l(m.currentID)
	}
}

// SetCatalog replaces every feed. The selection is kept when its feed still exists,
// its tracks are recomputed from the new feed.
func (m *Manager) SetCatalog(feeds []*feed.Feed) {
	m.feeds = lo.Compact(feeds)

	if m.currentID == "" {
		return
	}

	if f, ok := m.Feed(m.currentID); ok {
		m.current = tracksOf(f)
		return
	}

	log.Warnf("selected feed %s disappeared after reload", m.currentID)
	m.clearSelection()
	m.notify()
}

// SelectFeed makes feedID the current feed and resets playback. An unknown id is
// logged, clears the selection and returns ErrFeedNotFound.
func (m *Manager) SelectFeed(feedID string) error {
	f, ok := m.Feed(feedID)
	if !ok {
		log.Errorf("feed with id %q not found", feedID)
		m.clearSelection()
		m.notify()
		return ErrFeedNotFound
	}

	m.currentID = f.ID
	m.current = tracksOf(f)

	if m.store != nil {
		if err := m.store.SetLastFeedID(f.ID); err != nil {
			log.Errorf("persist last feed: %s", err)
		}
	}

	m.notify()
	return nil
}

// AddFeeds appends feeds whose ids are not claimed yet, tagging them with sourceURL.
// Colliding feeds are skipped, never overwritten.
func (m *Manager) AddFeeds(feeds []*feed.Feed, sourceURL string) AddResult {
	merged := feed.Merge(m.feeds, feeds, sourceURL)
	m.feeds = merged.Feeds

	if len(merged.Skipped) > 0 {
		log.Warnf("skipped %d feeds from %s with ids already in the catalog: %v", len(merged.Skipped), sourceURL, merged.Skipped)
	}

	return AddResult{
		AddedCount:          len(merged.Added),
		AddedIDs:            lo.Ternary(merged.Added == nil, []string{}, merged.Added),
		SkippedDuplicateIDs: lo.Ternary(merged.Skipped == nil, []string{}, merged.Skipped),
	}
}

// RemoveFeedsBySourceURL removes every feed loaded from url and returns how many were removed.
// When the current feed is removed the selection moves to the first remaining feed.
func (m *Manager) RemoveFeedsBySourceURL(url string) int {
	kept := lo.Reject(m.feeds, func(f *feed.Feed, _ int) bool {
		return f.SourceURL == url
	})
	removed := len(m.feeds) - len(kept)
	if removed == 0 {
		return 0
	}

	m.feeds = kept

	if m.currentID == "" {
		return removed
	}
	if _, ok := m.Feed(m.currentID); ok {
		return removed
	}

	if len(m.feeds) == 0 {
		m.clearSelection()
		m.notify()
		return removed
	}

	_ = m.SelectFeed(m.feeds[0].ID)
	return removed
}

// RestoreLastSelection returns lastFeedID when it is in the catalog, else the first feed id,
// else an empty string. It does not change the selection.
func (m *Manager) RestoreLastSelection(lastFeedID string) string {
	if _, ok := m.Feed(lastFeedID); ok && lastFeedID != "" {
		return lastFeedID
	}
	if len(m.feeds) > 0 {
		return m.feeds[0].ID
	}
	return ""
}

// Feed returns the feed with the given id.
func (m *Manager) Feed(id string) (*feed.Feed, bool) {
	return lo.Find(m.feeds, func(f *feed.Feed) bool {
		return f.ID == id
	})
}

// Feeds returns every feed in catalog order.
func (m *Manager) Feeds() []*feed.Feed {
	return m.feeds
}

// Empty reports whether no feed is loaded.
func (m *Manager) Empty() bool {
	return len(m.feeds) == 0
}

// CurrentFeedID returns the selected feed id, empty when none is selected.
func (m *Manager) CurrentFeedID() string {
	return m.currentID
}

// CurrentFeed returns the selected feed.
func (m *Manager) CurrentFeed() (*feed.Feed, bool) {
	if m.currentID == "" {
		return nil, false
	}
	return m.Feed(m.currentID)
}

// CurrentTracks returns the tracks of the selected feed.
func (m *Manager) CurrentTracks() []*feed.Track {
	return m.current
}

// Summaries returns the feed selection read model.
func (m *Manager) Summaries() []FeedSummary {
	return lo.Map(m.feeds, func(f *feed.Feed, _ int) FeedSummary {
		return FeedSummary{
			ID:         f.ID,
			Title:      f.Title,
			TrackCount: len(f.Tracks),
			SourceURL:  f.SourceURL,
		}
	})
}

func (m *Manager) clearSelection() {
	m.currentID = ""
	m.current = []*feed.Track{}
}

func tracksOf(f *feed.Feed) []*feed.Track {
	if f.Tracks == nil {
		return []*feed.Track{}
	}
	return f.Tracks
}

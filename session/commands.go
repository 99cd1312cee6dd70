package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/feedcast/feedcast/catalog"
	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/loader"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/playback"
	"github.com/feedcast/feedcast/util"
	"github.com/samber/lo"
)

var (
	ErrEmptyURL     = errors.New("please enter a feed URL")
	ErrInvalidURL   = errors.New("invalid URL format")
	ErrDuplicateURL = errors.New("this feed URL has already been added")
	ErrUnknownURL   = errors.New("this feed URL was not added")
)

// Start loads every source and restores the previous selection.
func (s *Session) Start(ctx context.Context) error {
	return s.ReloadAll(ctx)
}

// ReloadAll loads the default and the custom sources again and replaces the catalog.
// The selection survives when its feed still exists. A reload overtaken by a newer one is discarded.
func (s *Session) ReloadAll(ctx context.Context) error {
	var (
		generation int
		custom     []string
	)

	err := s.do(func() error {
		s.generation++
		generation = s.generation
		custom = s.opts.Store.CustomFeedURLs()
		s.loading = true
		s.changed()
		return nil
	})
	if err != nil {
		return err
	}

	result := s.opts.Loader.LoadAll(ctx, s.opts.DefaultURL, custom)

	return s.do(func() error {
		if generation != s.generation {
			log.Debugf("discarding reload %d, superseded by %d", generation, s.generation)
			return nil
		}

		s.apply(result, custom)
		return nil
	})
}

// apply installs a load of the custom urls in loaded. Urls added or removed
// while it ran are reconciled against the stored list.
func (s *Session) apply(result *loader.Result, loaded []string) {
	stored := s.opts.Store.CustomFeedURLs()

	feeds := lo.Filter(result.Feeds, func(f *feed.Feed, _ int) bool {
		return f.SourceURL == "" || lo.Contains(stored, f.SourceURL)
	})

	for _, u := range lo.Without(stored, loaded...) {
		added := lo.Filter(s.catalog.Feeds(), func(f *feed.Feed, _ int) bool {
			return f.SourceURL == u
		})
		feeds = feed.Merge(feeds, added, u).Feeds
	}

	s.loading = false
	s.failures = lo.Filter(result.Failures, func(f loader.Failure, _ int) bool {
		return lo.Contains(stored, f.URL)
	})
	s.usedFallback = result.UsedFallback

	s.catalog.SetCatalog(feeds)

	if result.UsedFallback {
		s.notice("Could not load the default feeds, showing built-in feeds")
	}
	for _, f := range s.failures {
		s.notice(fmt.Sprintf("Failed to load custom feed %s: %s", f.URL, f.Err))
	}

	if s.catalog.CurrentFeedID() == "" {
		s.restore()
	}

	s.changed()
}

// restore selects the last feed, or the first one, and loads its last track paused.
func (s *Session) restore() {
	feedID := s.catalog.RestoreLastSelection(s.opts.Store.LastFeedID().OrEmpty())
	if feedID == "" {
		log.Infof("no feeds available to restore")
		s.controller.Reset()
		return
	}

	if err := s.catalog.SelectFeed(feedID); err != nil {
		return
	}

	trackID, ok := s.opts.Store.LastTrackID(feedID).Get()
	if !ok {
		return
	}

	if err := s.controller.LoadTrack(trackID, false); err != nil {
		log.Warnf("restore last track %s of %s: %s", trackID, feedID, err)
	}
}

// SelectFeed makes feedID current and stops playback.
func (s *Session) SelectFeed(feedID string) error {
	return s.do(func() error {
		return s.catalog.SelectFeed(feedID)
	})
}

// AddFeedByURL validates the document at rawURL, remembers the url and merges its feeds
// into the catalog. Feeds whose ids are already taken are skipped.
func (s *Session) AddFeedByURL(ctx context.Context, rawURL string) (catalog.AddResult, error) {
	source := strings.TrimSpace(rawURL)
	if source == "" {
		return catalog.AddResult{}, ErrEmptyURL
	}
	if u, err := url.Parse(source); err != nil || u.Scheme == "" || (u.Host == "" && u.Scheme != "file") {
		return catalog.AddResult{}, ErrInvalidURL
	}

	err := s.do(func() error {
		if lo.Contains(s.opts.Store.CustomFeedURLs(), source) {
			return ErrDuplicateURL
		}
		return nil
	})
	if err != nil {
		return catalog.AddResult{}, err
	}

	feeds, err := s.opts.Loader.Validate(ctx, source)
	if err != nil {
		log.WithFields(log.Fields{"source": source}).Errorf("feed validation failed: %s", err)
		return catalog.AddResult{}, fmt.Errorf("failed to load or validate feed: %w", err)
	}

	var result catalog.AddResult
	err = s.do(func() error {
		urls := s.opts.Store.CustomFeedURLs()
		if lo.Contains(urls, source) {
			return ErrDuplicateURL
		}
		if err := s.opts.Store.SaveCustomFeedURLs(append(urls, source)); err != nil {
			return err
		}

		result = s.catalog.AddFeeds(feeds, source)
		s.failures = lo.Reject(s.failures, func(f loader.Failure, _ int) bool {
			return f.URL == source
		})

		if s.catalog.CurrentFeedID() == "" {
			s.restore()
		}

		msg := fmt.Sprintf("Feed added successfully, %s", util.Quantify(result.AddedCount, "new feed", "new feeds"))
		if n := len(result.SkippedDuplicateIDs); n > 0 {
			msg += fmt.Sprintf(", %s skipped", util.Quantify(n, "duplicate", "duplicates"))
		}
		s.notice(msg)
		return nil
	})

	return result, err
}

// RemoveFeedByURL forgets a custom url and removes its feeds. It returns how many feeds were removed.
func (s *Session) RemoveFeedByURL(rawURL string) (int, error) {
	source := strings.TrimSpace(rawURL)

	var removed int
	err := s.do(func() error {
		urls := s.opts.Store.CustomFeedURLs()
		if !lo.Contains(urls, source) {
			return ErrUnknownURL
		}
		if err := s.opts.Store.SaveCustomFeedURLs(lo.Without(urls, source)); err != nil {
			return err
		}

		removed = s.catalog.RemoveFeedsBySourceURL(source)
		s.failures = lo.Reject(s.failures, func(f loader.Failure, _ int) bool {
			return f.URL == source
		})
		s.changed()
		return nil
	})

	return removed, err
}

// SelectTrack loads trackID of the current feed and plays it.
func (s *Session) SelectTrack(trackID string) error {
	return s.do(func() error {
		return s.controller.LoadTrack(trackID, true)
	})
}

func (s *Session) TogglePlayPause() error {
	return s.do(s.controller.TogglePlayPause)
}

func (s *Session) SeekDrag(seconds float64) error {
	return s.do(func() error {
		s.controller.SeekDrag(seconds)
		return nil
	})
}

func (s *Session) SeekCommit(seconds float64) error {
	return s.do(func() error {
		return s.controller.SeekCommit(seconds)
	})
}

func (s *Session) SeekBy(delta float64) error {
	return s.do(func() error {
		return s.controller.SeekBy(delta)
	})
}

func (s *Session) SetRate(rate float64) error {
	return s.do(func() error {
		return s.controller.SetPlaybackRate(rate)
	})
}

func (s *Session) Next() error {
	return s.do(s.controller.Next)
}

func (s *Session) Previous() error {
	return s.do(s.controller.Previous)
}

// ClearState wipes every persisted key, stops playback and reloads without the custom sources.
func (s *Session) ClearState(ctx context.Context) error {
	err := s.do(func() error {
		s.controller.Reset()
		if err := s.opts.Store.Clear(); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
		s.catalog.SetCatalog(nil)
		return nil
	})
	if err != nil {
		return err
	}

	if err = s.ReloadAll(ctx); err != nil {
		return err
	}

	_ = s.do(func() error {
		s.notice("Saved state cleared")
		return nil
	})
	return nil
}

// View is the read model the interfaces render.
type View struct {
	Feeds         []catalog.FeedSummary `json:"feeds"`
	CurrentFeedID string                `json:"currentFeedId,omitempty"`
	Tracks        []playback.TrackRow   `json:"tracks"`
	Playback      playback.Snapshot     `json:"playback"`
	CustomURLs    []string              `json:"customUrls"`
	Loading       bool                  `json:"loading"`
	Failures      []loader.Failure      `json:"-"`
	UsedFallback  bool                  `json:"usedFallback"`
}

// View returns a copy of the current state.
func (s *Session) View() (View, error) {
	var v View
	err := s.do(func() error {
		v = View{
			Feeds:         s.catalog.Summaries(),
			CurrentFeedID: s.catalog.CurrentFeedID(),
			Tracks:        s.controller.Rows(),
			Playback:      s.controller.Snapshot(),
			CustomURLs:    s.opts.Store.CustomFeedURLs(),
			Loading:       s.loading,
			Failures:      append([]loader.Failure(nil), s.failures...),
			UsedFallback:  s.usedFallback,
		}
		return nil
	})
	return v, err
}

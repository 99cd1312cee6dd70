package playback

import (
	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/util"
	"github.com/samber/lo"
)

// Rates are the speed presets offered by the interfaces.
var Rates = []float64{0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

// NextRate returns the first preset above rate, or the fastest preset.
func NextRate(rate float64) float64 {
	for _, r := range Rates {
		if r > rate+1e-9 {
			return r
		}
	}
	return Rates[len(Rates)-1]
}

// PrevRate returns the last preset below rate, or the slowest preset.
func PrevRate(rate float64) float64 {
	for i := len(Rates) - 1; i >= 0; i-- {
		if Rates[i] < rate-1e-9 {
			return Rates[i]
		}
	}
	return Rates[0]
}

// Snapshot is the read model of the playback state.
type Snapshot struct {
	FeedID      string         `json:"feedId,omitempty"`
	TrackID     string         `json:"trackId,omitempty"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	AlbumArt    string         `json:"albumArt,omitempty"`
	Kind        feed.MediaKind `json:"-"`
	Position    float64        `json:"position"`
	Duration    float64        `json:"duration"`
	Elapsed     string         `json:"elapsed"`
	Total       string         `json:"total"`
	Playing     bool           `json:"playing"`
	Seeking     bool           `json:"seeking"`
	SeekPercent float64        `json:"seekPercent"`
	Rate        float64        `json:"rate"`
	CanNavigate bool           `json:"canNavigate"`
	VideoActive bool           `json:"videoActive"`
}

// Loaded reports whether a track is loaded.
func (s Snapshot) Loaded() bool {
	return s.TrackID != ""
}

// Snapshot returns the current playback read model.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Rate:        c.rate,
		CanNavigate: len(c.opts.Source.CurrentTracks()) > 1,
		Elapsed:     util.FormatTime(0),
		Total:       util.UnknownDuration,
	}

	if c.track == nil {
		return s
	}

	position := c.position
	if c.seeking {
		position = c.seekValue
	}

	s.FeedID = c.feedID
	s.TrackID = c.track.ID
	s.Title = c.track.Title
	s.Description = c.track.Description
	s.AlbumArt = c.track.AlbumArt
	s.Kind = c.kind
	s.Position = position
	s.Duration = c.duration
	s.Elapsed = util.FormatTime(position)
	s.Total = util.FormatDuration(c.duration)
	s.Playing = c.playing
	s.Seeking = c.seeking
	s.SeekPercent = util.Percent(position, c.duration)
	s.VideoActive = c.video

	return s
}

// TrackRow is the read model of one track in the current feed.
type TrackRow struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Kind              feed.MediaKind `json:"-"`
	FormattedPosition string         `json:"formattedPosition"`
	FormattedDuration string         `json:"formattedDuration"`
	Current           bool           `json:"current"`
	Playing           bool           `json:"playing"`
}

// Rows returns the track list of the current feed with the last known progress of each track.
func (c *Controller) Rows() []TrackRow {
	feedID := c.opts.Source.CurrentFeedID()

	return lo.Map(c.opts.Source.CurrentTracks(), func(t *feed.Track, _ int) TrackRow {
		row := TrackRow{ID: t.ID, Title: t.Title, Kind: t.Kind()}

		position, duration := c.store().Position(feedID, t.ID), t.Duration
		if p, ok := c.seen[c.progressKey(feedID, t.ID)]; ok {
			position = p.position
			if p.duration > 0 {
				duration = p.duration
			}
		}

		if c.track != nil && c.feedID == feedID && c.track.ID == t.ID {
			row.Current = true
			row.Playing = c.playing
			position = c.position
			if c.duration > 0 {
				duration = c.duration
			}
		}

		row.FormattedPosition = util.FormatTime(position)
		row.FormattedDuration = util.FormatDuration(duration)
		return row
	})
}

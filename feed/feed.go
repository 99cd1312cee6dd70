// Package feed defines the feed document model shared by the loader, the catalog and the playback controller.
package feed

import (
	"net/url"
	"path"
	"strings"

	"github.com/samber/lo"
)

// Track is one playable media item within a feed.
// Ids are unique within their feed only.
type Track struct {
	ID          string  `json:"id" jsonschema:"minLength=1"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	AudioURL    string  `json:"audioUrl" jsonschema:"description=Audio or video resource. Media kind is inferred from the file extension"`
	Duration    float64 `json:"duration,omitempty" jsonschema:"description=Duration in seconds"`
	AlbumArt    string  `json:"albumArt,omitempty"`
}

// Kind returns the media kind of the track's resource.
func (t *Track) Kind() MediaKind {
	return KindOf(t.AudioURL)
}

// Feed is a named collection of tracks.
type Feed struct {
	ID     string   `json:"id" jsonschema:"minLength=1"`
	Title  string   `json:"title"`
	Tracks []*Track `json:"tracks"`

	// SourceURL is set for feeds loaded from a custom url.
	SourceURL string `json:"sourceUrl,omitempty" jsonschema:"-"`
}

// Track returns the track with the given id.
func (f *Feed) Track(id string) (*Track, bool) {
	return lo.Find(f.Tracks, func(t *Track) bool {
		return t.ID == id
	})
}

// Index returns the position of the track with the given id, or -1.
func (f *Feed) Index(id string) int {
	_, i, ok := lo.FindIndexOf(f.Tracks, func(t *Track) bool {
		return t.ID == id
	})
	if !ok {
		return -1
	}
	return i
}

// Document is the top-level feed document.
type Document struct {
	Feeds []*Feed `json:"feeds"`
}

// IDs returns the feed ids in document order.
func (d *Document) IDs() []string {
	return lo.Map(d.Feeds, func(f *Feed, _ int) string {
		return f.ID
	})
}

// MediaKind tells whether a track needs a video surface.
type MediaKind int

const (
	Audio MediaKind = iota
	Video
)

func (k MediaKind) String() string {
	if k == Video {
		return "video"
	}
	return "audio"
}

var videoExtensions = []string{"mp4", "m4v", "webm", "ogv", "mov", "mkv"}

// KindOf infers the media kind from the extension of the resource path.
// Query strings and fragments are ignored.
func KindOf(resource string) MediaKind {
	p := resource
	if u, err := url.Parse(resource); err == nil && u.Path != "" {
		p = u.Path
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if lo.Contains(videoExtensions, ext) {
		return Video
	}
	return Audio
}

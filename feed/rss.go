package feed

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/feedcast/feedcast/util"
	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
)

// ErrNoPlayableItems is returned when a syndication feed has no item with a media enclosure.
var ErrNoPlayableItems = errors.New("feed has no items with media enclosures")

// ParseSyndication reads an RSS, Atom or JSON Feed document and converts it into a Feed.
// id overrides the derived feed id when not empty.
func ParseSyndication(r io.Reader, id string) (*Feed, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, err
	}

	return FromSyndication(parsed, id)
}

// FromSyndication converts a parsed podcast feed. Items without a media enclosure are dropped.
// The feed id defaults to the slug of the title, then of the feed link.
func FromSyndication(src *gofeed.Feed, id string) (*Feed, error) {
	if id == "" {
		id = util.Slug(src.Title)
	}
	if id == "" {
		id = util.Slug(src.FeedLink)
	}

	artwork := ""
	switch {
	case src.ITunesExt != nil && src.ITunesExt.Image != "":
		artwork = src.ITunesExt.Image
	case src.Image != nil:
		artwork = src.Image.URL
	}

	out := &Feed{ID: id, Title: src.Title, Tracks: []*Track{}}
	seen := make(map[string]struct{})

	for _, item := range src.Items {
		media, ok := enclosure(item)
		if !ok {
			continue
		}

		trackID := lo.CoalesceOrEmpty(item.GUID, item.Link, media)
		if _, dup := seen[trackID]; dup {
			continue
		}
		seen[trackID] = struct{}{}

		t := &Track{
			ID:          trackID,
			Title:       lo.CoalesceOrEmpty(item.Title, trackID),
			Description: Describe(lo.CoalesceOrEmpty(item.Description, item.Content)),
			AudioURL:    media,
			AlbumArt:    artwork,
		}

		if item.ITunesExt != nil {
			t.Duration = parseClock(item.ITunesExt.Duration)
			if item.ITunesExt.Image != "" {
				t.AlbumArt = item.ITunesExt.Image
			}
		}
		if item.Image != nil && item.Image.URL != "" {
			t.AlbumArt = item.Image.URL
		}

		out.Tracks = append(out.Tracks, t)
	}

	if len(out.Tracks) == 0 {
		return nil, ErrNoPlayableItems
	}

	return out, nil
}

// enclosure picks the first audio or video enclosure, falling back to the first enclosure of any type.
func enclosure(item *gofeed.Item) (string, bool) {
	enclosures := lo.Filter(item.Enclosures, func(e *gofeed.Enclosure, _ int) bool {
		return e != nil && e.URL != ""
	})
	if len(enclosures) == 0 {
		return "", false
	}

	media, ok := lo.Find(enclosures, func(e *gofeed.Enclosure) bool {
		return strings.HasPrefix(e.Type, "audio/") || strings.HasPrefix(e.Type, "video/")
	})
	if !ok {
		media = enclosures[0]
	}

	return media.URL, true
}

// parseClock reads itunes:duration values, either plain seconds or [[H:]M:]S.
func parseClock(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	var total float64
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.ParseFloat(part, 64)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}

	return total
}

package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
)

var (
	// ErrMalformed is returned when a document is not valid JSON.
	ErrMalformed = errors.New("malformed feed document")

	// ErrMissingFeeds is returned when the top-level feeds field is absent or not an array.
	ErrMissingFeeds = errors.New("invalid feed structure (missing 'feeds' array)")
)

// Decode parses a feed document. Only the top-level structure is enforced here,
// use Validate for the per-feed minimums required when adding a feed interactively.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Feeds json.RawMessage `json:"feeds"`
	}
	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	trimmed := bytes.TrimSpace(raw.Feeds)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMissingFeeds
	}

	doc := &Document{}
	if err = json.Unmarshal(trimmed, &doc.Feeds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return doc, nil
}

// DecodeBytes is Decode over a byte slice.
func DecodeBytes(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

// Normalize drops null feeds and tracks, keeps the first of any duplicated
// track id within a feed and replaces missing track lists with empty ones.
// It returns the number of dropped tracks.
func (d *Document) Normalize() (dropped int) {
	d.Feeds = lo.Compact(d.Feeds)

	for _, f := range d.Feeds {
		seen := make(map[string]struct{}, len(f.Tracks))
		tracks := make([]*Track, 0, len(f.Tracks))

		for _, t := range f.Tracks {
			if t == nil || t.ID == "" {
				dropped++
				continue
			}
			if _, ok := seen[t.ID]; ok {
				dropped++
				continue
			}
			seen[t.ID] = struct{}{}
			tracks = append(tracks, t)
		}

		f.Tracks = tracks
	}

	return
}

// ValidationError describes why a document failed structural validation.
type ValidationError struct {
	Feed   int
	Track  int
	Fields []string
}

func (e *ValidationError) Error() string {
	if e.Track >= 0 {
		return fmt.Sprintf("feed #%d: track #%d is missing %s", e.Feed+1, e.Track+1, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("feed #%d is missing %s", e.Feed+1, strings.Join(e.Fields, ", "))
}

// Validate checks the minimums for interactive adds: every feed needs id, title and tracks,
// and its first track needs id, title and audioUrl.
func (d *Document) Validate() error {
	for i, f := range d.Feeds {
		if f == nil {
			return &ValidationError{Feed: i, Track: -1, Fields: []string{"id", "title", "tracks"}}
		}

		var missing []string
		if f.ID == "" {
			missing = append(missing, "id")
		}
		if f.Title == "" {
			missing = append(missing, "title")
		}
		if f.Tracks == nil {
			missing = append(missing, "tracks")
		}
		if len(missing) > 0 {
			return &ValidationError{Feed: i, Track: -1, Fields: missing}
		}

		if len(f.Tracks) == 0 {
			continue
		}

		first := f.Tracks[0]
		if first == nil {
			return &ValidationError{Feed: i, Track: 0, Fields: []string{"id", "title", "audioUrl"}}
		}
		if first.ID == "" {
			missing = append(missing, "id")
		}
		if first.Title == "" {
			missing = append(missing, "title")
		}
		if first.AudioURL == "" {
			missing = append(missing, "audioUrl")
		}
		if len(missing) > 0 {
			return &ValidationError{Feed: i, Track: 0, Fields: missing}
		}
	}

	return nil
}

package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/util"
)

// ImportOptions configures Import.
type ImportOptions struct {
	// Target is the feed document file to update. It is created when missing.
	Target string

	// Replace replaces existing feeds instead of appending their new tracks.
	Replace bool

	// FeedID names a feed converted from RSS or Atom. It defaults to a slug of its title.
	FeedID string
}

// Import merges the feeds of source into the feed document at opts.Target.
// Source may be a feed document or a podcast RSS or Atom feed.
func (l *Loader) Import(ctx context.Context, source string, opts ImportOptions) ([]feed.ImportEntry, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	incoming, err := decodeImport(data, opts.FeedID)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	target, err := readTarget(opts.Target)
	if err != nil {
		return nil, err
	}

	entries := feed.Import(target, incoming, opts.Replace)

	out, err := json.MarshalIndent(target, "", "  ")
	if err != nil {
		return nil, err
	}

	if err = filesystem.API().MkdirAll(filepath.Dir(opts.Target), os.ModePerm); err != nil {
		return nil, err
	}
	if err = filesystem.WriteFileAtomic(opts.Target, append(out, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", opts.Target, err)
	}

	log.WithFields(log.Fields{"source": source, "target": opts.Target}).Infof("imported %d feeds", len(entries))
	return entries, nil
}

func decodeImport(data []byte, feedID string) (*feed.Document, error) {
	if looksLikeXML(data) {
		f, err := feed.ParseSyndication(bytes.NewReader(data), feedID)
		if err != nil {
			return nil, err
		}
		return &feed.Document{Feeds: []*feed.Feed{f}}, nil
	}

	return feed.DecodeBytes(data)
}

// readTarget returns the document at path, or an empty one when the file does not exist.
func readTarget(path string) (*feed.Document, error) {
	exists, err := filesystem.API().Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		log.Infof("target %s does not exist, creating a new feed document", path)
		return &feed.Document{Feeds: []*feed.Feed{}}, nil
	}

	f, err := filesystem.API().Open(path)
	if err != nil {
		return nil, err
	}
	defer util.Ignore(f.Close)

	doc, err := feed.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", path, err)
	}
	return doc, nil
}

// Package loader fetches feed documents and merges them into a single catalog.
package loader

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/feedcast/feedcast/constant"
	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/network"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Failure is a custom source that contributed no feeds.
type Failure struct {
	URL string
	Err error
}

// Result is the merged outcome of a load. A load never fails as a whole.
type Result struct {
	// Feeds holds default feeds in document order, then each custom url's feeds in url order.
	Feeds []*feed.Feed

	// Failures lists custom urls that could not be loaded.
	Failures []Failure

	// UsedFallback is set when the default source failed and the built-in feeds were used.
	UsedFallback bool

	// DefaultErr is why the default source failed, if it did.
	DefaultErr error

	// Skipped lists feed ids dropped because an earlier source already claimed them.
	Skipped []string
}

// ReadFunc returns the raw document of a source.
type ReadFunc func(ctx context.Context, source string) ([]byte, error)

// Loader fetches feed documents.
type Loader struct {
	read     ReadFunc
	fallback []byte
}

// New returns a Loader reading sources through the network package.
func New() *Loader {
	return NewWithReader(network.Read)
}

// NewWithReader returns a Loader using read to obtain documents.
func NewWithReader(read ReadFunc) *Loader {
	return &Loader{read: read, fallback: constant.FallbackFeeds}
}

// Fallback returns the built-in feeds.
func (l *Loader) Fallback() []*feed.Feed {
	doc, err := feed.DecodeBytes(l.fallback)
	if err != nil {
		log.Errorf("built-in feeds are invalid: %s", err)
		return []*feed.Feed{}
	}
	doc.Normalize()
	return doc.Feeds
}

// Fetch reads and decodes a source. JSON feed documents are expected, podcast
// RSS and Atom feeds are converted as a single feed.
func (l *Loader) Fetch(ctx context.Context, source string) ([]*feed.Feed, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	doc, err := decode(data)
	if err != nil {
		return nil, err
	}

	if dropped := doc.Normalize(); dropped > 0 {
		log.WithFields(log.Fields{"source": source}).Warnf("dropped %d tracks with missing or duplicate ids", dropped)
	}

	return doc.Feeds, nil
}

// Validate fetches a source for an interactive add. Unlike Fetch it enforces the
// per-feed minimums and rejects the whole source when any feed fails them.
func (l *Loader) Validate(ctx context.Context, source string) ([]*feed.Feed, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	doc, err := decode(data)
	if err != nil {
		return nil, err
	}

	if err = doc.Validate(); err != nil {
		return nil, err
	}

	doc.Normalize()
	return doc.Feeds, nil
}

func decode(data []byte) (*feed.Document, error) {
	doc, err := feed.DecodeBytes(data)
	if err == nil || !errors.Is(err, feed.ErrMalformed) || !looksLikeXML(data) {
		return doc, err
	}

	f, rssErr := feed.ParseSyndication(bytes.NewReader(data), "")
	if rssErr != nil {
		return nil, err
	}
	return &feed.Document{Feeds: []*feed.Feed{f}}, nil
}

func looksLikeXML(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("<"))
}

// LoadAll loads the default source and every custom url concurrently and merges the results.
// A failing custom url contributes nothing and is reported in Result.Failures.
// A failing default source is replaced by the built-in feeds.
func (l *Loader) LoadAll(ctx context.Context, defaultURL string, customURLs []string) *Result {
	customURLs = lo.Uniq(lo.Filter(customURLs, func(u string, _ int) bool {
		return u != ""
	}))

	var (
		wg       sync.WaitGroup
		defaults mo.Result[[]*feed.Feed]
		custom   = make([]mo.Result[[]*feed.Feed], len(customURLs))
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defaults = mo.TupleToResult(l.Fetch(ctx, defaultURL))
	}()

	for i, u := range customURLs {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			custom[i] = mo.TupleToResult(l.Fetch(ctx, u))
		}(i, u)
	}

	wg.Wait()

	result := &Result{}

	base, err := defaults.Get()
	if err != nil {
		log.WithFields(log.Fields{"source": defaultURL}).Warnf("default feed unavailable, using built-in feeds: %s", err)
		result.UsedFallback = true
		result.DefaultErr = err
		base = l.Fallback()
	}

	merged := feed.Merge(nil, base, "")
	result.Skipped = append(result.Skipped, merged.Skipped...)

	for i, u := range customURLs {
		feeds, err := custom[i].Get()
		if err != nil {
			log.WithFields(log.Fields{"source": u}).Errorf("custom feed failed: %s", err)
			result.Failures = append(result.Failures, Failure{URL: u, Err: err})
			continue
		}

		merged = feed.Merge(merged.Feeds, feeds, u)
		if len(merged.Skipped) > 0 {
			log.WithFields(log.Fields{"source": u}).Warnf("skipped feeds with already claimed ids: %v", merged.Skipped)
			result.Skipped = append(result.Skipped, merged.Skipped...)
		}
	}

	result.Feeds = merged.Feeds
	log.Infof("loaded %d feeds (%d custom sources, %d failed)", len(result.Feeds), len(customURLs), len(result.Failures))
	return result
}

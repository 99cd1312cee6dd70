package feed

import (
	"github.com/samber/lo"
)

// MergeResult reports the outcome of merging candidate feeds into a catalog.
type MergeResult struct {
	Feeds   []*Feed
	Added   []string
	Skipped []string
}

// Merge appends candidates to existing in order. A candidate whose id is empty
// or already claimed (by existing or by an earlier candidate) is skipped, never
// overwritten. When sourceURL is not empty every appended feed is tagged with it.
// existing is not modified.
func Merge(existing, candidates []*Feed, sourceURL string) MergeResult {
	claimed := make(map[string]struct{}, len(existing)+len(candidates))
	for _, f := range existing {
		claimed[f.ID] = struct{}{}
	}

	result := MergeResult{
		Feeds: append(make([]*Feed, 0, len(existing)+len(candidates)), existing...),
	}

	for _, f := range lo.Compact(candidates) {
		if f.ID == "" {
			result.Skipped = append(result.Skipped, f.ID)
			continue
		}
		if _, ok := claimed[f.ID]; ok {
			result.Skipped = append(result.Skipped, f.ID)
			continue
		}

		claimed[f.ID] = struct{}{}
		if sourceURL != "" {
			f.SourceURL = sourceURL
		}
		result.Feeds = append(result.Feeds, f)
		result.Added = append(result.Added, f.ID)
	}

	return result
}

// ImportAction is what Import did with one source feed or track.
type ImportAction int

const (
	ImportAdded ImportAction = iota
	ImportReplaced
	ImportMerged
	ImportSkipped
)

func (a ImportAction) String() string {
	switch a {
	case ImportAdded:
		return "added"
	case ImportReplaced:
		return "replaced"
	case ImportMerged:
		return "merged"
	default:
		return "skipped"
	}
}

// ImportEntry describes the action taken for one feed.
type ImportEntry struct {
	FeedID        string
	Title         string
	Action        ImportAction
	AddedTracks   []string
	ExistedTracks []string
	SkippedTracks int
}

// Import merges source into target in place, the way the bundled feed file is maintained offline.
// New feeds are appended. An existing feed is replaced when replace is set, otherwise
// tracks with unseen ids are appended to it. Feeds and tracks without an id are skipped.
func Import(target, source *Document, replace bool) []ImportEntry {
	index := make(map[string]int, len(target.Feeds))
	for i, f := range target.Feeds {
		index[f.ID] = i
	}

	var entries []ImportEntry
	for _, incoming := range lo.Compact(source.Feeds) {
		entry := ImportEntry{FeedID: incoming.ID, Title: incoming.Title}

		if incoming.ID == "" {
			entry.Action = ImportSkipped
			entries = append(entries, entry)
			continue
		}

		i, exists := index[incoming.ID]
		switch {
		case !exists:
			if incoming.Tracks == nil {
				incoming.Tracks = []*Track{}
			}
			index[incoming.ID] = len(target.Feeds)
			target.Feeds = append(target.Feeds, incoming)
			entry.Action = ImportAdded
		case replace:
			target.Feeds[i] = incoming
			entry.Action = ImportReplaced
		default:
			entry.Action = ImportMerged
			mergeTracks(target.Feeds[i], incoming, &entry)
		}

		entries = append(entries, entry)
	}

	return entries
}

func mergeTracks(into, from *Feed, entry *ImportEntry) {
	known := lo.SliceToMap(lo.Compact(into.Tracks), func(t *Track) (string, struct{}) {
		return t.ID, struct{}{}
	})
	if into.Tracks == nil {
		into.Tracks = []*Track{}
	}

	for _, t := range from.Tracks {
		if t == nil || t.ID == "" {
			entry.SkippedTracks++
			continue
		}
		if _, ok := known[t.ID]; ok {
			entry.ExistedTracks = append(entry.ExistedTracks, t.ID)
			continue
		}

		known[t.ID] = struct{}{}
		into.Tracks = append(into.Tracks, t)
		entry.AddedTracks = append(entry.AddedTracks, t.ID)
	}
}

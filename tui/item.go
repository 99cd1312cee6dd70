package tui

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/feedcast/feedcast/catalog"
	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/icon"
	"github.com/feedcast/feedcast/key"
	"github.com/feedcast/feedcast/playback"
	"github.com/feedcast/feedcast/style"
	"github.com/feedcast/feedcast/util"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// listItem implements list.Item for feeds and tracks.
type listItem struct {
	internal interface{}
	marked   bool
}

func (t *listItem) getMark() string {
	switch e := t.internal.(type) {
	case playback.TrackRow:
		if e.Playing {
			return lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Play))
		}
		return lipgloss.NewStyle().Foreground(style.AccentColor).Render(icon.Get(icon.Pause))
	case catalog.FeedSummary:
		return icon.Get(icon.Mark)
	default:
		return ""
	}
}

func (t *listItem) Title() (title string) {
	switch e := t.internal.(type) {
	case playback.TrackRow:
		title = e.Title
		if e.Kind == feed.Video {
			title = fmt.Sprintf("%s %s", title, style.Faint(icon.Get(icon.Video)))
		}
	case catalog.FeedSummary:
		title = e.Title
	case string:
		title = e
	default:
		title = t.FilterValue()
	}

	if title != "" && t.marked {
		title = fmt.Sprintf("%s %s", title, t.getMark())
	}

	return
}

func (t *listItem) Description() (description string) {
	switch e := t.internal.(type) {
	case playback.TrackRow:
		description = fmt.Sprintf("%s / %s", e.FormattedPosition, e.FormattedDuration)
	case catalog.FeedSummary:
		description = util.Quantify(e.TrackCount, "track", "tracks")
		if e.SourceURL != "" && viper.GetBool(key.TUIShowURLs) {
			description += " • " + style.Faint(e.SourceURL)
		}
	}

	return
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case playback.TrackRow:
		return e.Title
	case catalog.FeedSummary:
		return e.Title
	case string:
		return e
	default:
		return ""
	}
}

func trackItems(rows []playback.TrackRow) []list.Item {
	return lo.Map(rows, func(r playback.TrackRow, _ int) list.Item {
		return &listItem{internal: r, marked: r.Current}
	})
}

func feedItems(feeds []catalog.FeedSummary, currentID string) []list.Item {
	return lo.Map(feeds, func(f catalog.FeedSummary, _ int) list.Item {
		return &listItem{internal: f, marked: f.ID == currentID}
	})
}

// fuzzyFilter ranks list items by fuzzy match distance, closest first.
func fuzzyFilter(term string, targets []string) []list.Rank {
	ranks := fuzzy.RankFindNormalizedFold(term, targets)
	sort.Sort(ranks)

	return lo.Map(ranks, func(r fuzzy.Rank, _ int) list.Rank {
		return list.Rank{Index: r.OriginalIndex}
	})
}

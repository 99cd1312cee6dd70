package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/feedcast/feedcast/catalog"
	"github.com/feedcast/feedcast/color"
	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/icon"
	"github.com/feedcast/feedcast/playback"
	"github.com/feedcast/feedcast/session"
	"github.com/feedcast/feedcast/style"
	"github.com/feedcast/feedcast/util"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(feedsCmd)
}

var feedsCmd = &cobra.Command{
	Use:   "feeds",
	Short: "List and manage feeds",
}

// loaded starts a headless session, loads the catalog and returns its view.
func loaded(cmd *cobra.Command) (*session.Session, session.View, func()) {
	s, stop := headless(cmd.Context())

	e := util.PrintErasable(fmt.Sprintf("%s Loading feeds...", icon.Get(icon.Progress)))
	err := s.Start(cmd.Context())
	e()
	if err != nil {
		stop()
		handleErr(err)
	}

	view, err := s.View()
	if err != nil {
		stop()
		handleErr(err)
	}

	for _, failure := range view.Failures {
		_, _ = fmt.Fprintf(os.Stderr, "%s Failed to load custom feed %s: %s\n", icon.Get(icon.Fail), failure.URL, failure.Err)
	}

	return s, view, stop
}

func printJSON(cmd *cobra.Command, v any) {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	handleErr(encoder.Encode(v))
}

func init() {
	feedsCmd.AddCommand(feedsListCmd)

	feedsListCmd.Flags().BoolP("json", "j", false, "Print feeds as json")
	feedsListCmd.Flags().BoolP("raw", "r", false, "Print only feed ids")
	feedsListCmd.SetOut(os.Stdout)
}

var feedsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every loaded feed",
	Run: func(cmd *cobra.Command, args []string) {
		_, view, stop := loaded(cmd)
		defer stop()

		if lo.Must(cmd.Flags().GetBool("json")) {
			printJSON(cmd, view.Feeds)
			return
		}

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, f := range view.Feeds {
				cmd.Println(f.ID)
			}
			return
		}

		if view.UsedFallback {
			cmd.Println(style.Faint("Default feeds unavailable, showing built-in feeds"))
		}

		for _, f := range view.Feeds {
			printFeed(cmd, f, f.ID == view.CurrentFeedID)
		}
	},
}

func printFeed(cmd *cobra.Command, f catalog.FeedSummary, current bool) {
	mark := " "
	if current {
		mark = icon.Get(icon.Mark)
	}

	cmd.Printf("%s %s %s %s\n",
		mark,
		style.Fg(color.Purple)(f.ID),
		style.Bold(f.Title),
		style.Faint(util.Quantify(f.TrackCount, "track", "tracks")),
	)

	if f.SourceURL != "" {
		cmd.Printf("    %s %s\n", icon.Get(icon.Link), style.Fg(color.Blue)(f.SourceURL))
	}
}

func init() {
	feedsCmd.AddCommand(feedsTracksCmd)

	feedsTracksCmd.Flags().StringP("filter", "f", "", "Show only tracks whose title fuzzy matches")
	feedsTracksCmd.Flags().BoolP("json", "j", false, "Print tracks as json")
	feedsTracksCmd.SetOut(os.Stdout)
}

var feedsTracksCmd = &cobra.Command{
	Use:   "tracks [feed id]",
	Short: "List the tracks of a feed with saved progress",
	Long:  "List the tracks of a feed with saved progress. The last selected feed is used when no id is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, view, stop := loaded(cmd)
		defer stop()

		if len(args) == 1 && args[0] != view.CurrentFeedID {
			handleErr(s.SelectFeed(args[0]))

			var err error
			view, err = s.View()
			handleErr(err)
		}

		rows := filterRows(view.Tracks, lo.Must(cmd.Flags().GetString("filter")))

		if lo.Must(cmd.Flags().GetBool("json")) {
			printJSON(cmd, rows)
			return
		}

		for _, row := range rows {
			kind := icon.Get(icon.Track)
			if row.Kind == feed.Video {
				kind = icon.Get(icon.Video)
			}

			cmd.Printf("%s %s %s %s\n",
				kind,
				style.Fg(color.Purple)(row.ID),
				style.Bold(row.Title),
				style.Faint(row.FormattedPosition+" / "+row.FormattedDuration),
			)
		}
	},
}

// filterRows keeps rows whose title fuzzy matches query, best match first.
func filterRows(rows []playback.TrackRow, query string) []playback.TrackRow {
	if query == "" {
		return rows
	}

	titles := lo.Map(rows, func(row playback.TrackRow, _ int) string {
		return row.Title
	})

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)

	return lo.Map(ranks, func(rank fuzzy.Rank, _ int) playback.TrackRow {
		return rows[rank.OriginalIndex]
	})
}

func init() {
	feedsCmd.AddCommand(feedsAddCmd)
	feedsAddCmd.SetOut(os.Stdout)
}

var feedsAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Validate a feed URL and add it to the custom feeds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, _, stop := loaded(cmd)
		defer stop()

		e := util.PrintErasable(fmt.Sprintf("%s Validating %s...", icon.Get(icon.Progress), args[0]))
		result, err := s.AddFeedByURL(cmd.Context(), args[0])
		e()
		handleErr(err)

		cmd.Printf("%s Feed added successfully, %s\n", icon.Get(icon.Success), util.Quantify(result.AddedCount, "new feed", "new feeds"))
		if n := len(result.SkippedDuplicateIDs); n > 0 {
			cmd.Printf("%s %s skipped: %v\n", icon.Get(icon.Mark), util.Quantify(n, "duplicate", "duplicates"), result.SkippedDuplicateIDs)
		}
	},
}

func init() {
	feedsCmd.AddCommand(feedsRemoveCmd)
	feedsRemoveCmd.SetOut(os.Stdout)
}

var feedsRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a custom feed URL and its feeds",
	Args:  cobra.ExactArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return customURLs(), cobra.ShellCompDirectiveNoFileComp
	},
	Run: func(cmd *cobra.Command, args []string) {
		s, _, stop := loaded(cmd)
		defer stop()

		removed, err := s.RemoveFeedByURL(args[0])
		if err != nil {
			if closest, ok := closestURL(args[0], customURLs()); ok {
				err = fmt.Errorf("%w\nDid you mean %s?", err, style.Fg(color.Yellow)(closest))
			}
			handleErr(err)
		}

		cmd.Printf("%s Removed %s, %s\n", icon.Get(icon.Success), args[0], util.Quantify(removed, "feed", "feeds"))
	},
}

func customURLs() []string {
	return stateStore().CustomFeedURLs()
}

// closestURL returns the known url with the smallest edit distance to url.
func closestURL(url string, known []string) (string, bool) {
	if len(known) == 0 {
		return "", false
	}

	return lo.MinBy(known, func(a, b string) bool {
		return levenshtein.Distance(a, url) < levenshtein.Distance(b, url)
	}), true
}

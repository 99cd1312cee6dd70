package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/feedcast/feedcast/color"
	"github.com/feedcast/feedcast/config"
	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/icon"
	"github.com/feedcast/feedcast/loader"
	"github.com/feedcast/feedcast/network"
	"github.com/feedcast/feedcast/style"
	"github.com/feedcast/feedcast/util"
	"github.com/feedcast/feedcast/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("target", "t", "", "Feed document to update. Defaults to the configured default feed when it is a local file")
	importCmd.Flags().BoolP("replace", "r", false, "Replace existing feeds instead of appending their new tracks")
	importCmd.Flags().String("id", "", "Feed id for an imported RSS or Atom feed")
	importCmd.SetOut(os.Stdout)
}

var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Merge a feed document or a podcast RSS feed into a local feed document",
	Example: "  " + "feedcast import https://example.com/podcast.rss --id my-show\n" +
		"  " + "feedcast import ./extra.json --target ./feed.json --replace",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := loader.ImportOptions{
			Target:  importTarget(lo.Must(cmd.Flags().GetString("target"))),
			Replace: lo.Must(cmd.Flags().GetBool("replace")),
			FeedID:  lo.Must(cmd.Flags().GetString("id")),
		}

		e := util.PrintErasable(fmt.Sprintf("%s Importing %s...", icon.Get(icon.Progress), args[0]))
		entries, err := loader.New().Import(cmd.Context(), args[0], opts)
		e()
		handleErr(err)

		for _, entry := range entries {
			printImportEntry(cmd, entry)
		}

		cmd.Printf("%s Wrote %s\n", icon.Get(icon.Success), style.Fg(color.Blue)(opts.Target))
	},
}

// importTarget resolves the document to write. A remote default feed cannot be
// written, feed.json in the config directory is used instead.
func importTarget(flag string) string {
	if flag != "" {
		return flag
	}

	if path, ok := network.LocalPath(config.DefaultFeedURL()); ok {
		return path
	}

	return filepath.Join(where.Config(), "feed.json")
}

func printImportEntry(cmd *cobra.Command, entry feed.ImportEntry) {
	action := entry.Action.String()
	switch entry.Action {
	case feed.ImportAdded, feed.ImportReplaced:
		action = style.Fg(color.Green)(action)
	case feed.ImportMerged:
		action = style.Fg(color.Yellow)(action)
	default:
		action = style.Faint(action)
	}

	cmd.Printf("%s %s %s %s\n",
		icon.Get(icon.Feed),
		action,
		style.Fg(color.Purple)(entry.FeedID),
		style.Bold(entry.Title),
	)

	if n := len(entry.AddedTracks); n > 0 && entry.Action == feed.ImportMerged {
		cmd.Printf("    %s\n", util.Quantify(n, "new track", "new tracks"))
	}
	if n := len(entry.ExistedTracks); n > 0 {
		cmd.Printf("    %s\n", style.Faint(util.Quantify(n, "track already present", "tracks already present")))
	}
	if entry.SkippedTracks > 0 {
		cmd.Printf("    %s\n", style.Faint(util.Quantify(entry.SkippedTracks, "track without id skipped", "tracks without id skipped")))
	}
}

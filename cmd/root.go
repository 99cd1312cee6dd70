package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/feedcast/feedcast/color"
	"github.com/feedcast/feedcast/config"
	"github.com/feedcast/feedcast/constant"
	"github.com/feedcast/feedcast/history"
	"github.com/feedcast/feedcast/icon"
	"github.com/feedcast/feedcast/key"
	"github.com/feedcast/feedcast/loader"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/player"
	"github.com/feedcast/feedcast/session"
	"github.com/feedcast/feedcast/storage"
	"github.com/feedcast/feedcast/style"
	"github.com/feedcast/feedcast/tui"
	"github.com/feedcast/feedcast/util"
	"github.com/feedcast/feedcast/version"
	"github.com/feedcast/feedcast/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("feed", "F", "", "Load the default feed document from this URL or path")
	lo.Must0(viper.BindPFlag(key.FeedsDefaultURL, rootCmd.PersistentFlags().Lookup("feed")))

	rootCmd.Flags().StringP("player", "P", "", "Path to the mpv executable")
	lo.Must0(viper.BindPFlag(key.Player, rootCmd.Flags().Lookup("player")))

	rootCmd.Flags().Bool("video", true, "Open a synchronized video window for video tracks")
	lo.Must0(viper.BindPFlag(key.PlayerVideoWindow, rootCmd.Flags().Lookup("video")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Stale player sockets from crashed runs.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.Feedcast,
	Short: "A terminal player for podcast and media feeds",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A terminal player for podcast and media feeds"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		CheckDependencies()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := session.New(session.Options{
			DefaultURL: config.DefaultFeedURL(),
			Loader:     loader.New(),
			Store:      stateStore(),
			Primary:    player.NewMPV(player.Options{Binary: viper.GetString(key.Player), Title: constant.Feedcast}),
			Secondary:  videoPlayer(),
		})

		go func() {
			if err := s.Run(ctx); err != nil && ctx.Err() == nil {
				log.Errorf("session stopped: %s", err)
			}
		}()

		handleErr(tui.Run(ctx, s))
	},
}

func videoPlayer() player.Player {
	if !viper.GetBool(key.PlayerVideoWindow) {
		return nil
	}

	return player.NewMPV(player.Options{
		Binary: viper.GetString(key.Player),
		Video:  true,
		Title:  constant.Feedcast + " video",
	})
}

func stateStore() *history.Store {
	return history.New(storage.NewFile(where.State()))
}

// headless starts a session without a media player, for commands that only
// read or edit the catalog. The returned stop function persists and closes it.
func headless(ctx context.Context) (*session.Session, func()) {
	s := session.New(session.Options{
		DefaultURL: config.DefaultFeedURL(),
		Loader:     loader.New(),
		Store:      stateStore(),
		Primary:    &player.Silent{},
	})

	go func() {
		_ = s.Run(ctx)
	}()

	return s, func() {
		if err := s.Close(); err != nil {
			log.Warnf("close session: %s", err)
		}
	}
}

// Execute runs the root command.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

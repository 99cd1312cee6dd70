package version

import (
	"context"
	"fmt"
	"time"

	"github.com/feedcast/feedcast/color"
	"github.com/feedcast/feedcast/constant"
	"github.com/feedcast/feedcast/icon"
	"github.com/feedcast/feedcast/key"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/style"
	"github.com/feedcast/feedcast/util"
	"github.com/spf13/viper"
)

// Notify prints a notice when a newer release is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	version, err := Latest(ctx)
	erase()
	if err != nil {
		log.Debugf("version check: %s", err)
		return
	}

	if comp, err := Compare(version, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/feedcast/feedcast/releases/tag/v"+version),
	)
}

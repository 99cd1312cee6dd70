package util

import (
	"fmt"
	"math"
)

// UnknownDuration is displayed while a track's duration has not resolved yet.
const UnknownDuration = "--:--"

// FormatTime renders seconds as M:SS with zero-padded seconds.
// Minutes are not wrapped into hours, so 3725 seconds renders as 62:05.
// Negative, NaN and infinite inputs render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}

	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDuration is FormatTime for durations, rendering unknown (non-positive) values as --:--.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return UnknownDuration
	}
	return FormatTime(seconds)
}

// Percent returns position as a percentage of duration clamped to [0, 100].
// An unknown duration yields 0.
func Percent(position, duration float64) float64 {
	if duration <= 0 || math.IsNaN(duration) || math.IsNaN(position) {
		return 0
	}
	return math.Max(0, math.Min(100, position/duration*100))
}

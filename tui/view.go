package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/feedcast/feedcast/color"
	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/icon"
	"github.com/feedcast/feedcast/style"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
)

// nowPlayingHeight is the number of lines the now playing panel takes, its margin included.
const nowPlayingHeight = 6

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
	nowPlayingStyle       = lipgloss.NewStyle().Padding(0, 2).MarginTop(1)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case tracksState:
		output = b.viewTracks()
	case feedsState:
		output = b.viewFeeds()
	case addFeedState:
		output = b.viewAddFeed()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			b.spinnerC.View() + " Fetching feeds...",
		},
	)
}

func (b *statefulBubble) viewTracks() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		listExtraPaddingStyle.Render(b.tracksC.View()),
		nowPlayingStyle.Render(b.viewNowPlaying()),
	)
}

func (b *statefulBubble) viewNowPlaying() string {
	p := b.view.Playback
	if !p.Loaded() {
		return style.Faint("Nothing playing")
	}

	state := icon.Get(icon.Pause)
	if p.Playing {
		state = icon.Get(icon.Play)
	}

	title := style.Fg(color.Purple)(p.Title)
	if p.Kind == feed.Video {
		title += " " + style.Faint(icon.Get(icon.Video))
		if !p.VideoActive {
			title += style.Faint(" (audio only)")
		}
	}

	elapsed := p.Elapsed
	if p.Seeking {
		elapsed = style.Fg(color.Orange)(elapsed)
	}

	status := fmt.Sprintf("%s / %s   %s %sx", elapsed, p.Total, icon.Get(icon.Speed), strconv.FormatFloat(p.Rate, 'f', -1, 64))

	lines := []string{
		style.Truncate(b.width)(state + " " + title),
		b.progressC.ViewAs(p.SeekPercent / 100),
		status,
	}

	if p.Description != "" {
		lines = append(lines, style.Faint(truncate.StringWithTail(strings.Join(strings.Fields(p.Description), " "), uint(b.width), "…")))
	}

	return strings.Join(lines, "\n")
}

func (b *statefulBubble) viewFeeds() string {
	return listExtraPaddingStyle.Render(b.feedsC.View())
}

func (b *statefulBubble) viewAddFeed() string {
	status := style.Faint("A feed document with a feeds array, or a podcast RSS or Atom feed.")
	if b.busy {
		status = b.spinnerC.View() + " Checking..."
	}

	return b.renderLines(
		true,
		[]string{
			style.Title("Add Feed"),
			"",
			b.inputC.View(),
			"",
			status,
		},
	)
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorBody := errorStyle.Render(b.lastError.Error())
	errorMsg := wrap.String(errorBody, b.width)
	return b.renderLines(
		true,
		append([]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
		},
			errorMsg,
		),
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}

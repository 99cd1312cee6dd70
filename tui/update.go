package tui

import (
	"strings"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/feedcast/feedcast/catalog"
	"github.com/feedcast/feedcast/config"
	"github.com/feedcast/feedcast/playback"
	"github.com/feedcast/feedcast/session"
	"github.com/samber/lo"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// plain strings and ui.ClearNotificationMsg
	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case noticeMsg:
		return b, tea.Batch(cmd, b.notifier.Update(string(msg)), b.waitForNotice())
	case session.View:
		return b, tea.Batch(cmd, b.applyView(msg), b.waitForChanges())
	case startedMsg:
		if msg.err != nil {
			b.raiseError(msg.err)
			return b, cmd
		}
		b.newState(tracksState)
		b.selectCurrentTrack()
		return b, cmd
	case seekCommitMsg:
		if msg.seq != b.seekSeq {
			return b, cmd
		}
		b.seekPending = false
		return b, tea.Batch(cmd, b.run(func() error { return b.session.SeekCommit(msg.target) }))
	case sessionClosedMsg:
		return b, tea.Quit
	case error:
		b.raiseError(msg)
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}
	}

	var stateCmd tea.Cmd
	switch b.state {
	case loadingState:
		b.spinnerC, stateCmd = b.spinnerC.Update(msg)
	case tracksState:
		stateCmd = b.updateTracks(msg)
	case feedsState:
		stateCmd = b.updateFeeds(msg)
	case addFeedState:
		stateCmd = b.updateAddFeed(msg)
	case errorState:
		stateCmd = b.updateError(msg)
	}

	return b, tea.Batch(cmd, stateCmd)
}

func (b *statefulBubble) applyView(v session.View) tea.Cmd {
	b.view = v

	title := "Tracks"
	if f, ok := lo.Find(v.Feeds, func(f catalog.FeedSummary) bool { return f.ID == v.CurrentFeedID }); ok {
		title = f.Title
	}
	b.tracksC.Title = title

	if b.seekPending && !v.Playback.Seeking {
		b.seekPending = false
	}

	return tea.Batch(
		b.tracksC.SetItems(trackItems(v.Tracks)),
		b.feedsC.SetItems(feedItems(v.Feeds, v.CurrentFeedID)),
	)
}

func (b *statefulBubble) selectCurrentTrack() {
	if _, i, ok := lo.FindIndexOf(b.view.Tracks, func(r playback.TrackRow) bool { return r.Current }); ok {
		b.tracksC.Select(i)
	}
}

func (b *statefulBubble) selectCurrentFeed() {
	if _, i, ok := lo.FindIndexOf(b.view.Feeds, func(f catalog.FeedSummary) bool { return f.ID == b.view.CurrentFeedID }); ok {
		b.feedsC.Select(i)
	}
}

// playbackKeys handles the bindings shared by every list screen.
func (b *statefulBubble) playbackKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case bubblesKey.Matches(msg, b.keymap.playPause):
		return b.run(b.session.TogglePlayPause), true
	case bubblesKey.Matches(msg, b.keymap.next):
		return b.run(b.session.Next), true
	case bubblesKey.Matches(msg, b.keymap.previous):
		return b.run(b.session.Previous), true
	case bubblesKey.Matches(msg, b.keymap.faster):
		rate := playback.NextRate(b.view.Playback.Rate)
		return b.run(func() error { return b.session.SetRate(rate) }), true
	case bubblesKey.Matches(msg, b.keymap.slower):
		rate := playback.PrevRate(b.view.Playback.Rate)
		return b.run(func() error { return b.session.SetRate(rate) }), true
	case bubblesKey.Matches(msg, b.keymap.reload):
		return b.run(func() error { return b.session.ReloadAll(b.ctx) }), true
	case bubblesKey.Matches(msg, b.keymap.addFeed):
		b.inputC.SetValue("")
		b.inputC.Focus()
		b.newState(addFeedState)
		return nil, true
	}

	return nil, false
}

func (b *statefulBubble) updateTracks(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && b.tracksC.FilterState() != list.Filtering {
		if cmd, handled := b.playbackKeys(msg); handled {
			return cmd
		}

		switch {
		case bubblesKey.Matches(msg, b.keymap.play):
			item, ok := b.tracksC.SelectedItem().(*listItem)
			if !ok {
				return nil
			}
			row := item.internal.(playback.TrackRow)
			return b.run(func() error { return b.session.SelectTrack(row.ID) })
		case bubblesKey.Matches(msg, b.keymap.seekForward):
			return b.seekTo(b.seekBase() + config.SeekStep())
		case bubblesKey.Matches(msg, b.keymap.seekBackward):
			return b.seekTo(b.seekBase() - config.SeekStep())
		case bubblesKey.Matches(msg, b.keymap.feeds):
			b.newState(feedsState)
			b.selectCurrentFeed()
			return nil
		}
	}

	b.tracksC, cmd = b.tracksC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateFeeds(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && b.feedsC.FilterState() != list.Filtering {
		armed := b.clearArmed
		b.clearArmed = false

		if cmd, handled := b.playbackKeys(msg); handled {
			return cmd
		}

		selected, _ := b.feedsC.SelectedItem().(*listItem)

		switch {
		case bubblesKey.Matches(msg, b.keymap.clearState):
			if !armed {
				b.clearArmed = true
				return func() tea.Msg {
					return "Press X again to clear every saved position, speed and custom feed"
				}
			}
			return b.run(func() error { return b.session.ClearState(b.ctx) })
		case bubblesKey.Matches(msg, b.keymap.back) && b.feedsC.FilterState() == list.Unfiltered,
			bubblesKey.Matches(msg, b.keymap.feeds):
			b.previousState()
			return nil
		case bubblesKey.Matches(msg, b.keymap.confirm):
			if selected == nil {
				return nil
			}
			f := selected.internal.(catalog.FeedSummary)
			b.previousState()
			b.tracksC.ResetFilter()
			b.tracksC.Select(0)
			return b.run(func() error { return b.session.SelectFeed(f.ID) })
		case bubblesKey.Matches(msg, b.keymap.removeFeed):
			if selected == nil {
				return nil
			}
			return b.removeFeed(selected.internal.(catalog.FeedSummary))
		case bubblesKey.Matches(msg, b.keymap.openURL):
			if selected == nil {
				return nil
			}
			if f := selected.internal.(catalog.FeedSummary); f.SourceURL != "" {
				return b.openURL(f.SourceURL)
			}
			return nil
		}
	}

	b.feedsC, cmd = b.feedsC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateAddFeed(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case feedAddedMsg:
		b.busy = false
		if msg.err != nil {
			return b.notifier.Update(msg.err.Error())
		}
		b.inputC.SetValue("")
		b.inputC.Blur()
		b.previousState()
		return nil
	case tea.KeyMsg:
		if b.busy {
			return nil
		}

		switch {
		case bubblesKey.Matches(msg, b.keymap.back):
			b.inputC.Blur()
			b.previousState()
			return nil
		case bubblesKey.Matches(msg, b.keymap.confirm):
			url := strings.TrimSpace(b.inputC.Value())
			if url == "" {
				return b.notifier.Update(session.ErrEmptyURL.Error())
			}
			b.busy = true
			return tea.Batch(b.spinnerC.Tick, b.addFeed(url))
		}
	}

	if b.busy {
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return cmd
	}

	b.inputC, cmd = b.inputC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateError(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.quit):
			return tea.Quit
		case bubblesKey.Matches(msg, b.keymap.back):
			b.previousState()
		}
	}
	return nil
}

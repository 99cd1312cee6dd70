package tui

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/feedcast/feedcast/catalog"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/open"
	"github.com/feedcast/feedcast/session"
)

// seekSettle is how long the seek target may stay unchanged before it is committed.
const seekSettle = 600 * time.Millisecond

type (
	startedMsg struct {
		err error
	}

	feedAddedMsg struct {
		result catalog.AddResult
		err    error
	}

	seekCommitMsg struct {
		seq    int
		target float64
	}

	noticeMsg string

	sessionClosedMsg struct{}
)

func (b *statefulBubble) start() tea.Cmd {
	return func() tea.Msg {
		return startedMsg{err: b.session.Start(b.ctx)}
	}
}

// waitForChanges blocks until the session reports a change and returns the fresh view.
func (b *statefulBubble) waitForChanges() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-b.session.Changes():
		case <-b.session.Done():
			return sessionClosedMsg{}
		}

		v, err := b.session.View()
		if errors.Is(err, session.ErrClosed) {
			return sessionClosedMsg{}
		}
		if err != nil {
			return err
		}
		return v
	}
}

func (b *statefulBubble) waitForNotice() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-b.session.Notices():
			return noticeMsg(n)
		case <-b.session.Done():
			return sessionClosedMsg{}
		}
	}
}

// run executes a session command. Failures are shown as a notification, never as the error screen.
func (b *statefulBubble) run(command func() error) tea.Cmd {
	return func() tea.Msg {
		if err := command(); err != nil {
			if errors.Is(err, session.ErrClosed) {
				return sessionClosedMsg{}
			}
			log.Warnf("command failed: %s", err)
			return err.Error()
		}
		return nil
	}
}

func (b *statefulBubble) addFeed(url string) tea.Cmd {
	return func() tea.Msg {
		result, err := b.session.AddFeedByURL(b.ctx, url)
		return feedAddedMsg{result: result, err: err}
	}
}

func (b *statefulBubble) removeFeed(f catalog.FeedSummary) tea.Cmd {
	if f.SourceURL == "" {
		return func() tea.Msg {
			return "Default feeds cannot be removed"
		}
	}

	return b.run(func() error {
		_, err := b.session.RemoveFeedByURL(f.SourceURL)
		return err
	})
}

func (b *statefulBubble) openURL(url string) tea.Cmd {
	return b.run(func() error {
		return open.Start(url)
	})
}

// seekTo moves the pending seek target and schedules its commit once the user stops pressing.
func (b *statefulBubble) seekTo(target float64) tea.Cmd {
	if target < 0 {
		target = 0
	}
	if d := b.view.Playback.Duration; d > 0 && target > d {
		target = d
	}

	b.seekSeq++
	b.seekPending = true
	b.seekTarget = target

	seq := b.seekSeq
	return tea.Batch(
		b.run(func() error { return b.session.SeekDrag(target) }),
		tea.Tick(seekSettle, func(time.Time) tea.Msg {
			return seekCommitMsg{seq: seq, target: target}
		}),
	)
}

func (b *statefulBubble) seekBase() float64 {
	if b.seekPending {
		return b.seekTarget
	}
	return b.view.Playback.Position
}

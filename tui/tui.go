// Package tui provides the interactive terminal player.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/feedcast/feedcast/session"
)

// Run shows the player for s until the user quits. s must already be running.
// The session is closed, and the loaded track persisted, before Run returns.
func Run(ctx context.Context, s *session.Session) error {
	bubble := newBubble(ctx, s)

	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	err = quitErr(ctx, err)

	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

// quitErr reports an interrupted or cancelled program as a normal quit.
func quitErr(ctx context.Context, err error) error {
	if errors.Is(err, tea.ErrInterrupted) || errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
		return nil
	}
	return err
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init starts the session and begins listening for its changes and notices.
func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(b.spinnerC.Tick, b.start(), b.waitForChanges(), b.waitForNotice())
}

// Package ui renders transient notifications at the bottom of the terminal views.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Lifetime is how long a notification stays visible.
const Lifetime = 5 * time.Second

// Model holds the notification currently shown.
type Model struct {
	notification string
	notifiedAt   time.Time
}

// ClearNotificationMsg hides the notification shown at At, unless a newer one replaced it.
type ClearNotificationMsg struct {
	At time.Time
}

// ClearNotification returns a command hiding the notification shown at at after Lifetime.
func ClearNotification(at time.Time) tea.Cmd {
	return tea.Tick(Lifetime, func(time.Time) tea.Msg {
		return ClearNotificationMsg{At: at}
	})
}

// Update shows string messages and handles their expiry.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case string:
		if msg == "" {
			return nil
		}
		m.notification = msg
		m.notifiedAt = time.Now()
		return ClearNotification(m.notifiedAt)
	case ClearNotificationMsg:
		if msg.At.Equal(m.notifiedAt) {
			m.notification = ""
		}
		return nil
	}
	return nil
}

// Notification returns the message currently shown.
func (m *Model) Notification() string {
	return m.notification
}

// View appends the notification to the last line of mainContent.
func (m *Model) View(mainContent string) string {
	if m.notification == "" {
		return mainContent
	}

	lines := strings.Split(mainContent, "\n")
	notifier := "\033[90m" + m.notification + "\033[0m"

	if len(lines) > 0 {
		lines[len(lines)-1] = lines[len(lines)-1] + "  " + notifier
	}
	return strings.Join(lines, "\n")
}

package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	State     client.ConnState
	Endpoint  string
	SessionID string
	Widget    string
	Attempts  int
	Dropped   int
	Width     int
}

// New creates a status bar model.
func New(widget, endpoint string) Model {
	return Model{
		State:    client.StateConnecting,
		Endpoint: endpoint,
		Widget:   widget,
	}
}

// SetState records a connection transition. Reconnect attempts are counted
// from the last successful open.
func (m *Model) SetState(s client.ConnState) {
	switch s {
	case client.StateOpen:
		m.Attempts = 0
	case client.StateClosed:
		m.Attempts++
	}
	m.State = s
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch m.State {
	case client.StateOpen:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	case client.StateClosed:
		label := "○ Disconnected"
		if m.Attempts > 0 {
			label = fmt.Sprintf("○ Reconnecting (%d)", m.Attempts)
		}
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render(label)
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("○ Connecting...")
	}

	parts := []string{connStr, m.Widget, m.Endpoint}
	if m.SessionID != "" {
		parts = append(parts, theme.StyleDimmed.Render(shortID(m.SessionID)))
	}
	if m.Dropped > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(
			fmt.Sprintf("%d dropped", m.Dropped),
		))
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := strings.Join(parts, sep)

	bar := lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)

	return bar
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

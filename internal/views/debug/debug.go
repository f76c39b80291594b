// Package debug provides a scrollable event log overlay for protocol
// traffic: envelopes in and out, dropped frames, timers and connection
// changes.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/newm-panel/tui/internal/theme"
)

const maxEntries = 200

// Event kinds.
const (
	KindIn     = "in"
	KindOut    = "out"
	KindDrop   = "drop"
	KindConn   = "conn"
	KindConfig = "cfg"
	KindErr    = "err"
)

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    string
	Message string
}

// Model holds debug log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
	counts  map[string]int
}

// New creates an empty debug model.
func New() Model {
	return Model{counts: make(map[string]int)}
}

// Add appends a log entry and caps the buffer.
func (m *Model) Add(kind, message string) {
	m.Entries = append(m.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	if m.counts == nil {
		m.counts = make(map[string]int)
	}
	m.counts[kind]++
	m.Offset = 0
}

// Addf is Add with a format string.
func (m *Model) Addf(kind, format string, args ...any) {
	m.Add(kind, fmt.Sprintf(format, args...))
}

// Count returns how many events of kind were ever added, including ones
// already evicted from the buffer.
func (m Model) Count(kind string) int { return m.counts[kind] }

// ScrollUp moves the viewport up.
func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

// ScrollDown moves the viewport down.
func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

func panelStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)
}

// View renders the debug log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 20)
	visibleLines := max(height-6, 3)

	title := theme.StyleHeader.Render(" DEBUG LOG ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("pgup/pgdn:scroll  esc:close  %d in  %d out  %d dropped",
		m.Count(KindIn), m.Count(KindOut), m.Count(KindDrop)))

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  No events recorded yet.")
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help)
		return panelStyle(innerW).Render(content)
	}

	end := max(len(m.Entries)-m.Offset, 0)
	start := max(end-visibleLines, 0)

	var lines []string
	for _, e := range m.Entries[start:end] {
		tsStr := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kindStr := lipgloss.NewStyle().Foreground(kindToColor(e.Kind)).Width(4).Render(e.Kind)
		lines = append(lines, fmt.Sprintf("%s %s %s", tsStr, kindStr, clip(e.Message, innerW-20)))
	}

	body := strings.Join(lines, "\n")
	scrollIndicator := ""
	if m.Offset > 0 {
		scrollIndicator = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", m.Offset))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body, scrollIndicator, help)
	return panelStyle(innerW).Render(content)
}

func clip(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func kindToColor(kind string) lipgloss.Color {
	switch kind {
	case KindIn:
		return theme.ColorInfo
	case KindOut:
		return theme.ColorAccent
	case KindDrop, KindErr:
		return theme.ColorDanger
	case KindConn:
		return theme.ColorHealthy
	case KindConfig:
		return theme.ColorWarning
	default:
		return theme.ColorDimmed
	}
}

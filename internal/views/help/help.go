// Package help renders the key binding overlay as markdown through glamour.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/newm-panel/tui/internal/theme"
)

// Section is a titled group of bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Model caches the rendered overlay per width.
type Model struct {
	sections []Section
	width    int
	rendered string
}

// New creates a help overlay for sections.
func New(sections ...Section) Model {
	return Model{sections: sections}
}

// Markdown returns the overlay source.
func (m Model) Markdown() string {
	var b strings.Builder
	b.WriteString("# Keys\n")
	for _, s := range m.sections {
		var rows []string
		for _, k := range s.Bindings {
			if !k.Enabled() {
				continue
			}
			h := k.Help()
			rows = append(rows, fmt.Sprintf("| `%s` | %s |", h.Key, h.Desc))
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n| key | action |\n| --- | --- |\n%s\n", s.Title, strings.Join(rows, "\n"))
	}
	return b.String()
}

// View renders the overlay at width, re-rendering only when width changes.
func (m *Model) View(width int) string {
	if m.rendered == "" || width != m.width {
		m.width = width
		m.rendered = m.render(width)
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(m.rendered)
}

func (m Model) render(width int) string {
	src := m.Markdown()
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return src
	}
	out, err := r.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}

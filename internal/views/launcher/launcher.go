package launcher

import (
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/config"
	"github.com/newm-panel/tui/internal/theme"
	"github.com/newm-panel/tui/internal/views/fade"
	"github.com/sahilm/fuzzy"
)

const cellWidth = 14

// KeyMap defines the launcher bindings. Printable keys always go to the
// search query, so navigation is on arrows only.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Left      key.Binding
	Right     key.Binding
	Launch    key.Binding
	Backspace key.Binding
	Clear     key.Binding
}

// DefaultKeyMap returns the default launcher bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "row up")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "row down")),
		Left:      key.NewBinding(key.WithKeys("left", "shift+tab"), key.WithHelp("←", "previous entry")),
		Right:     key.NewBinding(key.WithKeys("right", "tab"), key.WithHelp("→", "next entry")),
		Launch:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "launch selected entry")),
		Backspace: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "edit search")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear search")),
	}
}

// Model is the launcher widget.
type Model struct {
	sender client.Sender
	keys   KeyMap

	state     State
	fade      fade.Model
	entries   []config.Entry
	shortcuts map[string]string
	rowWidth  int

	query  string
	cursor int

	Width  int
	Height int
}

// New creates a launcher sending through sender.
func New(sender client.Sender, cfg config.LauncherConfig) Model {
	m := Model{
		sender: sender,
		keys:   DefaultKeyMap(),
		fade:   fade.New(),
	}
	m.applyConfig(cfg)
	return m
}

func (m *Model) applyConfig(cfg config.LauncherConfig) {
	m.entries = cfg.Entries
	m.shortcuts = cfg.Shortcuts
	m.rowWidth = max(cfg.RowWidth, 1)
	m.clampCursor()
}

// State returns the activation state.
func (m Model) State() State { return m.state }

// Query returns the current search text.
func (m Model) Query() string { return m.query }

// Selected returns the entry under the cursor.
func (m Model) Selected() (config.Entry, bool) {
	vis := m.Visible()
	if m.cursor < 0 || m.cursor >= len(vis) {
		return config.Entry{}, false
	}
	return vis[m.cursor], true
}

// Visible returns the entries matching the query, best match first.
func (m Model) Visible() []config.Entry {
	if m.query == "" {
		return m.entries
	}
	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.Name
	}
	matches := fuzzy.Find(m.query, names)
	out := make([]config.Entry, 0, len(matches))
	for _, match := range matches {
		out = append(out, m.entries[match.Index])
	}
	return out
}

func (m Model) Name() string { return "launcher" }

// Help lists the launcher bindings.
func (m Model) Help() []key.Binding {
	return []key.Binding{m.keys.Left, m.keys.Right, m.keys.Up, m.keys.Down, m.keys.Launch, m.keys.Backspace, m.keys.Clear}
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case client.ActivateLauncher:
		m.state = m.state.Reduce(msg)
		var cmd tea.Cmd
		m.fade, cmd = m.fade.SetTarget(m.state.Opacity)
		return m, cmd

	case fade.FrameMsg:
		var cmd tea.Cmd
		m.fade, cmd = m.fade.Update(msg)
		return m, cmd

	case config.ReloadedMsg:
		m.applyConfig(msg.Config.Launcher)
		return m, nil

	case tea.KeyMsg:
		if !m.state.Active() {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.Visible())

	switch {
	case key.Matches(msg, m.keys.Launch):
		e, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m.launch(e)

	case key.Matches(msg, m.keys.Right):
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Left):
		if n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor+m.rowWidth < n {
			m.cursor += m.rowWidth
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor-m.rowWidth >= 0 {
			m.cursor -= m.rowWidth
		}
		return m, nil

	case key.Matches(msg, m.keys.Backspace):
		if r := []rune(m.query); len(r) > 0 {
			m.query = string(r[:len(r)-1])
		}
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.query = ""
		m.cursor = 0
		return m, nil
	}

	switch msg.Type {
	case tea.KeySpace:
		m.query += " "
		m.cursor = 0
	case tea.KeyRunes:
		m.query += string(msg.Runes)
		m.cursor = 0
		if name, ok := m.shortcuts[m.query]; ok && isDigits(m.query) {
			if e, ok := m.entry(name); ok {
				return m.launch(e)
			}
		}
	}
	return m, nil
}

func (m Model) entry(name string) (config.Entry, bool) {
	for _, e := range m.entries {
		if e.Name == name {
			return e, true
		}
	}
	return config.Entry{}, false
}

func (m Model) launch(e config.Entry) (tea.Model, tea.Cmd) {
	m.query = ""
	m.cursor = 0
	return m, client.SendCmd(m.sender, Launch(e.Cmd))
}

func (m *Model) clampCursor() {
	if n := len(m.Visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// View renders the entry grid at the current fade opacity.
func (m Model) View() string {
	opacity := m.fade.Shown()
	if opacity <= 0.01 {
		return ""
	}

	fg := theme.Fade(opacity)
	cell := lipgloss.NewStyle().Width(cellWidth).Padding(0, 1).Foreground(fg)
	selected := cell.Bold(true).Background(theme.Blend(theme.ColorBg, theme.ColorAccent, opacity))

	vis := m.Visible()
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Foreground(fg).Render("  > "+m.query))

	for r, row := range Rows(vis, m.rowWidth) {
		var cells []string
		for c, e := range row {
			style := cell
			if r*m.rowWidth+c == m.cursor {
				style = selected
			}
			cells = append(cells, style.Render(truncate(e.Name, cellWidth-2)))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	if len(vis) == 0 {
		lines = append(lines, theme.StyleDimmed.Render("  No matching entries"))
	}

	if len(m.shortcuts) > 0 {
		var parts []string
		for _, k := range sortedKeys(m.shortcuts) {
			parts = append(parts, k+" "+m.shortcuts[k])
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.Blend(theme.ColorBg, theme.ColorDimmed, opacity)).
			Render("  "+strings.Join(parts, "   ")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

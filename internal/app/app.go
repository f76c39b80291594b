package app

import (
	"context"
	"fmt"
	"log"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/config"
	"github.com/newm-panel/tui/internal/theme"
	"github.com/newm-panel/tui/internal/views/debug"
	"github.com/newm-panel/tui/internal/views/help"
	"github.com/newm-panel/tui/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayDebug
)

// Widget is a panel widget hosted by the app. It receives every decoded
// envelope, its own timer messages, sizes and keys not taken by the app.
type Widget interface {
	tea.Model
	Name() string
	Help() []key.Binding
}

// chromeHeight is the status bar plus the footer line.
const chromeHeight = 4

// Model is the root Bubble Tea model.
type Model struct {
	session *client.Session
	widget  Widget
	reloads <-chan *config.Config
	ctx     context.Context
	cancel  context.CancelFunc

	keys    KeyMap
	width   int
	height  int
	overlay Overlay

	statusBar status.Model
	debugLog  debug.Model
	help      help.Model
}

// Option configures the root model.
type Option func(*Model)

// WithReloads feeds configs delivered by config.Watch to the widget.
func WithReloads(ch <-chan *config.Config) Option {
	return func(m *Model) { m.reloads = ch }
}

// New creates the root model hosting w on session.
func New(session *client.Session, w Widget, opts ...Option) Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys := DefaultKeyMap()
	m := Model{
		session:   session,
		widget:    w,
		ctx:       ctx,
		cancel:    cancel,
		keys:      keys,
		statusBar: status.New(w.Name(), session.Endpoint()),
		debugLog:  debug.New(),
		help: help.New(
			help.Section{Title: "Global", Bindings: keys.bindings()},
			help.Section{Title: w.Name(), Bindings: w.Help()},
		),
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Widget returns the hosted widget.
func (m Model) Widget() Widget { return m.widget }

// Overlay returns the active overlay.
func (m Model) Overlay() Overlay { return m.overlay }

// Init starts the connection, the widget and the config watcher.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.session.Listen(m.ctx), m.widget.Init(), m.nextReload())
}

func (m Model) nextReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	ch := m.reloads
	return func() tea.Msg { return config.Next(ch) }
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.help.View(msg.Width)
		return m.forward(tea.WindowSizeMsg{Width: msg.Width, Height: max(msg.Height-chromeHeight, 0)})

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.ConnectedMsg:
		m.statusBar.SetState(client.StateOpen)
		m.statusBar.SessionID = msg.SessionID
		m.debugLog.Addf(debug.KindConn, "open %s", m.session.Endpoint())
		return m, m.session.ReadLoop()

	case client.DisconnectedMsg:
		m.statusBar.SetState(client.StateClosed)
		m.debugLog.Addf(debug.KindConn, "closed: %v", msg.Err)
		return m, m.session.Listen(m.ctx)

	case client.DroppedMsg:
		m.statusBar.Dropped++
		m.debugLog.Addf(debug.KindDrop, "%v: %s", msg.Err, msg.Raw)
		return m, m.session.ReadLoop()

	case client.SentMsg:
		if msg.Err != nil {
			m.debugLog.Addf(debug.KindErr, "send %s: %v", msg.Envelope.Kind(), msg.Err)
			log.Printf("send %s: %v", msg.Envelope.Kind(), msg.Err)
		} else {
			m.debugLog.Add(debug.KindOut, describe(msg.Envelope))
		}
		return m.forward(msg)

	case config.ReloadedMsg:
		m.debugLog.Add(debug.KindConfig, "reloaded")
		m2, cmd := m.forward(msg)
		return m2, tea.Batch(cmd, m.nextReload())

	case client.Envelope:
		m.debugLog.Add(debug.KindIn, describe(msg))
		m2, cmd := m.forward(msg)
		return m2, tea.Batch(cmd, m.session.ReadLoop())
	}

	return m.forward(msg)
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.widget.Update(msg)
	m.widget = next.(Widget)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		if err := m.session.Close(); err != nil {
			log.Printf("close session: %v", err)
		}
		return m, tea.Quit
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.overlay = toggle(m.overlay, OverlayHelp)
		return m, nil
	case key.Matches(msg, m.keys.Debug):
		m.overlay = toggle(m.overlay, OverlayDebug)
		return m, nil
	}

	if m.overlay == OverlayNone {
		return m.forward(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.overlay = OverlayNone
	case m.overlay == OverlayDebug && key.Matches(msg, m.keys.PageUp):
		m.debugLog.ScrollUp(5)
	case m.overlay == OverlayDebug && key.Matches(msg, m.keys.PageDown):
		m.debugLog.ScrollDown(5)
	}
	return m, nil
}

func toggle(cur, o Overlay) Overlay {
	if cur == o {
		return OverlayNone
	}
	return o
}

func describe(e client.Envelope) string {
	switch e := e.(type) {
	case client.AuthEnterCred:
		// Never log the credential.
		return fmt.Sprintf("%s cred=(%d chars)", e.Kind(), len([]rune(e.Cred)))
	case client.Register, client.AuthRegister:
		return string(e.Kind())
	default:
		return fmt.Sprintf("%s %+v", e.Kind(), e)
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case OverlayHelp:
		body = m.help.View(m.width)
	case OverlayDebug:
		body = m.debugLog.View(m.width, m.height-chromeHeight)
	default:
		body = m.widget.View()
		if m.statusBar.State == client.StateClosed {
			body = lipgloss.JoinVertical(lipgloss.Left, m.renderDisconnected(), body)
		}
	}

	footer := theme.StyleDimmed.Render("  f1:help  f2:debug  ctrl+c:quit")
	return lipgloss.JoinVertical(lipgloss.Left, m.statusBar.View(), body, footer)
}

func (m Model) renderDisconnected() string {
	return lipgloss.NewStyle().
		Foreground(theme.ColorDanger).
		Bold(true).
		Padding(0, 1).
		Render(fmt.Sprintf("DISCONNECTED from %s. Reconnecting...", m.session.Endpoint()))
}

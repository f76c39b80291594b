package lock

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/config"
	"github.com/newm-panel/tui/internal/theme"
	"github.com/newm-panel/tui/internal/views/fade"
)

// focusMsg fires focus_delay after a credential request.
type focusMsg struct {
	seq int
}

// KeyMap defines the lock screen bindings.
type KeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
}

// DefaultKeyMap returns the default lock screen bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:   key.NewBinding(key.WithKeys("down", "tab"), key.WithHelp("↓/tab", "next user")),
		Prev:   key.NewBinding(key.WithKeys("up", "shift+tab"), key.WithHelp("↑/shift+tab", "previous user")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose user / submit")),
	}
}

// Model is the lock screen widget.
type Model struct {
	sender client.Sender
	keys   KeyMap

	state      State
	input      textinput.Model
	spinner    spinner.Model
	fade       fade.Model
	focusDelay time.Duration

	Width  int
	Height int
}

// New creates a lock screen sending through sender.
func New(sender client.Sender, cfg config.LockConfig) Model {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 32

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorChecking)

	return Model{
		sender:     sender,
		keys:       DefaultKeyMap(),
		state:      NewState(),
		input:      ti,
		spinner:    sp,
		fade:       fade.New().Snap(1),
		focusDelay: cfg.FocusDelay,
	}
}

// State returns the auth flow state.
func (m Model) State() State { return m.state }

// Focused reports whether the credential field has focus.
func (m Model) Focused() bool { return m.input.Focused() }

func (m Model) Name() string { return "lock" }

// Help lists the lock screen bindings.
func (m Model) Help() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Prev, m.keys.Submit}
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case client.AuthRequestUser, client.AuthRequestCred:
		return m.reduce(msg.(client.Envelope))

	case focusMsg:
		if !m.state.FocusDue(msg.seq) {
			return m, nil
		}
		return m, m.input.Focus()

	case fade.FrameMsg:
		var cmd tea.Cmd
		m.fade, cmd = m.fade.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.state.Checking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case client.SentMsg:
		// The backend never saw this frame, so no prompt will end the check.
		if _, ok := msg.Envelope.(client.AuthEnterCred); ok && msg.Err != nil {
			m.state.Checking = false
			return m, m.input.Focus()
		}
		return m, nil

	case config.ReloadedMsg:
		m.focusDelay = msg.Config.Lock.FocusDelay
		return m, nil

	case tea.KeyMsg:
		if m.state.Phase == PhaseChooseUser {
			return m.chooseKey(msg)
		}
		return m.credKey(msg)
	}
	return m, nil
}

func (m Model) reduce(e client.Envelope) (tea.Model, tea.Cmd) {
	prev := m.state.Phase
	var eff Effect
	m.state, eff = m.state.Reduce(e)

	m.input.Blur()
	if eff != EffectFocusCredential {
		m.input.SetValue("")
		return m, nil
	}

	m.input.SetValue(m.state.Credential)
	cmds := []tea.Cmd{m.focusAfter(m.state.CredSeq)}
	if prev != PhaseEnterCred {
		var cmd tea.Cmd
		m.fade, cmd = m.fade.Snap(0).SetTarget(1)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) focusAfter(seq int) tea.Cmd {
	return tea.Tick(m.focusDelay, func(time.Time) tea.Msg {
		return focusMsg{seq: seq}
	})
}

func (m Model) chooseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		m.state = m.state.SelectNext()
	case key.Matches(msg, m.keys.Prev):
		m.state = m.state.SelectPrev()
	case key.Matches(msg, m.keys.Submit):
		var env client.Envelope
		m.state, env = m.state.ChooseSelected()
		if env != nil {
			return m, client.SendCmd(m.sender, env)
		}
	}
	return m, nil
}

func (m Model) credKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.state.CanEdit() {
		return m, nil
	}
	if key.Matches(msg, m.keys.Submit) {
		var env client.Envelope
		m.state, env = m.state.SubmitCredential()
		if env == nil {
			return m, nil
		}
		m.input.Blur()
		return m, tea.Batch(client.SendCmd(m.sender, env), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.state = m.state.EditCredential(m.input.Value())
	return m, cmd
}

// View renders the current auth step.
func (m Model) View() string {
	header := theme.StyleHeader.Render("Locked")
	var body string
	if m.state.Phase == PhaseChooseUser {
		body = m.viewUsers()
	} else {
		body = m.viewCred()
	}

	box := theme.StyleBorder.Padding(1, 3).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body))
	if m.Width == 0 || m.Height == 0 {
		return box
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) viewUsers() string {
	if len(m.state.Users) == 0 {
		return theme.StyleDimmed.Render("Waiting for users…")
	}
	user := lipgloss.NewStyle().Foreground(theme.ColorUser)
	var b strings.Builder
	for i, u := range m.state.Users {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i == m.state.Cursor {
			b.WriteString(theme.StyleSelected.Render(" " + u + " "))
		} else {
			b.WriteString(user.Render(" " + u + " "))
		}
	}
	return b.String()
}

func (m Model) viewCred() string {
	fg := theme.Blend(theme.ColorBg, theme.ColorPrompt, m.fade.Shown())
	user := lipgloss.NewStyle().Bold(true).Foreground(theme.Blend(theme.ColorBg, theme.ColorUser, m.fade.Shown()))
	prompt := lipgloss.NewStyle().Foreground(fg)

	lines := []string{
		user.Render(m.state.SelectedUser),
		prompt.Render(m.state.Prompt),
		m.input.View(),
	}
	if m.state.Checking {
		lines = append(lines, m.spinner.View()+lipgloss.NewStyle().Foreground(theme.ColorChecking).Render("checking"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

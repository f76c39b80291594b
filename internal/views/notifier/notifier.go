package notifier

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/config"
	"github.com/newm-panel/tui/internal/theme"
	"github.com/newm-panel/tui/internal/views/fade"
)

const barWidth = 24

// hideMsg is the deferred hide check for the reading with seq.
type hideMsg struct {
	seq int
	at  time.Time
}

// Model is the notifier widget.
type Model struct {
	state     State
	uptime    time.Duration
	hideAfter time.Duration
	fade      fade.Model
	now       func() time.Time

	Width  int
	Height int
}

// New creates a notifier using the hold times from cfg.
func New(cfg config.NotifierConfig) Model {
	return Model{
		uptime:    cfg.Uptime,
		hideAfter: cfg.HideAfter(),
		fade:      fade.New(),
		now:       time.Now,
	}
}

// State returns the notifier state.
func (m Model) State() State { return m.state }

func (m Model) Name() string { return "notifiers" }

func (m Model) Help() []key.Binding { return nil }

func (m Model) Init() tea.Cmd { return nil }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case client.SysBackend:
		next, ok := m.state.Apply(msg, m.now(), m.uptime)
		if !ok {
			if ind, _, present := msg.Reading(); present {
				log.Printf("notifier: %s reading held back by battery warning", ind)
			}
			return m, nil
		}
		m.state = next
		m.fade = m.fade.Snap(1)
		return m, m.scheduleHide(next.Seq)

	case hideMsg:
		was := m.state.Visible()
		m.state = m.state.Recheck(msg.seq, msg.at)
		if was && !m.state.Visible() {
			var cmd tea.Cmd
			m.fade, cmd = m.fade.SetTarget(0)
			return m, cmd
		}
		return m, nil

	case fade.FrameMsg:
		var cmd tea.Cmd
		m.fade, cmd = m.fade.Update(msg)
		return m, cmd

	case config.ReloadedMsg:
		m.uptime = msg.Config.Notifier.Uptime
		m.hideAfter = msg.Config.Notifier.HideAfter()
		return m, nil
	}
	return m, nil
}

func (m Model) scheduleHide(seq int) tea.Cmd {
	return tea.Tick(m.hideAfter, func(t time.Time) tea.Msg {
		return hideMsg{seq: seq, at: t}
	})
}

// View renders the current indicator at its fade opacity.
func (m Model) View() string {
	opacity := m.fade.Shown()
	if m.state.Indicator == client.IndicatorNone || opacity <= 0.01 {
		return ""
	}

	ind := string(m.state.Indicator)
	color := theme.Blend(theme.ColorBg, theme.IndicatorColor(ind), opacity)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithoutPercentage(),
		progress.WithWidth(barWidth),
	)
	bar.EmptyColor = string(theme.Blend(theme.ColorBg, theme.ColorBorder, opacity))

	label := lipgloss.NewStyle().Foreground(color).Bold(true)
	text := lipgloss.NewStyle().Foreground(theme.Fade(opacity))

	line := lipgloss.JoinHorizontal(lipgloss.Center,
		label.Render(theme.IndicatorGlyph(ind)+" "),
		bar.ViewAs(m.state.Value),
		text.Render(fmt.Sprintf(" %3d%%", m.state.Percent())),
	)
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Blend(theme.ColorBg, theme.ColorBorder, opacity)).
		Padding(0, 1).
		Render(line)

	if m.Width == 0 || m.Height == 0 {
		return box
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Bottom, box)
}

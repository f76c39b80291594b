// Package fade animates a displayed opacity towards a target with a
// harmonica spring. It only affects rendering; widget state keeps the exact
// target value.
package fade

import (
	"math"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const (
	fps       = 60
	frequency = 12.0
	damping   = 1.0
	settle    = 0.002
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// FrameMsg advances one animation frame of the fade with the matching id.
type FrameMsg struct {
	id  int
	tag int
}

// Model is a spring-driven opacity.
type Model struct {
	id        int
	tag       int
	spring    harmonica.Spring
	shown     float64
	velocity  float64
	target    float64
	animating bool
}

// New returns a fade resting at opacity 0.
func New() Model {
	return Model{
		id:     nextID(),
		spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
	}
}

// Shown is the opacity to render, clamped to [0,1].
func (m Model) Shown() float64 {
	return math.Max(0, math.Min(1, m.shown))
}

// Target is the opacity the fade is heading to.
func (m Model) Target() float64 { return m.target }

// Animating reports whether frames are still being scheduled.
func (m Model) Animating() bool { return m.animating }

// SetTarget starts moving towards t. Only one frame loop runs at a time.
func (m Model) SetTarget(t float64) (Model, tea.Cmd) {
	m.target = t
	if m.animating || m.settled() {
		return m, nil
	}
	m.animating = true
	m.tag++
	return m, m.frame()
}

// Snap jumps to t without animating.
func (m Model) Snap(t float64) Model {
	m.target = t
	m.shown = t
	m.velocity = 0
	m.animating = false
	m.tag++
	return m
}

// Update handles FrameMsg for this fade; other messages are ignored.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	f, ok := msg.(FrameMsg)
	if !ok || f.id != m.id || f.tag != m.tag || !m.animating {
		return m, nil
	}

	m.shown, m.velocity = m.spring.Update(m.shown, m.velocity, m.target)
	if m.settled() {
		m.shown = m.target
		m.velocity = 0
		m.animating = false
		return m, nil
	}
	return m, m.frame()
}

func (m Model) settled() bool {
	return math.Abs(m.shown-m.target) < settle && math.Abs(m.velocity) < settle
}

func (m Model) frame() tea.Cmd {
	id, tag := m.id, m.tag
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg {
		return FrameMsg{id: id, tag: tag}
	})
}

// Package launcher implements the app launcher widget: a grid of configured
// entries whose visibility is driven by activate_launcher messages.
package launcher

import (
	"math"

	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/config"
)

// State is the launcher activation state observed by rendering.
type State struct {
	// Opacity is at most 1. There is no lower clamp: the backend only ever
	// overshoots upwards during a gesture.
	Opacity float64
}

// Reduce applies an envelope. Only activate_launcher is understood.
func (s State) Reduce(e client.Envelope) State {
	if a, ok := e.(client.ActivateLauncher); ok {
		return State{Opacity: math.Min(1.0, a.Value)}
	}
	return s
}

// Active reports whether the launcher is at least partly shown.
func (s State) Active() bool { return s.Opacity > 0 }

// Launch builds the outbound request for cmd. Nothing reports back whether
// the process started.
func Launch(cmd string) client.LaunchApp {
	return client.LaunchApp{App: cmd}
}

// Rows partitions entries into rows of width for layout.
func Rows(entries []config.Entry, width int) [][]config.Entry {
	if width < 1 {
		width = 1
	}
	var rows [][]config.Entry
	for i := 0; i < len(entries); i += width {
		rows = append(rows, entries[i:min(i+width, len(entries))])
	}
	return rows
}

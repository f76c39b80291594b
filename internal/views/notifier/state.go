// Package notifier shows transient indicator popups (backlight, keyboard
// light, volume, battery) from sys_backend messages and hides them again
// once the hold time passes without a newer reading.
package notifier

import (
	"math"
	"time"

	"github.com/newm-panel/tui/internal/client"
)

// State is the notifier state. A zero ExpiresAt means nothing is held;
// Indicator and Value are kept after expiry so the popup can fade out.
type State struct {
	Indicator client.Indicator
	Value     float64
	ExpiresAt time.Time
	// Seq increments on every applied reading and identifies the hide check
	// scheduled for it.
	Seq int
}

// Apply folds a reading received at now into the state. It reports false
// when the reading was discarded: a battery warning still inside its hold
// window is never replaced by another indicator. Battery readings always
// apply.
func (s State) Apply(ev client.SysBackend, now time.Time, uptime time.Duration) (State, bool) {
	ind, v, ok := ev.Reading()
	if !ok {
		return s, false
	}
	if s.holdsBattery(now) && ind != client.IndicatorBattery {
		return s, false
	}
	return State{
		Indicator: ind,
		Value:     v,
		ExpiresAt: now.Add(uptime),
		Seq:       s.Seq + 1,
	}, true
}

func (s State) holdsBattery(now time.Time) bool {
	return s.Indicator == client.IndicatorBattery && s.Visible() && now.Before(s.ExpiresAt)
}

// Recheck runs the hide check scheduled for seq. It clears the hold only if
// no newer reading has arrived and the hold has passed; otherwise it is a
// no-op.
func (s State) Recheck(seq int, now time.Time) State {
	if seq != s.Seq || !s.Visible() || now.Before(s.ExpiresAt) {
		return s
	}
	s.ExpiresAt = time.Time{}
	return s
}

// Visible reports whether a reading is being held on screen.
func (s State) Visible() bool { return !s.ExpiresAt.IsZero() }

// Percent is Value as a rounded percentage.
func (s State) Percent() int {
	return int(math.Round(s.Value * 100))
}

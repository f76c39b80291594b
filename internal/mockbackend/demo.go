package mockbackend

import (
	"context"
	"time"

	"github.com/newm-panel/tui/internal/client"
)

// Step is one scripted push of the demo feed.
type Step struct {
	Name string
	Push func(*Server) int
}

// DemoScript returns the steps RunDemo cycles through: a launcher swipe
// with overshoot, a few indicator readings and a battery warning that holds
// off the volume reading right behind it.
func DemoScript() []Step {
	launcher := func(v float64) Step {
		return Step{Name: "activate_launcher", Push: func(s *Server) int { return s.ActivateLauncher(v) }}
	}
	indicator := func(ind client.Indicator, v float64) Step {
		return Step{Name: string(ind), Push: func(s *Server) int { return s.Indicator(ind, v) }}
	}
	return []Step{
		launcher(0.2),
		launcher(0.6),
		launcher(1.15),
		launcher(0),
		indicator(client.IndicatorVolume, 0.35),
		indicator(client.IndicatorVolume, 0.4),
		indicator(client.IndicatorBacklight, 0.8),
		indicator(client.IndicatorKbdlight, 0.5),
		indicator(client.IndicatorBattery, 0.07),
		indicator(client.IndicatorVolume, 0.45),
	}
}

// RunDemo plays DemoScript on s every interval, looping until ctx ends.
func RunDemo(ctx context.Context, s *Server, interval time.Duration) error {
	script := DemoScript()
	t := time.NewTicker(interval)
	defer t.Stop()

	for i := 0; ; i = (i + 1) % len(script) {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			script[i].Push(s)
		}
	}
}

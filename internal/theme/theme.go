// Package theme provides the Lip Gloss color palette and reusable styles
// for the panel widgets. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Indicator colors.
var (
	ColorBacklight = lipgloss.Color("#facc15")
	ColorKbdlight  = lipgloss.Color("#67e8f9")
	ColorVolume    = lipgloss.Color("#3b82f6")
	ColorBattery   = lipgloss.Color("#dc2626")
	ColorDefault   = lipgloss.Color("#9ca3af")
)

// Lock screen colors.
var (
	ColorUser     = lipgloss.Color("#a855f7")
	ColorPrompt   = lipgloss.Color("#f9fafb")
	ColorChecking = lipgloss.Color("#d97706")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
	ColorInfo    = lipgloss.Color("#2563eb")
	ColorAccent  = lipgloss.Color("#7c3aed")
)

// IndicatorColor returns the color for an indicator name.
func IndicatorColor(indicator string) lipgloss.Color {
	switch indicator {
	case "backlight":
		return ColorBacklight
	case "kbdlight":
		return ColorKbdlight
	case "volume":
		return ColorVolume
	case "battery":
		return ColorBattery
	default:
		return ColorDefault
	}
}

// IndicatorGlyph returns a Unicode glyph representing an indicator.
func IndicatorGlyph(indicator string) string {
	switch indicator {
	case "backlight":
		return "☀"
	case "kbdlight":
		return "⌨"
	case "volume":
		return "♪"
	case "battery":
		return "▮"
	default:
		return "·"
	}
}

// Fade blends the bright foreground towards the background. opacity is
// clamped to [0,1]; 0 yields the background color.
func Fade(opacity float64) lipgloss.Color {
	return Blend(ColorBg, ColorBright, opacity)
}

// Blend mixes two #rrggbb colors; t=0 is from, t=1 is to.
func Blend(from, to lipgloss.Color, t float64) lipgloss.Color {
	t = math.Max(0, math.Min(1, t))
	fr, fg, fb := rgb(from)
	tr, tg, tb := rgb(to)
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", mix(fr, tr), mix(fg, tg), mix(fb, tb)))
}

func rgb(c lipgloss.Color) (r, g, b uint8) {
	fmt.Sscanf(string(c), "#%02x%02x%02x", &r, &g, &b)
	return
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright).
			Background(ColorAccent)
)

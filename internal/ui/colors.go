package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Neon palette shared by the dashboard and CLI output.
const (
	ColorNeonPink    lipgloss.Color = "#FF2E97"
	ColorNeonCyan    lipgloss.Color = "#00FFFF"
	ColorNeonPurple  lipgloss.Color = "#BF40FF"
	ColorNeonGreen   lipgloss.Color = "#39FF14"
	ColorNeonOrange  lipgloss.Color = "#FF8800"
	ColorNeonAmber   lipgloss.Color = "#FFAA00"
	ColorDeepVoid    lipgloss.Color = "#0A0A0F"
	ColorDarkSurface lipgloss.Color = "#12121A"
	ColorGlassBorder lipgloss.Color = "#2A2A4A"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "#39FF14"
	ColorError   lipgloss.Color = "#FF0055"
	ColorWarning lipgloss.Color = "#FFAA00"
	ColorInfo    lipgloss.Color = "#00FFFF"
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "#FFFFFF"
	ColorSecondary lipgloss.Color = "#B4B4D0"
	ColorMuted     lipgloss.Color = "#6B6B8D"
)

// GradientColors cycle through animated elements (pink, purple, cyan, green).
var GradientColors = []lipgloss.Color{
	ColorNeonPink,
	ColorNeonPurple,
	ColorNeonCyan,
	ColorNeonGreen,
}

// Default severity thresholds, in percent.
const (
	DefaultWarning  = 70
	DefaultCritical = 90
)

// Thresholds picks a severity color for a percentage.
type Thresholds struct {
	Warning  int
	Critical int
}

// DefaultThresholds are used when the config leaves thresholds unset.
var DefaultThresholds = Thresholds{Warning: DefaultWarning, Critical: DefaultCritical}

// Color returns green, amber or red for percent.
func (t Thresholds) Color(percent float64) lipgloss.Color {
	warning, critical := t.Warning, t.Critical
	if warning <= 0 {
		warning = DefaultWarning
	}
	if critical <= 0 {
		critical = DefaultCritical
	}

	switch {
	case percent >= float64(critical):
		return ColorError
	case percent >= float64(warning):
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// Style returns a foreground style colored for percent.
func (t Thresholds) Style(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Color(percent))
}

// SuccessStyle returns the style for successful output.
func SuccessStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorSuccess) }

// ErrorStyle returns the style for errors.
func ErrorStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorError) }

// WarningStyle returns the style for warnings.
func WarningStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorWarning) }

// InfoStyle returns the style for informational output.
func InfoStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorInfo) }

// MutedStyle returns the style for secondary text.
func MutedStyle() lipgloss.Style { return lipgloss.NewStyle().Foreground(ColorMuted) }

// DisableColors switches lipgloss to monochrome output.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ApplyColorMode configures color output for an output.color setting.
// "never" always disables color; "always" forces true color even when piped;
// anything else ("auto") colors only when isTTY is true.
func ApplyColorMode(mode string, isTTY bool) {
	switch mode {
	case "never":
		DisableColors()
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	default:
		if !isTTY {
			DisableColors()
		}
	}
}

package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/taskview/internal/ui"
)

// Dashboard colors, on top of the shared ui palette.
const (
	ColorDarkBg    = ui.ColorDeepVoid
	ColorSurfaceBg = ui.ColorDarkSurface
	ColorBorder    = ui.ColorGlassBorder

	ColorTextPrimary   = ui.ColorPrimary
	ColorTextSecondary = ui.ColorSecondary
	ColorTextMuted     = ui.ColorMuted

	ColorAccent    = ui.ColorNeonPink
	ColorAccentDim = ui.ColorNeonPurple
	ColorGraph     = ui.ColorNeonCyan
)

// Base styles for the dashboard
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorAccentDim).
			Bold(true).
			Padding(0, 1)

	StatusLineStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary).
			Padding(0, 1)

	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(ui.ColorError).
				Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	ColumnHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorTextSecondary).
				Bold(true)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorTextPrimary).
				Background(ColorBorder).
				Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// LayoutMode is the responsive layout picked from terminal width.
type LayoutMode int

const (
	// LayoutMinimal shows name, CPU and memory only.
	LayoutMinimal LayoutMode = iota
	// LayoutCompact adds disk and network.
	LayoutCompact
	// LayoutStandard shows every column.
	LayoutStandard
)

// Width breakpoints for layout modes
const (
	BreakpointCompact  = 80
	BreakpointStandard = 110
)

// layoutFor returns the layout for a terminal width.
func layoutFor(width int) LayoutMode {
	switch {
	case width >= BreakpointStandard:
		return LayoutStandard
	case width >= BreakpointCompact:
		return LayoutCompact
	default:
		return LayoutMinimal
	}
}

// ThinProgressBar renders a line-based bar: ━ filled, ─ empty.
func ThinProgressBar(width int, percent float64, th ui.Thresholds) string {
	if width < 1 {
		width = 1
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100.0 * float64(width))
	bar := strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
	return th.Style(percent).Render(bar)
}

// SectionHeader renders a panel's top border with the title on the left and
// value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	if width < 10 {
		width = 10
	}

	// Left: "╭─ " + title + " "; right: " " + value + " ╮"
	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2

	fillWidth := width - leftWidth - rightWidth
	if fillWidth < 1 {
		fillWidth = 1
	}
	middle := strings.Repeat("─", fillWidth)

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		SectionTitleStyle.Render(title) +
		borderStyle.Render(" "+middle+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a panel.
// Format: ╰────────────────────────────────────────────────────╯
func SectionFooter(width int) string {
	if width < 2 {
		width = 2
	}
	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	return borderStyle.Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders a content line between side borders, padded or
// truncated to width.
// Format: │ content                                              │
func SectionContentLine(content string, width int) string {
	if width < 4 {
		width = 4
	}

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	innerWidth := width - 4
	return borderStyle.Render("│") + " " + ui.PadRight(content, innerWidth) + " " + borderStyle.Render("│")
}

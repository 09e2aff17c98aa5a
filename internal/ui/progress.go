package ui

import (
	"fmt"
	"strings"
)

// Progress bar block characters.
const (
	progressFilled = '█'
	progressEmpty  = '░'
)

// RenderProgressBar creates a progress bar visualization.
// The percent parameter should be 0-100 (values outside this range are clamped).
// The width parameter is the bar itself, excluding brackets and percentage.
// Output format: [████████░░░░]  67%
func RenderProgressBar(percent float64, width int) string {
	return RenderMeter(percent, width, DefaultThresholds)
}

// RenderMeter is RenderProgressBar with caller-supplied color thresholds.
func RenderMeter(percent float64, width int, th Thresholds) string {
	if width <= 0 {
		return ""
	}

	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	filledCount := int((percent / 100.0) * float64(width))
	emptyCount := width - filledCount

	var sb strings.Builder
	sb.Grow(width*3 + 2)
	sb.WriteRune('[')
	sb.WriteString(strings.Repeat(string(progressFilled), filledCount))
	sb.WriteString(strings.Repeat(string(progressEmpty), emptyCount))
	sb.WriteRune(']')

	return th.Style(percent).Render(sb.String()) + fmt.Sprintf(" %3.0f%%", percent)
}

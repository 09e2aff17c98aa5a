package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline creates a sparkline from data, scaled to its own min/max.
// Only the most recent width points are drawn. The color follows the last
// value against the default thresholds.
func RenderSparkline(data []float64, width int) string {
	return renderSparkline(data, width, false, DefaultThresholds)
}

// RenderPercentSparkline draws percentage data on a fixed 0-100 scale so
// series stay comparable across redraws.
func RenderPercentSparkline(data []float64, width int, th Thresholds) string {
	return renderSparkline(data, width, true, th)
}

// RenderRateSparkline draws unbounded data (bytes/s, bits/s) in a fixed color.
func RenderRateSparkline(data []float64, width int, color lipgloss.Color) string {
	line := sparklineRunes(data, width, false)
	if line == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(color).Render(line)
}

func renderSparkline(data []float64, width int, percent bool, th Thresholds) string {
	line := sparklineRunes(data, width, percent)
	if line == "" {
		return ""
	}

	lastValue := data[len(data)-1]
	return th.Style(lastValue).Render(line)
}

func sparklineRunes(data []float64, width int, percent bool) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	// Use only the most recent 'width' data points
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if percent {
		minVal, maxVal = 0, 100
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		var level int
		if valueRange == 0 {
			// All values are the same, use middle level
			level = numLevels / 2
		} else {
			normalized := (v - minVal) / valueRange
			level = int(normalized * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return sb.String()
}

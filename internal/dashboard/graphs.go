package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/taskview/internal/ui"
)

// Braille character rendering for high-resolution terminal graphs.
//
// Braille patterns use a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// Unicode braille starts at U+2800 (empty) and uses bit patterns:
// bit 0 = dot 1, bit 1 = dot 2, bit 2 = dot 3, bit 3 = dot 4,
// bit 4 = dot 5, bit 5 = dot 6, bit 6 = dot 7, bit 7 = dot 8

const brailleBase = '\u2800'

// brailleDots maps [row][col] to the bit offset in a braille pattern.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// GraphScale says how values map to dot height.
type GraphScale struct {
	// Percent pins the range to 0-100 and colors columns by threshold.
	Percent    bool
	Thresholds ui.Thresholds
	// Color is used for non-percentage graphs.
	Color lipgloss.Color
}

// RenderBrailleGraph plots data as a braille area graph, width characters
// wide (2 points each) and height rows tall (4 levels each). Data shorter
// than the graph is right-aligned so the newest sample is always at the edge.
func RenderBrailleGraph(data []float64, width, height int, scale GraphScale) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minVal, maxVal := 0.0, 100.0
	if !scale.Percent {
		minVal, maxVal = 0, maxOf(data)
	}

	totalDots := height * 4
	targetPoints := width * 2

	resampled := data
	if len(data) > targetPoints {
		resampled = resampleData(data, targetPoints)
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}

	colMaxValues := make([]float64, width)
	horizOffset := targetPoints - len(resampled)
	if horizOffset < 0 {
		horizOffset = 0
	}

	for i, val := range resampled {
		normalized := normalizeValue(val, minVal, maxVal)
		dotHeight := clampInt(int(normalized*float64(totalDots)), totalDots)

		charCol := (i + horizOffset) / 2
		if charCol >= width {
			continue
		}
		if val > colMaxValues[charCol] {
			colMaxValues[charCol] = val
		}

		subCol := (i + horizOffset) % 2
		for dot := 0; dot < dotHeight; dot++ {
			row := height - 1 - (dot / 4)
			subRow := 3 - (dot % 4)
			grid[row][charCol] |= rune(1 << brailleDots[subRow][subCol])
		}
	}

	lines := make([]string, 0, height)
	for _, row := range grid {
		var lb strings.Builder
		for colIdx, char := range row {
			color := scale.Color
			if scale.Percent {
				color = scale.Thresholds.Color(colMaxValues[colIdx])
			}
			lb.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(char)))
		}
		lines = append(lines, lb.String())
	}

	return strings.Join(lines, "\n")
}

func maxOf(data []float64) float64 {
	m := 0.0
	for _, v := range data {
		if v > m {
			m = v
		}
	}
	return m
}

// normalizeValue converts a value to 0-1 range given min/max bounds.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal > minVal {
		n := (val - minVal) / (maxVal - minVal)
		if n < 0 {
			return 0
		}
		if n > 1 {
			return 1
		}
		return n
	}
	return 0
}

// clampInt clamps an integer to [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// resampleData compresses data to targetSize points, keeping the max of each
// bucket so short spikes survive. Data that already fits is returned as is.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}
	if len(data) <= targetSize {
		return data
	}

	result := make([]float64, targetSize)
	bucketSize := float64(len(data)) / float64(targetSize)
	for i := 0; i < targetSize; i++ {
		start := int(float64(i) * bucketSize)
		end := int(float64(i+1) * bucketSize)
		if end > len(data) {
			end = len(data)
		}
		if start >= end {
			start = end - 1
		}

		maxVal := data[start]
		for j := start + 1; j < end; j++ {
			if data[j] > maxVal {
				maxVal = data[j]
			}
		}
		result[i] = maxVal
	}
	return result
}

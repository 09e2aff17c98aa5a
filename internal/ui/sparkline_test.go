package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestRenderSparkline_Empty(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		width int
	}{
		{"nil data", nil, 10},
		{"empty data", []float64{}, 10},
		{"zero width", []float64{50, 60}, 0},
		{"negative width", []float64{50, 60}, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, RenderSparkline(tt.data, tt.width))
			assert.Empty(t, RenderPercentSparkline(tt.data, tt.width, DefaultThresholds))
			assert.Empty(t, RenderRateSparkline(tt.data, tt.width, ColorNeonCyan))
		})
	}
}

func TestRenderSparkline_OneBlockPerPoint(t *testing.T) {
	result := stripANSI(RenderSparkline([]float64{0, 25, 50, 75, 100}, 10))
	assert.Equal(t, "▁▂▄▆█", result)
}

func TestRenderSparkline_SameValuesUseMiddleLevel(t *testing.T) {
	result := stripANSI(RenderSparkline([]float64{42, 42, 42}, 10))
	assert.Equal(t, "▅▅▅", result)
}

func TestRenderSparkline_KeepsMostRecent(t *testing.T) {
	data := []float64{100, 100, 100, 0, 50, 100}
	result := stripANSI(RenderSparkline(data, 3))
	assert.Equal(t, 3, len([]rune(result)))
	assert.Equal(t, "▁▄█", result)
}

func TestRenderPercentSparkline_FixedScale(t *testing.T) {
	// Self-scaled, 10 and 20 would span the full height; on a 0-100 scale
	// they stay near the bottom.
	result := stripANSI(RenderPercentSparkline([]float64{10, 20}, 10, DefaultThresholds))
	assert.Equal(t, "▁▂", result)

	self := stripANSI(RenderSparkline([]float64{10, 20}, 10))
	assert.Equal(t, "▁█", self)
}

func TestRenderRateSparkline(t *testing.T) {
	result := stripANSI(RenderRateSparkline([]float64{1e6, 5e6, 1e7}, 10, ColorNeonCyan))
	assert.Equal(t, 3, len([]rune(result)))
	assert.True(t, strings.HasSuffix(result, "█"))
}

func stripANSI(s string) string {
	return ansi.Strip(s)
}

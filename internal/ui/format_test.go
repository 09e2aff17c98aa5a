package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KiB"},
		{1536 * 1024 * 1024, "1.5 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBytes(tt.in))
		})
	}
}

func TestFormatRates(t *testing.T) {
	assert.Equal(t, "0 B/s", FormatByteRate(0))
	assert.Equal(t, "0 B/s", FormatByteRate(-3))
	assert.Equal(t, "2.0 MiB/s", FormatByteRate(2*1024*1024))

	assert.Equal(t, "0 bps", FormatBitRate(0))
	assert.Equal(t, "1.5 Mbps", FormatBitRate(1.5e6))
}

func TestFormatPercentAndCount(t *testing.T) {
	assert.Equal(t, "12.3%", FormatPercent(12.345))
	assert.Equal(t, "1,234,567", FormatCount(1234567))
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{-time.Second, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{3*time.Hour + 4*time.Minute + 5*time.Second, "03:04:05"},
		{2*24*time.Hour + time.Hour, "2d 01:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUptime(tt.in))
		})
	}
}

func TestFormatCPUTime(t *testing.T) {
	assert.Equal(t, "0:00:00", FormatCPUTime(0))
	assert.Equal(t, "0:01:30", FormatCPUTime(90*time.Second))
	assert.Equal(t, "27:46:40", FormatCPUTime(100000*time.Second))
}

func TestPadAndTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hell…", Truncate("hello world", 5))

	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "   ab", PadLeft("ab", 5))
	assert.Equal(t, 5, lipgloss.Width(PadRight("a very long name", 5)))
}

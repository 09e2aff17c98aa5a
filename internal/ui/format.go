package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

// FormatBytes renders a byte count with binary units ("1.5 GiB").
func FormatBytes(b uint64) string {
	return humanize.IBytes(b)
}

// FormatByteRate renders a bytes-per-second rate ("12 MiB/s").
func FormatByteRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(bytesPerSec)) + "/s"
}

// FormatBitRate renders a bits-per-second rate with SI units ("1.2 Mbps").
func FormatBitRate(bitsPerSec float64) string {
	if bitsPerSec <= 0 {
		return "0 bps"
	}
	return humanize.SIWithDigits(bitsPerSec, 1, "bps")
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatUptime renders a duration as "3d 04:05:06", dropping the day part
// when it is zero.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	mins := (total % 3600) / 60
	secs := total % 60

	if days > 0 {
		return fmt.Sprintf("%dd %02d:%02d:%02d", days, hours, mins, secs)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, mins, secs)
}

// FormatCPUTime renders accumulated CPU time as "h:mm:ss".
func FormatCPUTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Truncate shortens s to width display cells, ANSI-aware, with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

// PadRight pads s with spaces to width display cells, truncating if longer.
func PadRight(s string, width int) string {
	s = Truncate(s, width)
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// PadLeft right-aligns s within width display cells.
func PadLeft(s string, width int) string {
	s = Truncate(s, width)
	if pad := width - lipgloss.Width(s); pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}
	return s
}

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/taskview/internal/monitor"
	"github.com/rileyhilliard/taskview/internal/ui"
)

const (
	resourceListWidth = 30
	miniGraphWidth    = 10
	maxGraphHeight    = 8
)

// renderPerformance draws the resource list on the left and the selected
// resource's panel on the right.
func (m Model) renderPerformance(rows []row) string {
	p := m.current()
	view := p.cycle.View()
	if !view.HasData() || view.Stats == nil {
		if view.Failed {
			return MutedStyle.Render("  No data: " + view.Error)
		}
		return MutedStyle.Render("  Waiting for the first poll...")
	}

	list := make([]string, len(rows))
	for i, r := range rows {
		line := m.resourceLine(r.resource, view)
		if i == p.cursor {
			list[i] = SelectedRowStyle.Render(ui.SymbolCursor + " " + line)
		} else {
			list[i] = "  " + line
		}
	}
	left := lipgloss.NewStyle().Width(resourceListWidth + 2).Render(strings.Join(list, "\n"))

	selected := monitor.ChannelCPU
	if p.cursor >= 0 && p.cursor < len(rows) {
		selected = rows[p.cursor].resource
	}

	panelWidth := m.contentWidth() - resourceListWidth - 3
	if panelWidth < 30 {
		// Too narrow for side by side
		return left + "\n" + m.resourcePanel(selected, view, m.contentWidth())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", m.resourcePanel(selected, view, panelWidth))
}

// resourceLine is a list entry: label, mini sparkline, current value.
func (m Model) resourceLine(resource string, view monitor.ViewState) string {
	label, value := m.resourceLabel(resource, view)
	series := view.Series[resource]

	var spark string
	switch resource {
	case monitor.ChannelNetwork:
		spark = ui.RenderRateSparkline(series, miniGraphWidth, ColorGraph)
	default:
		spark = ui.RenderPercentSparkline(series, miniGraphWidth, m.thresholdsFor(resource))
	}

	return ui.PadRight(ui.Truncate(label, 11), 11) + " " + ui.PadLeft(spark, miniGraphWidth) + " " + ui.PadLeft(value, 7)
}

func (m Model) resourceLabel(resource string, view monitor.ViewState) (string, string) {
	stats := view.Stats
	latest := func() float64 {
		s := view.Series[resource]
		if len(s) == 0 {
			return 0
		}
		return s[len(s)-1]
	}

	switch resource {
	case monitor.ChannelCPU:
		return "CPU", ui.FormatPercent(latest())
	case monitor.ChannelMemory:
		return "Memory", ui.FormatPercent(stats.MemoryPercent())
	case monitor.ChannelNetwork:
		return "Network", ui.FormatBitRate(latest())
	case monitor.ChannelGPU:
		return "GPU", ui.FormatPercent(latest())
	}
	if d, ok := monitor.FindDisk(stats.Disks, resource); ok {
		return "Disk " + d.MountPoint, ui.FormatPercent(d.UsagePercent)
	}
	return resource, ""
}

func (m Model) thresholdsFor(resource string) ui.Thresholds {
	switch resource {
	case monitor.ChannelMemory:
		return m.thresholds.Memory
	case monitor.ChannelGPU:
		return m.thresholds.GPU
	default:
		return m.thresholds.CPU
	}
}

// resourcePanel renders a framed panel with a braille history graph and the
// resource's details.
func (m Model) resourcePanel(resource string, view monitor.ViewState, width int) string {
	title, value := m.resourceLabel(resource, view)
	inner := width - 4

	graphHeight := m.bodyHeight() - 12
	if graphHeight > maxGraphHeight {
		graphHeight = maxGraphHeight
	}
	if graphHeight < 2 {
		graphHeight = 2
	}

	scale := GraphScale{Percent: true, Thresholds: m.thresholdsFor(resource)}
	if resource == monitor.ChannelNetwork {
		scale = GraphScale{Color: ColorGraph}
	}
	series := view.Series[resource]

	lines := []string{SectionHeader(title, value, width)}
	if graph := RenderBrailleGraph(series, inner, graphHeight, scale); graph != "" {
		for _, gl := range strings.Split(graph, "\n") {
			lines = append(lines, SectionContentLine(gl, width))
		}
	} else {
		lines = append(lines, SectionContentLine(MutedStyle.Render("collecting samples..."), width))
	}
	lines = append(lines, SectionContentLine(MutedStyle.Render(fmt.Sprintf("last %d samples", len(series))), width))
	lines = append(lines, SectionContentLine("", width))

	for _, d := range m.resourceDetails(resource, view, inner) {
		lines = append(lines, SectionContentLine(d, width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func detail(label, value string) string {
	return LabelStyle.Render(ui.PadRight(label, 16)) + ValueStyle.Render(value)
}

func (m Model) resourceDetails(resource string, view monitor.ViewState, width int) []string {
	stats := view.Stats

	switch resource {
	case monitor.ChannelCPU:
		out := []string{
			detail("Utilization", ui.FormatPercent(stats.TotalCPUPercent)),
			detail("Processes", ui.FormatCount(int64(stats.ProcessCount))),
			detail("Threads", ui.FormatCount(stats.ThreadCount)),
			detail("Up time", ui.FormatUptime(stats.Uptime)),
		}
		if hw := stats.Hardware; hw.CPUName != "" {
			out = append(out,
				detail("Processor", hw.CPUName),
				detail("Cores", fmt.Sprintf("%d physical, %d logical", hw.PhysicalCores, hw.LogicalProcessors)),
			)
		}
		return append(out, m.coreLines(view, width)...)

	case monitor.ChannelMemory:
		return []string{
			detail("In use", fmt.Sprintf("%s of %s", ui.FormatBytes(stats.UsedMemory), ui.FormatBytes(stats.TotalMemory))),
			detail("Cached", ui.FormatBytes(stats.CachedMemory)),
			detail("Available", ui.FormatBytes(stats.TotalMemory-min(stats.UsedMemory, stats.TotalMemory))),
			ui.RenderMeter(stats.MemoryPercent(), width-8, m.thresholds.Memory),
		}

	case monitor.ChannelNetwork:
		return []string{
			detail("Throughput", ui.FormatBitRate(float64(stats.NetworkBitsPerSec))),
		}

	case monitor.ChannelGPU:
		if stats.GPUPercent == 0 && len(view.Series[monitor.ChannelGPU]) > 0 && maxOf(view.Series[monitor.ChannelGPU]) == 0 {
			return []string{MutedStyle.Render("No GPU activity reported")}
		}
		return []string{detail("Utilization", ui.FormatPercent(stats.GPUPercent))}
	}

	if d, ok := monitor.FindDisk(stats.Disks, resource); ok {
		return []string{
			detail("Device", d.Name),
			detail("File system", d.FSType),
			detail("Capacity", ui.FormatBytes(d.TotalBytes)),
			detail("Free", ui.FormatBytes(d.FreeBytes)),
			detail("All disks I/O", ui.FormatByteRate(float64(stats.DiskBytesPerSec))),
			ui.RenderMeter(d.UsagePercent, width-8, ui.DefaultThresholds),
		}
	}
	return nil
}

// coreLines draws one thin bar per logical processor, two per line when
// there is room.
func (m Model) coreLines(view monitor.ViewState, width int) []string {
	cores := view.Stats.PerCorePercent
	if len(cores) == 0 {
		return nil
	}

	perLine := 1
	if width >= 60 {
		perLine = 2
	}
	barWidth := (width / perLine) - 14
	if barWidth < 4 {
		barWidth = 4
	}

	out := []string{""}
	var line []string
	for i, pct := range cores {
		label := LabelStyle.Render(ui.PadRight(fmt.Sprintf("#%d", i), 4))
		entry := label + ThinProgressBar(barWidth, pct, m.thresholds.CPU) + " " + ui.PadLeft(fmt.Sprintf("%.0f%%", pct), 4)
		line = append(line, entry)
		if len(line) == perLine {
			out = append(out, strings.Join(line, "  "))
			line = nil
		}
	}
	if len(line) > 0 {
		out = append(out, strings.Join(line, "  "))
	}
	return out
}

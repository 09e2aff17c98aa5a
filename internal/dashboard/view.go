package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/monitor"
	"github.com/rileyhilliard/taskview/internal/ui"
)

// column is one list column. Name columns flex; the rest are fixed.
type column struct {
	title string
	width int
	sort  monitor.SortKey
	right bool
}

const (
	defaultWidth  = 100
	defaultHeight = 30
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	if line := m.renderSearch(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if cols := m.columns(m.current().id); cols != nil {
		b.WriteString(m.renderColumnHeader(cols))
		b.WriteString("\n")
	}
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title and page tabs.
func (m Model) renderHeader() string {
	parts := []string{TitleStyle.Render("taskview")}
	for i, p := range m.pages {
		label := fmt.Sprintf("%d %s", i+1, p.id.Title())
		if i == m.active {
			parts = append(parts, TabActiveStyle.Render(label))
		} else {
			parts = append(parts, TabStyle.Render(label))
		}
	}
	return HeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Center, parts...))
}

// renderStatus renders speed, sort, counts and the error flag.
func (m Model) renderStatus() string {
	p := m.current()
	view := p.cycle.View()

	interval := p.cycle.Interval()
	speed := string(m.speed)
	if interval > 0 {
		speed = fmt.Sprintf("%s (%s)", m.speed, interval)
	}

	parts := []string{"speed " + speed}
	if pageSortable(p.id) {
		parts = append(parts, "sort "+view.Sort.String())
	}
	if summary := m.pageSummary(p, view); summary != "" {
		parts = append(parts, summary)
	}
	parts = append(parts, "updated "+m.updatedAgo(view))

	line := StatusLineStyle.Render(strings.Join(parts, " | "))
	if view.Failed {
		line += ErrorBannerStyle.Render(" " + ui.SymbolWarning + " " + view.Error)
	}
	return line
}

func (m Model) pageSummary(p *page, view monitor.ViewState) string {
	switch p.id {
	case config.PageProcesses:
		return fmt.Sprintf("%d apps, %d background", len(view.Apps), len(view.Background))
	case config.PageUsers:
		return fmt.Sprintf("%d users", len(view.Users))
	case config.PageServices:
		return fmt.Sprintf("%d running of %d", monitor.CountRunning(view.Services), len(view.Services))
	case config.PageAppHistory:
		return fmt.Sprintf("%d apps tracked", m.usage.Len())
	case config.PageDetails:
		return fmt.Sprintf("%d processes", len(view.Processes))
	case config.PageStartup:
		return fmt.Sprintf("%d enabled of %d", monitor.CountEnabled(view.Startup), len(view.Startup))
	}
	return ""
}

func (m Model) updatedAgo(view monitor.ViewState) string {
	if !view.HasData() {
		return "never"
	}
	ago := m.now().Sub(view.UpdatedAt).Truncate(time.Second)
	if ago <= 0 {
		return "just now"
	}
	return ago.String() + " ago"
}

func (m Model) renderSearch() string {
	if m.searching {
		return StatusLineStyle.Render(m.search.View())
	}
	if f := m.current().filter; f != "" {
		return StatusLineStyle.Render(LabelStyle.Render("filter: ") + ValueStyle.Render(f) + MutedStyle.Render("  (esc to clear)"))
	}
	return ""
}

func (m Model) renderFooter() string {
	return FooterStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

// bodyHeight is the number of list lines that fit.
func (m Model) bodyHeight() int {
	height := m.height
	if height == 0 {
		height = defaultHeight
	}
	used := 3 // header, status, footer
	if m.searching || m.current().filter != "" {
		used++
	}
	if m.columns(m.current().id) != nil {
		used++
	}
	if h := height - used; h > 1 {
		return h
	}
	return 1
}

func (m Model) contentWidth() int {
	if m.width == 0 {
		return defaultWidth
	}
	return m.width
}

// refreshContent re-renders the active page into the viewport and scrolls
// the cursor into view.
func (m *Model) refreshContent() {
	p := m.current()
	m.viewport.Width = m.contentWidth()
	m.viewport.Height = m.bodyHeight()

	rows := m.rows(p)
	m.syncCursor(p, rows)

	if p.id == config.PagePerformance {
		m.viewport.SetContent(m.renderPerformance(rows))
		m.viewport.GotoTop()
		return
	}

	m.viewport.SetContent(m.renderList(p, rows))
	if p.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(p.cursor)
	} else if p.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(p.cursor - m.viewport.Height + 1)
	}
}

// columns returns the list layout for page, or nil for pages without one.
func (m Model) columns(id config.Page) []column {
	var cols []column
	layout := layoutFor(m.contentWidth())

	switch id {
	case config.PageProcesses:
		cols = []column{
			{title: "Name", sort: monitor.SortByName},
			{title: "CPU", width: 8, sort: monitor.SortByCPU, right: true},
			{title: "Memory", width: 11, sort: monitor.SortByMemory, right: true},
		}
		if layout >= LayoutCompact {
			cols = append(cols,
				column{title: "Disk", width: 12, sort: monitor.SortByDisk, right: true},
				column{title: "Network", width: 12, sort: monitor.SortByNetwork, right: true},
			)
		}
		if layout >= LayoutStandard {
			cols = append(cols, column{title: "GPU", width: 7, sort: monitor.SortByGPU, right: true})
		}
	case config.PageUsers:
		cols = []column{
			{title: "User"},
			{title: "Status", width: 13},
			{title: "CPU", width: 8, right: true},
			{title: "Memory", width: 11, right: true},
		}
		if layout >= LayoutCompact {
			cols = append(cols, column{title: "Processes", width: 10, right: true})
		}
	case config.PageServices:
		cols = []column{
			{title: "Name", width: 32},
			{title: "Status", width: 10},
			{title: "Sub", width: 10},
		}
		if layout >= LayoutCompact {
			cols = append(cols, column{title: "Description"})
		}
	case config.PageAppHistory:
		cols = []column{
			{title: "Name"},
			{title: "CPU time", width: 11, right: true},
			{title: "Disk", width: 12, right: true},
			{title: "Network", width: 12, right: true},
		}
	case config.PageDetails:
		cols = []column{
			{title: "PID", width: 7, sort: monitor.SortByPID, right: true},
			{title: "Name", sort: monitor.SortByName},
			{title: "Status", width: 8},
			{title: "CPU", width: 8, sort: monitor.SortByCPU, right: true},
			{title: "Memory", width: 11, sort: monitor.SortByMemory, right: true},
		}
		if layout >= LayoutCompact {
			cols = append(cols,
				column{title: "User", width: 10},
				column{title: "Threads", width: 8, right: true},
			)
		}
		if layout >= LayoutStandard {
			cols = append(cols, column{title: "Disk", width: 12, sort: monitor.SortByDisk, right: true})
		}
	case config.PageStartup:
		cols = []column{
			{title: "Name", width: 28},
			{title: "Status", width: 9},
			{title: "Scope", width: 7},
			{title: "Command"},
		}
	default:
		return nil
	}

	return fitColumns(cols, m.contentWidth())
}

// fitColumns gives the flexible column (width 0) whatever is left.
func fitColumns(cols []column, width int) []column {
	fixed := 2 // cursor gutter
	flex := -1
	for i, c := range cols {
		fixed += 1 + c.width
		if c.width == 0 {
			flex = i
		}
	}
	if flex >= 0 {
		w := width - fixed
		if w < 12 {
			w = 12
		}
		cols[flex].width = w
	}
	return cols
}

func (m Model) renderColumnHeader(cols []column) string {
	sort := m.current().cycle.View().Sort
	cells := make([]string, len(cols))
	for i, c := range cols {
		title := c.title
		if pageSortable(m.current().id) && c.sort != "" && c.sort == sort.Key {
			arrow := "▲"
			if sort.Direction == monitor.Descending {
				arrow = "▼"
			}
			title += " " + arrow
		}
		cells[i] = cell(title, c)
	}
	return ColumnHeaderStyle.Render("  " + strings.Join(cells, " "))
}

func cell(s string, c column) string {
	if c.right {
		return ui.PadLeft(s, c.width)
	}
	return ui.PadRight(s, c.width)
}

// renderList renders every row of a list page.
func (m Model) renderList(p *page, rows []row) string {
	if len(rows) == 0 {
		return MutedStyle.Render("  " + m.emptyText(p))
	}

	cols := m.columns(p.id)
	lines := make([]string, len(rows))
	for i, r := range rows {
		if r.kind == rowSection {
			lines[i] = SectionTitleStyle.Render(r.title)
			continue
		}

		cells := m.rowCells(r, p.id)
		text := make([]string, len(cols))
		for j, c := range cols {
			if j < len(cells) {
				text[j] = cell(cells[j], c)
			} else {
				text[j] = cell("", c)
			}
		}
		line := strings.Join(text, " ")
		if i == p.cursor {
			lines[i] = SelectedRowStyle.Render(ui.SymbolCursor + " " + line)
		} else {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) emptyText(p *page) string {
	view := p.cycle.View()
	switch {
	case view.Failed && !view.HasData():
		return "No data: " + view.Error
	case !view.HasData() && p.id != config.PageAppHistory:
		return "Waiting for the first poll..."
	case p.filter != "":
		return "Nothing matches " + fmt.Sprintf("%q", p.filter)
	case p.id == config.PageAppHistory:
		return "No application history yet"
	case p.id == config.PageStartup:
		return "No autostart entries found"
	}
	return "Nothing to show"
}

// rowCells returns the cell values for a row, in the column order of page.
// Extra cells beyond the visible columns are dropped by the caller.
func (m Model) rowCells(r row, id config.Page) []string {
	indent := strings.Repeat("  ", r.depth)
	marker := ui.ExpandMarker(r.expandable, r.expanded)

	switch r.kind {
	case rowGroup:
		g := r.group
		name := g.Name
		if g.Len() > 1 {
			name = fmt.Sprintf("%s (%d)", name, g.Len())
		}
		name = indent + marker + " " + name
		cpu := m.thresholds.CPU.Style(g.TotalCPU).Render(ui.FormatPercent(g.TotalCPU))
		mem := ui.FormatBytes(uint64(g.TotalMemory))
		if id == config.PageUsers {
			return []string{name, "", cpu, mem, fmt.Sprintf("%d", g.Len())}
		}
		return []string{name, cpu, mem, ui.FormatByteRate(g.TotalDisk), ui.FormatBitRate(g.TotalNetwork), ui.FormatPercent(g.TotalGPU)}

	case rowMember:
		p := r.process
		name := fmt.Sprintf("%s%s %s (%d)", indent, ui.SymbolLeaf, p.Name, p.PID)
		cpu := m.thresholds.CPU.Style(p.CPUPercent).Render(ui.FormatPercent(p.CPUPercent))
		mem := ui.FormatBytes(p.MemoryBytes)
		if id == config.PageUsers {
			return []string{name, "", cpu, mem}
		}
		return []string{name, cpu, mem, ui.FormatByteRate(float64(p.DiskBytesPerSec)), ui.FormatBitRate(float64(p.NetworkBitsPerSec)), ui.FormatPercent(p.GPUPercent)}

	case rowUser:
		u := r.user
		status := u.Status
		if u.Terminal != "" {
			status += " " + u.Terminal
		}
		return []string{
			marker + " " + u.Username,
			status,
			m.thresholds.CPU.Style(u.TotalCPU).Render(ui.FormatPercent(u.TotalCPU)),
			ui.FormatBytes(uint64(u.TotalMemory)),
			fmt.Sprintf("%d", u.ProcessCount),
		}

	case rowService:
		s := r.service
		status := MutedStyle.Render(s.Status)
		switch {
		case s.Running():
			status = ui.SuccessStyle().Render(s.Status)
		case s.Status == "failed":
			status = ui.ErrorStyle().Render(s.Status)
		}
		return []string{s.Name, status, s.SubState, s.Description}

	case rowProcess:
		p := r.process
		return []string{
			fmt.Sprintf("%d", p.PID),
			p.Name,
			p.Status,
			m.thresholds.CPU.Style(p.CPUPercent).Render(ui.FormatPercent(p.CPUPercent)),
			ui.FormatBytes(p.MemoryBytes),
			p.Username,
			fmt.Sprintf("%d", p.Threads),
			ui.FormatByteRate(float64(p.DiskBytesPerSec)),
		}

	case rowStartup:
		s := r.startup
		status := MutedStyle.Render("disabled")
		if s.Enabled {
			status = ui.SuccessStyle().Render("enabled")
		}
		return []string{s.Name, status, s.Scope, s.Exec}

	case rowUsage:
		u := r.usage
		return []string{
			u.Name,
			ui.FormatCPUTime(u.CPUTime),
			ui.FormatBytes(u.DiskBytes),
			ui.FormatBytes(u.NetworkBytes),
		}
	}
	return nil
}

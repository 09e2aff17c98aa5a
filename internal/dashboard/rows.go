package dashboard

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

// rowKind says what a list row shows.
type rowKind int

const (
	rowSection rowKind = iota
	rowGroup
	rowMember
	rowUser
	rowService
	rowUsage
	rowResource
	rowProcess
	rowStartup
)

// row is one line of a page's list. Rows are rebuilt from the current view
// on every render; key is the identity the cursor follows across rebuilds.
type row struct {
	kind       rowKind
	key        string
	depth      int
	expandable bool
	expanded   bool

	title    string
	group    monitor.Group
	process  monitor.Process
	user     monitor.UserView
	service  monitor.Service
	usage    monitor.AppUsage
	startup  monitor.StartupItem
	resource string
}

func (r row) selectable() bool {
	return r.kind != rowSection
}

// rows builds p's list from its cycle's current view.
func (m Model) rows(p *page) []row {
	view := p.cycle.View()

	switch p.id {
	case config.PageProcesses:
		return processRows(view, p.expanded)
	case config.PagePerformance:
		return resourceRows(view)
	case config.PageUsers:
		return userRows(filterUsers(view.Users, p.filter), p.expanded, p.nested)
	case config.PageServices:
		return serviceRows(view.Services)
	case config.PageAppHistory:
		return usageRows(monitor.FilterUsage(m.usage.Entries(), p.filter))
	case config.PageDetails:
		return flatProcessRows(view.Processes)
	case config.PageStartup:
		return startupRows(view.Startup)
	}
	return nil
}

func flatProcessRows(procs []monitor.Process) []row {
	rows := make([]row, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, row{kind: rowProcess, key: memberKey(p.PID), process: p})
	}
	return rows
}

// startupRows keys on the file path: two scopes may share a display name.
func startupRows(items []monitor.StartupItem) []row {
	rows := make([]row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row{kind: rowStartup, key: "st:" + it.Path, startup: it})
	}
	return rows
}

func processRows(view monitor.ViewState, expanded *monitor.ExpandSet) []row {
	rows := make([]row, 0, len(view.Groups)+2)

	section := func(title string, groups []monitor.Group) {
		if len(groups) == 0 {
			return
		}
		rows = append(rows, row{kind: rowSection, key: "section:" + title, title: fmt.Sprintf("%s (%d)", title, len(groups))})
		for _, g := range groups {
			rows = appendGroup(rows, g, 0, "", expanded)
		}
	}
	section("Apps", view.Apps)
	section("Background processes", view.Background)
	return rows
}

// appendGroup adds a group row, and its members when expanded. prefix scopes
// keys so the same group name can appear under several users.
func appendGroup(rows []row, g monitor.Group, depth int, prefix string, expanded *monitor.ExpandSet) []row {
	multi := g.Len() > 1
	open := multi && expanded.IsExpanded(g.Name)
	rows = append(rows, row{
		kind:       rowGroup,
		key:        prefix + groupKey(g.Name),
		depth:      depth,
		expandable: multi,
		expanded:   open,
		group:      g,
	})
	if !open {
		return rows
	}
	for _, proc := range g.Members {
		rows = append(rows, row{
			kind:    rowMember,
			key:     prefix + memberKey(proc.PID),
			depth:   depth + 1,
			process: proc,
			group:   g,
		})
	}
	return rows
}

func groupKey(name string) string { return "g:" + name }

func memberKey(pid int32) string { return fmt.Sprintf("p:%d", pid) }

func userRows(users []monitor.UserView, expanded *monitor.ExpandSet, nested map[string]*monitor.ExpandSet) []row {
	rows := make([]row, 0, len(users))
	for _, u := range users {
		open := len(u.Groups) > 0 && expanded.IsExpanded(u.Username)
		rows = append(rows, row{
			kind:       rowUser,
			key:        "u:" + u.Username,
			expandable: len(u.Groups) > 0,
			expanded:   open,
			user:       u,
		})
		if !open {
			continue
		}
		groups := nested[u.Username]
		if groups == nil {
			groups = monitor.NewExpandSet()
			nested[u.Username] = groups
		}
		for _, g := range u.Groups {
			rows = appendGroup(rows, g, 1, "u:"+u.Username+"/", groups)
		}
	}
	return rows
}

func filterUsers(users []monitor.UserView, query string) []monitor.UserView {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users
	}
	out := make([]monitor.UserView, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), query) {
			out = append(out, u)
		}
	}
	return out
}

func serviceRows(services []monitor.Service) []row {
	rows := make([]row, 0, len(services))
	for _, s := range services {
		rows = append(rows, row{kind: rowService, key: "s:" + s.Name, service: s})
	}
	return rows
}

func usageRows(entries []monitor.AppUsage) []row {
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{kind: rowUsage, key: "a:" + e.Name, usage: e})
	}
	return rows
}

// resourceRows lists the performance page's resources: CPU, memory, every
// disk, network, GPU.
func resourceRows(view monitor.ViewState) []row {
	rows := []row{
		{kind: rowResource, key: "r:" + monitor.ChannelCPU, resource: monitor.ChannelCPU},
		{kind: rowResource, key: "r:" + monitor.ChannelMemory, resource: monitor.ChannelMemory},
	}
	if view.Stats != nil {
		for _, d := range view.Stats.Disks {
			ch := monitor.DiskChannel(d.MountPoint)
			rows = append(rows, row{kind: rowResource, key: "r:" + ch, resource: ch})
		}
	}
	rows = append(rows,
		row{kind: rowResource, key: "r:" + monitor.ChannelNetwork, resource: monitor.ChannelNetwork},
		row{kind: rowResource, key: "r:" + monitor.ChannelGPU, resource: monitor.ChannelGPU},
	)
	return rows
}

// syncCursor puts p's cursor back on the selected row after the rows were
// rebuilt. If the row is gone, the processes page falls back to the group
// that now holds the selected PID (or has its name); otherwise the cursor
// index is clamped.
func (m Model) syncCursor(p *page, rows []row) {
	if idx := indexOfKey(rows, p.selectedKey); idx >= 0 {
		p.cursor = idx
		return
	}

	if p.id == config.PageProcesses && p.selection.Active() {
		view := p.cycle.View()
		if gi := p.selection.Resolve(view.Groups); gi >= 0 {
			if idx := indexOfKey(rows, groupKey(view.Groups[gi].Name)); idx >= 0 {
				p.cursor = idx
				p.selectedKey = rows[idx].key
				return
			}
		}
	}

	if p.cursor >= len(rows) {
		p.cursor = len(rows) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
	p.cursor = nearestSelectable(rows, p.cursor, 1)
	if p.cursor < len(rows) {
		m.selectRow(p, rows[p.cursor])
	}
}

// moveCursor moves the active page's cursor by delta selectable rows'
// worth, skipping section headers.
func (m *Model) moveCursor(delta int) {
	p := m.current()
	rows := m.rows(p)
	if len(rows) == 0 {
		return
	}

	dir := 1
	if delta < 0 {
		dir = -1
	}
	target := p.cursor + delta
	if target < 0 {
		target = 0
	}
	if target >= len(rows) {
		target = len(rows) - 1
	}
	target = nearestSelectable(rows, target, dir)

	p.cursor = target
	m.selectRow(p, rows[target])
	m.refreshContent()
}

// nearestSelectable returns the closest selectable index from i, searching
// in dir first.
func nearestSelectable(rows []row, i, dir int) int {
	for j := i; j >= 0 && j < len(rows); j += dir {
		if rows[j].selectable() {
			return j
		}
	}
	for j := i; j >= 0 && j < len(rows); j -= dir {
		if rows[j].selectable() {
			return j
		}
	}
	return i
}

func (m Model) selectRow(p *page, r row) {
	if !r.selectable() {
		return
	}
	p.selectedKey = r.key
	switch r.kind {
	case rowGroup:
		p.selection.SelectGroup(r.group)
	case rowMember:
		p.selection.Select(r.process.PID, r.group.Name)
	}
}

// toggleExpand opens or closes the row under the cursor.
func (m *Model) toggleExpand() {
	p := m.current()
	rows := m.rows(p)
	if p.cursor < 0 || p.cursor >= len(rows) {
		return
	}
	r := rows[p.cursor]
	if !r.expandable {
		return
	}

	switch {
	case r.kind == rowUser:
		p.expanded.Toggle(r.user.Username)
	case r.kind == rowGroup && p.id == config.PageUsers:
		owner := ownerOf(r.key)
		if set := p.nested[owner]; set != nil {
			set.Toggle(r.group.Name)
		}
	case r.kind == rowGroup:
		p.expanded.Toggle(r.group.Name)
	}
	m.refreshContent()
}

// ownerOf extracts the username from a users-page group key ("u:alice/g:sh").
func ownerOf(key string) string {
	rest := strings.TrimPrefix(key, "u:")
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i]
	}
	return rest
}

func indexOfKey(rows []row, key string) int {
	if key == "" {
		return -1
	}
	for i, r := range rows {
		if r.key == key {
			return i
		}
	}
	return -1
}

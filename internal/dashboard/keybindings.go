package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

// keyMap holds every dashboard binding. It implements help.KeyMap.
type keyMap struct {
	Quit         key.Binding
	Help         key.Binding
	NextPage     key.Binding
	PrevPage     key.Binding
	Pages        []key.Binding
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Top          key.Binding
	Bottom       key.Binding
	Expand       key.Binding
	Refresh      key.Binding
	Speed        key.Binding
	Search       key.Binding
	Clear        key.Binding
	ClearHistory key.Binding
	Sorts        []sortBinding
}

// sortBinding ties a key to the column it sorts.
type sortBinding struct {
	key.Binding
	Key monitor.SortKey
}

func defaultKeyMap() keyMap {
	km := keyMap{
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		NextPage:     key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next page")),
		PrevPage:     key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "previous page")),
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:       key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Top:          key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first row")),
		Bottom:       key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last row")),
		Expand:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "expand")),
		Refresh:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Speed:        key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "update speed")),
		Search:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Clear:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		ClearHistory: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear app history")),
	}

	for i, p := range config.Pages {
		n := string(rune('1' + i))
		km.Pages = append(km.Pages, key.NewBinding(key.WithKeys(n), key.WithHelp(n, p.Title())))
	}

	for _, s := range []struct {
		keys string
		key  monitor.SortKey
	}{
		{"n", monitor.SortByName},
		{"c", monitor.SortByCPU},
		{"m", monitor.SortByMemory},
		{"d", monitor.SortByDisk},
		{"w", monitor.SortByNetwork},
		{"g", monitor.SortByGPU},
		{"p", monitor.SortByPID},
	} {
		km.Sorts = append(km.Sorts, sortBinding{
			Binding: key.NewBinding(key.WithKeys(s.keys), key.WithHelp(s.keys, "sort by "+s.key.String())),
			Key:     s.key,
		})
	}
	return km
}

// ShortHelp is the footer line.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.Up, k.Down, k.Expand, k.Search, k.Speed, k.Help, k.Quit}
}

// FullHelp is the help overlay, one column per group.
func (k keyMap) FullHelp() [][]key.Binding {
	sorts := make([]key.Binding, len(k.Sorts))
	for i, s := range k.Sorts {
		sorts[i] = s.Binding
	}
	return [][]key.Binding{
		append([]key.Binding{k.NextPage, k.PrevPage}, k.Pages...),
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Expand},
		sorts,
		{k.Refresh, k.Speed, k.Search, k.Clear, k.ClearHistory, k.Help, k.Quit},
	}
}

// HandleKeyMsg processes keyboard input. It returns true if the key was
// handled.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return true, tea.Quit
	}

	if m.searching {
		return true, m.handleSearchKey(msg)
	}

	// Help overlay swallows everything except its own toggles and quit
	if m.showHelp {
		switch {
		case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Clear):
			m.showHelp = false
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return true, tea.Quit
		}
		return true, nil
	}

	p := m.current()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return true, nil

	case key.Matches(msg, m.keys.NextPage):
		return true, m.switchPage((m.active + 1) % len(m.pages))

	case key.Matches(msg, m.keys.PrevPage):
		return true, m.switchPage((m.active + len(m.pages) - 1) % len(m.pages))

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return true, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return true, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.bodyHeight())
		return true, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.bodyHeight())
		return true, nil

	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-len(m.rows(p)))
		return true, nil

	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.rows(p)))
		return true, nil

	case key.Matches(msg, m.keys.Expand):
		m.toggleExpand()
		return true, nil

	case key.Matches(msg, m.keys.Refresh):
		m.log.Debug("manual refresh of %s", p.id)
		return true, m.refreshCmd(p)

	case key.Matches(msg, m.keys.Speed):
		return true, m.cycleSpeed()

	case key.Matches(msg, m.keys.Search):
		if !pageSearchable(p.id) {
			return true, nil
		}
		m.searching = true
		m.search.SetValue(p.filter)
		m.search.CursorEnd()
		m.refreshContent()
		return true, m.search.Focus()

	case key.Matches(msg, m.keys.Clear):
		if p.filter != "" {
			m.setFilter(p, "")
		}
		return true, nil

	case key.Matches(msg, m.keys.ClearHistory):
		if p.id == config.PageAppHistory {
			m.usage.Clear()
			m.log.Info("app history cleared")
			m.refreshContent()
		}
		return true, nil
	}

	for i, pb := range m.keys.Pages {
		if key.Matches(msg, pb) && i < len(m.pages) {
			return true, m.switchPage(i)
		}
	}

	if pageSortable(p.id) {
		for _, sb := range m.keys.Sorts {
			if key.Matches(msg, sb.Binding) {
				cfg := p.cycle.ToggleSort(sb.Key)
				m.log.Debug("sort %s", cfg)
				m.refreshContent()
				return true, nil
			}
		}
	}

	return false, nil
}

// handleSearchKey edits the search box. Enter keeps the query, Esc drops it.
func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	p := m.current()

	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.refreshContent()
		return nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.setFilter(p, "")
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != p.filter {
		m.setFilter(p, v)
	}
	return cmd
}

func pageSearchable(p config.Page) bool {
	return p != config.PagePerformance
}

func pageSortable(p config.Page) bool {
	return p == config.PageProcesses || p == config.PageDetails
}

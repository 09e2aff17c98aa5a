package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/logger"
	"github.com/rileyhilliard/taskview/internal/monitor"
	"github.com/rileyhilliard/taskview/internal/ui"
)

// Poll timeouts are a multiple of the page's interval, with a floor so that
// fast speeds don't starve slow process enumeration.
const (
	pollTimeoutFactor = 5
	minPollTimeout    = 5 * time.Second
)

// clockInterval redraws relative timestamps.
const clockInterval = time.Second

// detailsSort is where the details page starts: the flat list reads like ps.
var detailsSort = monitor.SortConfig{Key: monitor.SortByPID, Direction: monitor.Ascending}

// Thresholds are the warning/critical levels per metric.
type Thresholds struct {
	CPU    ui.Thresholds
	Memory ui.Thresholds
	GPU    ui.Thresholds
}

// Options configures a dashboard.
type Options struct {
	// SourceFor returns the data source behind page. Required.
	SourceFor func(page config.Page) monitor.Source

	StartPage   config.Page
	Speed       config.Speed
	HistorySize int
	Sort        monitor.SortConfig
	Thresholds  Thresholds
	Logger      logger.Logger

	// Now is the clock used for "updated ago" text. Defaults to time.Now.
	Now func() time.Time
}

// page is one tab: its poll cycle plus the interaction state that has to
// survive polls.
type page struct {
	id    config.Page
	cycle *monitor.PollCycle

	// expanded holds group names (processes) or usernames (users).
	expanded *monitor.ExpandSet
	// nested holds per-user group expansion on the users page.
	nested map[string]*monitor.ExpandSet

	selection   monitor.Selection
	selectedKey string
	cursor      int
	filter      string

	// gen identifies the live tick chain.
	gen int
	// background pages keep polling while another page is visible.
	background bool
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	pages  []*page
	active int
	speed  config.Speed
	usage  *monitor.UsageHistory

	thresholds Thresholds
	log        logger.Logger
	now        func() time.Time

	keys      keyMap
	help      help.Model
	search    textinput.Model
	searching bool
	viewport  viewport.Model

	width    int
	height   int
	showHelp bool
	quitting bool
}

// NewModel builds a dashboard with one PollCycle per page. Nothing polls
// until Init runs.
func NewModel(opts Options) Model {
	if opts.SourceFor == nil {
		panic("dashboard: Options.SourceFor is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = monitor.DefaultHistorySize
	}
	if opts.Sort.Key == "" {
		opts.Sort = monitor.DefaultSort
	}
	if _, err := config.ParseSpeed(string(opts.Speed)); err != nil {
		opts.Speed = config.SpeedNormal
	}

	m := Model{
		speed:      opts.Speed,
		usage:      monitor.NewUsageHistory(),
		thresholds: opts.Thresholds,
		log:        opts.Logger,
		now:        opts.Now,
		keys:       defaultKeyMap(),
		help:       help.New(),
		viewport:   viewport.New(80, 20),
	}

	for i, id := range config.Pages {
		cycleOpts := []monitor.CycleOption{
			monitor.WithName(string(id)),
			monitor.WithInterval(opts.Speed.Interval(id.BaseInterval())),
			monitor.WithHistorySize(opts.HistorySize),
			monitor.WithLogger(opts.Logger),
		}
		switch id {
		case config.PageProcesses:
			cycleOpts = append(cycleOpts, monitor.WithSort(opts.Sort))
		case config.PageDetails:
			cycleOpts = append(cycleOpts, monitor.WithSort(detailsSort))
		}
		if id == config.PageAppHistory {
			cycleOpts = append(cycleOpts, monitor.WithUsageHistory(m.usage))
		}

		m.pages = append(m.pages, &page{
			id:         id,
			cycle:      monitor.NewPollCycle(opts.SourceFor(id), cycleOpts...),
			expanded:   monitor.NewExpandSet(),
			nested:     make(map[string]*monitor.ExpandSet),
			background: id == config.PageAppHistory,
		})
		if id == opts.StartPage {
			m.active = i
		}
	}

	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "search by name or PID"
	m.search.CharLimit = 64

	m.help.Styles.ShortKey = m.help.Styles.ShortKey.Foreground(ColorAccent)
	m.help.Styles.FullKey = m.help.Styles.FullKey.Foreground(ColorAccent)

	return m
}

// Init starts polling the visible page and every background page.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{clockCmd()}
	for i, p := range m.pages {
		if i == m.active || p.background {
			cmds = append(cmds, m.startPage(p))
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			if m.quitting {
				m.Close()
			}
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.viewport.Width = msg.Width
		m.refreshContent()

	case tickMsg:
		return m, m.handleTick(msg)

	case pollResultMsg:
		p := m.page(msg.page)
		if p == nil {
			return m, nil
		}
		if p.cycle.Complete(msg.ticket, msg.snap, msg.err) && p == m.current() {
			m.refreshContent()
		}

	case refreshedMsg:
		switch {
		case errors.Is(msg.err, monitor.ErrPollInFlight):
			m.log.Debug("refresh of %s skipped, poll in flight", msg.page)
		case errors.Is(msg.err, monitor.ErrCycleClosed):
			return m, nil
		}
		if p := m.page(msg.page); p != nil && p == m.current() {
			m.refreshContent()
		}

	case clockMsg:
		return m, clockCmd()

	default:
		if m.searching {
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// Close stops every page's cycle. In-flight polls are discarded on arrival.
func (m Model) Close() {
	for _, p := range m.pages {
		p.cycle.Close()
	}
}

// ActivePage returns the visible page.
func (m Model) ActivePage() config.Page {
	return m.current().id
}

// Speed returns the refresh speed.
func (m Model) Speed() config.Speed {
	return m.speed
}

// Cycle returns the poll cycle behind page, or nil.
func (m Model) Cycle(id config.Page) *monitor.PollCycle {
	if p := m.page(id); p != nil {
		return p.cycle
	}
	return nil
}

// Usage returns the accumulated app history.
func (m Model) Usage() *monitor.UsageHistory {
	return m.usage
}

func (m Model) current() *page {
	return m.pages[m.active]
}

func (m Model) page(id config.Page) *page {
	for _, p := range m.pages {
		if p.id == id {
			return p
		}
	}
	return nil
}

// live reports whether p should keep polling.
func (m Model) live(p *page) bool {
	return p == m.current() || p.background
}

// startPage abandons p's tick chain, polls now, and starts a new chain.
func (m *Model) startPage(p *page) tea.Cmd {
	p.gen++
	return tea.Batch(m.pollCmd(p), tickCmd(p))
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	p := m.page(msg.page)
	if p == nil || msg.gen != p.gen || !m.live(p) {
		return nil
	}
	return tea.Batch(m.pollCmd(p), tickCmd(p))
}

// pollCmd starts a poll on p. It returns nil when the cycle refuses (a poll
// is already in flight, or the cycle is closed), which drops the tick.
func (m *Model) pollCmd(p *page) tea.Cmd {
	t, ok := p.cycle.Begin()
	if !ok {
		return nil
	}

	source := p.cycle.Source()
	timeout := pollTimeout(p)
	id := p.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		snap, err := source.Poll(ctx)
		return pollResultMsg{page: id, ticket: t, snap: snap, err: err}
	}
}

// refreshCmd is a manual poll of p through the cycle's Refresh, which owns
// its own ticket. Nil when a poll is already running.
func (m *Model) refreshCmd(p *page) tea.Cmd {
	if p.cycle.InFlight() {
		return nil
	}

	cycle := p.cycle
	timeout := pollTimeout(p)
	id := p.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return refreshedMsg{page: id, err: cycle.Refresh(ctx)}
	}
}

func pollTimeout(p *page) time.Duration {
	interval := p.cycle.Interval()
	if interval <= 0 {
		interval = p.id.BaseInterval()
	}
	if d := interval * pollTimeoutFactor; d > minPollTimeout {
		return d
	}
	return minPollTimeout
}

// tickCmd schedules p's next tick; nil while paused.
func tickCmd(p *page) tea.Cmd {
	interval := p.cycle.Interval()
	if interval <= 0 {
		return nil
	}
	id, gen := p.id, p.gen
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg{page: id, gen: gen, time: t}
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// switchPage makes page i visible. Foreground pages poll only while visible,
// so the new page polls immediately.
func (m *Model) switchPage(i int) tea.Cmd {
	if i == m.active || i < 0 || i >= len(m.pages) {
		return nil
	}

	prev := m.current()
	m.active = i
	p := m.current()
	m.log.Debug("page %s -> %s", prev.id, p.id)

	// Stop the old chain now rather than on its next tick.
	if !prev.background {
		prev.gen++
	}

	m.refreshContent()
	if p.background {
		return nil
	}
	return m.startPage(p)
}

// cycleSpeed advances the refresh speed and reschedules every live page.
func (m *Model) cycleSpeed() tea.Cmd {
	m.speed = m.speed.Next()
	m.log.Info("refresh speed %s", m.speed)

	var cmds []tea.Cmd
	for _, p := range m.pages {
		p.cycle.SetInterval(m.speed.Interval(p.id.BaseInterval()))
		p.gen++
		if m.live(p) {
			cmds = append(cmds, tickCmd(p))
		}
	}
	return tea.Batch(cmds...)
}

// setFilter applies a search query to p. Users and app history filter at
// render time; every other list filters in its cycle.
func (m *Model) setFilter(p *page, query string) {
	p.filter = query
	switch p.id {
	case config.PageProcesses, config.PageServices, config.PageDetails, config.PageStartup:
		p.cycle.SetFilter(query)
	}
	m.refreshContent()
}

package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	tverrors "github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/logger"
)

// Source produces snapshots. Any error is treated the same way regardless of
// cause: the cycle keeps its last good view and flags the failure.
type Source interface {
	Poll(ctx context.Context) (*Snapshot, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Snapshot, error)

// Poll calls f.
func (f SourceFunc) Poll(ctx context.Context) (*Snapshot, error) {
	return f(ctx)
}

var (
	// ErrPollInFlight is returned when a poll is requested while another is running.
	ErrPollInFlight = errors.New("poll already in flight")
	// ErrCycleClosed is returned once the cycle has been torn down.
	ErrCycleClosed = errors.New("poll cycle closed")
	// errNoSnapshot is recorded when a source returns neither data nor an error.
	errNoSnapshot = errors.New("source returned no snapshot")
)

// CycleState is where a PollCycle is in its Idle → Polling → Published/Failed loop.
// Published and Failed are resting states; the next tick starts from either.
type CycleState int

const (
	StateIdle CycleState = iota
	StatePolling
	StatePublished
	StateFailed
)

// String returns a human-readable state name.
func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StatePublished:
		return "published"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Ticket identifies one started poll. Completing with a stale ticket is a no-op.
type Ticket uint64

// ViewState is what a cycle publishes. Every slice and map is rebuilt on
// publish and must be treated as read-only by consumers.
type ViewState struct {
	Groups     []Group
	Apps       []Group
	Background []Group
	// Processes is the flat, filtered list behind the details page.
	Processes []Process
	Users     []UserView
	Services  []Service
	Startup   []StartupItem
	Stats     *SystemStats
	Series    map[string][]float64
	Sort      SortConfig
	Filter    string

	// Failed is set when the most recent poll failed; everything above still
	// reflects the last successful poll.
	Failed bool
	Error  string

	UpdatedAt time.Time
	Polls     int
	Failures  int
}

// HasData reports whether at least one poll has been published.
func (v ViewState) HasData() bool {
	return v.Polls > 0
}

// CycleOption configures a PollCycle.
type CycleOption func(*PollCycle)

// WithName labels the cycle in log output.
func WithName(name string) CycleOption {
	return func(c *PollCycle) { c.name = name }
}

// WithInterval sets the tick interval used by Run. Zero pauses the timer.
func WithInterval(d time.Duration) CycleOption {
	return func(c *PollCycle) { c.interval = d }
}

// WithHistorySize sets the capacity of every rolling series.
func WithHistorySize(n int) CycleOption {
	return func(c *PollCycle) { c.registry = NewSeriesRegistry(n) }
}

// WithSort sets the initial sort.
func WithSort(cfg SortConfig) CycleOption {
	return func(c *PollCycle) { c.sort = cfg }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) CycleOption {
	return func(c *PollCycle) { c.log = l }
}

// WithUsageHistory makes every published process snapshot accumulate into h.
func WithUsageHistory(h *UsageHistory) CycleOption {
	return func(c *PollCycle) { c.usage = h }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CycleOption {
	return func(c *PollCycle) { c.now = now }
}

// PollCycle drives one page: it fetches snapshots from a Source, rebuilds the
// derived view from scratch, and appends scalar stats to its own series
// registry. At most one poll is in flight; ticks that arrive meanwhile are
// dropped rather than queued, so results can never apply out of order.
//
// Callers that own their own event loop (the dashboard) use Begin and
// Complete directly. Everyone else uses Run, Poll or Refresh.
type PollCycle struct {
	mu sync.Mutex

	name     string
	source   Source
	interval time.Duration
	registry *SeriesRegistry
	usage    *UsageHistory
	log      logger.Logger
	now      func() time.Time

	state    CycleState
	ticket   Ticket
	inFlight bool
	closed   bool

	sort        SortConfig
	filter      string
	last        *Snapshot
	lastPublish time.Time
	view        ViewState

	subs       []chan ViewState
	intervalCh chan time.Duration
	runCancel  context.CancelFunc
}

// NewPollCycle creates a cycle over source. A nil source panics.
func NewPollCycle(source Source, opts ...CycleOption) *PollCycle {
	if source == nil {
		panic("monitor: nil poll source")
	}

	c := &PollCycle{
		name:       "poll",
		source:     source,
		interval:   time.Second,
		sort:       DefaultSort,
		log:        logger.Noop(),
		now:        time.Now,
		intervalCh: make(chan time.Duration, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = NewSeriesRegistry(DefaultHistorySize)
	}
	c.view = ViewState{Sort: c.sort, Series: map[string][]float64{}}
	return c
}

// Name returns the cycle's log label.
func (c *PollCycle) Name() string {
	return c.name
}

// State returns the current state.
func (c *PollCycle) State() CycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight reports whether a poll has started and not yet completed.
func (c *PollCycle) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Interval returns the tick interval.
func (c *PollCycle) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// SetInterval changes the tick interval. A running Run loop picks it up on
// its next iteration; zero pauses ticking.
func (c *PollCycle) SetInterval(d time.Duration) {
	c.mu.Lock()
	c.interval = d
	c.mu.Unlock()

	// Latest value wins if Run hasn't consumed the previous one yet.
	select {
	case <-c.intervalCh:
	default:
	}
	select {
	case c.intervalCh <- d:
	default:
	}
}

// Registry exposes the cycle's series registry.
func (c *PollCycle) Registry() *SeriesRegistry {
	return c.registry
}

// Source returns the cycle's source, for callers that run the poll themselves
// between Begin and Complete.
func (c *PollCycle) Source() Source {
	return c.source
}

// Begin moves Idle → Polling and returns a ticket for Complete. It returns
// false without changing anything when a poll is already in flight or the
// cycle is closed; the caller should drop the tick.
func (c *PollCycle) Begin() (Ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, false
	}
	if c.inFlight {
		c.log.Debug("[%s] tick dropped, poll %d still in flight", c.name, c.ticket)
		return 0, false
	}

	c.ticket++
	c.inFlight = true
	c.state = StatePolling
	return c.ticket, true
}

// Complete applies the outcome of the poll identified by t. A nil error with a
// snapshot publishes a fresh view; anything else marks the view failed and
// keeps the previous data. Returns false, changing nothing, if t is stale or
// the cycle was closed while the poll was running.
func (c *PollCycle) Complete(t Ticket, snap *Snapshot, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.inFlight || t != c.ticket {
		return false
	}
	c.inFlight = false

	if err == nil && snap == nil {
		err = errNoSnapshot
	}
	if err != nil {
		c.fail(err)
		return true
	}

	c.publish(snap)
	return true
}

// fail records a failed poll. Must be called with c.mu held.
func (c *PollCycle) fail(err error) {
	c.state = StateFailed
	c.view.Failed = true
	c.view.Error = tverrors.Summary(err)
	c.view.Failures++
	c.log.Warn("[%s] poll failed: %s", c.name, c.view.Error)
	c.notify()
}

// publish rebuilds the view from snap. The caller's snapshot is not
// modified. Must be called with c.mu held.
func (c *PollCycle) publish(in *Snapshot) {
	snap := in
	if in.Timestamp.IsZero() {
		stamped := *in
		stamped.Timestamp = c.now()
		snap = &stamped
	}

	if c.usage != nil && snap.Processes != nil {
		if !c.lastPublish.IsZero() {
			c.usage.Record(Aggregate(snap.Processes), snap.Timestamp.Sub(c.lastPublish))
		}
	}
	c.lastPublish = snap.Timestamp

	if snap.Stats != nil {
		c.appendSeries(snap.Stats)
	}

	recovered := c.view.Failed
	c.last = snap
	c.state = StatePublished
	c.view.Failed = false
	c.view.Error = ""
	c.view.UpdatedAt = snap.Timestamp
	c.view.Polls++
	c.derive()

	if recovered {
		c.log.Info("[%s] source recovered after %d failed polls", c.name, c.view.Failures)
	}
	c.notify()
}

// appendSeries pushes one sample per channel. Must be called with c.mu held.
func (c *PollCycle) appendSeries(s *SystemStats) {
	c.registry.Append(ChannelCPU, s.TotalCPUPercent)
	c.registry.Append(ChannelMemory, s.MemoryPercent())
	c.registry.Append(ChannelDisk, float64(s.DiskBytesPerSec))
	c.registry.Append(ChannelNetwork, float64(s.NetworkBitsPerSec))
	c.registry.Append(ChannelGPU, s.GPUPercent)

	for i, v := range s.PerCorePercent {
		c.registry.Append(CoreChannel(i), v)
	}
	for _, d := range s.Disks {
		c.registry.Append(DiskChannel(d.MountPoint), d.UsagePercent)
	}
}

// derive recomputes every derived field from the last good snapshot using the
// current sort and filter. Must be called with c.mu held.
func (c *PollCycle) derive() {
	c.view.Sort = c.sort
	c.view.Filter = c.filter
	c.view.Series = c.registry.Snapshot()

	if c.last == nil {
		return
	}

	procs := FilterProcesses(c.last.Processes, c.filter)
	groups := SortGroups(Aggregate(procs), c.sort)
	c.view.Groups = groups
	c.view.Apps, c.view.Background = Partition(groups)
	c.view.Processes = SortProcesses(procs, c.sort)
	c.view.Users = BuildUserViews(c.last.Users)
	c.view.Services = SortServices(FilterServices(c.last.Services, c.filter))
	c.view.Startup = SortStartup(FilterStartup(c.last.Startup, c.filter))
	c.view.Stats = c.last.Stats
}

// View returns the last published view.
func (c *PollCycle) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Sort returns the active sort.
func (c *PollCycle) Sort() SortConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// SetSort changes the sort and immediately re-derives the view from the last
// snapshot, without polling.
func (c *PollCycle) SetSort(cfg SortConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = cfg
	c.derive()
	c.notify()
}

// ToggleSort applies SortConfig.Toggle and returns the new config.
func (c *PollCycle) ToggleSort(key SortKey) SortConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = c.sort.Toggle(key)
	c.derive()
	c.notify()
	return c.sort
}

// SetFilter changes the search query and re-derives the view.
func (c *PollCycle) SetFilter(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = query
	c.derive()
	c.notify()
}

// Poll runs one synchronous poll. It returns ErrPollInFlight if another poll
// is running, ErrCycleClosed if the cycle is closed before or during the
// poll, and otherwise the source's error.
func (c *PollCycle) Poll(ctx context.Context) error {
	t, ok := c.Begin()
	if !ok {
		if c.isClosed() {
			return ErrCycleClosed
		}
		return ErrPollInFlight
	}

	snap, err := c.source.Poll(ctx)
	if !c.Complete(t, snap, err) {
		return ErrCycleClosed
	}
	return err
}

// Refresh is a manual, out-of-cycle poll. It follows the same in-flight rule
// as a tick.
func (c *PollCycle) Refresh(ctx context.Context) error {
	c.log.Debug("[%s] manual refresh", c.name)
	return c.Poll(ctx)
}

// Run polls immediately and then on every tick until ctx is done, after which
// the cycle is closed. Each tick's poll runs in its own goroutine; a tick that
// fires while one is still running is dropped.
func (c *PollCycle) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCycleClosed
	}
	c.runCancel = cancel
	interval := c.interval
	c.mu.Unlock()
	defer c.Close()

	launch := func() {
		t, ok := c.Begin()
		if !ok {
			return
		}
		go func() {
			snap, err := c.source.Poll(ctx)
			c.Complete(t, snap, err)
		}()
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	reset := func(d time.Duration) {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		if d > 0 {
			ticker = time.NewTicker(d)
			tick = ticker.C
		}
	}
	reset(interval)
	defer reset(0)

	launch()
	for {
		select {
		case <-ctx.Done():
			return nil
		case d := <-c.intervalCh:
			reset(d)
		case <-tick:
			launch()
		}
	}
}

// Close tears the cycle down: Run stops, in-flight results are discarded on
// arrival, and subscriber channels are closed. Safe to call more than once.
func (c *PollCycle) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.inFlight = false
	c.state = StateIdle
	if c.runCancel != nil {
		c.runCancel()
	}
	for _, ch := range c.subs {
		close(ch)
	}
	c.subs = nil
}

func (c *PollCycle) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Subscribe returns a channel that receives the view after every publish,
// failure, or sort/filter change. Slow readers only see the latest view.
// The channel is closed by Close.
func (c *PollCycle) Subscribe() <-chan ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan ViewState, 1)
	if c.closed {
		close(ch)
		return ch
	}
	c.subs = append(c.subs, ch)
	return ch
}

// notify delivers the current view to subscribers without blocking.
// Must be called with c.mu held.
func (c *PollCycle) notify() {
	for _, ch := range c.subs {
		select {
		case ch <- c.view:
			continue
		default:
		}
		// Buffer full: replace the stale view with the current one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c.view:
		default:
		}
	}
}

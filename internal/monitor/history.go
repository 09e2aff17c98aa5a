package monitor

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultHistorySize is the default number of samples retained per channel
// (one minute at a 1s refresh).
const DefaultHistorySize = 60

// RollingSeries is a fixed-capacity FIFO of float64 samples backed by a ring buffer.
// Appending at capacity overwrites the oldest sample. Values are stored as-is,
// including NaN and negative numbers; clamping is the renderer's job.
type RollingSeries struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewRollingSeries creates a series holding at most capacity samples.
// A capacity of 0 selects DefaultHistorySize. A negative capacity is a
// programming error and panics.
func NewRollingSeries(capacity int) *RollingSeries {
	capacity = checkCapacity(capacity)
	return &RollingSeries{
		data: make([]float64, capacity),
		size: capacity,
	}
}

func checkCapacity(capacity int) int {
	if capacity < 0 {
		panic(fmt.Sprintf("monitor: negative series capacity %d", capacity))
	}
	if capacity == 0 {
		return DefaultHistorySize
	}
	return capacity
}

// Append adds a sample, evicting the oldest one when the series is full.
func (r *RollingSeries) Append(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// Len returns the number of samples currently stored.
func (r *RollingSeries) Len() int {
	return r.count
}

// Cap returns the series capacity.
func (r *RollingSeries) Cap() int {
	return r.size
}

// Values returns every stored sample in chronological order (oldest first).
// The result is a copy and never nil.
func (r *RollingSeries) Values() []float64 {
	return r.Last(r.count)
}

// Last returns the most recent count samples in chronological order.
// Returns fewer values if not enough history is available.
func (r *RollingSeries) Last(count int) []float64 {
	if count > r.count {
		count = r.count
	}
	if count < 0 {
		count = 0
	}

	result := make([]float64, count)

	// head is the next write slot, so the newest sample sits at head-1.
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}

// Latest returns the newest sample, or false if the series is empty.
func (r *RollingSeries) Latest() (float64, bool) {
	if r.count == 0 {
		return 0, false
	}
	return r.data[(r.head-1+r.size)%r.size], true
}

// SeriesRegistry owns one RollingSeries per channel key. Keys are open-ended
// (per-core and per-disk channels are discovered from snapshots), so series
// are created lazily on first append.
type SeriesRegistry struct {
	mu       sync.RWMutex
	capacity int
	series   map[string]*RollingSeries
}

// NewSeriesRegistry creates an empty registry whose series hold capacity samples.
// Capacity follows the same rules as NewRollingSeries.
func NewSeriesRegistry(capacity int) *SeriesRegistry {
	return &SeriesRegistry{
		capacity: checkCapacity(capacity),
		series:   make(map[string]*RollingSeries),
	}
}

// Capacity returns the per-series capacity.
func (g *SeriesRegistry) Capacity() int {
	return g.capacity
}

// Append adds value to the series for key, creating it if needed.
func (g *SeriesRegistry) Append(key string, value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.series[key]
	if !ok {
		s = NewRollingSeries(g.capacity)
		g.series[key] = s
	}
	s.Append(value)
}

// Get returns the samples for key, oldest first. Unknown keys yield an empty
// slice and are not created.
func (g *SeriesRegistry) Get(key string) []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.series[key]
	if !ok {
		return []float64{}
	}
	return s.Values()
}

// Latest returns the newest sample for key.
func (g *SeriesRegistry) Latest(key string) (float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.series[key]
	if !ok {
		return 0, false
	}
	return s.Latest()
}

// Len returns the number of samples stored for key.
func (g *SeriesRegistry) Len(key string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if s, ok := g.series[key]; ok {
		return s.Len()
	}
	return 0
}

// Keys returns every known channel key in sorted order.
func (g *SeriesRegistry) Keys() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.series))
	for k := range g.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot copies every series.
func (g *SeriesRegistry) Snapshot() map[string][]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string][]float64, len(g.series))
	for k, s := range g.series {
		out[k] = s.Values()
	}
	return out
}

// Reset drops every series.
func (g *SeriesRegistry) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.series = make(map[string]*RollingSeries)
}

package monitor

import (
	"slices"
	"sync"
	"time"
)

// AppUsage is the resource use accumulated by one application name since the
// history was last cleared.
type AppUsage struct {
	Name         string        `json:"name" yaml:"name"`
	CPUTime      time.Duration `json:"cpu_time" yaml:"cpu_time"`
	DiskBytes    uint64        `json:"disk_bytes" yaml:"disk_bytes"`
	NetworkBytes uint64        `json:"network_bytes" yaml:"network_bytes"`
	Icon         string        `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// UsageHistory accumulates per-application totals across polls. Unlike groups,
// it carries state from poll to poll, so it is safe for concurrent use: the
// processes page records into it while the app-history page reads it.
type UsageHistory struct {
	mu      sync.RWMutex
	entries map[string]*AppUsage
}

// NewUsageHistory creates an empty history.
func NewUsageHistory() *UsageHistory {
	return &UsageHistory{entries: make(map[string]*AppUsage)}
}

// Record adds elapsed worth of usage for every group. CPU percent becomes CPU
// time, per-second disk and network rates become byte counts.
func (h *UsageHistory) Record(groups []Group, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	secs := elapsed.Seconds()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, g := range groups {
		e, ok := h.entries[g.Name]
		if !ok {
			e = &AppUsage{Name: g.Name}
			h.entries[g.Name] = e
		}
		if g.TotalCPU > 0 {
			e.CPUTime += time.Duration(g.TotalCPU / 100 * float64(elapsed))
		}
		if g.TotalDisk > 0 {
			e.DiskBytes += uint64(g.TotalDisk * secs)
		}
		if g.TotalNetwork > 0 {
			e.NetworkBytes += uint64(g.TotalNetwork / 8 * secs)
		}
		if e.Icon == "" && g.Icon != "" {
			e.Icon = g.Icon
		}
	}
}

// Entries returns a copy of every entry, most CPU time first, ties by name.
func (h *UsageHistory) Entries() []AppUsage {
	h.mu.RLock()
	out := make([]AppUsage, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, *e)
	}
	h.mu.RUnlock()

	slices.SortFunc(out, func(a, b AppUsage) int {
		if a.CPUTime != b.CPUTime {
			if a.CPUTime > b.CPUTime {
				return -1
			}
			return 1
		}
		return CompareNames(a.Name, b.Name)
	})
	return out
}

// Len returns the number of tracked applications.
func (h *UsageHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear forgets everything.
func (h *UsageHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = make(map[string]*AppUsage)
}

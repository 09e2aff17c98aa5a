package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// procHandle is the part of *process.Process the collector reads.
type procHandle interface {
	NameWithContext(ctx context.Context) (string, error)
	PercentWithContext(ctx context.Context, interval time.Duration) (float64, error)
	MemoryInfoWithContext(ctx context.Context) (*process.MemoryInfoStat, error)
	IOCountersWithContext(ctx context.Context) (*process.IOCountersStat, error)
	NumThreadsWithContext(ctx context.Context) (int32, error)
	UsernameWithContext(ctx context.Context) (string, error)
	TerminalWithContext(ctx context.Context) (string, error)
	ExeWithContext(ctx context.Context) (string, error)
	StatusWithContext(ctx context.Context) ([]string, error)
}

// Pool keeps gopsutil process handles alive between refresh cycles. A handle
// remembers the CPU times from its previous read, so reusing it is what turns
// CPU percent into a per-interval figure instead of a lifetime average.
//
// Handles are keyed by PID and checked against the process start time on
// every Get, so a PID the kernel hands to a new process gets a fresh handle.
type Pool struct {
	mu      sync.Mutex
	entries map[int32]*poolEntry
	open    func(ctx context.Context, pid int32) (procHandle, error)
	born    func(ctx context.Context, pid int32) (int64, error)
}

// poolEntry holds a handle and its last I/O sample.
type poolEntry struct {
	proc     procHandle
	created  int64
	ioBytes  uint64
	ioAt     time.Time
	lastUsed time.Time
}

// NewPool creates an empty handle pool.
func NewPool() *Pool {
	return &Pool{
		entries: make(map[int32]*poolEntry),
		open:    openProcess,
		born:    processCreateTime,
	}
}

func openProcess(ctx context.Context, pid int32) (procHandle, error) {
	return process.NewProcessWithContext(ctx, pid)
}

// processCreateTime reads the start time through a throwaway handle, since a
// cached handle keeps returning the time it read first.
func processCreateTime(ctx context.Context, pid int32) (int64, error) {
	return (&process.Process{Pid: pid}).CreateTimeWithContext(ctx)
}

// Get returns the cached handle for pid, opening one if needed. A handle
// whose process start time changed belongs to a dead process and is replaced,
// along with its I/O sample.
func (p *Pool) Get(ctx context.Context, pid int32) (procHandle, error) {
	created, err := p.born(ctx, pid)
	if err != nil {
		p.drop(pid)
		return nil, err
	}

	p.mu.Lock()
	entry, exists := p.entries[pid]
	if exists && entry.proc != nil && entry.created == created {
		entry.lastUsed = time.Now()
		p.mu.Unlock()
		return entry.proc, nil
	}
	p.mu.Unlock()

	proc, err := p.open(ctx, pid)
	if err != nil {
		p.drop(pid)
		return nil, err
	}

	p.mu.Lock()
	p.entries[pid] = &poolEntry{proc: proc, created: created, lastUsed: time.Now()}
	p.mu.Unlock()

	return proc, nil
}

func (p *Pool) drop(pid int32) {
	p.mu.Lock()
	delete(p.entries, pid)
	p.mu.Unlock()
}

// IORate records total, the cumulative I/O byte count of pid at time at, and
// returns the bytes per second since the previous sample. The first sample
// for a pid returns 0.
func (p *Pool) IORate(pid int32, total uint64, at time.Time) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[pid]
	if !ok {
		entry = &poolEntry{lastUsed: at}
		p.entries[pid] = entry
	}

	var rate uint64
	if !entry.ioAt.IsZero() {
		rate = ratePerSec(entry.ioBytes, total, at.Sub(entry.ioAt))
	}
	entry.ioBytes = total
	entry.ioAt = at
	return rate
}

// Sweep drops every handle whose pid is not in alive and returns how many
// were removed.
func (p *Pool) Sweep(alive map[int32]struct{}) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for pid := range p.entries {
		if _, ok := alive[pid]; !ok {
			delete(p.entries, pid)
			removed++
		}
	}
	return removed
}

// Close releases every handle.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.entries)
}

// Size returns the number of cached handles.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// ratePerSec converts two cumulative counter readings into a per-second rate.
// A counter that went backwards (reset or wrap) yields 0.
func ratePerSec(prev, cur uint64, elapsed time.Duration) uint64 {
	if cur < prev || elapsed <= 0 {
		return 0
	}
	return uint64(float64(cur-prev) / elapsed.Seconds())
}

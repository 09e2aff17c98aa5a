package monitor

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	tverrors "github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/logger"
	"github.com/rileyhilliard/taskview/internal/monitor/parsers"
)

// SourceKind selects which parts of a Snapshot a collector source fills.
type SourceKind int

const (
	// KindProcesses fills Processes and Stats.
	KindProcesses SourceKind = iota
	// KindPerformance fills Stats only.
	KindPerformance
	// KindUsers fills Users, each session carrying its processes.
	KindUsers
	// KindServices fills Services.
	KindServices
	// KindAppHistory fills Processes only, for usage accounting.
	KindAppHistory
	// KindDetails fills Processes with per-process status.
	KindDetails
	// KindStartup fills Startup from the XDG autostart directories.
	KindStartup
)

// String returns the kind's name.
func (k SourceKind) String() string {
	switch k {
	case KindProcesses:
		return "processes"
	case KindPerformance:
		return "performance"
	case KindUsers:
		return "users"
	case KindServices:
		return "services"
	case KindAppHistory:
		return "app-history"
	case KindDetails:
		return "details"
	case KindStartup:
		return "startup"
	default:
		return "unknown"
	}
}

// Swapped in tests.
var (
	listPids = process.PidsWithContext
	numCPU   = runtime.NumCPU
)

// cpuJiffies stores CPU times for delta calculation.
type cpuJiffies struct {
	total float64
	idle  float64
}

// kindState is the delta bookkeeping of one source kind. Kinds never share
// it, so pages polling at different intervals don't skew each other's rates.
// mu serializes collections of the same kind; different kinds run in parallel.
type kindState struct {
	mu    sync.Mutex
	pool  *Pool
	cpu   cpuJiffies
	cores []cpuJiffies
	disk  uint64
	net   uint64
	at    time.Time
}

// Collector gathers local system metrics through gopsutil.
type Collector struct {
	mu        sync.Mutex
	states    map[SourceKind]*kindState
	runner    Runner
	platform  Platform
	log       logger.Logger
	now       func() time.Time
	hardware  *HardwareInfo
	autostart []AutostartDir
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithRunner replaces the command runner used for systemctl and nvidia-smi.
func WithRunner(r Runner) CollectorOption {
	return func(c *Collector) { c.runner = r }
}

// WithPlatform overrides platform detection.
func WithPlatform(p Platform) CollectorOption {
	return func(c *Collector) { c.platform = p }
}

// WithAutostartDirs replaces the XDG autostart search path, highest
// precedence first.
func WithAutostartDirs(dirs ...AutostartDir) CollectorOption {
	return func(c *Collector) { c.autostart = dirs }
}

// WithCollectorLogger sets the logger.
func WithCollectorLogger(l logger.Logger) CollectorOption {
	return func(c *Collector) { c.log = l }
}

// NewCollector creates a collector for the local machine.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		states:   make(map[SourceKind]*kindState),
		runner:   ExecRunner{},
		platform: CurrentPlatform(),
		log:      logger.Noop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.autostart == nil {
		c.autostart = DefaultAutostartDirs()
	}
	return c
}

// Source returns a Source that fills the snapshot parts for kind.
func (c *Collector) Source(kind SourceKind) Source {
	return SourceFunc(func(ctx context.Context) (*Snapshot, error) {
		return c.Collect(ctx, kind)
	})
}

// Close releases cached process handles.
func (c *Collector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.states {
		st.pool.Close()
	}
}

// Collect takes one snapshot of kind. Rate fields are zero on the first call
// for a kind, since they need a previous sample.
func (c *Collector) Collect(ctx context.Context, kind SourceKind) (*Snapshot, error) {
	st := c.state(kind)
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := &Snapshot{Timestamp: c.now()}
	var err error

	switch kind {
	case KindProcesses:
		var threads int64
		snap.Processes, threads, err = c.collectProcesses(ctx, st, snap.Timestamp, false)
		if err != nil {
			return nil, err
		}
		snap.Stats, err = c.collectStats(ctx, st, snap.Timestamp)
		if err != nil {
			return nil, err
		}
		snap.Stats.ProcessCount = len(snap.Processes)
		snap.Stats.ThreadCount = threads

	case KindPerformance:
		procs, threads, perr := c.collectProcesses(ctx, st, snap.Timestamp, false)
		if perr != nil {
			return nil, perr
		}
		snap.Stats, err = c.collectStats(ctx, st, snap.Timestamp)
		if err != nil {
			return nil, err
		}
		snap.Stats.ProcessCount = len(procs)
		snap.Stats.ThreadCount = threads

	case KindUsers:
		procs, _, perr := c.collectProcesses(ctx, st, snap.Timestamp, false)
		if perr != nil {
			return nil, perr
		}
		users, uerr := host.UsersWithContext(ctx)
		if uerr != nil {
			return nil, tverrors.WrapWithCode(uerr, tverrors.ErrSource,
				"Couldn't list logged-in users",
				"The utmp database may be unavailable in this environment.")
		}
		snap.Users = sessionsFromUsers(users, procs)

	case KindServices:
		snap.Services, err = c.collectServices(ctx)
		if err != nil {
			return nil, err
		}

	case KindAppHistory:
		snap.Processes, _, err = c.collectProcesses(ctx, st, snap.Timestamp, false)
		if err != nil {
			return nil, err
		}

	case KindDetails:
		snap.Processes, _, err = c.collectProcesses(ctx, st, snap.Timestamp, true)
		if err != nil {
			return nil, err
		}

	case KindStartup:
		snap.Startup, err = c.collectStartup(ctx)
		if err != nil {
			return nil, err
		}

	default:
		return nil, tverrors.New(tverrors.ErrSource,
			fmt.Sprintf("Unknown source kind %d", kind),
			"Use one of the collector's Kind constants.")
	}

	return snap, nil
}

// state returns the bookkeeping for kind, creating it on first use.
func (c *Collector) state(kind SourceKind) *kindState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.states[kind]
	if !ok {
		st = &kindState{pool: NewPool()}
		c.states[kind] = st
	}
	return st
}

// collectProcesses enumerates every readable process. Processes that exit
// between enumeration and reading are skipped. withStatus also reads the
// scheduler state, which only the details page shows.
func (c *Collector) collectProcesses(ctx context.Context, st *kindState, at time.Time, withStatus bool) ([]Process, int64, error) {
	pids, err := listPids(ctx)
	if err != nil {
		return nil, 0, tverrors.WrapWithCode(err, tverrors.ErrSource,
			"Couldn't enumerate processes",
			"Check that /proc is mounted and readable.")
	}

	cores := numCPU()
	procs := make([]Process, 0, len(pids))
	alive := make(map[int32]struct{}, len(pids))
	var threads int64

	for _, pid := range pids {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		h, err := st.pool.Get(ctx, pid)
		if err != nil {
			continue
		}
		name, err := h.NameWithContext(ctx)
		if err != nil {
			continue
		}
		alive[pid] = struct{}{}

		p := Process{PID: pid, Name: name}

		if pct, err := h.PercentWithContext(ctx, 0); err == nil && cores > 0 {
			p.CPUPercent = pct / float64(cores)
		}
		if mi, err := h.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			p.MemoryBytes = mi.RSS
		}
		if io, err := h.IOCountersWithContext(ctx); err == nil && io != nil {
			p.DiskBytesPerSec = st.pool.IORate(pid, io.ReadBytes+io.WriteBytes, at)
		}
		if n, err := h.NumThreadsWithContext(ctx); err == nil {
			p.Threads = n
			threads += int64(n)
		}
		if user, err := h.UsernameWithContext(ctx); err == nil {
			p.Username = user
		}
		if tty, err := h.TerminalWithContext(ctx); err == nil && tty != "" {
			p.IsApp = true
			if exe, err := h.ExeWithContext(ctx); err == nil {
				p.Icon = exe
			}
		}
		if withStatus {
			if status, err := h.StatusWithContext(ctx); err == nil && len(status) > 0 {
				p.Status = status[0]
			}
		}

		procs = append(procs, p)
	}

	if removed := st.pool.Sweep(alive); removed > 0 {
		c.log.Debug("dropped %d exited process handles", removed)
	}
	return procs, threads, nil
}

// collectStats gathers system-wide figures. Memory and CPU failures fail the
// poll; disks, uptime and GPU are best effort.
func (c *Collector) collectStats(ctx context.Context, st *kindState, at time.Time) (*SystemStats, error) {
	stats := &SystemStats{}

	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return nil, tverrors.WrapWithCode(err, tverrors.ErrSource, "Couldn't read CPU times", "")
	}
	if len(times) > 0 {
		cur := jiffies(times[0])
		stats.TotalCPUPercent = cpuBusy(st.cpu, cur)
		st.cpu = cur
	}

	if perCore, err := cpu.TimesWithContext(ctx, true); err == nil {
		if len(st.cores) != len(perCore) {
			st.cores = make([]cpuJiffies, len(perCore))
		}
		stats.PerCorePercent = make([]float64, len(perCore))
		for i, t := range perCore {
			cur := jiffies(t)
			stats.PerCorePercent[i] = cpuBusy(st.cores[i], cur)
			st.cores[i] = cur
		}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, tverrors.WrapWithCode(err, tverrors.ErrSource, "Couldn't read memory usage", "")
	}
	stats.TotalMemory = vm.Total
	stats.UsedMemory = vm.Used
	stats.CachedMemory = vm.Cached + vm.Buffers

	if up, err := host.UptimeWithContext(ctx); err == nil {
		stats.Uptime = time.Duration(up) * time.Second
	}

	elapsed := time.Duration(0)
	if !st.at.IsZero() {
		elapsed = at.Sub(st.at)
	}
	st.at = at

	if counters, err := disk.IOCountersWithContext(ctx); err == nil {
		var total uint64
		for _, d := range counters {
			total += d.ReadBytes + d.WriteBytes
		}
		stats.DiskBytesPerSec = ratePerSec(st.disk, total, elapsed)
		st.disk = total
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		total := counters[0].BytesSent + counters[0].BytesRecv
		stats.NetworkBitsPerSec = ratePerSec(st.net, total, elapsed) * 8
		st.net = total
	}

	stats.Disks = c.collectDisks(ctx)
	stats.GPUPercent = c.collectGPU(ctx)
	stats.Hardware = c.hardwareInfo(ctx)

	return stats, nil
}

func (c *Collector) collectDisks(ctx context.Context) []DiskInfo {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		c.log.Debug("disk partitions unavailable: %v", err)
		return nil
	}

	disks := make([]DiskInfo, 0, len(parts))
	for _, p := range parts {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue
		}
		disks = append(disks, DiskInfo{
			Name:         p.Device,
			MountPoint:   p.Mountpoint,
			FSType:       p.Fstype,
			TotalBytes:   usage.Total,
			FreeBytes:    usage.Free,
			UsagePercent: usage.UsedPercent,
		})
	}
	return disks
}

// collectGPU averages utilization across NVIDIA devices. No nvidia-smi means 0.
func (c *Collector) collectGPU(ctx context.Context) float64 {
	out, err := c.runner.Run(ctx, "nvidia-smi", parsers.NvidiaSMIArgs...)
	if err != nil {
		return 0
	}
	gpus, err := parsers.ParseNvidiaSMI(string(out))
	if err != nil {
		c.log.Debug("nvidia-smi output not understood: %v", err)
		return 0
	}
	return parsers.AveragePercent(gpus)
}

// hardwareInfo is read once and cached.
func (c *Collector) hardwareInfo(ctx context.Context) HardwareInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hardware != nil {
		return *c.hardware
	}

	hw := HardwareInfo{LogicalProcessors: numCPU()}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		hw.CPUName = infos[0].ModelName
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		hw.PhysicalCores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		hw.LogicalProcessors = n
	}

	c.hardware = &hw
	return hw
}

func (c *Collector) collectServices(ctx context.Context) ([]Service, error) {
	if !c.platform.SupportsServices() {
		return nil, tverrors.New(tverrors.ErrSource,
			fmt.Sprintf("Services aren't supported on %s", c.platform),
			"Service listing needs systemd.")
	}

	out, err := c.runner.Run(ctx, "systemctl", parsers.SystemctlArgs...)
	if err != nil {
		return nil, tverrors.WrapWithCode(err, tverrors.ErrExec,
			"Couldn't list services",
			"Make sure systemctl is installed and systemd is running.")
	}

	units, err := parsers.ParseSystemctlUnits(string(out))
	if err != nil {
		return nil, tverrors.WrapWithCode(err, tverrors.ErrSource, "Couldn't parse systemctl output", "")
	}
	return servicesFromUnits(units), nil
}

func servicesFromUnits(units []parsers.Unit) []Service {
	services := make([]Service, 0, len(units))
	for _, u := range units {
		services = append(services, Service{
			Name:        u.Name,
			Description: u.Description,
			Status:      u.Active,
			SubState:    u.Sub,
		})
	}
	return services
}

// sessionsFromUsers builds one session per logged-in user, in login order,
// and attaches every process that user owns.
func sessionsFromUsers(users []host.UserStat, procs []Process) []UserSession {
	byUser := make(map[string][]Process)
	for _, p := range procs {
		if p.Username != "" {
			byUser[p.Username] = append(byUser[p.Username], p)
		}
	}

	seen := make(map[string]bool, len(users))
	sessions := make([]UserSession, 0, len(users))
	for _, u := range users {
		if u.User == "" || seen[u.User] {
			continue
		}
		seen[u.User] = true

		status := SessionActive
		if len(byUser[u.User]) == 0 {
			status = SessionDisconnected
		}
		sessions = append(sessions, UserSession{
			Username:  u.User,
			Terminal:  u.Terminal,
			Host:      u.Host,
			Status:    status,
			Processes: byUser[u.User],
		})
	}
	return sessions
}

func jiffies(t cpu.TimesStat) cpuJiffies {
	idle := t.Idle + t.Iowait
	busy := t.User + t.System + t.Nice + t.Irq + t.Softirq + t.Steal
	return cpuJiffies{total: idle + busy, idle: idle}
}

// cpuBusy returns the busy percentage between two samples. With no previous
// sample it falls back to the since-boot average.
func cpuBusy(prev, cur cpuJiffies) float64 {
	dTotal := cur.total - prev.total
	dIdle := cur.idle - prev.idle
	if dTotal <= 0 {
		return 0
	}
	pct := (dTotal - dIdle) / dTotal * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tverrors "github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/monitor/parsers"
)

func TestSourceKind_String(t *testing.T) {
	tests := []struct {
		kind SourceKind
		want string
	}{
		{KindProcesses, "processes"},
		{KindPerformance, "performance"},
		{KindUsers, "users"},
		{KindServices, "services"},
		{KindAppHistory, "app-history"},
		{KindDetails, "details"},
		{KindStartup, "startup"},
		{SourceKind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.String())
		})
	}
}

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	require.NotNil(t, c)
	assert.Equal(t, CurrentPlatform(), c.platform)
	assert.IsType(t, ExecRunner{}, c.runner)

	// Close with no state should not panic
	c.Close()
}

func TestCollector_UnknownKind(t *testing.T) {
	c := NewCollector()
	_, err := c.Collect(context.Background(), SourceKind(42))
	require.Error(t, err)
	assert.True(t, tverrors.IsCode(err, tverrors.ErrSource))
}

func TestCollector_Services(t *testing.T) {
	output := "cron.service loaded active running Regular background program processing daemon\n" +
		"ssh.service loaded inactive dead OpenBSD Secure Shell server\n"

	var gotArgs []string
	runner := RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, error) {
		require.Equal(t, "systemctl", name)
		gotArgs = args
		return []byte(output), nil
	})

	c := NewCollector(WithRunner(runner), WithPlatform(PlatformLinux))
	snap, err := c.Source(KindServices).Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, parsers.SystemctlArgs, gotArgs)
	require.Len(t, snap.Services, 2)
	assert.Equal(t, "cron", snap.Services[0].Name)
	assert.True(t, snap.Services[0].Running())
	assert.Equal(t, "dead", snap.Services[1].SubState)
	assert.False(t, snap.Services[1].Running())
	assert.Nil(t, snap.Processes)
	assert.Nil(t, snap.Stats)
}

func TestCollector_ServicesErrors(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		runner   Runner
		wantCode string
	}{
		{
			name:     "unsupported platform",
			platform: PlatformDarwin,
			runner:   ExecRunner{},
			wantCode: tverrors.ErrSource,
		},
		{
			name:     "systemctl missing",
			platform: PlatformLinux,
			runner: RunnerFunc(func(context.Context, string, ...string) ([]byte, error) {
				return nil, errors.New("executable file not found in $PATH")
			}),
			wantCode: tverrors.ErrExec,
		},
		{
			name:     "garbled output",
			platform: PlatformLinux,
			runner: RunnerFunc(func(context.Context, string, ...string) ([]byte, error) {
				return []byte("what"), nil
			}),
			wantCode: tverrors.ErrSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector(WithRunner(tt.runner), WithPlatform(tt.platform))
			_, err := c.Collect(context.Background(), KindServices)
			require.Error(t, err)
			assert.True(t, tverrors.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestCollector_ProcessEnumerationFailure(t *testing.T) {
	orig := listPids
	listPids = func(context.Context) ([]int32, error) {
		return nil, errors.New("proc not mounted")
	}
	t.Cleanup(func() { listPids = orig })

	c := NewCollector()
	_, err := c.Collect(context.Background(), KindProcesses)
	require.Error(t, err)
	assert.True(t, tverrors.IsCode(err, tverrors.ErrSource))
}

func TestCollector_PerformanceSmoke(t *testing.T) {
	if testing.Short() || runtime.GOOS != "linux" {
		t.Skip("reads the live system")
	}

	noGPU := RunnerFunc(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("not installed")
	})
	c := NewCollector(WithRunner(noGPU))
	defer c.Close()

	snap, err := c.Collect(context.Background(), KindPerformance)
	require.NoError(t, err)
	require.NotNil(t, snap.Stats)
	assert.Greater(t, snap.Stats.TotalMemory, uint64(0))
	assert.Greater(t, snap.Stats.ProcessCount, 0)
	assert.Equal(t, 0.0, snap.Stats.GPUPercent)
	assert.Nil(t, snap.Processes, "performance source only fills stats")
}

func TestServicesFromUnits(t *testing.T) {
	units := []parsers.Unit{
		{Name: "nginx", Load: "loaded", Active: "active", Sub: "running", Description: "web server"},
		{Name: "old", Load: "loaded", Active: "failed", Sub: "failed"},
	}

	services := servicesFromUnits(units)
	require.Len(t, services, 2)
	assert.Equal(t, Service{Name: "nginx", Description: "web server", Status: "active", SubState: "running"}, services[0])
	assert.Equal(t, "failed", services[1].Status)
}

func TestSessionsFromUsers(t *testing.T) {
	users := []host.UserStat{
		{User: "alice", Terminal: "pts/0", Host: "10.0.0.2"},
		{User: "alice", Terminal: "pts/1"},
		{User: "bob", Terminal: "tty1"},
		{User: ""},
	}
	procs := []Process{
		{PID: 1, Name: "bash", Username: "alice"},
		{PID: 2, Name: "vim", Username: "alice"},
		{PID: 3, Name: "sshd", Username: "root"},
	}

	sessions := sessionsFromUsers(users, procs)
	require.Len(t, sessions, 2)

	assert.Equal(t, "alice", sessions[0].Username)
	assert.Equal(t, "pts/0", sessions[0].Terminal, "first login wins")
	assert.Equal(t, "10.0.0.2", sessions[0].Host)
	assert.Equal(t, SessionActive, sessions[0].Status)
	assert.Len(t, sessions[0].Processes, 2)

	assert.Equal(t, "bob", sessions[1].Username)
	assert.Equal(t, SessionDisconnected, sessions[1].Status)
	assert.Empty(t, sessions[1].Processes)
}

func TestCPUBusy(t *testing.T) {
	tests := []struct {
		name string
		prev cpuJiffies
		cur  cpuJiffies
		want float64
	}{
		{"half busy", cpuJiffies{total: 100, idle: 50}, cpuJiffies{total: 200, idle: 100}, 50},
		{"fully idle", cpuJiffies{total: 100, idle: 100}, cpuJiffies{total: 200, idle: 200}, 0},
		{"fully busy", cpuJiffies{total: 100, idle: 0}, cpuJiffies{total: 200, idle: 0}, 100},
		{"first sample", cpuJiffies{}, cpuJiffies{total: 400, idle: 300}, 25},
		{"no progress", cpuJiffies{total: 100, idle: 50}, cpuJiffies{total: 100, idle: 50}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cpuBusy(tt.prev, tt.cur), 0.0001)
		})
	}
}

func TestJiffies(t *testing.T) {
	j := jiffies(cpu.TimesStat{User: 10, System: 5, Nice: 1, Idle: 80, Iowait: 4})
	assert.InDelta(t, 100.0, j.total, 0.0001)
	assert.InDelta(t, 84.0, j.idle, 0.0001)
}

// fakeHandle is a process whose readings are fixed.
type fakeHandle struct {
	name    string
	nameErr error
	cpu     float64
	rss     uint64
	read    uint64
	write   uint64
	threads int32
	user    string
	tty     string
	exe     string
	status  []string
}

func (f *fakeHandle) NameWithContext(context.Context) (string, error) {
	return f.name, f.nameErr
}

func (f *fakeHandle) PercentWithContext(context.Context, time.Duration) (float64, error) {
	return f.cpu, nil
}

func (f *fakeHandle) MemoryInfoWithContext(context.Context) (*process.MemoryInfoStat, error) {
	return &process.MemoryInfoStat{RSS: f.rss}, nil
}

func (f *fakeHandle) IOCountersWithContext(context.Context) (*process.IOCountersStat, error) {
	return &process.IOCountersStat{ReadBytes: f.read, WriteBytes: f.write}, nil
}

func (f *fakeHandle) NumThreadsWithContext(context.Context) (int32, error) {
	return f.threads, nil
}

func (f *fakeHandle) UsernameWithContext(context.Context) (string, error) {
	return f.user, nil
}

func (f *fakeHandle) TerminalWithContext(context.Context) (string, error) {
	return f.tty, nil
}

func (f *fakeHandle) ExeWithContext(context.Context) (string, error) {
	return f.exe, nil
}

func (f *fakeHandle) StatusWithContext(context.Context) ([]string, error) {
	return f.status, nil
}

// fakeProcessTable swaps the pid list and core count, and returns a pool
// that opens handles from table.
func fakeProcessTable(t *testing.T, cores int, table map[int32]*fakeHandle) *Pool {
	t.Helper()

	origPids, origCPU := listPids, numCPU
	t.Cleanup(func() { listPids, numCPU = origPids, origCPU })

	pids := make([]int32, 0, len(table))
	for pid := range table {
		pids = append(pids, pid)
	}
	listPids = func(context.Context) ([]int32, error) { return pids, nil }
	numCPU = func() int { return cores }

	pool := NewPool()
	pool.born = fixedBirth(1)
	pool.open = func(_ context.Context, pid int32) (procHandle, error) {
		h, ok := table[pid]
		if !ok {
			return nil, errors.New("no such process")
		}
		return h, nil
	}
	return pool
}

func TestCollectProcesses_FakeTable(t *testing.T) {
	firefox := &fakeHandle{
		name: "firefox", cpu: 80, rss: 4096, read: 1000, write: 1000, threads: 12,
		user: "ada", tty: "pts/0", exe: "/usr/lib/firefox/firefox", status: []string{"running"},
	}
	pool := fakeProcessTable(t, 4, map[int32]*fakeHandle{
		100: firefox,
		200: {name: "kworker/0:1", cpu: 2, threads: 1, user: "root", status: []string{"idle"}},
		300: {nameErr: errors.New("exited")},
	})
	pool.IORate(999, 10, time.Unix(0, 0))

	c := NewCollector()
	st := &kindState{pool: pool}
	t0 := time.Unix(1000, 0)

	procs, threads, err := c.collectProcesses(context.Background(), st, t0, false)
	require.NoError(t, err)
	require.Len(t, procs, 2, "a process whose name can't be read is skipped")
	assert.Equal(t, int64(13), threads)
	assert.Equal(t, 2, pool.Size(), "stale and unreadable handles are swept")

	byPID := make(map[int32]Process, len(procs))
	for _, p := range procs {
		byPID[p.PID] = p
	}

	ff := byPID[100]
	assert.InDelta(t, 20.0, ff.CPUPercent, 0.0001, "CPU is divided by the core count")
	assert.Equal(t, uint64(4096), ff.MemoryBytes)
	assert.True(t, ff.IsApp, "a controlling terminal marks an app")
	assert.Equal(t, "/usr/lib/firefox/firefox", ff.Icon)
	assert.Equal(t, "ada", ff.Username)
	assert.Equal(t, uint64(0), ff.DiskBytesPerSec, "first sample has no rate")
	assert.Empty(t, ff.Status, "status is only read for the details page")

	kw := byPID[200]
	assert.False(t, kw.IsApp)
	assert.Empty(t, kw.Icon)
	assert.InDelta(t, 0.5, kw.CPUPercent, 0.0001)

	firefox.read, firefox.write = 3000, 3000
	procs, _, err = c.collectProcesses(context.Background(), st, t0.Add(2*time.Second), true)
	require.NoError(t, err)
	for _, p := range procs {
		switch p.PID {
		case 100:
			assert.Equal(t, uint64(2000), p.DiskBytesPerSec)
			assert.Equal(t, "running", p.Status)
		case 200:
			assert.Equal(t, "idle", p.Status)
		}
	}
}

func TestCollector_DetailsKind(t *testing.T) {
	pool := fakeProcessTable(t, 1, map[int32]*fakeHandle{
		7: {name: "sshd", status: []string{"sleep"}},
	})

	c := NewCollector()
	c.states[KindDetails] = &kindState{pool: pool}

	snap, err := c.Collect(context.Background(), KindDetails)
	require.NoError(t, err)
	require.Len(t, snap.Processes, 1)
	assert.Equal(t, "sleep", snap.Processes[0].Status)
	assert.Nil(t, snap.Stats)
}

func TestCollector_StartupKind(t *testing.T) {
	dir := t.TempDir()
	writeDesktop(t, dir, "syncthing.desktop", "Name=Syncthing\nExec=syncthing serve\n")

	c := NewCollector(WithAutostartDirs(AutostartDir{Path: dir, Scope: ScopeUser}))
	snap, err := c.Collect(context.Background(), KindStartup)
	require.NoError(t, err)

	require.Len(t, snap.Startup, 1)
	assert.Equal(t, "Syncthing", snap.Startup[0].Name)
	assert.Equal(t, filepath.Join(dir, "syncthing.desktop"), snap.Startup[0].Path)
	assert.Nil(t, snap.Processes)
}

func TestCollector_KindsCollectConcurrently(t *testing.T) {
	orig := listPids
	t.Cleanup(func() { listPids = orig })

	entered := make(chan struct{})
	release := make(chan struct{})
	listPids = func(ctx context.Context) ([]int32, error) {
		close(entered)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil, nil
	}

	c := NewCollector(WithAutostartDirs(AutostartDir{Path: t.TempDir(), Scope: ScopeUser}))

	slow := make(chan error, 1)
	go func() {
		_, err := c.Collect(context.Background(), KindAppHistory)
		slow <- err
	}()
	<-entered

	fast := make(chan error, 1)
	go func() {
		_, err := c.Collect(context.Background(), KindStartup)
		fast <- err
	}()

	select {
	case err := <-fast:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("startup collection waited on the process enumeration")
	}

	close(release)
	require.NoError(t, <-slow)
}

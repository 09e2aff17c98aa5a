package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

var fixtureTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixtureProcesses() []monitor.Process {
	return []monitor.Process{
		{PID: 10, Name: "firefox", CPUPercent: 20, MemoryBytes: 400 << 20, IsApp: true},
		{PID: 11, Name: "firefox", CPUPercent: 5, MemoryBytes: 100 << 20, IsApp: true},
		{PID: 20, Name: "code", CPUPercent: 30, MemoryBytes: 300 << 20, IsApp: true},
		{PID: 30, Name: "sshd", CPUPercent: 0.5, MemoryBytes: 8 << 20},
		{PID: 1, Name: "systemd", CPUPercent: 0.1, MemoryBytes: 12 << 20},
	}
}

func fixtureStats() *monitor.SystemStats {
	return &monitor.SystemStats{
		TotalMemory:       16 << 30,
		UsedMemory:        8 << 30,
		CachedMemory:      2 << 30,
		TotalCPUPercent:   42,
		PerCorePercent:    []float64{40, 44},
		ProcessCount:      5,
		ThreadCount:       120,
		Uptime:            3 * time.Hour,
		NetworkBitsPerSec: 8000,
		Disks: []monitor.DiskInfo{
			{Name: "/dev/sda1", MountPoint: "/", FSType: "ext4", TotalBytes: 100 << 30, FreeBytes: 40 << 30, UsagePercent: 60},
		},
		Hardware: monitor.HardwareInfo{CPUName: "Test CPU 9000", PhysicalCores: 1, LogicalProcessors: 2},
	}
}

func fixtureUsers() []monitor.UserSession {
	return []monitor.UserSession{
		{Username: "bob", Status: monitor.SessionActive, Terminal: "pts/1", Processes: []monitor.Process{
			{PID: 40, Name: "bash", CPUPercent: 1, MemoryBytes: 4 << 20},
			{PID: 41, Name: "bash", CPUPercent: 1, MemoryBytes: 4 << 20},
			{PID: 42, Name: "vim", CPUPercent: 3, MemoryBytes: 10 << 20},
		}},
		{Username: "alice", Status: monitor.SessionActive, Processes: []monitor.Process{
			{PID: 50, Name: "bash", CPUPercent: 1, MemoryBytes: 4 << 20},
		}},
	}
}

func fixtureServices() []monitor.Service {
	return []monitor.Service{
		{Name: "sshd.service", Description: "OpenSSH server", Status: "active", SubState: "running", PID: 30},
		{Name: "cron.service", Description: "Job scheduler", Status: "inactive", SubState: "dead"},
		{Name: "broken.service", Description: "Always fails", Status: "failed", SubState: "failed"},
	}
}

func fixtureStartup() []monitor.StartupItem {
	return []monitor.StartupItem{
		{Name: "Tracker", Exec: "tracker daemon", Description: "File indexer", Enabled: false, Scope: monitor.ScopeUser, Path: "/home/ada/.config/autostart/tracker.desktop"},
		{Name: "Blueman", Exec: "blueman-applet", Enabled: true, Scope: monitor.ScopeSystem, Path: "/etc/xdg/autostart/blueman.desktop"},
	}
}

// scriptedSource serves a fixed snapshot per page, or err when set. Each
// poll advances the snapshot timestamp by one second.
type scriptedSource struct {
	mu    sync.Mutex
	page  config.Page
	err   error
	polls int
	procs []monitor.Process
}

func (s *scriptedSource) Poll(context.Context) (*monitor.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	if s.err != nil {
		return nil, s.err
	}

	snap := &monitor.Snapshot{Timestamp: fixtureTime.Add(time.Duration(s.polls) * time.Second)}
	procs := s.procs
	if procs == nil {
		procs = fixtureProcesses()
	}
	switch s.page {
	case config.PageProcesses, config.PageAppHistory, config.PageDetails:
		snap.Processes = procs
	case config.PagePerformance:
		snap.Stats = fixtureStats()
	case config.PageUsers:
		snap.Users = fixtureUsers()
	case config.PageServices:
		snap.Services = fixtureServices()
	case config.PageStartup:
		snap.Startup = fixtureStartup()
	}
	return snap, nil
}

func (s *scriptedSource) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *scriptedSource) setProcesses(procs []monitor.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procs = procs
}

type harness struct {
	sources map[config.Page]*scriptedSource
}

func newTestModel(t *testing.T, opts Options) (Model, *harness) {
	t.Helper()

	h := &harness{sources: make(map[config.Page]*scriptedSource)}
	for _, id := range config.Pages {
		h.sources[id] = &scriptedSource{page: id}
	}
	opts.SourceFor = func(id config.Page) monitor.Source { return h.sources[id] }
	if opts.StartPage == "" {
		opts.StartPage = config.PageProcesses
	}
	if opts.Speed == "" {
		opts.Speed = config.SpeedNormal
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixtureTime.Add(10 * time.Second) }
	}

	m := NewModel(opts)
	t.Cleanup(m.Close)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return updated.(Model), h
}

// poll runs one poll of page synchronously and feeds the result back
// through Update.
func poll(t *testing.T, m Model, id config.Page) Model {
	t.Helper()

	p := m.page(id)
	require.NotNil(t, p)
	cmd := m.pollCmd(p)
	require.NotNil(t, cmd, "poll of %s refused", id)

	msg := cmd()
	_, ok := msg.(pollResultMsg)
	require.True(t, ok, "expected pollResultMsg, got %T", msg)

	updated, _ := m.Update(msg)
	return updated.(Model)
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, c := m.Update(msg)
		m = updated.(Model)
		cmd = c
	}
	return m, cmd
}

func pageIndex(id config.Page) int {
	for i, p := range config.Pages {
		if p == id {
			return i
		}
	}
	return -1
}

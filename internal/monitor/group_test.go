package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProcesses() []Process {
	return []Process{
		{PID: 10, Name: "chrome", CPUPercent: 5, MemoryBytes: 300, DiskBytesPerSec: 10, NetworkBitsPerSec: 800, GPUPercent: 2},
		{PID: 11, Name: "sshd", CPUPercent: 0.5, MemoryBytes: 20},
		{PID: 12, Name: "chrome", CPUPercent: 3, MemoryBytes: 200, DiskBytesPerSec: 5, NetworkBitsPerSec: 80, GPUPercent: 1, IsApp: true, Icon: "/opt/chrome/chrome"},
		{PID: 13, Name: "notes", CPUPercent: 1, MemoryBytes: 100, IsApp: true},
		{PID: 14, Name: "sshd", CPUPercent: 0.25, MemoryBytes: 25, DiskBytesPerSec: 3},
	}
}

func TestAggregate_ChromeAndNotes(t *testing.T) {
	procs := []Process{
		{Name: "chrome", PID: 1, CPUPercent: 5},
		{Name: "chrome", PID: 2, CPUPercent: 3},
		{Name: "notes", PID: 3, CPUPercent: 1},
	}

	groups := Aggregate(procs)
	require.Len(t, groups, 2)
	assert.Equal(t, "chrome", groups[0].Name)
	assert.Equal(t, 8.0, groups[0].TotalCPU)
	assert.Equal(t, 2, groups[0].Len())
	assert.Equal(t, "notes", groups[1].Name)
	assert.Equal(t, 1.0, groups[1].TotalCPU)
	assert.Equal(t, 1, groups[1].Len())

	sorted := SortGroups(groups, SortConfig{Key: SortByCPU, Direction: Descending})
	assert.Equal(t, []string{"chrome", "notes"}, groupNames(sorted))
}

func TestAggregate_ConservesTotals(t *testing.T) {
	procs := sampleProcesses()
	groups := Aggregate(procs)

	var cpu, memory, disk, network, gpu float64
	for _, p := range procs {
		cpu += p.CPUPercent
		memory += float64(p.MemoryBytes)
		disk += float64(p.DiskBytesPerSec)
		network += float64(p.NetworkBitsPerSec)
		gpu += p.GPUPercent
	}

	var gCPU, gMemory, gDisk, gNetwork, gGPU float64
	for _, g := range groups {
		gCPU += g.TotalCPU
		gMemory += g.TotalMemory
		gDisk += g.TotalDisk
		gNetwork += g.TotalNetwork
		gGPU += g.TotalGPU

		// Each group's totals equal the sum of its own members
		var memberCPU float64
		for _, m := range g.Members {
			memberCPU += m.CPUPercent
		}
		assert.InDelta(t, memberCPU, g.TotalCPU, 1e-9, g.Name)
	}

	assert.InDelta(t, cpu, gCPU, 1e-9)
	assert.InDelta(t, memory, gMemory, 1e-9)
	assert.InDelta(t, disk, gDisk, 1e-9)
	assert.InDelta(t, network, gNetwork, 1e-9)
	assert.InDelta(t, gpu, gGPU, 1e-9)
}

func TestAggregate_EveryProcessInExactlyOneGroup(t *testing.T) {
	procs := sampleProcesses()
	groups := Aggregate(procs)

	seen := make(map[int32]int)
	total := 0
	for _, g := range groups {
		require.NotEmpty(t, g.Members, "groups always have a member")
		total += g.Len()
		for _, m := range g.Members {
			assert.Equal(t, g.Name, m.Name)
			seen[m.PID]++
		}
	}

	assert.Equal(t, len(procs), total)
	for _, p := range procs {
		assert.Equal(t, 1, seen[p.PID], "pid %d", p.PID)
	}
}

func TestAggregate_DiscoveryOrder(t *testing.T) {
	groups := Aggregate(sampleProcesses())
	assert.Equal(t, []string{"chrome", "sshd", "notes"}, groupNames(groups))

	chrome := groups[0]
	assert.Equal(t, int32(10), chrome.Leader().PID)
	assert.True(t, chrome.Contains(12))
	assert.False(t, chrome.Contains(11))
}

func TestAggregate_Classification(t *testing.T) {
	groups := Aggregate(sampleProcesses())

	assert.True(t, groups[0].IsApp, "any app member makes the group an app")
	assert.False(t, groups[1].IsApp)
	assert.True(t, groups[2].IsApp)
}

func TestAggregate_IconResolution(t *testing.T) {
	tests := []struct {
		name  string
		procs []Process
		want  string
	}{
		{
			name: "first non-empty wins",
			procs: []Process{
				{PID: 1, Name: "x"},
				{PID: 2, Name: "x", Icon: "helper.png"},
				{PID: 3, Name: "x", Icon: "other.png"},
			},
			want: "helper.png",
		},
		{
			name: "later app icon overrides a helper icon",
			procs: []Process{
				{PID: 1, Name: "x", Icon: "helper.png"},
				{PID: 2, Name: "x", Icon: "app.png", IsApp: true},
			},
			want: "app.png",
		},
		{
			name: "app without icon keeps existing",
			procs: []Process{
				{PID: 1, Name: "x", Icon: "helper.png"},
				{PID: 2, Name: "x", IsApp: true},
			},
			want: "helper.png",
		},
		{
			name:  "no icons",
			procs: []Process{{PID: 1, Name: "x"}, {PID: 2, Name: "x"}},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Aggregate(tt.procs)
			require.Len(t, groups, 1)
			assert.Equal(t, tt.want, groups[0].Icon)
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]Process{}))
}

func groupNames(groups []Group) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}

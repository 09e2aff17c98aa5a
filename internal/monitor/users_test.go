package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUserViews(t *testing.T) {
	sessions := []UserSession{
		{
			Username: "zoe",
			Terminal: "pts/1",
			Status:   SessionActive,
			Processes: []Process{
				{PID: 1, Name: "vim", CPUPercent: 1, MemoryBytes: 100},
				{PID: 2, Name: "make", CPUPercent: 40, MemoryBytes: 50},
				{PID: 3, Name: "make", CPUPercent: 10, MemoryBytes: 50},
			},
		},
		{Username: "Adam", Status: SessionDisconnected},
	}

	views := BuildUserViews(sessions)
	require.Len(t, views, 2)

	assert.Equal(t, "Adam", views[0].Username, "users sorted by collated name")
	assert.Equal(t, 0, views[0].ProcessCount)
	assert.Empty(t, views[0].Groups)

	zoe := views[1]
	assert.Equal(t, "pts/1", zoe.Terminal)
	assert.Equal(t, SessionActive, zoe.Status)
	assert.Equal(t, 3, zoe.ProcessCount)
	assert.InDelta(t, 51.0, zoe.TotalCPU, 1e-9)
	assert.InDelta(t, 200.0, zoe.TotalMemory, 1e-9)
	assert.Equal(t, []string{"make", "vim"}, groupNames(zoe.Groups), "groups sorted by cpu descending")
	assert.Equal(t, 2, zoe.Groups[0].Len())
}

func TestBuildUserViews_Empty(t *testing.T) {
	assert.Empty(t, BuildUserViews(nil))
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

func TestParseSortFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    monitor.SortConfig
		wantErr string
	}{
		{"name", monitor.SortConfig{Key: monitor.SortByName, Direction: monitor.Ascending}, ""},
		{"cpu", monitor.SortConfig{Key: monitor.SortByCPU, Direction: monitor.Descending}, ""},
		{"memory:asc", monitor.SortConfig{Key: monitor.SortByMemory, Direction: monitor.Ascending}, ""},
		{"name:desc", monitor.SortConfig{Key: monitor.SortByName, Direction: monitor.Descending}, ""},
		{"pid", monitor.SortConfig{Key: monitor.SortByPID, Direction: monitor.Ascending}, ""},
		{"threads", monitor.SortConfig{}, "isn't a sort key"},
		{"cpu:sideways", monitor.SortConfig{}, "isn't a sort direction"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortFlag(tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDashboardFlagsApply(t *testing.T) {
	t.Run("zero flags leave config alone", func(t *testing.T) {
		cfg := config.DefaultConfig()
		require.NoError(t, DashboardFlags{}.Apply(cfg))
		assert.Equal(t, config.DefaultConfig(), cfg)
	})

	t.Run("every flag overrides", func(t *testing.T) {
		cfg := config.DefaultConfig()
		err := DashboardFlags{Page: "Users", Speed: "high", History: 120, Sort: "cpu"}.Apply(cfg)
		require.NoError(t, err)

		assert.Equal(t, config.PageUsers, cfg.StartPage)
		assert.Equal(t, config.SpeedHigh, cfg.RefreshSpeed)
		assert.Equal(t, 120, cfg.HistorySize)
		assert.Equal(t, config.SortConfig{Key: "cpu", Direction: "desc"}, cfg.Sort)
		assert.NoError(t, config.Validate(cfg))
	})

	bad := []struct {
		name    string
		flags   DashboardFlags
		wantMsg string
	}{
		{"page", DashboardFlags{Page: "graphs"}, "'graphs' isn't a page"},
		{"speed", DashboardFlags{Speed: "ludicrous"}, "'ludicrous' isn't a refresh speed"},
		{"history low", DashboardFlags{History: -1}, "--history -1 is out of range"},
		{"history high", DashboardFlags{History: config.MaxHistorySize + 1}, "is out of range"},
		{"sort", DashboardFlags{Sort: "size"}, "isn't a sort key"},
	}
	for _, tt := range bad {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			err := tt.flags.Apply(config.DefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestAddDashboardFlags(t *testing.T) {
	var flags DashboardFlags
	cmd := newBareCommand()
	AddDashboardFlags(cmd, &flags)

	require.NoError(t, cmd.ParseFlags([]string{"-p", "services", "-s", "low", "--history", "30", "--sort", "gpu:asc"}))
	assert.Equal(t, DashboardFlags{Page: "services", Speed: "low", History: 30, Sort: "gpu:asc"}, flags)
}

func TestCompletions(t *testing.T) {
	pages, _ := completePages(nil, nil, "")
	assert.Equal(t, []string{"processes", "performance", "users", "services", "app-history", "details", "startup"}, pages)

	keys, _ := completeSortKeys(nil, nil, "")
	assert.Contains(t, keys, "pid:asc")
	assert.Contains(t, keys, "gpu")
	assert.Len(t, keys, 3*len(monitor.SortKeys))
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/logger"
	"github.com/rileyhilliard/taskview/internal/monitor"
	"github.com/rileyhilliard/taskview/internal/ui"
)

func TestSourceKindFor(t *testing.T) {
	tests := []struct {
		page config.Page
		want monitor.SourceKind
	}{
		{config.PageProcesses, monitor.KindProcesses},
		{config.PagePerformance, monitor.KindPerformance},
		{config.PageUsers, monitor.KindUsers},
		{config.PageServices, monitor.KindServices},
		{config.PageAppHistory, monitor.KindAppHistory},
		{config.PageDetails, monitor.KindDetails},
		{config.PageStartup, monitor.KindStartup},
		{config.Page("bogus"), monitor.KindProcesses},
	}
	for _, tt := range tests {
		t.Run(string(tt.page), func(t *testing.T) {
			assert.Equal(t, tt.want, sourceKindFor(tt.page))
		})
	}
}

func TestThresholdsFrom(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Thresholds.CPU = config.ThresholdValues{Warning: 50, Critical: 80}
	cfg.Thresholds.GPU = config.ThresholdValues{Warning: 60, Critical: 95}

	th := thresholdsFrom(cfg)
	assert.Equal(t, ui.Thresholds{Warning: 50, Critical: 80}, th.CPU)
	assert.Equal(t, ui.Thresholds{Warning: 70, Critical: 90}, th.Memory)
	assert.Equal(t, ui.Thresholds{Warning: 60, Critical: 95}, th.GPU)
}

func TestLogFilePath(t *testing.T) {
	setVerbose := func(t *testing.T, v bool) {
		prev := verbose
		verbose = v
		t.Cleanup(func() { verbose = prev })
	}

	t.Run("configured file wins", func(t *testing.T) {
		setVerbose(t, false)
		cfg := config.DefaultConfig()
		cfg.LogFile = "/var/log/taskview.log"
		assert.Equal(t, "/var/log/taskview.log", logFilePath(cfg))
	})

	t.Run("quiet by default", func(t *testing.T) {
		setVerbose(t, false)
		t.Setenv(logger.DebugEnv, "")
		assert.Equal(t, "", logFilePath(config.DefaultConfig()))
	})

	t.Run("verbose uses temp dir", func(t *testing.T) {
		setVerbose(t, true)
		assert.Equal(t, filepath.Join(os.TempDir(), defaultLogFile), logFilePath(config.DefaultConfig()))
	})

	t.Run("debug env uses temp dir", func(t *testing.T) {
		setVerbose(t, false)
		t.Setenv(logger.DebugEnv, "1")
		assert.Equal(t, filepath.Join(os.TempDir(), defaultLogFile), logFilePath(config.DefaultConfig()))
	})
}

func TestDashboardOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StartPage = config.PageServices
	cfg.RefreshSpeed = config.SpeedLow
	cfg.HistorySize = 90

	collector := monitor.NewCollector()
	defer collector.Close()

	opts := dashboardOptions(cfg, collector, logger.Noop())
	assert.Equal(t, config.PageServices, opts.StartPage)
	assert.Equal(t, config.SpeedLow, opts.Speed)
	assert.Equal(t, 90, opts.HistorySize)
	assert.Equal(t, monitor.DefaultSort, opts.Sort)
	assert.NotNil(t, opts.SourceFor(config.PageUsers))
}

package cli

import (
	"io"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/dashboard"
	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/logger"
	"github.com/rileyhilliard/taskview/internal/monitor"
	"github.com/rileyhilliard/taskview/internal/ui"
)

// defaultLogFile is used for --verbose when the config names no log file.
const defaultLogFile = "taskview.log"

// dashboardCommand starts the TUI.
func dashboardCommand(flags DashboardFlags) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := flags.Apply(cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	applyColor(cfg)

	if !stdinIsTerminal() || !stdoutIsTerminal() {
		return errors.New(errors.ErrTUI,
			"The dashboard needs an interactive terminal",
			"Use 'taskview snapshot' for piped or scripted output.")
	}

	lg, closeLog, err := dashboardLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	collector := monitor.NewCollector(monitor.WithCollectorLogger(lg))
	defer collector.Close()

	model := dashboard.NewModel(dashboardOptions(cfg, collector, lg))

	// The program owns the terminal, so anything logged goes to the file
	// set up above or nowhere.
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if m, ok := final.(dashboard.Model); ok {
		m.Close()
	}
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTUI,
			"The dashboard stopped unexpectedly",
			"Run with --verbose and check the log file for details.")
	}
	return nil
}

// dashboardOptions maps config onto the dashboard. Each page gets its own
// collector source so rate deltas never mix between pages.
func dashboardOptions(cfg *config.Config, collector *monitor.Collector, lg logger.Logger) dashboard.Options {
	return dashboard.Options{
		SourceFor: func(page config.Page) monitor.Source {
			return collector.Source(sourceKindFor(page))
		},
		StartPage:   cfg.StartPage,
		Speed:       cfg.RefreshSpeed,
		HistorySize: cfg.HistorySize,
		Sort:        cfg.SortSetting(),
		Thresholds:  thresholdsFrom(cfg),
		Logger:      lg,
	}
}

// sourceKindFor picks the collector source behind a page.
func sourceKindFor(page config.Page) monitor.SourceKind {
	switch page {
	case config.PagePerformance:
		return monitor.KindPerformance
	case config.PageUsers:
		return monitor.KindUsers
	case config.PageServices:
		return monitor.KindServices
	case config.PageAppHistory:
		return monitor.KindAppHistory
	case config.PageDetails:
		return monitor.KindDetails
	case config.PageStartup:
		return monitor.KindStartup
	default:
		return monitor.KindProcesses
	}
}

func thresholdsFrom(cfg *config.Config) dashboard.Thresholds {
	conv := func(v config.ThresholdValues) ui.Thresholds {
		return ui.Thresholds{Warning: v.Warning, Critical: v.Critical}
	}
	return dashboard.Thresholds{
		CPU:    conv(cfg.Thresholds.CPU),
		Memory: conv(cfg.Thresholds.Memory),
		GPU:    conv(cfg.Thresholds.GPU),
	}
}

// dashboardLogger returns a logger for the TUI session. With --verbose,
// TASKVIEW_DEBUG, or a configured log_file, output goes to a file;
// otherwise the standard logger is silenced.
func dashboardLogger(cfg *config.Config) (logger.Logger, func(), error) {
	path := logFilePath(cfg)
	if path == "" {
		log.SetOutput(io.Discard)
		return logger.Noop(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create the log directory for "+path,
			"Check permissions or set log_file to a writable path.")
	}
	f, err := tea.LogToFile(path, "taskview")
	if err != nil {
		return nil, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open log file "+path,
			"Check permissions or set log_file to a writable path.")
	}
	return logger.NewEnvLogger("[dashboard]"), func() { f.Close() }, nil
}

func logFilePath(cfg *config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	if verbose || logger.DebugEnabled() {
		return filepath.Join(os.TempDir(), defaultLogFile)
	}
	return ""
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/logger"
	"github.com/rileyhilliard/taskview/internal/monitor"
	"github.com/rileyhilliard/taskview/internal/ui"
)

// Snapshot output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// SnapshotOptions controls `taskview snapshot`.
type SnapshotOptions struct {
	Format string
	Sort   string
	Filter string
	Top    int
	// Gap is the wait between the two samples rates are computed from.
	Gap time.Duration

	// Watch keeps polling every Interval and prints each result until
	// interrupted, or until Count reports have been printed.
	Watch    bool
	Interval time.Duration
	Count    int
}

// SnapshotReport is what snapshot prints.
type SnapshotReport struct {
	Timestamp  time.Time            `json:"timestamp" yaml:"timestamp"`
	Sort       monitor.SortConfig   `json:"sort" yaml:"sort"`
	Stats      *monitor.SystemStats `json:"stats,omitempty" yaml:"stats,omitempty"`
	Apps       []monitor.Group      `json:"apps" yaml:"apps"`
	Background []monitor.Group      `json:"background" yaml:"background"`
}

var snapshotLog = logger.NewEnvLogger("[snapshot]")

var (
	snapshotOpts SnapshotOptions
	snapshotJSON bool
	snapshotYAML bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print grouped processes once and exit",
	Long: `Sample the process table twice, a short gap apart so disk and network
rates can be computed, and print the result grouped by application.

Examples:
  taskview snapshot
  taskview snapshot --sort cpu --top 10
  taskview snapshot --filter chrome --json
  taskview snapshot --yaml > snapshot.yaml
  taskview snapshot --watch --interval 5s --top 5`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := snapshotOpts
		switch {
		case snapshotJSON && snapshotYAML:
			return errors.New(errors.ErrConfig,
				"--json and --yaml cannot be used together",
				"Pick one output format.")
		case snapshotJSON:
			opts.Format = FormatJSON
			machineMode = true
		case snapshotYAML:
			opts.Format = FormatYAML
		default:
			opts.Format = FormatTable
		}
		return snapshotCommand(cmd.Context(), os.Stdout, opts)
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "output JSON")
	snapshotCmd.Flags().BoolVar(&snapshotYAML, "yaml", false, "output YAML")
	snapshotCmd.Flags().StringVar(&snapshotOpts.Sort, "sort", "", "sort as key[:direction] (default from config)")
	snapshotCmd.Flags().StringVar(&snapshotOpts.Filter, "filter", "", "only processes whose name or PID contains this")
	snapshotCmd.Flags().IntVar(&snapshotOpts.Top, "top", 0, "limit each section to N groups (0 = all)")
	snapshotCmd.Flags().DurationVar(&snapshotOpts.Gap, "gap", time.Second, "time between the two samples")
	snapshotCmd.Flags().BoolVarP(&snapshotOpts.Watch, "watch", "w", false, "keep sampling and print every result")
	snapshotCmd.Flags().DurationVar(&snapshotOpts.Interval, "interval", 2*time.Second, "time between samples with --watch")
	snapshotCmd.Flags().IntVar(&snapshotOpts.Count, "count", 0, "stop --watch after N reports (0 = until interrupted)")
	_ = snapshotCmd.RegisterFlagCompletionFunc("sort", completeSortKeys)
	rootCmd.AddCommand(snapshotCmd)
}

func snapshotCommand(ctx context.Context, w io.Writer, opts SnapshotOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	applyColor(cfg)

	sortCfg := cfg.SortSetting()
	if opts.Sort != "" {
		if sortCfg, err = ParseSortFlag(opts.Sort); err != nil {
			return err
		}
	}

	collector := monitor.NewCollector(monitor.WithCollectorLogger(snapshotLog))
	defer collector.Close()

	if opts.Watch {
		if opts.Interval <= 0 {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("--interval must be positive, got %s", opts.Interval),
				"Try --interval 2s.")
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return watchSnapshots(ctx, w, collector.Source(monitor.KindProcesses), sortCfg, opts)
	}

	var spinner *ui.Spinner
	if opts.Format == FormatTable && stdoutIsTerminal() {
		spinner = ui.NewSpinner(os.Stderr, "Sampling processes")
		spinner.Start()
	}

	report, err := takeSnapshot(ctx, collector.Source(monitor.KindProcesses), sortCfg, opts)
	if spinner != nil {
		if err != nil {
			spinner.Fail()
		} else {
			spinner.Success()
		}
	}
	if err != nil {
		return err
	}

	return writeSnapshot(w, report, opts.Format)
}

// takeSnapshot polls source twice through a PollCycle, opts.Gap apart, and
// returns the second view.
func takeSnapshot(ctx context.Context, source monitor.Source, sortCfg monitor.SortConfig, opts SnapshotOptions) (*SnapshotReport, error) {
	cycle := monitor.NewPollCycle(source,
		monitor.WithName("snapshot"),
		monitor.WithSort(sortCfg),
		monitor.WithHistorySize(2),
		monitor.WithLogger(snapshotLog),
	)
	defer cycle.Close()

	if err := cycle.Poll(ctx); err != nil {
		return nil, wrapSourceError(err)
	}
	if opts.Gap > 0 {
		select {
		case <-time.After(opts.Gap):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if err := cycle.Poll(ctx); err != nil {
			return nil, wrapSourceError(err)
		}
	}

	if opts.Filter != "" {
		cycle.SetFilter(opts.Filter)
	}
	view := cycle.View()

	return &SnapshotReport{
		Timestamp:  view.UpdatedAt,
		Sort:       view.Sort,
		Stats:      view.Stats,
		Apps:       limitGroups(view.Apps, opts.Top),
		Background: limitGroups(view.Background, opts.Top),
	}, nil
}

// watchSnapshots runs a PollCycle on opts.Interval and writes a report for
// every view it publishes. A failed poll is logged and the watch carries on
// with the next tick. Returns nil once ctx is done or opts.Count reports
// were written.
func watchSnapshots(ctx context.Context, w io.Writer, source monitor.Source, sortCfg monitor.SortConfig, opts SnapshotOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cycle := monitor.NewPollCycle(source,
		monitor.WithName("snapshot"),
		monitor.WithSort(sortCfg),
		monitor.WithInterval(opts.Interval),
		monitor.WithHistorySize(2),
		monitor.WithLogger(snapshotLog),
	)
	if opts.Filter != "" {
		cycle.SetFilter(opts.Filter)
	}
	views := cycle.Subscribe()

	done := make(chan error, 1)
	go func() { done <- cycle.Run(ctx) }()

	written, polls, failures := 0, 0, 0
	for view := range views {
		if view.Failures > failures {
			failures = view.Failures
			snapshotLog.Warn("sample failed: %s", view.Error)
		}
		if view.Failed || view.Polls == polls {
			continue
		}
		polls = view.Polls

		report := &SnapshotReport{
			Timestamp:  view.UpdatedAt,
			Sort:       view.Sort,
			Stats:      view.Stats,
			Apps:       limitGroups(view.Apps, opts.Top),
			Background: limitGroups(view.Background, opts.Top),
		}
		if err := writeSnapshot(w, report, opts.Format); err != nil {
			cancel()
			<-done
			return err
		}
		written++
		if opts.Count > 0 && written >= opts.Count {
			cancel()
		}
	}
	return <-done
}

func wrapSourceError(err error) error {
	if errors.IsCode(err, errors.ErrSource) {
		return err
	}
	return errors.WrapWithCode(err, errors.ErrSource,
		"Couldn't read the process table",
		"Run with --verbose for details.")
}

func limitGroups(groups []monitor.Group, top int) []monitor.Group {
	if top > 0 && len(groups) > top {
		return groups[:top]
	}
	return groups
}

// writeSnapshot renders report in format.
func writeSnapshot(w io.Writer, report *SnapshotReport, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSONSuccess(w, report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return errors.WrapWithCode(err, errors.ErrExec, "Failed to encode YAML", "")
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, renderSnapshotTable(report))
		return err
	}
}

var snapshotColumns = []ui.TableColumn{
	{Title: "Name", Width: 28},
	{Title: "Procs", Width: 6},
	{Title: "CPU", Width: 7},
	{Title: "Memory", Width: 10},
	{Title: "Disk", Width: 11},
	{Title: "Network", Width: 11},
	{Title: "GPU", Width: 6},
}

func renderSnapshotTable(report *SnapshotReport) string {
	var b strings.Builder

	if s := report.Stats; s != nil {
		fmt.Fprintf(&b, "CPU %s  Memory %s of %s  Processes %s  Up %s\n\n",
			ui.FormatPercent(s.TotalCPUPercent),
			ui.FormatBytes(s.UsedMemory), ui.FormatBytes(s.TotalMemory),
			ui.FormatCount(int64(s.ProcessCount)),
			ui.FormatUptime(s.Uptime))
	}

	section := func(title string, groups []monitor.Group) {
		fmt.Fprintf(&b, "%s (%d)\n", title, len(groups))
		if len(groups) == 0 {
			b.WriteString(ui.MutedStyle().Render("  none") + "\n\n")
			return
		}
		rows := make([][]string, len(groups))
		for i, g := range groups {
			rows[i] = []string{
				g.Name,
				fmt.Sprintf("%d", g.Len()),
				ui.FormatPercent(g.TotalCPU),
				ui.FormatBytes(uint64(g.TotalMemory)),
				ui.FormatByteRate(g.TotalDisk),
				ui.FormatBitRate(g.TotalNetwork),
				ui.FormatPercent(g.TotalGPU),
			}
		}
		b.WriteString(ui.RenderSimpleTable(snapshotColumns, rows))
		b.WriteString("\n\n")
	}
	section("Apps", report.Apps)
	section("Background processes", report.Background)

	fmt.Fprintf(&b, "sorted by %s at %s\n", report.Sort, report.Timestamp.Format(time.TimeOnly))
	return b.String()
}

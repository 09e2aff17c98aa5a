package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/errors"
	"github.com/rileyhilliard/taskview/internal/logger"
	"github.com/rileyhilliard/taskview/internal/ui"
)

// Global flags
var (
	cfgFile string
	noColor bool
	verbose bool
)

// dashboardFlags are the root command's own flags.
var dashboardFlags DashboardFlags

var rootCmd = &cobra.Command{
	Use:   "taskview",
	Short: "A terminal task manager",
	Long: `taskview shows what your machine is doing: processes grouped by
application, CPU/memory/disk/network/GPU history, logged-in users, system
services, and how much each application has used since you started watching.

Run with no arguments to open the dashboard.

Examples:
  taskview
  taskview --page performance --speed high
  taskview --sort cpu:desc
  taskview snapshot --json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			os.Setenv(logger.DebugEnv, "1")
		}
		if noColor {
			ui.DisableColors()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(dashboardFlags)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/taskview/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write debug logs")

	AddDashboardFlags(rootCmd, &dashboardFlags)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if isUnknownCommandError(err) {
		name := extractUnknownCommand(err)
		suggestion := "Run 'taskview --help' to see available commands."
		if name != "" {
			if s := rootCmd.SuggestionsFor(name); len(s) > 0 {
				suggestion = fmt.Sprintf("Did you mean '%s'?", s[0])
			}
		}
		err = errors.WrapWithCode(err, errors.ErrExec, "Unknown command or flag", suggestion)
	}

	if MachineMode() {
		_ = WriteJSONFromError(os.Stdout, err)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the arguments.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "taskview"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig loads the config named by --config, the default file, or
// built-in defaults, and validates it.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// applyColor sets the color profile from config, with --no-color winning.
func applyColor(cfg *config.Config) {
	mode := cfg.Output.Color
	if noColor {
		mode = "never"
	}
	ui.ApplyColorMode(mode, stdoutIsTerminal())
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

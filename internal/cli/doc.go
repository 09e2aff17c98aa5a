// Package cli implements the taskview command-line interface.
//
// The root command opens the dashboard. Subcommands cover everything that
// doesn't need a full-screen terminal:
//
//	taskview                   - Open the dashboard
//	taskview snapshot          - Sample once, print grouped processes
//	taskview init              - Create ~/.config/taskview/config.yaml
//	taskview config path|show|set
//	taskview completion <shell>
//	taskview version
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color) live on the root command.
// The dashboard flags (--page, --speed, --history, --sort) override config
// values for a single run through DashboardFlags.Apply.
//
// # Output
//
// Errors are structured (internal/errors) and print as a what/why/fix block.
// snapshot --json switches on machine mode, where both results and errors are
// written as a JSONEnvelope on stdout.
package cli

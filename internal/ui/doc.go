// Package ui provides the terminal building blocks shared by the dashboard
// and the one-shot CLI commands.
//
// # Components Overview
//
//	Sparkline  - one-row history graphs for rolling series
//	Meter      - bracketed percentage bars with threshold colors
//	Table      - static Bubbles tables for snapshot output
//	Spinner    - status line while a snapshot samples
//	Formatting - humanized bytes, rates, uptime and CPU time
//
// # Colors
//
// Percentages are colored by Thresholds: green below the warning level,
// amber from warning, red from critical. The config file's thresholds
// section feeds these values.
//
// Use ApplyColorMode for the output.color setting, or DisableColors for
// --no-color.
package ui

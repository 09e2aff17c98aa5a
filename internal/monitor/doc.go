// Package monitor is the live metrics engine behind taskview.
//
// Every refresh starts from a flat process snapshot. Processes are folded into
// name-keyed groups with summed metrics, the groups are ordered by the active
// sort, and system-wide figures are appended to fixed-capacity rolling series
// for sparkline rendering. Nothing is diffed between polls: groups are rebuilt
// from scratch each time, and UI state that must outlive a poll (expanded
// groups, the selected row) is keyed by name outside the groups.
//
// # Key Components
//
//	Aggregate       - Folds processes into groups, conserving every total
//	SortGroups      - Stable, direction-aware ordering with collated names
//	RollingSeries   - Ring buffer holding the newest N samples of one channel
//	SeriesRegistry  - Channel key → RollingSeries map, created lazily
//	PollCycle       - Idle → Polling → Published/Failed loop for one page
//	Collector       - gopsutil-backed Source for each page kind
//	Pool            - Process handles kept between polls for CPU deltas
//	UsageHistory    - Per-application CPU time, disk and network totals
//
// # Poll Cycle
//
// A PollCycle owns exactly one in-flight poll. A tick that arrives while a
// poll is running is dropped, never queued. Completing a poll with a stale
// ticket (or after Close) is a no-op, so a slow poll can never overwrite a
// newer view. A failed poll keeps the last good view and sets ViewState.Failed;
// the next successful poll clears it.
//
//  1. Begin returns a Ticket and moves the cycle to Polling
//  2. the Source runs, typically off the caller's goroutine
//  3. Complete applies the result: groups rebuilt, series appended, view published
//
// # Channels
//
// Series keys are "cpu", "memory", "disk", "network", "gpu", "core-N" for each
// logical processor and "disk-TOKEN" for each mounted volume, where TOKEN is
// the mount point with every non-alphanumeric character removed. Always build
// keys with CoreChannel and DiskChannel.
package monitor

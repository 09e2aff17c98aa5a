// Package dashboard implements the interactive taskview terminal UI.
//
// The dashboard is a Bubble Tea model with one tab per page. Each page owns a
// monitor.PollCycle; ticks and poll results travel through the update loop as
// messages, so all cycle state changes happen on the UI goroutine:
//
//	tickMsg        - schedule the next poll for a page (dropped if stale)
//	pollResultMsg  - apply a finished poll with PollCycle.Complete
//	clockMsg       - redraw relative timestamps
//
// Foreground pages poll only while visible. The app-history page polls in
// the background so usage keeps accumulating while another tab is shown.
//
// Interaction state that must survive a poll (cursor, expansion, selection,
// search) lives on the page, keyed by stable row keys rather than indexes.
package dashboard

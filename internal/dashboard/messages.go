package dashboard

import (
	"time"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

// tickMsg fires a page's next scheduled poll. gen identifies the tick chain;
// a chain is abandoned by bumping the page's generation.
type tickMsg struct {
	page config.Page
	gen  int
	time time.Time
}

// pollResultMsg carries a finished poll back to the update loop, where it is
// applied with Complete.
type pollResultMsg struct {
	page   config.Page
	ticket monitor.Ticket
	snap   *monitor.Snapshot
	err    error
}

// refreshedMsg reports a manual refresh. The cycle has already applied the
// result; err is only used to tell a skipped refresh apart.
type refreshedMsg struct {
	page config.Page
	err  error
}

// clockMsg redraws the "updated Ns ago" text while polling is paused.
type clockMsg time.Time

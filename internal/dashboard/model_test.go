package dashboard

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/taskview/internal/config"
	"github.com/rileyhilliard/taskview/internal/logger"
	"github.com/rileyhilliard/taskview/internal/monitor"
)

func TestNewModel(t *testing.T) {
	t.Run("one cycle per page at the configured speed", func(t *testing.T) {
		m, _ := newTestModel(t, Options{Speed: config.SpeedLow, StartPage: config.PageUsers})

		assert.Equal(t, config.PageUsers, m.ActivePage())
		assert.Equal(t, config.SpeedLow, m.Speed())
		for _, id := range config.Pages {
			c := m.Cycle(id)
			require.NotNil(t, c, id)
			assert.Equal(t, config.SpeedLow.Interval(id.BaseInterval()), c.Interval(), id)
			assert.Equal(t, string(id), c.Name())
		}
	})

	t.Run("invalid speed and empty sort fall back to defaults", func(t *testing.T) {
		m, _ := newTestModel(t, Options{Speed: config.Speed("warp")})

		assert.Equal(t, config.SpeedNormal, m.Speed())
		assert.Equal(t, monitor.DefaultSort, m.Cycle(config.PageProcesses).Sort())
	})

	t.Run("sort option reaches the processes cycle", func(t *testing.T) {
		sortCfg := monitor.SortConfig{Key: monitor.SortByCPU, Direction: monitor.Descending}
		m, _ := newTestModel(t, Options{Sort: sortCfg})

		assert.Equal(t, sortCfg, m.Cycle(config.PageProcesses).Sort())
		assert.Equal(t, detailsSort, m.Cycle(config.PageDetails).Sort(), "details keeps its PID order")
	})

	t.Run("panics without a source", func(t *testing.T) {
		assert.Panics(t, func() { NewModel(Options{}) })
	})

	t.Run("unknown page has no cycle", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		assert.Nil(t, m.Cycle(config.Page("nope")))
	})
}

func TestInit_PollsActiveAndBackgroundPages(t *testing.T) {
	m, _ := newTestModel(t, Options{StartPage: config.PageUsers})

	cmd := m.Init()
	require.NotNil(t, cmd)

	// Init begins polls on the users page and the app-history page only.
	assert.True(t, m.Cycle(config.PageUsers).InFlight())
	assert.True(t, m.Cycle(config.PageAppHistory).InFlight())
	assert.False(t, m.Cycle(config.PageProcesses).InFlight())
	assert.False(t, m.Cycle(config.PageServices).InFlight())
	assert.False(t, m.Cycle(config.PagePerformance).InFlight())
	assert.False(t, m.Cycle(config.PageDetails).InFlight())
	assert.False(t, m.Cycle(config.PageStartup).InFlight())
}

func TestPollResult(t *testing.T) {
	t.Run("publishes and renders the processes page", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		m = poll(t, m, config.PageProcesses)

		view := m.Cycle(config.PageProcesses).View()
		assert.Equal(t, monitor.StatePublished, m.Cycle(config.PageProcesses).State())
		assert.Len(t, view.Apps, 2)
		assert.Len(t, view.Background, 2)

		out := m.View()
		assert.Contains(t, out, "Apps (2)")
		assert.Contains(t, out, "Background processes (2)")
		assert.Contains(t, out, "firefox (2)")
		assert.Contains(t, out, "systemd")
	})

	t.Run("failure keeps the last good view and flags the error", func(t *testing.T) {
		m, h := newTestModel(t, Options{})
		m = poll(t, m, config.PageProcesses)

		h.sources[config.PageProcesses].setErr(errors.New("proc table unreadable"))
		m = poll(t, m, config.PageProcesses)

		c := m.Cycle(config.PageProcesses)
		view := c.View()
		assert.Equal(t, monitor.StateFailed, c.State())
		assert.True(t, view.Failed)
		assert.Contains(t, view.Error, "proc table unreadable")
		assert.Len(t, view.Groups, 4, "last good groups survive a failed poll")

		out := m.View()
		assert.Contains(t, out, "proc table unreadable")
		assert.Contains(t, out, "firefox")
	})

	t.Run("stale ticket is ignored", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		m = poll(t, m, config.PageProcesses)
		before := m.Cycle(config.PageProcesses).View()

		updated, _ := m.Update(pollResultMsg{
			page:   config.PageProcesses,
			ticket: 999,
			err:    errors.New("late"),
		})
		m = updated.(Model)

		after := m.Cycle(config.PageProcesses).View()
		assert.False(t, after.Failed)
		assert.Equal(t, before.Polls, after.Polls)
	})

	t.Run("second poll is refused while one is in flight", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		p := m.page(config.PageProcesses)

		first := m.pollCmd(p)
		require.NotNil(t, first)
		assert.Nil(t, m.pollCmd(p))

		updated, _ := m.Update(first())
		m = updated.(Model)
		assert.NotNil(t, m.pollCmd(p), "a new poll may start once the first completes")
	})

	t.Run("result for an unknown page is dropped", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})
		_, cmd := m.Update(pollResultMsg{page: config.Page("nope")})
		assert.Nil(t, cmd)
	})
}

func TestHandleTick(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	p := m.page(config.PageProcesses)
	p.gen = 3

	assert.Nil(t, m.handleTick(tickMsg{page: config.PageProcesses, gen: 2}), "stale generation")
	assert.Nil(t, m.handleTick(tickMsg{page: config.PageServices, gen: m.page(config.PageServices).gen}), "hidden foreground page")
	assert.Nil(t, m.handleTick(tickMsg{page: config.Page("nope")}))

	assert.NotNil(t, m.handleTick(tickMsg{page: config.PageProcesses, gen: 3}))
	assert.True(t, m.Cycle(config.PageProcesses).InFlight())

	bg := m.page(config.PageAppHistory)
	assert.NotNil(t, m.handleTick(tickMsg{page: config.PageAppHistory, gen: bg.gen}), "background page keeps ticking")
}

func TestTickCmd_PausedSchedulesNothing(t *testing.T) {
	m, _ := newTestModel(t, Options{Speed: config.SpeedPaused})

	for _, id := range config.Pages {
		assert.Zero(t, m.Cycle(id).Interval(), id)
		assert.Nil(t, tickCmd(m.page(id)), id)
	}

	// Paused pages still poll once when started.
	cmd := m.startPage(m.current())
	assert.NotNil(t, cmd)
	assert.True(t, m.Cycle(config.PageProcesses).InFlight())
}

func TestPollTimeout(t *testing.T) {
	tests := []struct {
		name  string
		speed config.Speed
		page  config.Page
		want  time.Duration
	}{
		{name: "fast page hits the floor", speed: config.SpeedHigh, page: config.PageProcesses, want: minPollTimeout},
		{name: "slow page scales with interval", speed: config.SpeedNormal, page: config.PageServices, want: 50 * time.Second},
		{name: "paused uses the base interval", speed: config.SpeedPaused, page: config.PageServices, want: 50 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, Options{Speed: tt.speed})
			assert.Equal(t, tt.want, pollTimeout(m.page(tt.page)))
		})
	}
}

func TestSwitchPage(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	prev := m.page(config.PageProcesses)
	prevGen := prev.gen

	m, cmd := press(m, "4")
	assert.Equal(t, config.PageServices, m.ActivePage())
	assert.NotNil(t, cmd, "switching to a foreground page polls it")
	assert.True(t, m.Cycle(config.PageServices).InFlight())
	assert.Greater(t, prev.gen, prevGen, "old page's tick chain is abandoned")

	t.Run("background page keeps its chain", func(t *testing.T) {
		bg := m.page(config.PageAppHistory)
		gen := bg.gen

		m2, cmd := press(m, "5")
		assert.Equal(t, config.PageAppHistory, m2.ActivePage())
		assert.Nil(t, cmd)
		assert.Equal(t, gen, bg.gen)

		m2, _ = press(m2, "1")
		assert.Equal(t, gen, bg.gen, "leaving the background page doesn't stop it")
	})

	t.Run("tab wraps around", func(t *testing.T) {
		m2, _ := newTestModel(t, Options{StartPage: config.PageStartup})
		m2, _ = press(m2, "tab")
		assert.Equal(t, config.PageProcesses, m2.ActivePage())
		m2, _ = press(m2, "shift+tab")
		assert.Equal(t, config.PageStartup, m2.ActivePage())
	})

	t.Run("new pages take the next number keys", func(t *testing.T) {
		m2, _ := newTestModel(t, Options{})
		m2, _ = press(m2, "6")
		assert.Equal(t, config.PageDetails, m2.ActivePage())
		m2, _ = press(m2, "7")
		assert.Equal(t, config.PageStartup, m2.ActivePage())
	})

	t.Run("same page is a no-op", func(t *testing.T) {
		m2, _ := newTestModel(t, Options{})
		assert.Nil(t, m2.switchPage(0))
	})
}

func TestCycleSpeed(t *testing.T) {
	m, _ := newTestModel(t, Options{Speed: config.SpeedNormal})
	gens := make(map[config.Page]int)
	for _, id := range config.Pages {
		gens[id] = m.page(id).gen
	}

	m, cmd := press(m, "u")
	assert.Equal(t, config.SpeedLow, m.Speed())
	assert.NotNil(t, cmd)
	for _, id := range config.Pages {
		assert.Equal(t, config.SpeedLow.Interval(id.BaseInterval()), m.Cycle(id).Interval(), id)
		assert.Greater(t, m.page(id).gen, gens[id], id)
	}

	m, _ = press(m, "u")
	assert.Equal(t, config.SpeedPaused, m.Speed())
	assert.Zero(t, m.Cycle(config.PageProcesses).Interval())

	m, _ = press(m, "u")
	assert.Equal(t, config.SpeedHigh, m.Speed())
}

func TestAppHistoryAccumulatesInBackground(t *testing.T) {
	m, _ := newTestModel(t, Options{})
	require.Equal(t, config.PageProcesses, m.ActivePage())

	// The first poll only sets the baseline; usage needs elapsed time.
	m = poll(t, m, config.PageAppHistory)
	assert.Zero(t, m.Usage().Len())

	m = poll(t, m, config.PageAppHistory)
	entries := m.Usage().Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, "code", entries[0].Name, "most CPU time first")
	assert.InDelta(t, float64(300*time.Millisecond), float64(entries[0].CPUTime), float64(time.Millisecond))

	// Processes polls never feed usage.
	m = poll(t, m, config.PageProcesses)
	m = poll(t, m, config.PageProcesses)
	assert.InDelta(t, float64(300*time.Millisecond), float64(m.Usage().Entries()[0].CPUTime), float64(time.Millisecond))
}

func TestQuitClosesCycles(t *testing.T) {
	m, _ := newTestModel(t, Options{})

	m, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())

	for _, id := range config.Pages {
		_, ok := m.Cycle(id).Begin()
		assert.False(t, ok, "%s cycle still open", id)
	}
}

func TestPageSwitchIsLogged(t *testing.T) {
	log := logger.NewBufferLogger()
	m, _ := newTestModel(t, Options{Logger: log})

	press(m, "2")
	assert.True(t, log.Contains("debug", "page processes -> performance"))
}

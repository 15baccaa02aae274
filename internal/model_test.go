package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"pomodoro_tui/internal/history"
	"pomodoro_tui/internal/session"
	"pomodoro_tui/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	running bool
	gen     uint64
	starts  int
	stops   int
}

func (f *fakeTicker) Start(context.Context) {
	if f.running {
		return
	}
	f.running = true
	f.gen++
	f.starts++
}

func (f *fakeTicker) Stop() {
	if !f.running {
		return
	}
	f.running = false
	f.stops++
}

func (f *fakeTicker) Running() bool      { return f.running }
func (f *fakeTicker) Generation() uint64 { return f.gen }

type testApp struct {
	model    *Model
	ticker   *fakeTicker
	repo     *session.Repository
	recorder *session.AsyncRecorder
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := session.NewRepository(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.SeedDefaults(ctx))

	recorder := session.NewAsyncRecorder(repo, session.RecorderOptions{Logger: logger})
	t.Cleanup(func() {
		_ = recorder.Close()
		_ = repo.Close()
	})

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 16, 9, 0, 0, 0, time.Local))
	engine := timer.New(session.NewStore(repo, recorder), nil, clock, timer.Options{Logger: logger})

	m, err := NewModel(repo, engine, clock, logger)
	require.NoError(t, err)
	ticker := &fakeTicker{}
	m.AttachTicker(ticker)

	return &testApp{model: m, ticker: ticker, repo: repo, recorder: recorder}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (a *testApp) press(keys ...string) {
	for _, k := range keys {
		a.model.Update(key(k))
	}
}

func (a *testApp) typeText(s string) {
	for _, r := range s {
		a.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (a *testApp) tick(n int) {
	for i := 0; i < n; i++ {
		a.model.Update(MsgTick{Gen: a.ticker.Generation()})
	}
}

func TestNewModel_SelectsActiveSession(t *testing.T) {
	app := newTestApp(t)

	require.Len(t, app.model.Sessions, 3)
	require.Equal(t, 0, app.model.SelectedIndex)
	require.Equal(t, "Classic Pomodoro", app.model.Engine.State().ActiveConfig.Name)
	require.Equal(t, 1500, app.model.Engine.State().RemainingSeconds)
}

func TestSpace_StartsAndPausesTicking(t *testing.T) {
	app := newTestApp(t)

	app.press(" ")
	require.True(t, app.model.Engine.Running())
	require.True(t, app.ticker.Running())

	app.tick(10)
	require.Equal(t, 1490, app.model.Engine.State().RemainingSeconds)

	app.press(" ")
	require.False(t, app.model.Engine.Running())
	require.False(t, app.ticker.Running())

	// Ticks from the stopped generation are ignored.
	app.model.Update(MsgTick{Gen: app.ticker.Generation()})
	require.Equal(t, 1490, app.model.Engine.State().RemainingSeconds)

	app.press(" ")
	staleGen := app.ticker.Generation() - 1
	app.model.Update(MsgTick{Gen: staleGen})
	require.Equal(t, 1490, app.model.Engine.State().RemainingSeconds)
	app.tick(1)
	require.Equal(t, 1489, app.model.Engine.State().RemainingSeconds)
}

func TestFullCycle_StopsTickerAndRecords(t *testing.T) {
	app := newTestApp(t)

	app.press(" ")
	app.tick(1500)
	require.Equal(t, timer.PhaseBreak, app.model.Engine.Phase())
	require.True(t, app.ticker.Running())

	app.tick(300)
	require.Equal(t, timer.PhaseCompleted, app.model.Engine.Phase())
	require.False(t, app.ticker.Running())

	require.NoError(t, app.recorder.Close())
	records, err := app.repo.GetRecords(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 25, records[0].WorkMinutes)
	require.Equal(t, 5, records[0].BreakMinutes)
}

func TestSkipAndReset(t *testing.T) {
	app := newTestApp(t)

	app.press(" ", "s")
	require.Equal(t, timer.PhaseBreak, app.model.Engine.Phase())
	require.Equal(t, 300, app.model.Engine.State().RemainingSeconds)

	app.press("r")
	require.Equal(t, timer.PhaseIdle, app.model.Engine.Phase())
	require.Equal(t, 1500, app.model.Engine.State().RemainingSeconds)
	require.False(t, app.ticker.Running())
}

func TestEnter_ActivatesSelectedSession(t *testing.T) {
	app := newTestApp(t)
	app.press(" ")
	app.tick(5)

	app.press("down", "enter")
	state := app.model.Engine.State()
	require.Equal(t, "Deep Work", state.ActiveConfig.Name)
	require.Equal(t, timer.PhaseIdle, state.Phase)
	require.Equal(t, 3000, state.RemainingSeconds)
	require.False(t, app.ticker.Running())

	active, err := app.repo.ActiveConfig(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Deep Work", active.Name)
}

func TestAddForm_CreatesSession(t *testing.T) {
	app := newTestApp(t)

	app.press("n")
	require.True(t, app.model.ShowAddForm)
	app.typeText("Sprint")
	app.press("tab", "backspace", "backspace")
	app.typeText("4x0")
	app.press("enter")
	require.Equal(t, focusBreak, app.model.InputFocus)
	app.press("backspace")
	app.typeText("8")
	app.press("enter")

	require.False(t, app.model.ShowAddForm)
	require.Len(t, app.model.Sessions, 4)
	created := app.model.SelectedSession()
	require.Equal(t, "Sprint", created.Name)
	require.Equal(t, 40, created.WorkMinutes)
	require.Equal(t, 8, created.BreakMinutes)
}

func TestAddForm_EmptyNameKeepsFormOpen(t *testing.T) {
	app := newTestApp(t)

	app.press("n", "enter", "enter", "enter")
	require.True(t, app.model.ShowAddForm)
	require.ErrorIs(t, app.model.Err, session.ErrInvalidConfig)
	require.Equal(t, focusName, app.model.InputFocus)
	require.Contains(t, app.model.View(), "name is required")

	app.press("esc")
	require.False(t, app.model.ShowAddForm)
	require.Len(t, app.model.Sessions, 3)
}

func TestEditForm_UpdatesActiveConfigWithoutResizingRun(t *testing.T) {
	app := newTestApp(t)
	app.press(" ")
	app.tick(100)

	app.press("e")
	require.True(t, app.model.ShowEditForm)
	app.press("tab", "backspace", "backspace")
	app.typeText("50")
	app.press("enter", "enter")

	require.False(t, app.model.ShowEditForm)
	state := app.model.Engine.State()
	require.Equal(t, 50, state.ActiveConfig.WorkMinutes)
	require.Equal(t, 1400, state.RemainingSeconds)
	require.Equal(t, 50, app.model.Sessions[0].WorkMinutes)
}

func TestDelete_RefusesLastAndReloadsActive(t *testing.T) {
	app := newTestApp(t)

	app.press("d")
	require.NoError(t, app.model.Err)
	require.Len(t, app.model.Sessions, 2)
	require.Equal(t, "Deep Work", app.model.Engine.State().ActiveConfig.Name)

	app.press("d")
	require.Len(t, app.model.Sessions, 1)
	app.press("d")
	require.True(t, errors.Is(app.model.Err, session.ErrLastSession))
	require.Len(t, app.model.Sessions, 1)
}

func TestRecordedMsg_UpdatesCounters(t *testing.T) {
	app := newTestApp(t)
	now := app.model.clock.Now()

	app.model.Update(MsgRecorded{Record: history.Record{Name: "Classic", CompletedAt: now}})
	require.Equal(t, 1, app.model.CompletedToday)

	app.model.Update(MsgRecorded{Record: history.Record{CompletedAt: now.Add(-48 * time.Hour)}})
	require.Equal(t, 1, app.model.CompletedToday)

	app.model.Update(MsgRecorded{Err: errors.New("disk full")})
	require.Error(t, app.model.Err)
}

func TestHistoryView(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, app.repo.CreateRecord(ctx, &history.Record{
		SessionID: "x", Name: "Classic Pomodoro", WorkMinutes: 25, BreakMinutes: 5,
		StartedAt: time.Now(), CompletedAt: time.Now(),
	}))
	require.NoError(t, app.repo.CreateRecord(ctx, &history.Record{
		SessionID: "y", Name: "Deep Work", WorkMinutes: 50, BreakMinutes: 10,
		StartedAt: time.Now(), CompletedAt: time.Now(),
	}))

	app.press("l")
	require.True(t, app.model.ShowLogView)
	require.Len(t, app.model.Records, 2)
	view := app.model.View()
	require.Contains(t, view, "25m work / 5m break")
	require.Contains(t, view, "Total focus: 1h 15m")

	app.press("esc")
	require.False(t, app.model.ShowLogView)
}

func TestMainView_ShowsTimer(t *testing.T) {
	app := newTestApp(t)
	view := app.model.View()
	require.Contains(t, view, "Classic Pomodoro")
	require.Contains(t, view, "25:00")
	require.Contains(t, view, "Ready")

	app.press(" ")
	app.tick(61)
	view = app.model.View()
	require.Contains(t, view, "23:59")
	require.Contains(t, view, "Work Session")
	require.Contains(t, view, "Running")
}

func TestQuit_StopsTicker(t *testing.T) {
	app := newTestApp(t)
	app.press(" ")

	_, cmd := app.model.Update(key("q"))
	require.NotNil(t, cmd)
	require.False(t, app.ticker.Running())
}

func TestFormatClockAndProgressBar(t *testing.T) {
	require.Equal(t, "25:00", formatClock(1500))
	require.Equal(t, "00:00", formatClock(-3))
	require.Equal(t, "1:00:05", formatClock(3605))

	require.Equal(t, strings.Repeat("░", 4), progressBar(-1, 4))
	require.Equal(t, "██░░", progressBar(0.5, 4))
	require.Equal(t, strings.Repeat("█", 4), progressBar(2, 4))
}

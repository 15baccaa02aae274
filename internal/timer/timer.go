package timer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pomodoro_tui/internal/history"
	"pomodoro_tui/internal/logfields"
	"pomodoro_tui/internal/metrics"
	"pomodoro_tui/internal/notify"
	"pomodoro_tui/internal/session"

	"github.com/jonboulle/clockwork"
)

// Phase is the position of the timer in a work+break cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWork
	PhaseBreak
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWork:
		return "work"
	case PhaseBreak:
		return "break"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Counting reports whether the phase has a countdown that ticks.
func (p Phase) Counting() bool {
	return p == PhaseWork || p == PhaseBreak
}

// SessionStore supplies the active config and persists finished cycles.
type SessionStore interface {
	ActiveConfig(ctx context.Context) (*session.Config, error)
	RecordCompletedSession(ctx context.Context, rec history.Record) error
}

// State is a snapshot of the engine.
type State struct {
	Phase            Phase
	RemainingSeconds int
	ActiveConfig     *session.Config
	Running          bool
}

// Options carries optional engine dependencies.
type Options struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Engine is the pomodoro state machine. It holds no locks and starts no
// goroutines: callers drive it from a single goroutine and call Tick once per
// elapsed second.
type Engine struct {
	store   SessionStore
	sink    notify.Sink
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics metrics.Recorder

	phase      Phase
	remaining  int
	total      int
	config     *session.Config
	running    bool
	cycleStart time.Time

	// Minutes each phase of the current cycle actually ran with.
	cycleWork  int
	cycleBreak int
}

// New creates an idle engine loaded with the store's active config.
func New(store SessionStore, sink notify.Sink, clock clockwork.Clock, opts Options) *Engine {
	if sink == nil {
		sink = notify.Discard
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		store:   store,
		sink:    sink,
		clock:   clock,
		logger:  opts.Logger,
		metrics: metrics.OrNoop(opts.Metrics),
		phase:   PhaseIdle,
	}
	e.Reload(context.Background())
	return e
}

// Reload fetches the active config from the store and applies it.
func (e *Engine) Reload(ctx context.Context) {
	if e.store == nil {
		return
	}
	cfg, err := e.store.ActiveConfig(ctx)
	if err != nil {
		e.logger.Warn("Failed to load active session config", logfields.Error(err))
		return
	}
	e.SetConfig(cfg)
}

// Start begins a new cycle from Idle or Completed, or resumes a paused phase.
func (e *Engine) Start() {
	if e.config == nil {
		return
	}
	switch e.phase {
	case PhaseIdle, PhaseCompleted:
		e.cycleStart = e.clock.Now()
		e.enterWork()
		e.setRunning(true)
	case PhaseWork, PhaseBreak:
		e.setRunning(true)
	}
}

// Resume continues a paused Work or Break phase.
func (e *Engine) Resume() {
	if e.phase.Counting() {
		e.setRunning(true)
	}
}

// Pause stops the countdown without leaving the phase.
func (e *Engine) Pause() {
	if e.phase.Counting() {
		e.setRunning(false)
	}
}

// Toggle pauses a running countdown and otherwise starts or resumes.
func (e *Engine) Toggle() {
	if e.running {
		e.Pause()
		return
	}
	e.Start()
}

// Tick advances the countdown by one second. It is a no-op unless running.
func (e *Engine) Tick() {
	if !e.running {
		return
	}
	if e.remaining > 1 {
		e.remaining--
		return
	}

	switch e.phase {
	case PhaseWork:
		e.enterBreak()
		e.fireNotify(notify.WorkComplete)
	case PhaseBreak:
		e.enter(PhaseCompleted, 0)
		e.setRunning(false)
		e.fireNotify(notify.BreakComplete)
		e.fireRecord()
	}
}

// Reset returns to Idle with the full work duration on the clock.
func (e *Engine) Reset() {
	seconds := 0
	if e.config != nil {
		seconds = e.config.WorkSeconds()
	}
	e.enter(PhaseIdle, seconds)
	e.setRunning(false)
	e.cycleStart = time.Time{}
}

// Skip jumps from Work to Break or from Break to Work without notifying.
// The running flag is left as it was.
func (e *Engine) Skip() {
	switch e.phase {
	case PhaseWork:
		e.enterBreak()
	case PhaseBreak:
		e.enterWork()
	}
}

// SetConfig replaces the active config. While Idle or Completed the countdown
// is reset to the new work length; during Work or Break the current countdown
// keeps its length and the new config applies from the next phase on.
// A nil config is only accepted while Idle.
func (e *Engine) SetConfig(cfg *session.Config) {
	if cfg == nil {
		if e.phase == PhaseIdle {
			e.config = nil
			e.remaining = 0
			e.total = 0
		}
		return
	}
	if err := cfg.Validate(); err != nil {
		e.logger.Warn("Ignoring invalid session config", logfields.SessionID(cfg.ID), logfields.Error(err))
		return
	}

	e.config = cfg.Clone()
	if e.phase == PhaseIdle || e.phase == PhaseCompleted {
		e.remaining = e.config.WorkSeconds()
		e.total = e.remaining
	}
	e.logger.Debug("Session config applied",
		logfields.SessionID(e.config.ID),
		logfields.Session(e.config.Name),
		logfields.Phase(e.phase.String()),
	)
}

// Progress is the completed fraction of the current phase in [0,1].
func (e *Engine) Progress() float64 {
	if e.phase == PhaseCompleted {
		return 1
	}
	if e.total <= 0 {
		return 0
	}
	progress := 1 - float64(e.remaining)/float64(e.total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// State returns a snapshot; the config in it is a copy.
func (e *Engine) State() State {
	return State{
		Phase:            e.phase,
		RemainingSeconds: e.remaining,
		ActiveConfig:     e.config.Clone(),
		Running:          e.running,
	}
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Running reports whether the countdown advances on Tick.
func (e *Engine) Running() bool {
	return e.running
}

func (e *Engine) enter(phase Phase, seconds int) {
	from := e.phase
	e.phase = phase
	e.remaining = seconds
	e.total = seconds
	if from != phase {
		e.metrics.IncPhaseTransition(from.String(), phase.String())
		e.logger.Debug("Phase transition",
			logfields.From(from.String()),
			logfields.To(phase.String()),
			logfields.Remaining(seconds),
		)
	}
}

func (e *Engine) enterWork() {
	e.cycleWork = e.config.WorkMinutes
	e.enter(PhaseWork, e.config.WorkSeconds())
}

func (e *Engine) enterBreak() {
	e.cycleBreak = e.config.BreakMinutes
	e.enter(PhaseBreak, e.config.BreakSeconds())
}

func (e *Engine) setRunning(running bool) {
	if e.running == running {
		return
	}
	e.running = running
	e.metrics.SetRunning(running)
}

func (e *Engine) fireNotify(kind notify.Kind) {
	defer func() {
		if r := recover(); r != nil {
			e.metrics.IncCallbackPanic("notify")
			e.logger.Error("Notification sink panicked", logfields.Kind(kind.String()), slog.Any("panic", r))
		}
	}()

	err := e.sink.Notify(context.Background(), kind)
	e.metrics.IncNotification(kind.String(), err == nil)
	if err != nil {
		e.logger.Warn("Notification failed", logfields.Kind(kind.String()), logfields.Error(err))
	}
}

func (e *Engine) fireRecord() {
	cfg := e.config
	e.metrics.IncCompletedCycle(cfg.Name)
	if e.store == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.metrics.IncCallbackPanic("record")
			e.logger.Error("Session store panicked", logfields.SessionID(cfg.ID), slog.Any("panic", r))
		}
	}()

	rec := history.Record{
		SessionID:    cfg.ID,
		Name:         cfg.Name,
		WorkMinutes:  e.cycleWork,
		BreakMinutes: e.cycleBreak,
		StartedAt:    e.cycleStart,
		CompletedAt:  e.clock.Now(),
	}
	if err := e.store.RecordCompletedSession(context.Background(), rec); err != nil {
		e.logger.Warn("Failed to record completed session", logfields.SessionID(cfg.ID), logfields.Error(err))
	}
}

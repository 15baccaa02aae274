package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Loop calls a tick function once per interval from its own goroutine.
// Every Start opens a new generation; ticks carry the generation they were
// produced in so consumers can drop ticks that were in flight across a
// Stop/Start.
type Loop struct {
	clock    clockwork.Clock
	interval time.Duration
	onTick   func(gen uint64)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped loop. A non-positive interval defaults to one second.
// onTick runs on the loop goroutine and must not wait on the goroutine that
// calls Stop.
func New(clock clockwork.Clock, interval time.Duration, onTick func(gen uint64)) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Loop{
		clock:    clock,
		interval: interval,
		onTick:   onTick,
	}
}

// Start launches the ticking goroutine. It is a no-op while already running.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return
	}

	l.gen++
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})

	ticker := l.clock.NewTicker(l.interval)
	go l.run(runCtx, ticker, l.gen, l.done)
}

// Stop halts ticking and waits for the goroutine to exit. After Stop returns
// no further tick is delivered. Stopping a stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// Generation returns the generation of the most recent Start.
func (l *Loop) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

func (l *Loop) run(ctx context.Context, ticker clockwork.Ticker, gen uint64, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			// Stop may have raced the ticker; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			l.onTick(gen)
		}
	}
}

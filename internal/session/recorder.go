package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"pomodoro_tui/internal/history"
	"pomodoro_tui/internal/logfields"
	"pomodoro_tui/internal/metrics"
)

var (
	ErrRecorderClosed = errors.New("recorder closed")
	ErrQueueFull      = errors.New("record queue full")
)

const writeTimeout = 5 * time.Second

// RecordWriter persists one completed session.
type RecordWriter interface {
	CreateRecord(ctx context.Context, rec *history.Record) error
}

// RecorderOptions configures an AsyncRecorder.
type RecorderOptions struct {
	Buffer  int
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// OnWritten, when set, is called from the writer goroutine after each
	// attempted write.
	OnWritten func(rec history.Record, err error)
}

// AsyncRecorder queues completed sessions and writes them from a single
// goroutine so callers never wait on the database.
type AsyncRecorder struct {
	writer    RecordWriter
	queue     chan history.Record
	done      chan struct{}
	logger    *slog.Logger
	metrics   metrics.Recorder
	onWritten func(history.Record, error)

	mu     sync.Mutex
	closed bool
}

func NewAsyncRecorder(writer RecordWriter, opts RecorderOptions) *AsyncRecorder {
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	a := &AsyncRecorder{
		writer:    writer,
		queue:     make(chan history.Record, opts.Buffer),
		done:      make(chan struct{}),
		logger:    opts.Logger,
		metrics:   metrics.OrNoop(opts.Metrics),
		onWritten: opts.OnWritten,
	}
	go a.run()
	return a
}

// Enqueue hands rec to the writer goroutine without blocking.
func (a *AsyncRecorder) Enqueue(rec history.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrRecorderClosed
	}
	select {
	case a.queue <- rec:
		return nil
	default:
		a.metrics.IncPersistResult(false)
		return ErrQueueFull
	}
}

// Close stops accepting records and waits for queued ones to be written.
func (a *AsyncRecorder) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return nil
}

func (a *AsyncRecorder) run() {
	defer close(a.done)

	for rec := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := a.writer.CreateRecord(ctx, &rec)
		cancel()

		a.metrics.IncPersistResult(err == nil)
		if err != nil {
			a.logger.Error("Failed to persist completed session",
				logfields.SessionID(rec.SessionID),
				logfields.Error(err),
			)
		} else {
			a.logger.Info("Completed session recorded",
				logfields.SessionID(rec.SessionID),
				logfields.Session(rec.Name),
			)
		}
		if a.onWritten != nil {
			a.onWritten(rec, err)
		}
	}
}

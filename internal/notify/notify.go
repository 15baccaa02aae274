package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"pomodoro_tui/internal/logfields"
)

// Kind identifies which phase just finished.
type Kind int

const (
	WorkComplete Kind = iota + 1
	BreakComplete
)

func (k Kind) String() string {
	switch k {
	case WorkComplete:
		return "work_complete"
	case BreakComplete:
		return "break_complete"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Message is the human readable text for a notification.
func (k Kind) Message() string {
	switch k {
	case WorkComplete:
		return "Work session complete. Time for a break!"
	case BreakComplete:
		return "Break is over. Cycle complete!"
	default:
		return ""
	}
}

// Sink delivers phase completion notifications.
type Sink interface {
	Notify(ctx context.Context, kind Kind) error
}

// Func adapts a plain function to Sink.
type Func func(ctx context.Context, kind Kind) error

func (f Func) Notify(ctx context.Context, kind Kind) error {
	return f(ctx, kind)
}

// Bell rings the terminal bell by writing BEL to W.
type Bell struct {
	W io.Writer
}

func (b Bell) Notify(_ context.Context, _ Kind) error {
	if b.W == nil {
		return nil
	}
	if _, err := io.WriteString(b.W, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	return nil
}

// Log writes notifications to a structured logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, kind Kind) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, kind.Message(), logfields.Kind(kind.String()))
	return nil
}

// Multi fans a notification out to every sink. All sinks are tried; their
// errors are joined.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, kind Kind) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every notification.
var Discard Sink = Func(func(context.Context, Kind) error { return nil })

package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestBell_WritesBEL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Bell{W: &buf}.Notify(context.Background(), WorkComplete))
	require.Equal(t, "\a", buf.String())
}

func TestBell_NilWriterIsNoop(t *testing.T) {
	require.NoError(t, Bell{}.Notify(context.Background(), BreakComplete))
}

func TestBell_WriteError(t *testing.T) {
	err := Bell{W: failingWriter{}}.Notify(context.Background(), WorkComplete)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ring bell")
}

func TestLog_WritesKind(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	require.NoError(t, Log{Logger: logger}.Notify(context.Background(), BreakComplete))
	require.True(t, strings.Contains(buf.String(), "kind=break_complete"))
}

func TestMulti_CallsAllAndJoinsErrors(t *testing.T) {
	var calls []Kind
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	m := Multi{
		Func(func(_ context.Context, k Kind) error { calls = append(calls, k); return errA }),
		nil,
		Func(func(_ context.Context, k Kind) error { calls = append(calls, k); return nil }),
		Func(func(_ context.Context, k Kind) error { calls = append(calls, k); return errB }),
	}

	err := m.Notify(context.Background(), WorkComplete)
	require.Len(t, calls, 3)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "work_complete", WorkComplete.String())
	require.Equal(t, "break_complete", BreakComplete.String())
	require.Equal(t, "kind(9)", Kind(9).String())
	require.Empty(t, Kind(0).Message())
}

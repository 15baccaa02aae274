package session

import (
	"context"

	"pomodoro_tui/internal/history"
)

// Store adapts a Repository and an AsyncRecorder to the timer engine's
// session store.
type Store struct {
	repo     *Repository
	recorder *AsyncRecorder
}

func NewStore(repo *Repository, recorder *AsyncRecorder) *Store {
	return &Store{repo: repo, recorder: recorder}
}

func (s *Store) ActiveConfig(ctx context.Context) (*Config, error) {
	return s.repo.ActiveConfig(ctx)
}

// RecordCompletedSession queues rec for writing and returns immediately.
func (s *Store) RecordCompletedSession(_ context.Context, rec history.Record) error {
	return s.recorder.Enqueue(rec)
}

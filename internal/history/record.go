package history

import "time"

// Record is one completed work+break cycle.
type Record struct {
	ID           int64
	SessionID    string
	Name         string
	WorkMinutes  int
	BreakMinutes int
	StartedAt    time.Time
	CompletedAt  time.Time
}

// FocusTime is the work portion of the cycle.
func (r Record) FocusTime() time.Duration {
	return time.Duration(r.WorkMinutes) * time.Minute
}

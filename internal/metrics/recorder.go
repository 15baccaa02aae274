package metrics

// Recorder defines observability hooks for the timer. Implementations may
// forward to Prometheus; NoopRecorder is the default when metrics are off.
type Recorder interface {
	IncPhaseTransition(from, to string)
	IncNotification(kind string, ok bool)
	IncCompletedCycle(session string)
	IncPersistResult(ok bool)
	IncCallbackPanic(callback string)
	SetRunning(running bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncPhaseTransition(string, string) {}
func (NoopRecorder) IncNotification(string, bool) {}
func (NoopRecorder) IncCompletedCycle(string) {}
func (NoopRecorder) IncPersistResult(bool) {}
func (NoopRecorder) IncCallbackPanic(string) {}
func (NoopRecorder) SetRunning(bool) {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	transitions     *prom.CounterVec
	notifications   *prom.CounterVec
	completedCycles *prom.CounterVec
	persistResults  *prom.CounterVec
	callbackPanics  *prom.CounterVec
	running         prom.Gauge
}

// NewPrometheusRecorder constructs the timer metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pomodoro",
			Name:      "phase_transitions_total",
			Help:      "Timer phase transitions by source and target phase",
		}, []string{"from", "to"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pomodoro",
			Name:      "notifications_total",
			Help:      "Phase completion notifications by kind and delivery result",
		}, []string{"kind", "result"}),
		completedCycles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pomodoro",
			Name:      "completed_cycles_total",
			Help:      "Full work+break cycles completed, by session config name",
		}, []string{"session"}),
		persistResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pomodoro",
			Name:      "persist_results_total",
			Help:      "Completed-session writes by result",
		}, []string{"result"}),
		callbackPanics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "pomodoro",
			Name:      "callback_panics_total",
			Help:      "Recovered panics raised by engine collaborators",
		}, []string{"callback"}),
		running: prom.NewGauge(prom.GaugeOpts{
			Namespace: "pomodoro",
			Name:      "timer_running",
			Help:      "1 while the countdown is running",
		}),
	}
	reg.MustRegister(pr.transitions, pr.notifications, pr.completedCycles, pr.persistResults, pr.callbackPanics, pr.running)
	return pr
}

func (p *PrometheusRecorder) IncPhaseTransition(from, to string) {
	p.transitions.WithLabelValues(from, to).Inc()
}

func (p *PrometheusRecorder) IncNotification(kind string, ok bool) {
	p.notifications.WithLabelValues(kind, resultLabel(ok)).Inc()
}

func (p *PrometheusRecorder) IncCompletedCycle(session string) {
	p.completedCycles.WithLabelValues(session).Inc()
}

func (p *PrometheusRecorder) IncPersistResult(ok bool) {
	p.persistResults.WithLabelValues(resultLabel(ok)).Inc()
}

func (p *PrometheusRecorder) IncCallbackPanic(callback string) {
	p.callbackPanics.WithLabelValues(callback).Inc()
}

func (p *PrometheusRecorder) SetRunning(running bool) {
	if running {
		p.running.Set(1)
		return
	}
	p.running.Set(0)
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"interview_protocol/notify"
)

// Metrics are the service counters exposed on /metrics.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Fragments   prometheus.Counter
	Toasts      *prometheus.CounterVec
	Exports     *prometheus.CounterVec
	Copies      prometheus.Counter
	Subscribers prometheus.Gauge
}

// Run outcomes.
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nova7_runs_total",
				Help: "Generation runs by outcome",
			},
			[]string{"outcome"},
		),
		Fragments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nova7_fragments_total",
			Help: "Non-empty fragments appended to the document",
		}),
		Toasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nova7_toasts_total",
				Help: "Toasts raised by kind",
			},
			[]string{"kind"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nova7_exports_total",
				Help: "Document exports by outcome",
			},
			[]string{"outcome"},
		),
		Copies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nova7_code_copies_total",
			Help: "Code block copy actions",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nova7_event_subscribers",
			Help: "Connected event stream clients",
		}),
	}
	reg.MustRegister(m.Runs, m.Fragments, m.Toasts, m.Exports, m.Copies, m.Subscribers)
	return m
}

// meteredPusher counts toasts on their way into the queue.
type meteredPusher struct {
	notify.Pusher
	toasts *prometheus.CounterVec
}

func (p meteredPusher) Push(message string, kind notify.Kind) string {
	p.toasts.WithLabelValues(string(kind)).Inc()
	return p.Pusher.Push(message, kind)
}

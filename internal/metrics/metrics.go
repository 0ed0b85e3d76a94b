// Package metrics exposes Prometheus instruments for the learner services.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument on its own registry so tests can build as
// many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	AuthEvents         *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	SessionEvictions   prometheus.Counter
	XPAwarded          prometheus.Counter
	LevelUps           prometheus.Counter
	QuizXP             prometheus.Histogram
	Calculations       *prometheus.CounterVec
	AssistantFallbacks *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		AuthEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radlearn",
			Name:      "auth_events_total",
			Help:      "Authentication lifecycle events by action and role.",
		}, []string{"action", "role"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radlearn",
			Name:      "auth_validation_failures_total",
			Help:      "Rejected logins by requested role.",
		}, []string{"role"}),
		SessionEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radlearn",
			Name:      "session_evictions_total",
			Help:      "Expired sessions deleted on read.",
		}),
		XPAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radlearn",
			Name:      "xp_awarded_total",
			Help:      "Experience points awarded across all learners.",
		}),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "radlearn",
			Name:      "level_ups_total",
			Help:      "Levels gained across all learners.",
		}),
		QuizXP: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "radlearn",
			Name:      "quiz_xp",
			Help:      "XP earned per recorded quiz.",
			Buckets:   []float64{0, 25, 50, 100, 250, 500, 1000, 2500, 10000},
		}),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radlearn",
			Name:      "dose_calculations_total",
			Help:      "Dose calculator invocations by formula.",
		}, []string{"kind"}),
		AssistantFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "radlearn",
			Name:      "assistant_fallbacks_total",
			Help:      "Assistant calls answered with a fallback.",
		}, []string{"operation"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.AuthEvents,
		m.ValidationFailures,
		m.SessionEvictions,
		m.XPAwarded,
		m.LevelUps,
		m.QuizXP,
		m.Calculations,
		m.AssistantFallbacks,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

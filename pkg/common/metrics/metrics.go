// Package metrics exposes registration counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "barista"

type Metrics struct {
	registry    *prometheus.Registry
	attempts    *prometheus.CounterVec
	submissions *prometheus.CounterVec
	duration    prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "attempts_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "submissions_total",
			Help:      "Outbound registration calls by outcome class.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "duration_seconds",
			Help:      "Latency of the outbound registration call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// ObserveAttempt counts one finished attempt.
func (m *Metrics) ObserveAttempt(outcome string) {
	m.attempts.WithLabelValues(outcome).Inc()
}

// ObserveSubmission records one outbound call. statusCode 0 means transport failure.
func (m *Metrics) ObserveSubmission(statusCode int, latency time.Duration) {
	m.submissions.WithLabelValues(outcomeClass(statusCode)).Inc()
	m.duration.Observe(latency.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry on a plain net/http listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcomeClass(statusCode int) string {
	switch {
	case statusCode == 0:
		return "transport_error"
	case statusCode < 300:
		return "2xx"
	case statusCode < 400:
		return "3xx"
	case statusCode < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

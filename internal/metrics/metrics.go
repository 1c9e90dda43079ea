// Package metrics provides Prometheus instrumentation for provider calls
// and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service.
type Metrics struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

// New creates metrics registered on the given registerer. Passing nil
// registers on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		providerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chathub_provider_calls_total",
			Help: "Total provider chat calls by model, provider, and outcome.",
		}, []string{"model", "provider", "outcome"}),
		providerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chathub_provider_call_duration_seconds",
			Help:    "Latency of provider chat calls.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"provider"}),
	}
}

// ObserveProviderCall records the outcome and latency of one provider call.
func (m *Metrics) ObserveProviderCall(model, provider string, elapsed time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	m.providerCalls.WithLabelValues(model, provider, outcome).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

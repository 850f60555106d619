package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup outcomes used as the "outcome" label value.
const (
	OutcomeFound      = "found"
	OutcomeNotFound   = "not_found"
	OutcomeInvalid    = "invalid"
	OutcomeTransport  = "transport_error"
	OutcomeSuperseded = "superseded"
)

// LookupMetrics holds Prometheus metrics for postal-code lookups.
// All methods are safe to call on a nil receiver so callers never need to
// check whether metrics were configured.
type LookupMetrics struct {
	// Workflow level
	Submissions *prometheus.CounterVec
	InFlight    prometheus.Gauge

	// Registry level
	RegistryRequests *prometheus.CounterVec
	RegistryLatency  *prometheus.HistogramVec
}

// NewLookupMetrics creates lookup metrics and registers them on reg.
// A nil reg registers on the default Prometheus registry.
func NewLookupMetrics(namespace string, reg prometheus.Registerer) *LookupMetrics {
	if namespace == "" {
		namespace = "buscacep"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "lookup"

	return &LookupMetrics{
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "submissions_total",
				Help:      "Total lookup submissions by outcome",
			},
			[]string{"outcome"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "in_flight",
				Help:      "Lookups currently waiting on the registry",
			},
		),
		RegistryRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_requests_total",
				Help:      "Outbound registry requests by outcome",
			},
			[]string{"outcome"},
		),
		RegistryLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "registry_latency_seconds",
				Help:      "Registry round-trip latency in seconds",
				Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
	}
}

// ObserveSubmission counts a workflow submission.
func (m *LookupMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// ObserveRegistryCall records one outbound registry request.
func (m *LookupMetrics) ObserveRegistryCall(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RegistryRequests.WithLabelValues(outcome).Inc()
	m.RegistryLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func (m *LookupMetrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}

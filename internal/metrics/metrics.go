// Package metrics exposes Prometheus collectors for the search pipeline and
// the query API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"docsearch/internal/domain"
	"docsearch/internal/eventbus"
)

const namespace = "docsearch"

// Outcome label values for results_applied_total
const (
	OutcomeResults = "results"
	OutcomeEmpty   = "empty"
	OutcomePartial = "partial"
	OutcomeError   = "error"
)

// Metrics holds every collector. Each instance registers on its own
// registerer so tests can use a fresh registry.
type Metrics struct {
	QueriesIssued  prometheus.Counter
	ResultsApplied *prometheus.CounterVec
	StaleResponses prometheus.Counter
	SourceFailures *prometheus.CounterVec
	Navigations    prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_issued_total",
			Help:      "Total number of queries sent to the sources",
		}),
		ResultsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_applied_total",
			Help:      "Result sets applied to the item list, by outcome",
		}, []string{"outcome"}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses dropped because a newer query was active",
		}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Source fetch failures for the active query",
		}, []string{"source"}),
		Navigations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Results chosen by the user",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(
		m.QueriesIssued,
		m.ResultsApplied,
		m.StaleResponses,
		m.SourceFailures,
		m.Navigations,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Subscribe feeds the pipeline collectors from bus events. The returned
// function removes every subscription.
func (m *Metrics) Subscribe(bus eventbus.EventBus) func() {
	unsubs := []func(){
		bus.Subscribe(eventbus.EventQueryIssued, func(eventbus.DomainEvent) {
			m.QueriesIssued.Inc()
		}),
		bus.Subscribe(eventbus.EventResultsApplied, func(e eventbus.DomainEvent) {
			if ev, ok := e.(domain.ResultsAppliedEvent); ok {
				m.ResultsApplied.WithLabelValues(Outcome(ev)).Inc()
			}
		}),
		bus.Subscribe(eventbus.EventStaleResponseDropped, func(eventbus.DomainEvent) {
			m.StaleResponses.Inc()
		}),
		bus.Subscribe(eventbus.EventSourceFailed, func(e eventbus.DomainEvent) {
			if ev, ok := e.(domain.SourceFailedEvent); ok {
				m.SourceFailures.WithLabelValues(ev.SourceID).Inc()
			}
		}),
		bus.Subscribe(eventbus.EventNavigated, func(eventbus.DomainEvent) {
			m.Navigations.Inc()
		}),
	}

	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Outcome classifies an applied result set
func Outcome(e domain.ResultsAppliedEvent) string {
	switch {
	case e.AllFailed:
		return OutcomeError
	case len(e.Failed) > 0:
		return OutcomePartial
	case e.Count == 0:
		return OutcomeEmpty
	default:
		return OutcomeResults
	}
}

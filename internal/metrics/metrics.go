// Package metrics holds the Prometheus collectors for pipeline runs.
//
// All recording methods are safe to call on a nil *Metrics, so components
// can be built without instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "transmute"

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeSentinel = "sentinel"
)

// Metrics groups every collector the module records to.
type Metrics struct {
	Runs             *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	OracleCalls      *prometheus.CounterVec
	OracleDuration   *prometheus.HistogramVec
	RetrievalQueries *prometheus.CounterVec
	PlanParses       *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	IndexedChunks    prometheus.Gauge
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs",
			},
			[]string{"entry", "status"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage", "status"},
		),
		OracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_calls_total",
				Help:      "Total number of generation oracle calls",
			},
			[]string{"provider", "status"},
		),
		OracleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "oracle_call_duration_seconds",
				Help:      "Duration of generation oracle calls",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),
		RetrievalQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_queries_total",
				Help:      "Total number of retrieval index queries",
			},
			[]string{"status"},
		),
		PlanParses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_parses_total",
				Help:      "Supervisor plan parse results",
			},
			[]string{"status"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_cache_lookups_total",
				Help:      "Oracle response cache lookups",
			},
			[]string{"status"},
		),
		IndexedChunks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "retrieval_indexed_chunks",
				Help:      "Number of chunks in the retrieval index",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "route", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of API requests",
			},
			[]string{"method", "route"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.Runs,
			m.StageDuration,
			m.OracleCalls,
			m.OracleDuration,
			m.RetrievalQueries,
			m.PlanParses,
			m.CacheLookups,
			m.IndexedChunks,
			m.HTTPRequests,
			m.HTTPDuration,
		)
	}
	return m
}

func status(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// ObserveRun counts one finished pipeline run.
func (m *Metrics) ObserveRun(entry string, err error) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(entry, status(err)).Inc()
}

// ObserveStage records the duration of one stage execution.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage, status(err)).Observe(d.Seconds())
}

// ObserveOracle records one oracle call.
func (m *Metrics) ObserveOracle(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.OracleCalls.WithLabelValues(provider, status(err)).Inc()
	m.OracleDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveRetrieval counts one index query by outcome (hit, sentinel, error).
func (m *Metrics) ObserveRetrieval(outcome string) {
	if m == nil {
		return
	}
	m.RetrievalQueries.WithLabelValues(outcome).Inc()
}

// ObservePlan counts one plan parse by status.
func (m *Metrics) ObservePlan(status string) {
	if m == nil {
		return
	}
	m.PlanParses.WithLabelValues(status).Inc()
}

// ObserveCache counts one cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues(OutcomeHit).Inc()
		return
	}
	m.CacheLookups.WithLabelValues(OutcomeMiss).Inc()
}

// SetIndexedChunks records the size of the built index.
func (m *Metrics) SetIndexedChunks(n int) {
	if m == nil {
		return
	}
	m.IndexedChunks.Set(float64(n))
}

// ObserveHTTP records one API request.
func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

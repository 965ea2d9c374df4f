// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records engine measurements in a Prometheus registry.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/sourcing-engine/internal/engine"
	"github.com/pdiddy/sourcing-engine/pkg/types"
)

// Query outcome labels.
const (
	OutcomeOK        = "ok"
	OutcomePartial   = "partial"
	OutcomeNoResults = "no_results"
	OutcomeInvalid   = "invalid"
	OutcomeError     = "error"
)

// Recorder implements engine.Observer.
type Recorder struct {
	reg *prometheus.Registry

	adapterCalls   *prometheus.CounterVec
	adapterLatency *prometheus.HistogramVec
	adapterItems   *prometheus.CounterVec

	queries      *prometheus.CounterVec
	queryLatency prometheus.Histogram
	offers       prometheus.Histogram
	duplicates   prometheus.Counter
	excluded     prometheus.Counter
}

var _ engine.Observer = (*Recorder)(nil)

// New registers the engine metrics in a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		adapterCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sourcing_adapter_calls_total",
			Help: "Adapter invocations by adapter and status",
		}, []string{"adapter", "status"}),
		adapterLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sourcing_adapter_latency_seconds",
			Help:    "Adapter latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
		}, []string{"adapter"}),
		adapterItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sourcing_adapter_items_total",
			Help: "Raw items returned and accepted by the normalizer",
		}, []string{"adapter", "stage"}),
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sourcing_queries_total",
			Help: "Queries by outcome",
		}, []string{"outcome"}),
		queryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sourcing_query_latency_seconds",
			Help:    "End-to-end query latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2, 4, 6, 10},
		}),
		offers: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sourcing_query_offers",
			Help:    "Offers returned per query",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		}),
		duplicates: f.NewCounter(prometheus.CounterOpts{
			Name: "sourcing_duplicates_removed_total",
			Help: "Offers merged by deduplication",
		}),
		excluded: f.NewCounter(prometheus.CounterOpts{
			Name: "sourcing_offers_excluded_total",
			Help: "Offers removed for violating a hard constraint",
		}),
	}
}

// ObserveAdapter records one adapter outcome.
func (r *Recorder) ObserveAdapter(s types.AdapterStatus) {
	r.adapterCalls.WithLabelValues(s.AdapterID, string(s.Status)).Inc()
	r.adapterLatency.WithLabelValues(s.AdapterID).Observe(float64(s.LatencyMS) / 1000)
	r.adapterItems.WithLabelValues(s.AdapterID, "raw").Add(float64(s.RawCount))
	r.adapterItems.WithLabelValues(s.AdapterID, "accepted").Add(float64(s.ResultCount))
}

// ObserveQuery records one engine call.
func (r *Recorder) ObserveQuery(rs types.RankedResultSet, err error) {
	outcome := Outcome(rs, err)
	r.queries.WithLabelValues(outcome).Inc()
	if outcome == OutcomeInvalid {
		return
	}
	r.queryLatency.Observe(rs.Elapsed.Seconds())
	r.offers.Observe(float64(len(rs.Offers)))
	r.duplicates.Add(float64(rs.DuplicatesRemoved))
	r.excluded.Add(float64(rs.Excluded))
}

// Outcome classifies a query result for the outcome label.
func Outcome(rs types.RankedResultSet, err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidQuery):
		return OutcomeInvalid
	case errors.Is(err, engine.ErrNoResults):
		return OutcomeNoResults
	case err != nil:
		return OutcomeError
	case rs.Responded() < len(rs.Statuses):
		return OutcomePartial
	}
	return OutcomeOK
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

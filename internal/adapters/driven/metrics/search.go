// Package metrics records search index activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
)

// Ensure SearchMetrics implements the interface.
var _ driven.SearchMetrics = (*SearchMetrics)(nil)

// SearchMetrics contains the Prometheus metrics of the search index.
type SearchMetrics struct {
	Queries        *prometheus.CounterVec
	Results        prometheus.Histogram
	Rebuilds       *prometheus.CounterVec
	RebuildSeconds prometheus.Histogram
	Records        prometheus.Gauge
}

// NewSearchMetrics creates the search metrics and registers them.
func NewSearchMetrics(registry prometheus.Registerer) (*SearchMetrics, error) {
	m := &SearchMetrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gangboyz_search_queries_total",
			Help: "Total number of answered search queries",
		}, []string{"cache"}),
		Results: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gangboyz_search_results",
			Help:    "Number of results returned per query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		Rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gangboyz_index_rebuilds_total",
			Help: "Total number of index refreshes by outcome",
		}, []string{"outcome"}),
		RebuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gangboyz_index_rebuild_seconds",
			Help:    "Duration of completed index rebuilds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gangboyz_index_records",
			Help: "Number of records in the current index",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register search metrics: %w", err)
	}
	return m, nil
}

// ObserveQuery implements driven.SearchMetrics.
func (m *SearchMetrics) ObserveQuery(cached bool, results int) {
	label := "miss"
	if cached {
		label = "hit"
	}
	m.Queries.WithLabelValues(label).Inc()
	m.Results.Observe(float64(results))
}

// ObserveRebuild implements driven.SearchMetrics.
func (m *SearchMetrics) ObserveRebuild(outcome driven.RebuildOutcome, records int, elapsed time.Duration) {
	m.Rebuilds.WithLabelValues(string(outcome)).Inc()
	m.Records.Set(float64(records))
	if outcome == driven.RebuildCompleted {
		m.RebuildSeconds.Observe(elapsed.Seconds())
	}
}

// Collect implements the prometheus.Collector interface.
func (m *SearchMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Queries.Collect(ch)
	ch <- m.Results
	m.Rebuilds.Collect(ch)
	ch <- m.RebuildSeconds
	ch <- m.Records
}

// Describe implements the prometheus.Collector interface.
func (m *SearchMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Queries.Describe(ch)
	ch <- m.Results.Desc()
	m.Rebuilds.Describe(ch)
	ch <- m.RebuildSeconds.Desc()
	ch <- m.Records.Desc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

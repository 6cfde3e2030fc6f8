// Package metrics exposes the Prometheus collectors of the buyer search service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buyerradar_queries_total",
		Help: "Total number of buyer activity queries by outcome",
	}, []string{"outcome"})
	QueryDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "buyerradar_query_duration_ms",
		Help:    "Buyer activity query duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100, 500},
	})
	QueryResultBuyers = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "buyerradar_query_result_buyers",
		Help:    "Number of buyers returned per successful query",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "buyerradar_cache_hits_total",
		Help: "Total result cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "buyerradar_cache_misses_total",
		Help: "Total result cache misses",
	})
	ReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buyerradar_reloads_total",
		Help: "Reference data reloads by status",
	}, []string{"status"})
	SnapshotVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "buyerradar_snapshot_version",
		Help: "Version of the currently published reference data snapshot",
	})
	SnapshotEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "buyerradar_snapshot_events",
		Help: "Number of events in the current reference data snapshot",
	})
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDurationMs)
	prometheus.MustRegister(QueryResultBuyers)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(ReloadsTotal)
	prometheus.MustRegister(SnapshotVersion)
	prometheus.MustRegister(SnapshotEvents)
}

// Handler serves the registered collectors for scraping.
func Handler() http.Handler { return promhttp.Handler() }

// Package metrics defines the Prometheus collectors of the explainer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explainer_search_total",
		Help: "Semantic searches by outcome",
	}, []string{"result"}) // "hit", "empty" or "error"

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "explainer_search_duration_seconds",
		Help:    "Semantic search latency including query embedding",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	PathQueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explainer_path_query_total",
		Help: "Path queries by outcome",
	}, []string{"result"}) // "found", "none", "budget" or "error"

	PathExpansions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "explainer_path_frontier_expansions",
		Help:    "Frontier expansions per path query",
		Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000, 5000, 10000},
	})

	MergeRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explainer_merge_rows_total",
		Help: "Workbook rows processed by the merge pipeline",
	}, []string{"sheet", "result"}) // "applied" or "skipped"

	GraphTriples = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explainer_graph_triples",
		Help: "Triples in the loaded graph",
	})

	IndexVectors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "explainer_index_vectors",
		Help: "Construct vectors in the loaded embedding index",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explainer_http_requests_total",
		Help: "HTTP API requests by route and status",
	}, []string{"route", "status"})
)

// ObserveSince records the time elapsed since start on h.
func ObserveSince(h prometheus.Observer, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

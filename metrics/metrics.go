// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "olist",
		Subsystem: "reports",
		Name:      "query_duration_seconds",
		Help:      "Time spent running a report query against the store.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"query"})

	QueryRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "olist",
		Subsystem: "reports",
		Name:      "query_rows",
		Help:      "Rows returned by the last run of a report query.",
	}, []string{"query"})

	QueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "olist",
		Subsystem: "reports",
		Name:      "query_errors_total",
		Help:      "Report query runs that failed.",
	}, []string{"query"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "olist",
		Subsystem: "reports",
		Name:      "cache_lookups_total",
		Help:      "Result cache lookups by outcome (hit, miss, error).",
	}, []string{"result"})

	LoadedDocuments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "olist",
		Subsystem: "loader",
		Name:      "inserted_documents_total",
		Help:      "Documents inserted by the dataset loader.",
	}, []string{"collection"})
)

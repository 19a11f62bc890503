package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClassificationsTotal counts classify calls by outcome
	// (success, credential, probe, blocked, empty, halted, parse, schema, api, exhausted, internal, panic).
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colsense_classifications_total",
			Help: "Total number of classification calls by outcome",
		},
		[]string{"outcome"},
	)

	// ClassificationDuration tracks wall clock per classify call, retries included
	ClassificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "colsense_classification_duration_seconds",
			Help:    "Classification call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"outcome"},
	)

	// ProviderRetriesTotal counts retried model calls
	ProviderRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colsense_provider_retries_total",
			Help: "Total number of retried model invocations",
		},
		[]string{"model"},
	)

	// ColumnsClassified counts columns returned per level
	ColumnsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colsense_columns_classified_total",
			Help: "Total number of classified columns by sensitivity level",
		},
		[]string{"level"},
	)

	// PromptTokens tracks the estimated prompt size
	PromptTokens = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "colsense_prompt_estimated_tokens",
			Help:    "Estimated prompt size in tokens",
			Buckets: prometheus.ExponentialBuckets(250, 2, 7),
		},
	)

	// HistoryEntries tracks the current size of the session history
	HistoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colsense_history_entries",
			Help: "Number of analyses held in the session history",
		},
	)

	// HTTPRequestsTotal counts API requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colsense_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)
)

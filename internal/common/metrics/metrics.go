// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_requests_completed_total",
			Help: "Total number of completed prediction requests",
		},
		[]string{"source"},
	)

	PredictionsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_requests_failed_total",
			Help: "Total number of failed prediction requests",
		},
		[]string{"error_code"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "prediction_duration_seconds",
			Help: "Duration of prediction processing in seconds",
		},
	)

	PredictedPrice = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "predicted_price_pounds",
			Help:    "Distribution of predicted prices in pounds",
			Buckets: prometheus.LinearBuckets(0, 5000, 12),
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_cache_hits_total",
			Help: "Total number of predictions served from cache",
		},
	)

	HistoryWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_history_write_failures_total",
			Help: "Total number of failed prediction history inserts",
		},
	)
)

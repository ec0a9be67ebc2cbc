package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsreader_fetch_runs_total",
			Help: "Total number of ingestion runs",
		},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsreader_fetch_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SourceOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreader_source_outcomes_total",
			Help: "Per-source ingestion outcomes by fallback tier",
		},
		[]string{"source", "outcome"},
	)

	ArticlesSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreader_articles_saved_total",
			Help: "Total number of articles that survived upsert",
		},
		[]string{"source"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsreader_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "path", "status"},
	)
)

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_ingested_total",
			Help: "Total number of messages staged from the mail source",
		},
	)

	StageRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_runs_total",
			Help: "Total number of pipeline stage executions",
		},
		[]string{"stage", "status"}, // stage: classify, analyze, pregenerate; status: success, failed
	)

	AICallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_call_latency_ms",
			Help:    "AI completion call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"operation", "status"},
	)

	LookupCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_calls_total",
			Help: "Total number of external lookup calls",
		},
		[]string{"kind", "status"}, // kind: company_search, person_search, page_fetch
	)

	RepliesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replies_generated_total",
			Help: "Total number of reply drafts generated",
		},
		[]string{"mode"}, // mode: reactive, proactive
	)

	ReplyCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reply_cache_lookups_total",
			Help: "Reply fingerprint cache lookups",
		},
		[]string{"result"}, // result: hit, miss, bypass
	)

	ExportedRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exported_rows_total",
			Help: "Total number of rows pushed to the spreadsheet sink",
		},
	)

	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Export synchronizer passes",
		},
		[]string{"status"}, // status: success, failed, skipped
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

// RecordAICall records one AI completion call.
func RecordAICall(operation, status string, duration time.Duration) {
	AICallLatency.WithLabelValues(operation, status).Observe(float64(duration.Milliseconds()))
}

// RecordStageRun records one pipeline stage execution.
func RecordStageRun(stage, status string) {
	StageRuns.WithLabelValues(stage, status).Inc()
}

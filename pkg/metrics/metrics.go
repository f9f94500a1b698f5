// Package metrics exposes process-level Prometheus instruments for the
// retrieval pipeline. Per-request timings additionally travel in the
// answer payload itself; these are the aggregate views.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnswerRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_answer_requests_total",
		Help: "Questions handled by the retrieval pipeline.",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_semantic_cache_hits_total",
		Help: "Semantic cache hits (pipeline bypassed).",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_semantic_cache_misses_total",
		Help: "Semantic cache misses.",
	})

	DomainSearchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_domain_search_errors_total",
		Help: "Embedding or similarity-search failures, per domain. Each one degrades a single request, never fails it.",
	}, []string{"domain"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_pipeline_stage_duration_seconds",
		Help:    "Wall time per pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

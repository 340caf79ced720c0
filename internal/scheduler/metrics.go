package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a snapshot of one session's counters.
type Metrics struct {
	CacheHits        uint64        `json:"cache_hits"`
	CacheMisses      uint64        `json:"cache_misses"`
	TotalAnalyses    uint64        `json:"total_analyses"`
	Delivered        uint64        `json:"delivered"`
	Cancelled        uint64        `json:"cancelled"`
	Failed           uint64        `json:"failed"`
	LastAnalysisTime time.Duration `json:"last_analysis_time"`
}

var (
	// runOutcomes counts finished runs.
	// Labels: outcome (delivered, cached, cancelled, failed)
	runOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "writing_coach",
		Subsystem: "scheduler",
		Name:      "runs_total",
		Help:      "Analysis runs by outcome",
	}, []string{"outcome"})

	// secondaryUnavailable counts cycles delivered without a secondary score.
	// Labels: reason (timeout, error)
	secondaryUnavailable = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "writing_coach",
		Subsystem: "scheduler",
		Name:      "secondary_unavailable_total",
		Help:      "Secondary scorer runs that produced no score",
	}, []string{"reason"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "writing_coach",
		Subsystem: "scheduler",
		Name:      "run_duration_seconds",
		Help:      "Wall time of both analysis branches",
		Buckets:   prometheus.DefBuckets,
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "writing_coach",
		Subsystem: "scheduler",
		Name:      "active_sessions",
		Help:      "Open analysis sessions",
	})
)

package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// analysisDuration measures a full detector pass plus aggregation.
	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "writing_coach",
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time to run all detectors and aggregate their spans",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	// detectorFailures counts detector panics and dropped out-of-range spans.
	// Labels: detector, reason (panic, invalid_span)
	detectorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "writing_coach",
		Subsystem: "analysis",
		Name:      "detector_failures_total",
		Help:      "Detector failures by detector and reason",
	}, []string{"detector", "reason"})
)

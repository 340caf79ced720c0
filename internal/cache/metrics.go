package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "writing_coach",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Analysis cache hits",
	})

	// cacheMisses includes lookups that found an expired entry.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "writing_coach",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Analysis cache misses",
	})

	// cacheEvictions counts entries removed by TTL expiry or size eviction.
	// Labels: reason (expired, capacity)
	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "writing_coach",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Analysis cache entries removed",
	}, []string{"reason"})
)

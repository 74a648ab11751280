package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LeaderboardMetrics tracks scoreboard reads and the cost of rebuilding the
// ranking when the cache misses.
type LeaderboardMetrics struct {
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	Rebuilds    prometheus.Histogram
}

var (
	leaderboardOnce     sync.Once
	leaderboardRegistry *LeaderboardMetrics
)

// Leaderboard returns the metrics registry tracking scoreboard activity.
func Leaderboard() *LeaderboardMetrics {
	leaderboardOnce.Do(func() {
		leaderboardRegistry = &LeaderboardMetrics{
			CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "leaderboard",
				Name:      "cache_hits_total",
				Help:      "Count of leaderboard reads served from the snapshot cache.",
			}),
			CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "stakegw",
				Subsystem: "leaderboard",
				Name:      "cache_misses_total",
				Help:      "Count of leaderboard reads that rebuilt the ranking.",
			}),
			Rebuilds: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "stakegw",
				Subsystem: "leaderboard",
				Name:      "rebuild_duration_seconds",
				Help:      "Time spent recomputing the full ranking from storage.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			leaderboardRegistry.CacheHits,
			leaderboardRegistry.CacheMisses,
			leaderboardRegistry.Rebuilds,
		)
	})
	return leaderboardRegistry
}

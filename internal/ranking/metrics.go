package ranking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelier_ranking_cycles_total",
		Help: "Completed ranking recomputation cycles",
	})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hotelier_ranking_cycle_duration_seconds",
		Help:    "Ranking recomputation cycle duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	changedCitiesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelier_ranking_changed_cities_total",
		Help: "Cities whose ordering changed in a cycle",
	})

	leaderChangesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelier_ranking_leader_changes_total",
		Help: "Cities whose first-ranked hotel changed in a cycle",
	})
)

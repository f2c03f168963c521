package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelier_notify_deliveries_total",
		Help: "Subscriber deliveries by result",
	}, []string{"result"})

	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hotelier_notify_evictions_total",
		Help: "Subscribers evicted after consecutive delivery failures",
	})

	subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hotelier_notify_subscribers",
		Help: "Currently registered subscribers",
	})

	broadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hotelier_broadcasts_total",
		Help: "Leader-change announcements by transport and result",
	}, []string{"transport", "result"})
)

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "hotelier_tcp_connections",
	Help: "Open TCP protocol connections.",
})

package protocol

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hotelier_protocol_requests_total",
		Help: "Requests handled by the line protocol, by verb and outcome.",
	},
	[]string{"verb", "outcome"},
)

func observeRequest(verb Verb, resp Response) {
	outcome := "success"
	if resp.IsError() {
		outcome = resp.ErrName
	}
	if verb == "" {
		verb = "UNKNOWN"
	}
	requestsTotal.WithLabelValues(string(verb), outcome).Inc()
}

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch metrics for Prometheus monitoring.
var (
	NoticesDispatchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_notices_total",
			Help: "Total number of document notices published to the queue",
		},
	)
)

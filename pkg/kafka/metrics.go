package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Audit events handed to Kafka, by topic and outcome.",
		},
		[]string{"topic", "outcome"},
	)

	publishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "admin",
			Subsystem: "events",
			Name:      "publish_duration_seconds",
			Help:      "Time spent writing one audit event.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"topic"},
	)
)

func observePublish(topic string, seconds float64, err error) {
	publishLatency.WithLabelValues(topic).Observe(seconds)
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	eventsPublished.WithLabelValues(topic, outcome).Inc()
}

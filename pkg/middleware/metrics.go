package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "admin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Admin API requests by route pattern and status class.",
		},
		[]string{"service", "method", "route", "status"},
	)

	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "admin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin API latency. Image batches land in the upper buckets.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "method", "route"},
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "admin",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Admin API requests currently being served.",
		},
		[]string{"service"},
	)
)

// statusClass folds a status code into "2xx", "4xx" and so on.
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// PrometheusMetrics records request counts, latency and in-flight requests,
// labelled by chi route pattern so draft IDs do not explode cardinality.
func PrometheusMetrics(serviceName string) func(next http.Handler) http.Handler {
	inFlight := requestsInFlight.WithLabelValues(serviceName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			requestsTotal.WithLabelValues(serviceName, r.Method, route, statusClass(rw.statusCode)).Inc()
			requestLatency.WithLabelValues(serviceName, r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

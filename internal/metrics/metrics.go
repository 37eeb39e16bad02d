package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "booking_operations_total",
			Help:      "Booking lifecycle operations by type and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	availabilityChecks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tablebook",
			Name:      "availability_checks_total",
			Help:      "Full availability passes over the slot grid.",
		},
	)

	availabilityDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tablebook",
			Name:      "availability_check_seconds",
			Help:      "Duration of a full availability pass.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingOps, availabilityChecks, availabilityDuration)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBookingOp records one create/update/cancel with its outcome.
func IncBookingOp(operation, outcome string) {
	bookingOps.WithLabelValues(operation, outcome).Inc()
}

// ObserveAvailabilityCheck records one full availability pass.
func ObserveAvailabilityCheck(seconds float64) {
	availabilityChecks.Inc()
	availabilityDuration.Observe(seconds)
}

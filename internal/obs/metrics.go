package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_resolutions_total",
			Help: "Get-or-create resolutions by entity and outcome.",
		},
		[]string{"entity", "outcome"},
	)

	allocationAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracking_uuid_allocation_attempts_total",
		Help: "Candidate uuids generated, including collided ones.",
	})

	storeOpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracking_store_op_duration_seconds",
			Help:    "Relational store round-trip latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Init registers the library metrics with the default registry. Call once at
// process start.
func Init() {
	prometheus.MustRegister(resolutionsTotal, allocationAttemptsTotal, storeOpDuration)
}

// Resolution records one get-or-create outcome ("hit", "created", "error").
func Resolution(entity, outcome string) {
	resolutionsTotal.WithLabelValues(entity, outcome).Inc()
}

// AllocationAttempt records one generated uuid candidate.
func AllocationAttempt() {
	allocationAttemptsTotal.Inc()
}

// StoreOp records the latency of one store round trip started at start.
// Intended for use with defer: defer obs.StoreOp("space_by_code", time.Now()).
func StoreOp(op string, start time.Time) {
	storeOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

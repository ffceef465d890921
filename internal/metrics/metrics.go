package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeReplayed = "replayed"
	OutcomeError    = "error"
)

var (
	registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"event_type", "outcome"},
	)

	registrationRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_rejections_total",
			Help: "Rejected registrations by reason",
		},
		[]string{"reason"},
	)

	ticketsRegistered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_registered_total",
			Help: "Ticket units registered",
		},
		[]string{"event_type", "payment_required"},
	)

	availabilityQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_queries_total",
			Help: "Availability reads by scope",
		},
		[]string{"scope"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_cache_lookups_total",
			Help: "Availability cache lookups by result",
		},
		[]string{"result"},
	)

	calculationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "availability_calculation_duration_seconds",
			Help:    "Time spent computing availability for one event",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		},
	)

	workerRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_worker_refreshes_total",
			Help: "Availability cache refreshes by the worker",
		},
		[]string{"status"},
	)
)

// TrackRegistration counts one registration attempt
func TrackRegistration(eventType, outcome string) {
	registrations.WithLabelValues(eventType, outcome).Inc()
}

// TrackRejection counts a rejected registration
func TrackRejection(reason string) {
	registrationRejections.WithLabelValues(reason).Inc()
}

// TrackTickets counts registered ticket units
func TrackTickets(eventType string, paymentRequired bool, quantity int) {
	label := "false"
	if paymentRequired {
		label = "true"
	}
	ticketsRegistered.WithLabelValues(eventType, label).Add(float64(quantity))
}

// TrackAvailabilityQuery counts an availability read; scope is "event" or "ticket_type"
func TrackAvailabilityQuery(scope string) {
	availabilityQueries.WithLabelValues(scope).Inc()
}

// TrackCacheLookup counts a cache hit or miss
func TrackCacheLookup(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCalculation records how long a calculation took
func ObserveCalculation(d time.Duration) {
	calculationDuration.Observe(d.Seconds())
}

// TrackWorkerRefresh counts a worker refresh; status is "ok" or "error"
func TrackWorkerRefresh(status string) {
	workerRefreshes.WithLabelValues(status).Inc()
}

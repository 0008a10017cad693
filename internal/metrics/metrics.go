package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics, recorded by the transport middleware.
var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Domain metrics
var (
	// result: created, failed
	PaymentSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_payment_sessions_total",
			Help: "Total number of payment sessions requested by result",
		},
		[]string{"result"},
	)

	// status: succeeded, failed, processing
	PaymentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_payment_outcomes_total",
			Help: "Total number of payment outcomes reported by the processor",
		},
		[]string{"status"},
	)

	// mode: create, edit; result: saved, upload_failed, rejected
	ExpenseSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_expense_submissions_total",
			Help: "Total number of expense form submissions by mode and result",
		},
		[]string{"mode", "result"},
	)

	HeroRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_hero_rotations_total",
			Help: "Total number of hero carousel rotations",
		},
	)

	DonationFlows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_donation_flows",
			Help: "Number of donation flows currently kept in memory",
		},
	)
)

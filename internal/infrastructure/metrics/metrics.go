package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Allocation metrics
	AllocationsCompleted prometheus.Counter
	AllocationChunks     prometheus.Histogram
	AllocationAmount     prometheus.Histogram
	AllocationErrors     *prometheus.CounterVec

	// Settlement metrics
	OrdersCreated        prometheus.Counter
	OrdersRefunded       prometheus.Counter
	SettlementsFinalized prometheus.Counter
	PollAttempts         prometheus.Counter
	PollDuration         prometheus.Histogram

	// Webhook metrics
	WebhooksApplied   prometheus.Counter
	DuplicateWebhooks prometheus.Counter
	SignatureFailures prometheus.Counter

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBErrors      *prometheus.CounterVec
	DBConnections prometheus.Gauge

	// Outbox metrics
	EventsPublished prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		AllocationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_allocations_completed_total",
			Help: "Total number of completed limit allocations",
		}),
		AllocationChunks: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rampcore_allocation_chunks",
			Help:    "Number of chunks per allocation",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		AllocationAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rampcore_allocation_amount",
			Help:    "Allocated fiat amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		AllocationErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampcore_allocation_errors_total",
				Help: "Total number of allocation errors by type",
			},
			[]string{"type"},
		),
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_orders_created_total",
			Help: "Total number of settlement orders created",
		}),
		OrdersRefunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_orders_refunded_total",
			Help: "Total number of settlement orders refunded",
		}),
		SettlementsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_settlements_finalized_total",
			Help: "Total number of settlements that funded a spending limit",
		}),
		PollAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_poll_attempts_total",
			Help: "Total number of provider status poll attempts",
		}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rampcore_poll_duration_seconds",
			Help:    "Duration of settlement poll loops",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 150, 180},
		}),
		WebhooksApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_webhooks_applied_total",
			Help: "Total number of webhooks that moved money",
		}),
		DuplicateWebhooks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_webhooks_duplicate_total",
			Help: "Total number of webhooks short-circuited by the idempotency guard",
		}),
		SignatureFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_webhook_signature_failures_total",
			Help: "Total number of webhooks rejected for signature mismatch",
		}),
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampcore_db_queries_total",
				Help: "Total number of database queries by operation",
			},
			[]string{"operation"},
		),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rampcore_db_errors_total",
				Help: "Total number of database errors by operation",
			},
			[]string{"operation"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "rampcore_db_connections",
			Help: "Current number of database connections",
		}),
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "rampcore_events_published_total",
			Help: "Total number of outbox events published",
		}),
	}
}

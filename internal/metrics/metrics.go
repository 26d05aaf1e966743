package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Quote aggregation
	// ============================================
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybridge_quote_requests_total",
			Help: "Quote requests issued per provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	QuoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paybridge_quote_latency_seconds",
			Help:    "Provider quote round-trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	QuoteBestSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybridge_quote_best_selected_total",
			Help: "How often each provider won best-quote selection",
		},
		[]string{"provider"},
	)

	// ============================================
	// Bridge execution
	// ============================================
	ExecutionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paybridge_executions_started_total",
		Help: "Bridge executions started",
	})

	ExecutionsByOutcome = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybridge_executions_finished_total",
			Help: "Bridge executions finished per terminal outcome",
		},
		[]string{"outcome"},
	)

	ExecutionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "paybridge_execution_duration_seconds",
		Help:    "Wall time from start to terminal state",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	})

	// ============================================
	// Payment intents
	// ============================================
	IntentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paybridge_intents_created_total",
		Help: "Payment intents created",
	})

	IntentsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paybridge_intents_completed_total",
		Help: "Payment intents completed",
	})

	IntentsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paybridge_intents_expired_total",
		Help: "Payment intents expired by the reaper or inline check",
	})

	BillsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paybridge_bills_settled_total",
		Help: "Bills fully settled",
	})

	// ============================================
	// Infrastructure
	// ============================================
	DBConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paybridge_db_connection_status",
		Help: "Database connection status (1=healthy, 0=unhealthy)",
	})

	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paybridge_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybridge_nats_messages_published_total",
			Help: "NATS messages published per subject",
		},
		[]string{"subject"},
	)

	NATSMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paybridge_nats_messages_failed_total",
			Help: "NATS publishes that failed per subject",
		},
		[]string{"subject"},
	)

	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "paybridge_websocket_connections",
		Help: "Active WebSocket status-push connections",
	})
)

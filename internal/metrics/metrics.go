package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coin accrual metrics
var (
	// AccrualEventsTotal tracks evaluated chat events by outcome
	// (awarded, spam, quota_exhausted, wrong_kind, duplicate).
	AccrualEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coin_accrual_events_total",
			Help: "Evaluated chat events by outcome",
		},
		[]string{"outcome"},
	)

	// CoinsAwardedTotal tracks the total coins credited by the accrual pipeline
	CoinsAwardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coins_awarded_total",
			Help: "Total coins credited by the accrual pipeline",
		},
	)

	// LedgerWriteErrors tracks failed ledger transactions after a nonzero award
	LedgerWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_write_errors_total",
			Help: "Failed ledger transactions after a nonzero award",
		},
	)

	// PurchasesTotal tracks exchange purchases by kind and status
	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coin_purchases_total",
			Help: "Exchange purchases by kind and status",
		},
		[]string{"kind", "status"},
	)
)

// YouTube poller metrics
var (
	// ChatPagesTotal tracks fetched live-chat pages by status
	ChatPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "youtube_chat_pages_total",
			Help: "Fetched live-chat pages by status",
		},
		[]string{"status"},
	)

	// ChatMessagesTotal tracks chat messages seen by the poller
	ChatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "youtube_chat_messages_total",
			Help: "Chat messages seen by the poller",
		},
	)

	// LiveProbesTotal tracks channel live-probe attempts by result
	LiveProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "youtube_live_probes_total",
			Help: "Channel live-probe attempts by result (live, offline, error)",
		},
		[]string{"result"},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks Redis operations by operation and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks failed Redis connection attempts
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Failed Redis connection attempts",
		},
	)

	// CircuitBreakerStateChanges tracks circuit breaker state transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker state transitions by component and new state",
		},
		[]string{"component", "state"},
	)

	// CircuitBreakerState tracks current circuit breaker state (0=closed, 1=half-open, 2=open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)
)

// WebSocket metrics
var (
	// WheelClientsConnected tracks connected wheel-page websocket clients
	WheelClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wheel_clients_connected",
			Help: "Connected wheel-page websocket clients",
		},
	)
)

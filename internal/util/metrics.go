package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorksSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "works_submitted_total",
		Help: "Total number of work drafts finalized with an invoice",
	})

	PaymentChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_checks_total",
		Help: "Total number of payment checks by result",
	}, []string{"result"})

	PaymentsConfirmedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_confirmed_total",
		Help: "Total number of confirmed payments by purpose",
	}, []string{"purpose"})

	ModerationDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moderation_decisions_total",
		Help: "Total number of moderation decisions",
	}, []string{"decision"})

	LikesToggledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "likes_toggled_total",
		Help: "Total number of like toggles",
	}, []string{"action"})

	ReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_total",
		Help: "Total number of review mutations",
	}, []string{"action"})

	NotificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of notifications that could not be delivered",
	}, []string{"kind"})

	PaymentGatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_latency_seconds",
		Help:    "Latency of payment gateway calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	BotUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Total number of chat updates handled",
	}, []string{"kind"})

	MailingDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mailing_deliveries_total",
		Help: "Total number of broadcast deliveries by result",
	}, []string{"result"})

	WorkEventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "work_events_consumed_total",
		Help: "Total number of work lifecycle events consumed by type",
	}, []string{"type"})

	ModerationTurnaround = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "moderation_turnaround_seconds",
		Help:    "Time from confirmed placement payment to moderation decision",
		Buckets: []float64{60, 300, 900, 3600, 4 * 3600, 12 * 3600, 24 * 3600, 72 * 3600},
	}, []string{"decision"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order creations",
	}, []string{"reason"})

	OrdersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_confirmed_total",
		Help: "Total number of orders confirmed after payment",
	})

	PaymentSessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_sessions_created_total",
		Help: "Total number of gateway payment sessions created",
	})

	PaymentSessionsReusedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_sessions_reused_total",
		Help: "Total number of payment session requests answered by the idempotency guard",
	})

	PaymentSuccessTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payments by entry point",
	}, []string{"source"})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payments by entry point",
	}, []string{"source"})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Latency of outbound payment gateway calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	WebhooksReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_received_total",
		Help: "Total number of inbound gateway webhooks by event type",
	}, []string{"type"})

	WebhooksDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_dropped_total",
		Help: "Total number of webhooks dropped without order mutation",
	}, []string{"reason"})

	WebhooksRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_webhooks_rejected_total",
		Help: "Total number of webhooks rejected for bad signatures",
	})

	WebhooksReplayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_webhooks_replayed_total",
		Help: "Total number of webhook rows re-driven by the replay worker",
	})

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

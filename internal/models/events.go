package models

import "time"

// Event types
const (
	EventTypeOrderCreated    = "ORDER_CREATED"
	EventTypeOrderConfirmed  = "ORDER_CONFIRMED"
	EventTypeOrderCancelled  = "ORDER_CANCELLED"
	EventTypePaymentSuccess  = "PAYMENT_SUCCESS"
	EventTypePaymentFailed   = "PAYMENT_FAILED"
	EventTypeWebhookReceived = "PAYMENT_WEBHOOK_RECEIVED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is created
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	TotalAmount string          `json:"total_amount"`
	Items       []OrderItemData `json:"items"`
}

// OrderConfirmedEvent published when payment settles and the order confirms
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
}

// OrderCancelledEvent published when an order is cancelled
type OrderCancelledEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	UserID      int64  `json:"user_id"`
	Reason      string `json:"reason"`
}

// PaymentSuccessEvent published when any entry point settles a payment
type PaymentSuccessEvent struct {
	BaseEvent
	OrderID        int64  `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	TransactionID  string `json:"transaction_id"`
	Source         string `json:"source"`
}

// PaymentFailedEvent published when the gateway reports a failed payment
type PaymentFailedEvent struct {
	BaseEvent
	OrderID        int64  `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Reason         string `json:"reason"`
}

// WebhookReceivedEvent published after a raw webhook row is persisted,
// consumed by the webhook worker for reconciliation
type WebhookReceivedEvent struct {
	BaseEvent
	WebhookID      int64  `json:"webhook_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	WebhookType    string `json:"webhook_type"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

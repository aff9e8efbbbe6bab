package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog (read-only collaborator)
type Product struct {
	ID        int64           `db:"id" json:"id"`
	SKU       string          `db:"sku" json:"sku"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// ProductVariant represents a purchasable variant of a product
type ProductVariant struct {
	ID        int64           `db:"id" json:"id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
}

// User holds the subset of account fields the payment gateway needs
type User struct {
	ID        int64  `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Mobile    string `db:"mobile" json:"mobile"`
}

// Address is a user's saved shipping address
type Address struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Name         string    `db:"name" json:"name"`
	Mobile       string    `db:"mobile" json:"mobile"`
	AddressLine1 string    `db:"address_line_1" json:"address_line_1"`
	AddressLine2 string    `db:"address_line_2" json:"address_line_2"`
	City         string    `db:"city" json:"city"`
	State        string    `db:"state" json:"state"`
	Pincode      string    `db:"pincode" json:"pincode"`
	IsDefault    bool      `db:"is_default" json:"is_default"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Cart is a user's mutable shopping cart
type Cart struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartItem is a line item inside a cart
type CartItem struct {
	ID        int64  `db:"id" json:"id"`
	CartID    int64  `db:"cart_id" json:"cart_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	VariantID *int64 `db:"variant_id" json:"variant_id,omitempty"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

// Order is an immutable line-item snapshot. Amounts are computed once at
// creation; only status, payment_status and tracking fields change afterwards.
type Order struct {
	ID                int64           `db:"id" json:"id"`
	OrderNumber       string          `db:"order_number" json:"order_number"`
	UserID            int64           `db:"user_id" json:"user_id"`
	Status            string          `db:"status" json:"status"`
	PaymentStatus     string          `db:"payment_status" json:"payment_status"`
	PaymentMethod     string          `db:"payment_method" json:"payment_method"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingCost      decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	TaxAmount         decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	DiscountAmount    decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	ShippingName      string          `db:"shipping_name" json:"shipping_name"`
	ShippingMobile    string          `db:"shipping_mobile" json:"shipping_mobile"`
	ShippingLine1     string          `db:"shipping_address_line_1" json:"shipping_address_line_1"`
	ShippingLine2     string          `db:"shipping_address_line_2" json:"shipping_address_line_2"`
	ShippingCity      string          `db:"shipping_city" json:"shipping_city"`
	ShippingState     string          `db:"shipping_state" json:"shipping_state"`
	ShippingPincode   string          `db:"shipping_pincode" json:"shipping_pincode"`
	TrackingNumber    string          `db:"tracking_number" json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time      `db:"estimated_delivery" json:"estimated_delivery,omitempty"`
	Notes             string          `db:"notes" json:"notes"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem belongs to exactly one order. Price is frozen at creation time;
// later catalog price changes never alter it.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	VariantID *int64          `db:"variant_id" json:"variant_id,omitempty"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// OrderStatusHistory is an append-only transition log, one row per transition.
type OrderStatusHistory struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	Status    string    `db:"status" json:"status"`
	Notes     string    `db:"notes" json:"notes"`
	CreatedBy int64     `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PaymentSession is one-to-one with an order. Its payment_status evolves
// independently of Order.payment_status; both converge on success.
type PaymentSession struct {
	ID               int64     `db:"id" json:"id"`
	OrderID          int64     `db:"order_id" json:"order_id"`
	GatewayOrderID   string    `db:"gateway_order_id" json:"gateway_order_id"`
	PaymentSessionID string    `db:"payment_session_id" json:"payment_session_id"`
	PaymentStatus    string    `db:"payment_status" json:"payment_status"`
	PaymentMethod    string    `db:"payment_method" json:"payment_method"`
	TransactionID    string    `db:"transaction_id" json:"transaction_id,omitempty"`
	GatewayResponse  []byte    `db:"gateway_response" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentWebhook is a raw capture of an inbound gateway webhook. Rows are
// never deleted; they double as an audit/replay log.
type PaymentWebhook struct {
	ID             int64     `db:"id" json:"id"`
	GatewayOrderID string    `db:"gateway_order_id" json:"gateway_order_id"`
	EventType      string    `db:"event_type" json:"event_type"`
	Payload        []byte    `db:"payload" json:"-"`
	Processed      bool      `db:"processed" json:"processed"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment session statuses
const (
	SessionStatusCreated   = "created"
	SessionStatusPending   = "pending"
	SessionStatusSuccess   = "success"
	SessionStatusFailed    = "failed"
	SessionStatusCancelled = "cancelled"
)

// Gateway webhook event types
const (
	WebhookTypePaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	WebhookTypePaymentFailed  = "PAYMENT_FAILED_WEBHOOK"
)

// CanTransitionTo reports whether an order may move from its current status
// to the target status. Cancelled and delivered are terminal.
func CanTransitionTo(current, target string) bool {
	switch current {
	case OrderStatusPending:
		return target == OrderStatusConfirmed || target == OrderStatusCancelled
	case OrderStatusConfirmed:
		return target == OrderStatusShipped || target == OrderStatusCancelled
	case OrderStatusShipped:
		return target == OrderStatusDelivered
	default:
		return false
	}
}

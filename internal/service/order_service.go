package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"commerce-service/config"
	"commerce-service/internal/apperr"
	"commerce-service/internal/broker"
	"commerce-service/internal/models"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService implements the order engine: immutable order snapshots,
// pricing at creation time, and guarded status transitions.
type OrderService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	pricing        config.PricingConfig
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, eventPublisher *broker.EventPublisher, pricing config.PricingConfig) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		pricing:        pricing,
		logger:         util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order. Items are
// optional; when absent the caller's cart supplies the line items. Client
// prices are accepted for wire compatibility but never trusted: unit prices
// are always recomputed from the catalog.
type CreateOrderRequest struct {
	AddressID     int64              `json:"address_id" binding:"required"`
	PaymentMethod string             `json:"payment_method" binding:"required"`
	Notes         string             `json:"notes"`
	Items         []OrderItemRequest `json:"items"`
}

// OrderItemRequest represents an item in an order request
type OrderItemRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	VariantID *int64  `json:"variant_id"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	Price     float64 `json:"price"`
}

// Totals holds the amounts computed once at order creation.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives shipping, tax and total from a subtotal. A flat
// shipping fee applies below the free-shipping threshold; tax is a fixed
// percentage of the subtotal. total = subtotal + shipping + tax.
func ComputeTotals(pricing config.PricingConfig, subtotal decimal.Decimal) Totals {
	shipping := decimal.Zero
	if subtotal.LessThan(pricing.FreeShippingThreshold) {
		shipping = pricing.ShippingFee
	}
	tax := subtotal.Mul(pricing.TaxRate)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// CreateOrder creates an immutable order snapshot inside one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	address, err := s.store.GetAddressByID(ctx, req.AddressID, userID)
	if err != nil {
		return nil, nil, err
	}

	items, clearCartID, err := s.resolveLineItems(ctx, userID, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, nil, err
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	totals := ComputeTotals(s.pricing, subtotal)

	order := &models.Order{
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.Shipping,
		TaxAmount:       totals.Tax,
		DiscountAmount:  decimal.Zero,
		TotalAmount:     totals.Total,
		ShippingName:    address.Name,
		ShippingMobile:  address.Mobile,
		ShippingLine1:   address.AddressLine1,
		ShippingLine2:   address.AddressLine2,
		ShippingCity:    address.City,
		ShippingState:   address.State,
		ShippingPincode: address.Pincode,
		Notes:           req.Notes,
	}

	if err := s.store.CreateOrderTx(ctx, order, items, "Order created", clearCartID); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, nil, apperr.Internal(fmt.Errorf("failed to create order: %w", err))
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.String()))

	eventItems := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderItemData{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price.String(),
		})
	}

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount.String(),
		Items:       eventItems,
	}
	if err := s.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return order, items, nil
}

// resolveLineItems builds the order's line items with server-side pricing.
// Explicit request items win; otherwise the caller's cart is used, and the
// returned cart id tells the store to empty it inside the transaction.
func (s *OrderService) resolveLineItems(ctx context.Context, userID int64, reqItems []OrderItemRequest) ([]models.OrderItem, int64, error) {
	var clearCartID int64

	type lineRef struct {
		productID int64
		variantID *int64
		quantity  int
	}
	var refs []lineRef

	if len(reqItems) > 0 {
		for _, item := range reqItems {
			if item.Quantity < 1 {
				return nil, 0, apperr.Validation(map[string]string{"quantity": "must be at least 1"})
			}
			refs = append(refs, lineRef{item.ProductID, item.VariantID, item.Quantity})
		}
	} else {
		cart, err := s.store.GetCartByUserID(ctx, userID)
		if err != nil {
			if apperr.FromError(err).Code == apperr.CodeNotFound {
				return nil, 0, apperr.Validation(map[string]string{"items": "no items provided and cart is empty"})
			}
			return nil, 0, err
		}
		cartItems, err := s.store.GetCartItems(ctx, cart.ID)
		if err != nil {
			return nil, 0, err
		}
		if len(cartItems) == 0 {
			return nil, 0, apperr.Validation(map[string]string{"items": "no items provided and cart is empty"})
		}
		for _, ci := range cartItems {
			refs = append(refs, lineRef{ci.ProductID, ci.VariantID, ci.Quantity})
		}
		clearCartID = cart.ID
	}

	productIDs := make([]int64, 0, len(refs))
	variantIDs := make([]int64, 0)
	for _, ref := range refs {
		productIDs = append(productIDs, ref.productID)
		if ref.variantID != nil {
			variantIDs = append(variantIDs, *ref.variantID)
		}
	}

	products, err := s.store.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, 0, err
	}
	productMap := make(map[int64]*models.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	variants, err := s.store.GetVariantsByIDs(ctx, variantIDs)
	if err != nil {
		return nil, 0, err
	}
	variantMap := make(map[int64]*models.ProductVariant, len(variants))
	for i := range variants {
		variantMap[variants[i].ID] = &variants[i]
	}

	items := make([]models.OrderItem, 0, len(refs))
	for _, ref := range refs {
		product, ok := productMap[ref.productID]
		if !ok {
			return nil, 0, apperr.NotFound("product")
		}
		price := product.Price
		if ref.variantID != nil {
			variant, ok := variantMap[*ref.variantID]
			if !ok || variant.ProductID != ref.productID {
				return nil, 0, apperr.NotFound("product variant")
			}
			price = variant.Price
		}
		items = append(items, models.OrderItem{
			ProductID: ref.productID,
			VariantID: ref.variantID,
			Quantity:  ref.quantity,
			Price:     price,
		})
	}

	return items, clearCartID, nil
}

// CancelOrder cancels a pending or confirmed order owned by the caller.
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusShipped || order.Status == models.OrderStatusDelivered {
		return nil, apperr.InvalidState("cannot cancel order that has been shipped or delivered")
	}
	if !models.CanTransitionTo(order.Status, models.OrderStatusCancelled) {
		return nil, apperr.InvalidState(fmt.Sprintf("cannot cancel order in status %s", order.Status))
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, models.OrderStatusCancelled); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.store.CreateStatusHistory(ctx, orderID, models.OrderStatusCancelled, "Order cancelled by customer", userID); err != nil {
		s.logger.Error("Failed to append cancellation history", zap.Int64("order_id", orderID), zap.Error(err))
	}
	order.Status = models.OrderStatusCancelled

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled", zap.Int64("order_id", orderID))

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Reason:      "cancelled by customer",
	}
	if err := s.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return order, nil
}

// GetOrder retrieves an order with its items and status history
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, []models.OrderItem, []models.OrderStatusHistory, error) {
	order, err := s.store.GetOrderByID(ctx, orderID, userID)
	if err != nil {
		return nil, nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}

	history, err := s.store.GetStatusHistoryByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}

	return order, items, history, nil
}

// ListOrders retrieves the caller's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// newOrderNumber generates a unique human-readable order number
func newOrderNumber() string {
	return "ORD" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:12])
}

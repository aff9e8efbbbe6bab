package store

import (
	"context"
	"database/sql"
	"fmt"

	"commerce-service/internal/apperr"
	"commerce-service/internal/models"
)

// CreateOrderTx atomically persists an order snapshot: the order row, one row
// per line item with its frozen price, the initial status-history row, and —
// when clearCartID is non-zero — the deletion of that cart's items. Any
// failure rolls back everything.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem, historyNote string, clearCartID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (
			order_number, user_id, status, payment_status, payment_method,
			subtotal, shipping_cost, tax_amount, discount_amount, total_amount,
			shipping_name, shipping_mobile, shipping_address_line_1, shipping_address_line_2,
			shipping_city, shipping_state, shipping_pincode, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, orderQuery,
		order.OrderNumber, order.UserID, order.Status, order.PaymentStatus, order.PaymentMethod,
		order.Subtotal, order.ShippingCost, order.TaxAmount, order.DiscountAmount, order.TotalAmount,
		order.ShippingName, order.ShippingMobile, order.ShippingLine1, order.ShippingLine2,
		order.ShippingCity, order.ShippingState, order.ShippingPincode, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, variant_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, itemQuery,
			items[i].OrderID, items[i].ProductID, items[i].VariantID,
			items[i].Quantity, items[i].Price,
		).Scan(&items[i].ID, &items[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO order_status_history (order_id, status, notes, created_by) VALUES ($1, $2, $3, $4)",
		order.ID, order.Status, historyNote, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}

	if clearCartID != 0 {
		_, err = tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", clearCartID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order owned by the given user
func (s *Store) GetOrderByID(ctx context.Context, id, userID int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 AND user_id = $2", id, userID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIDAny retrieves an order regardless of owner. Used by webhook
// reconciliation, which carries no caller identity.
func (s *Store) GetOrderByIDAny(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("order")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// UpdateOrderStatus updates the order status column only
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// SetOrderPaid writes the converged terminal payment values. Every success
// entry point (card, OTP, poll, webhook) writes these same values, so
// last-write-wins interleavings are benign.
func (s *Store) SetOrderPaid(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, payment_status = $2, updated_at = NOW() WHERE id = $3",
		models.OrderStatusConfirmed, models.PaymentStatusPaid, orderID)
	return err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// CreateStatusHistory appends one transition row. History rows are insert-only.
func (s *Store) CreateStatusHistory(ctx context.Context, orderID int64, status, notes string, createdBy int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO order_status_history (order_id, status, notes, created_by) VALUES ($1, $2, $3, $4)",
		orderID, status, notes, createdBy)
	return err
}

// GetStatusHistoryByOrderID retrieves the transition log for an order
func (s *Store) GetStatusHistoryByOrderID(ctx context.Context, orderID int64) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := s.db.SelectContext(ctx, &history,
		"SELECT * FROM order_status_history WHERE order_id = $1 ORDER BY created_at", orderID)
	return history, err
}

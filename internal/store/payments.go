package store

import (
	"context"
	"database/sql"

	"commerce-service/internal/apperr"
	"commerce-service/internal/models"
)

// CreatePaymentSession inserts a new payment session for an order
func (s *Store) CreatePaymentSession(ctx context.Context, session *models.PaymentSession) error {
	query := `
		INSERT INTO payment_sessions (
			order_id, gateway_order_id, payment_session_id, payment_status,
			payment_method, transaction_id, gateway_response
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		session.OrderID, session.GatewayOrderID, session.PaymentSessionID,
		session.PaymentStatus, session.PaymentMethod, session.TransactionID,
		session.GatewayResponse,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
}

// ReplacePaymentSession re-points an order's session at a freshly created
// gateway order. Used when the previous session reached a terminal state.
func (s *Store) ReplacePaymentSession(ctx context.Context, session *models.PaymentSession) error {
	query := `
		UPDATE payment_sessions
		SET gateway_order_id = $1, payment_session_id = $2, payment_status = $3,
		    transaction_id = '', gateway_response = $4, updated_at = NOW()
		WHERE order_id = $5
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		session.GatewayOrderID, session.PaymentSessionID, session.PaymentStatus,
		session.GatewayResponse, session.OrderID,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
}

// GetPaymentSessionByOrderID retrieves the session for an order
func (s *Store) GetPaymentSessionByOrderID(ctx context.Context, orderID int64) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.GetContext(ctx, &session,
		"SELECT * FROM payment_sessions WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("payment session")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetPaymentSessionByGatewayOrderID retrieves a session by the gateway's order id
func (s *Store) GetPaymentSessionByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.GetContext(ctx, &session,
		"SELECT * FROM payment_sessions WHERE gateway_order_id = $1", gatewayOrderID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("payment session")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetPaymentSessionBySessionID retrieves a session by the gateway session id
func (s *Store) GetPaymentSessionBySessionID(ctx context.Context, paymentSessionID string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := s.db.GetContext(ctx, &session,
		"SELECT * FROM payment_sessions WHERE payment_session_id = $1", paymentSessionID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("payment session")
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetPaymentSessionsByUserID lists sessions for orders owned by a user
func (s *Store) GetPaymentSessionsByUserID(ctx context.Context, userID int64) ([]models.PaymentSession, error) {
	var sessions []models.PaymentSession
	err := s.db.SelectContext(ctx, &sessions, `
		SELECT ps.* FROM payment_sessions ps
		JOIN orders o ON o.id = ps.order_id
		WHERE o.user_id = $1
		ORDER BY ps.created_at DESC`, userID)
	return sessions, err
}

// UpdatePaymentSessionStatus updates the session status, transaction id and
// raw gateway response blob
func (s *Store) UpdatePaymentSessionStatus(ctx context.Context, sessionID int64, status, transactionID string, gatewayResponse []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE payment_sessions
		SET payment_status = $1,
		    transaction_id = CASE WHEN $2 <> '' THEN $2 ELSE transaction_id END,
		    gateway_response = COALESCE($3, gateway_response),
		    updated_at = NOW()
		WHERE id = $4`,
		status, transactionID, gatewayResponse, sessionID)
	return err
}

// CreatePaymentWebhook persists a raw webhook payload before interpretation
func (s *Store) CreatePaymentWebhook(ctx context.Context, webhook *models.PaymentWebhook) error {
	query := `
		INSERT INTO payment_webhooks (gateway_order_id, event_type, payload, processed)
		VALUES ($1, $2, $3, false)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		webhook.GatewayOrderID, webhook.EventType, webhook.Payload,
	).Scan(&webhook.ID, &webhook.CreatedAt)
}

// GetPaymentWebhookByID retrieves a stored webhook row
func (s *Store) GetPaymentWebhookByID(ctx context.Context, id int64) (*models.PaymentWebhook, error) {
	var webhook models.PaymentWebhook
	err := s.db.GetContext(ctx, &webhook, "SELECT * FROM payment_webhooks WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("webhook")
	}
	if err != nil {
		return nil, err
	}
	return &webhook, nil
}

// ListUnprocessedWebhooks returns unprocessed webhook rows older than the
// given age, oldest first. The replay worker uses this as a backstop when
// the broker was unavailable at ingestion time.
func (s *Store) ListUnprocessedWebhooks(ctx context.Context, minAgeSeconds, limit int) ([]models.PaymentWebhook, error) {
	var webhooks []models.PaymentWebhook
	err := s.db.SelectContext(ctx, &webhooks, `
		SELECT * FROM payment_webhooks
		WHERE processed = false AND created_at < NOW() - make_interval(secs => $1)
		ORDER BY created_at
		LIMIT $2`, minAgeSeconds, limit)
	return webhooks, err
}

// MarkWebhookProcessed flips the processed flag. The payload itself is
// immutable.
func (s *Store) MarkWebhookProcessed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE payment_webhooks SET processed = true WHERE id = $1", id)
	return err
}

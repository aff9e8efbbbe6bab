package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"commerce-service/config"
	"commerce-service/internal/apperr"
	"commerce-service/internal/broker"
	"commerce-service/internal/gateway"
	"commerce-service/internal/models"
	"commerce-service/internal/redisclient"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	paymentLockTTL = 10 * time.Second
	statusCacheTTL = 5 * time.Second
)

// PaymentService bridges order state to the external card-payment gateway.
// It owns the PaymentSession and PaymentWebhook lifecycles. Success can
// arrive through four uncoordinated entry points (card response, OTP
// verification, status poll, webhook); every one of them converges on the
// same terminal values, so races between them are benign.
type PaymentService struct {
	store          *store.Store
	gateway        *gateway.Client
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	gatewayCfg     config.GatewayConfig
	publicURL      string
	logger         *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	store *store.Store,
	gatewayClient *gateway.Client,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	gatewayCfg config.GatewayConfig,
	publicURL string,
) *PaymentService {
	return &PaymentService{
		store:          store,
		gateway:        gatewayClient,
		redis:          redis,
		eventPublisher: eventPublisher,
		gatewayCfg:     gatewayCfg,
		publicURL:      publicURL,
		logger:         util.GetLogger(),
	}
}

// SessionResult is returned from CreateSession
type SessionResult struct {
	PaymentSessionID string  `json:"payment_session_id"`
	GatewayOrderID   string  `json:"gateway_order_id"`
	OrderAmount      float64 `json:"order_amount"`
	OrderCurrency    string  `json:"order_currency"`
	ReturnURL        string  `json:"return_url"`
	GatewayMode      string  `json:"gateway_mode"`
	Reused           bool    `json:"-"`
}

// CreateSession creates (or idempotently returns) the gateway payment
// session for an order. An existing session still in created/pending is
// returned unchanged; this is the adapter's only explicit idempotency guard.
func (ps *PaymentService) CreateSession(ctx context.Context, userID, orderID int64, returnURL, notifyURL string) (*SessionResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreateSession")
	defer span.End()

	order, err := ps.store.GetOrderByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if returnURL == "" {
		returnURL = ps.publicURL + "/payment/success/"
	}
	if notifyURL == "" {
		notifyURL = ps.publicURL + "/api/v1/payments/webhook"
	}

	existing, err := ps.store.GetPaymentSessionByOrderID(ctx, orderID)
	if err == nil {
		if existing.PaymentStatus == models.SessionStatusCreated || existing.PaymentStatus == models.SessionStatusPending {
			util.PaymentSessionsReusedTotal.Inc()
			ps.logger.Info("Reusing existing payment session",
				zap.Int64("order_id", orderID),
				zap.String("gateway_order_id", existing.GatewayOrderID))
			return &SessionResult{
				PaymentSessionID: existing.PaymentSessionID,
				GatewayOrderID:   existing.GatewayOrderID,
				OrderAmount:      order.TotalAmount.InexactFloat64(),
				OrderCurrency:    ps.gatewayCfg.Currency,
				ReturnURL:        returnURL,
				GatewayMode:      ps.gatewayCfg.Mode,
				Reused:           true,
			}, nil
		}
	} else if apperr.FromError(err).Code != apperr.CodeNotFound {
		return nil, err
	}

	user, err := ps.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Random suffix so gateway order ids never collide across retries
	gatewayOrderID := fmt.Sprintf("ORDER_%s_%s", order.OrderNumber, strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	phone := order.ShippingMobile
	if phone == "" {
		phone = user.Mobile
	}
	if phone == "" {
		phone = "9999999999"
	}

	gwReq := &gateway.CreateOrderRequest{
		OrderID:       gatewayOrderID,
		OrderCurrency: ps.gatewayCfg.Currency,
		OrderAmount:   order.TotalAmount.InexactFloat64(),
		CustomerDetails: gateway.CustomerDetails{
			CustomerID:    fmt.Sprintf("%d", user.ID),
			CustomerName:  strings.TrimSpace(user.FirstName + " " + user.LastName),
			CustomerEmail: user.Email,
			CustomerPhone: phone,
		},
		OrderMeta: gateway.OrderMeta{
			ReturnURL: returnURL,
			NotifyURL: notifyURL,
		},
		OrderNote: fmt.Sprintf("Payment for order %s", order.OrderNumber),
	}

	gwResp, raw, err := ps.gateway.CreateOrder(ctx, gwReq)
	if err != nil {
		return nil, err
	}

	session := &models.PaymentSession{
		OrderID:          orderID,
		GatewayOrderID:   gatewayOrderID,
		PaymentSessionID: gwResp.PaymentSessionID,
		PaymentStatus:    models.SessionStatusCreated,
		PaymentMethod:    order.PaymentMethod,
		GatewayResponse:  raw,
	}

	if existing != nil {
		session.OrderID = existing.OrderID
		err = ps.store.ReplacePaymentSession(ctx, session)
	} else {
		err = ps.store.CreatePaymentSession(ctx, session)
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to persist payment session: %w", err))
	}

	util.PaymentSessionsCreatedTotal.Inc()
	ps.logger.Info("Payment session created",
		zap.Int64("order_id", orderID),
		zap.String("gateway_order_id", gatewayOrderID))

	return &SessionResult{
		PaymentSessionID: gwResp.PaymentSessionID,
		GatewayOrderID:   gatewayOrderID,
		OrderAmount:      order.TotalAmount.InexactFloat64(),
		OrderCurrency:    ps.gatewayCfg.Currency,
		ReturnURL:        returnURL,
		GatewayMode:      ps.gatewayCfg.Mode,
	}, nil
}

// CardPaymentResult is returned from card submission and OTP verification
type CardPaymentResult struct {
	Status string `json:"status"`
	OTPURL string `json:"otp_url,omitempty"`
}

// ProcessCardPayment submits raw card fields against a payment session.
// Fields are validated for presence only; format checks belong to the
// gateway.
func (ps *PaymentService) ProcessCardPayment(ctx context.Context, userID int64, paymentSessionID string, card gateway.Card) (*CardPaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessCardPayment")
	defer span.End()

	if fields := validateCard(card); len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	session, order, err := ps.sessionForUser(ctx, userID, func(c context.Context) (*models.PaymentSession, error) {
		return ps.store.GetPaymentSessionBySessionID(c, paymentSessionID)
	})
	if err != nil {
		return nil, err
	}

	resp, raw, err := ps.gateway.SubmitCard(ctx, paymentSessionID, card)
	if err != nil {
		return nil, err
	}

	switch gateway.MapCardChargeOutcome(resp) {
	case gateway.OutcomeOTPRequired:
		// Step-up auth: session and order stay untouched until the OTP resolves
		return &CardPaymentResult{Status: "otp_required", OTPURL: resp.Data.URL}, nil

	case gateway.OutcomeSuccess:
		txnID := fmt.Sprintf("%d", resp.CfPaymentID)
		if err := ps.settleSuccess(ctx, session, order, txnID, "Payment completed successfully", "card", raw); err != nil {
			return nil, err
		}
		return &CardPaymentResult{Status: "success"}, nil

	default:
		util.PaymentFailedTotal.WithLabelValues("card").Inc()
		return nil, apperr.New(apperr.CodeGatewayUnknown, "card payment was not accepted by the gateway")
	}
}

// VerifyOTP submits a step-up OTP. The gateway's response shape is not fully
// determined, so three independent success signals are treated as
// equivalent; an ambiguous response falls back to a status poll before
// giving up.
func (ps *PaymentService) VerifyOTP(ctx context.Context, userID int64, otpURL, otp, paymentSessionID string) (*CardPaymentResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.VerifyOTP")
	defer span.End()

	fields := map[string]string{}
	if otpURL == "" {
		fields["otp_url"] = "otp_url is required"
	}
	if otp == "" {
		fields["otp"] = "otp is required"
	}
	if paymentSessionID == "" {
		fields["payment_session_id"] = "payment_session_id is required"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	session, order, err := ps.sessionForUser(ctx, userID, func(c context.Context) (*models.PaymentSession, error) {
		return ps.store.GetPaymentSessionBySessionID(c, paymentSessionID)
	})
	if err != nil {
		return nil, err
	}

	resp, raw, err := ps.gateway.SubmitOTP(ctx, otpURL, otp)
	if err != nil {
		return nil, err
	}

	outcome := gateway.MapOTPOutcome(resp)
	if outcome == gateway.OutcomeUnknown {
		// Ambiguous union: resolve against the gateway's own view
		statusResp, _, pollErr := ps.gateway.GetOrder(ctx, session.GatewayOrderID)
		if pollErr != nil {
			return nil, pollErr
		}
		outcome = gateway.MapOrderStatusOutcome(statusResp.OrderStatus)
	}

	switch outcome {
	case gateway.OutcomeSuccess:
		txnID := ""
		if resp.CfPaymentID != 0 {
			txnID = fmt.Sprintf("%d", resp.CfPaymentID)
		}
		if err := ps.settleSuccess(ctx, session, order, txnID, "Payment completed via OTP", "otp", raw); err != nil {
			return nil, err
		}
		return &CardPaymentResult{Status: "success"}, nil

	default:
		util.PaymentFailedTotal.WithLabelValues("otp").Inc()
		return nil, apperr.New(apperr.CodeGatewayUnknown, "OTP verification failed")
	}
}

// StatusResult is returned from PollStatus
type StatusResult struct {
	PaymentStatus  string          `json:"payment_status"`
	OrderStatus    string          `json:"order_status"`
	GatewayOrderID string          `json:"gateway_order_id"`
	OrderDetails   json.RawMessage `json:"order_details,omitempty"`
}

// PollStatus fetches the gateway's view of a payment and reconciles it into
// the local session and order. Poll responses are cached briefly in Redis.
func (ps *PaymentService) PollStatus(ctx context.Context, userID int64, gatewayOrderID string) (*StatusResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.PollStatus")
	defer span.End()

	session, order, err := ps.sessionForUser(ctx, userID, func(c context.Context) (*models.PaymentSession, error) {
		return ps.store.GetPaymentSessionByGatewayOrderID(c, gatewayOrderID)
	})
	if err != nil {
		return nil, err
	}

	if cached, cerr := ps.redis.GetCachedGatewayStatus(ctx, gatewayOrderID); cerr == nil && cached != nil {
		var result StatusResult
		if json.Unmarshal(cached, &result) == nil {
			return &result, nil
		}
	}

	gwResp, raw, err := ps.gateway.GetOrder(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	orderStatus := strings.ToLower(gwResp.OrderStatus)
	switch gateway.MapOrderStatusOutcome(gwResp.OrderStatus) {
	case gateway.OutcomeSuccess:
		if err := ps.settleSuccess(ctx, session, order, "", "Payment completed successfully", "poll", raw); err != nil {
			return nil, err
		}
		session.PaymentStatus = models.SessionStatusSuccess

	case gateway.OutcomeFailed:
		if err := ps.store.UpdatePaymentSessionStatus(ctx, session.ID, models.SessionStatusFailed, "", raw); err != nil {
			return nil, apperr.Internal(err)
		}
		session.PaymentStatus = models.SessionStatusFailed
		util.PaymentFailedTotal.WithLabelValues("poll").Inc()

	case gateway.OutcomePending:
		if err := ps.store.UpdatePaymentSessionStatus(ctx, session.ID, models.SessionStatusPending, "", raw); err != nil {
			return nil, apperr.Internal(err)
		}
		session.PaymentStatus = models.SessionStatusPending
	}

	result := &StatusResult{
		PaymentStatus:  session.PaymentStatus,
		OrderStatus:    orderStatus,
		GatewayOrderID: gatewayOrderID,
		OrderDetails:   raw,
	}

	if payload, merr := json.Marshal(result); merr == nil {
		if cerr := ps.redis.CacheGatewayStatus(ctx, gatewayOrderID, payload, statusCacheTTL); cerr != nil {
			ps.logger.Warn("Failed to cache gateway status", zap.Error(cerr))
		}
	}

	return result, nil
}

// webhookEnvelope is the subset of the webhook payload the adapter acts on;
// the full payload is persisted verbatim regardless.
type webhookEnvelope struct {
	Type  string `json:"type"`
	Order struct {
		OrderID string `json:"order_id"`
	} `json:"order"`
	Payment struct {
		CfPaymentID json.Number `json:"cf_payment_id"`
	} `json:"payment"`
}

// IngestWebhook verifies, persists and enqueues one inbound webhook
// delivery. Persistence happens before any interpretation so no event is
// silently lost; reconciliation runs in the webhook worker.
func (ps *PaymentService) IngestWebhook(ctx context.Context, body []byte, timestamp, signature string) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.IngestWebhook")
	defer span.End()

	if !gateway.VerifyWebhookSignature(ps.gatewayCfg.ClientSecret, timestamp, body, signature) {
		util.WebhooksRejectedTotal.Inc()
		return apperr.New(apperr.CodeUnauthorized, "invalid webhook signature")
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apperr.Validation(map[string]string{"body": "malformed webhook payload"})
	}

	webhook := &models.PaymentWebhook{
		GatewayOrderID: envelope.Order.OrderID,
		EventType:      envelope.Type,
		Payload:        body,
	}
	if err := ps.store.CreatePaymentWebhook(ctx, webhook); err != nil {
		return apperr.Internal(fmt.Errorf("failed to persist webhook: %w", err))
	}

	util.WebhooksReceivedTotal.WithLabelValues(envelope.Type).Inc()

	event := &models.WebhookReceivedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeWebhookReceived,
			Timestamp: time.Now(),
		},
		WebhookID:      webhook.ID,
		GatewayOrderID: webhook.GatewayOrderID,
		WebhookType:    webhook.EventType,
	}
	if err := ps.eventPublisher.PublishWebhookReceived(ctx, event); err != nil {
		// The replay worker picks the row up from the unprocessed backlog
		ps.logger.Error("Failed to publish WebhookReceived event",
			zap.Int64("webhook_id", webhook.ID),
			zap.Error(err))
	}

	return nil
}

// ProcessStoredWebhook reconciles one persisted webhook row. Unknown
// sessions and unrecognized event types are dropped with a log, never an
// error: the sender cannot act on a failure response, and the raw row
// remains for audit.
func (ps *PaymentService) ProcessStoredWebhook(ctx context.Context, webhookID int64) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessStoredWebhook")
	defer span.End()

	webhook, err := ps.store.GetPaymentWebhookByID(ctx, webhookID)
	if err != nil {
		return err
	}
	if webhook.Processed {
		return nil
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(webhook.Payload, &envelope); err != nil {
		ps.logger.Warn("Dropping malformed stored webhook", zap.Int64("webhook_id", webhookID))
		util.WebhooksDroppedTotal.WithLabelValues("malformed").Inc()
		return ps.store.MarkWebhookProcessed(ctx, webhookID)
	}

	switch envelope.Type {
	case models.WebhookTypePaymentSuccess, models.WebhookTypePaymentFailed:
	default:
		util.WebhooksDroppedTotal.WithLabelValues("unrecognized_type").Inc()
		ps.logger.Info("Ignoring unrecognized webhook type",
			zap.String("type", envelope.Type),
			zap.Int64("webhook_id", webhookID))
		return ps.store.MarkWebhookProcessed(ctx, webhookID)
	}

	session, err := ps.store.GetPaymentSessionByGatewayOrderID(ctx, webhook.GatewayOrderID)
	if err != nil {
		if apperr.FromError(err).Code == apperr.CodeNotFound {
			// Session created by a different flow that never completed here;
			// keep the raw row, mutate nothing.
			util.WebhooksDroppedTotal.WithLabelValues("unknown_session").Inc()
			ps.logger.Info("Dropping webhook for unknown gateway order",
				zap.String("gateway_order_id", webhook.GatewayOrderID))
			return ps.store.MarkWebhookProcessed(ctx, webhookID)
		}
		return err
	}

	order, err := ps.store.GetOrderByIDAny(ctx, session.OrderID)
	if err != nil {
		return err
	}

	switch envelope.Type {
	case models.WebhookTypePaymentSuccess:
		txnID := envelope.Payment.CfPaymentID.String()
		if err := ps.settleSuccess(ctx, session, order, txnID, "Payment completed via webhook", "webhook", webhook.Payload); err != nil {
			return err
		}

	case models.WebhookTypePaymentFailed:
		// Deliberate asymmetry: only the session is marked failed. The order
		// stays pending for retry or manual reconciliation.
		if err := ps.store.UpdatePaymentSessionStatus(ctx, session.ID, models.SessionStatusFailed, "", webhook.Payload); err != nil {
			return apperr.Internal(err)
		}
		util.PaymentFailedTotal.WithLabelValues("webhook").Inc()

		event := &models.PaymentFailedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePaymentFailed,
				Timestamp: time.Now(),
			},
			OrderID:        order.ID,
			GatewayOrderID: session.GatewayOrderID,
			Reason:         "gateway reported payment failure",
		}
		if err := ps.eventPublisher.PublishPaymentFailed(ctx, event); err != nil {
			ps.logger.Error("Failed to publish PaymentFailed event", zap.Error(err))
		}
	}

	return ps.store.MarkWebhookProcessed(ctx, webhookID)
}

// settleSuccess is the single convergence point for every success entry
// point. It writes the terminal values (session success, order paid +
// confirmed) and appends one history row. A best-effort Redis lock narrows
// the duplicate-history window; correctness never depends on it because the
// terminal values are identical on every path.
func (ps *PaymentService) settleSuccess(ctx context.Context, session *models.PaymentSession, order *models.Order, transactionID, note, source string, raw []byte) error {
	locked, err := ps.redis.AcquirePaymentLock(ctx, order.ID, paymentLockTTL)
	if err != nil {
		ps.logger.Warn("Payment lock unavailable, proceeding", zap.Int64("order_id", order.ID), zap.Error(err))
		locked = false
	}
	if locked {
		defer func() {
			if rerr := ps.redis.ReleasePaymentLock(context.Background(), order.ID); rerr != nil {
				ps.logger.Warn("Failed to release payment lock", zap.Int64("order_id", order.ID), zap.Error(rerr))
			}
		}()
	}

	if session.PaymentStatus == models.SessionStatusSuccess && order.PaymentStatus == models.PaymentStatusPaid {
		return nil
	}

	if err := ps.store.UpdatePaymentSessionStatus(ctx, session.ID, models.SessionStatusSuccess, transactionID, raw); err != nil {
		return apperr.Internal(fmt.Errorf("failed to update payment session: %w", err))
	}
	if err := ps.store.SetOrderPaid(ctx, order.ID); err != nil {
		return apperr.Internal(fmt.Errorf("failed to update order: %w", err))
	}
	if err := ps.store.CreateStatusHistory(ctx, order.ID, models.OrderStatusConfirmed, note, order.UserID); err != nil {
		ps.logger.Error("Failed to append confirmation history", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	if cerr := ps.redis.InvalidateGatewayStatus(ctx, session.GatewayOrderID); cerr != nil {
		ps.logger.Warn("Failed to invalidate status cache", zap.Error(cerr))
	}

	util.PaymentSuccessTotal.WithLabelValues(source).Inc()
	util.OrdersConfirmedTotal.Inc()
	ps.logger.Info("Payment settled",
		zap.Int64("order_id", order.ID),
		zap.String("source", source),
		zap.String("transaction_id", transactionID))

	event := &models.PaymentSuccessEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePaymentSuccess,
			Timestamp: time.Now(),
		},
		OrderID:        order.ID,
		GatewayOrderID: session.GatewayOrderID,
		TransactionID:  transactionID,
		Source:         source,
	}
	if err := ps.eventPublisher.PublishPaymentSuccess(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PaymentSuccess event", zap.Error(err))
	}

	confirmed := &models.OrderConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderConfirmed,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
	}
	if err := ps.eventPublisher.PublishOrderConfirmed(ctx, confirmed); err != nil {
		ps.logger.Error("Failed to publish OrderConfirmed event", zap.Error(err))
	}

	return nil
}

// sessionForUser loads a session via the given lookup and enforces that the
// underlying order belongs to the caller. Both lookup misses and ownership
// misses surface as the same not-found.
func (ps *PaymentService) sessionForUser(ctx context.Context, userID int64, lookup func(context.Context) (*models.PaymentSession, error)) (*models.PaymentSession, *models.Order, error) {
	session, err := lookup(ctx)
	if err != nil {
		return nil, nil, err
	}
	order, err := ps.store.GetOrderByID(ctx, session.OrderID, userID)
	if err != nil {
		return nil, nil, apperr.NotFound("payment session")
	}
	return session, order, nil
}

// ListSessions lists the caller's payment sessions
func (ps *PaymentService) ListSessions(ctx context.Context, userID int64) ([]models.PaymentSession, error) {
	return ps.store.GetPaymentSessionsByUserID(ctx, userID)
}

// GetSession retrieves one of the caller's payment sessions by row id
func (ps *PaymentService) GetSession(ctx context.Context, userID, sessionID int64) (*models.PaymentSession, error) {
	sessions, err := ps.store.GetPaymentSessionsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == sessionID {
			return &sessions[i], nil
		}
	}
	return nil, apperr.NotFound("payment session")
}

// validateCard checks card fields for presence only
func validateCard(card gateway.Card) map[string]string {
	fields := map[string]string{}
	if card.Number == "" {
		fields["card_number"] = "card_number is required"
	}
	if card.ExpiryMonth == "" {
		fields["card_expiry_mm"] = "card_expiry_mm is required"
	}
	if card.ExpiryYear == "" {
		fields["card_expiry_yy"] = "card_expiry_yy is required"
	}
	if card.CVV == "" {
		fields["card_cvv"] = "card_cvv is required"
	}
	if card.HolderName == "" {
		fields["card_holder_name"] = "card_holder_name is required"
	}
	return fields
}

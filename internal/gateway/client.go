package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"commerce-service/config"
	"commerce-service/internal/apperr"
	"commerce-service/internal/util"

	"go.uber.org/zap"
)

// Client talks to the external card-payment gateway. All calls are
// synchronous with a bounded timeout; transport failures are classified
// separately from gateway-reported HTTP errors so callers can decide
// whether to retry.
type Client struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a gateway client from config
func NewClient(cfg config.GatewayConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     util.GetLogger(),
	}
}

// CreateOrder registers an order with the gateway and returns the session id
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, []byte, error) {
	var resp CreateOrderResponse
	raw, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", req, &resp)
	if err != nil {
		return nil, raw, err
	}
	return &resp, raw, nil
}

// GetOrder fetches the gateway's current view of an order
func (c *Client) GetOrder(ctx context.Context, gatewayOrderID string) (*OrderStatusResponse, []byte, error) {
	var resp OrderStatusResponse
	raw, err := c.do(ctx, http.MethodGet, c.cfg.BaseURL+"/orders/"+gatewayOrderID, nil, &resp)
	if err != nil {
		return nil, raw, err
	}
	return &resp, raw, nil
}

// SubmitCard submits raw card fields against a payment session
func (c *Client) SubmitCard(ctx context.Context, paymentSessionID string, card Card) (*CardChargeResponse, []byte, error) {
	req := cardChargeRequest{PaymentSessionID: paymentSessionID}
	req.PaymentMethod.Card = card

	var resp CardChargeResponse
	raw, err := c.do(ctx, http.MethodPost, c.cfg.BaseURL+"/orders/sessions", &req, &resp)
	if err != nil {
		return nil, raw, err
	}
	return &resp, raw, nil
}

// SubmitOTP submits a step-up OTP to the callback URL the gateway handed out
func (c *Client) SubmitOTP(ctx context.Context, otpURL, otp string) (*OTPResponse, []byte, error) {
	req := otpSubmitRequest{OTP: otp, Action: "SUBMIT_OTP"}

	var resp OTPResponse
	raw, err := c.do(ctx, http.MethodPost, otpURL, &req, &resp)
	if err != nil {
		return nil, raw, err
	}
	return &resp, raw, nil
}

// do performs one gateway HTTP call, recording latency metrics and mapping
// failures onto the stable error-code vocabulary. The raw response body is
// returned alongside so callers can persist it for audit.
func (c *Client) do(ctx context.Context, method, url string, body, out interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("marshal gateway request: %w", err))
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("build gateway request: %w", err))
	}

	req.Header.Set("x-api-version", c.cfg.APIVersion)
	req.Header.Set("x-client-id", c.cfg.ClientID)
	req.Header.Set("x-client-secret", c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.GatewayRequestDuration.WithLabelValues(method, "transport_error").Observe(time.Since(start).Seconds())
		return nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	util.GatewayRequestDuration.WithLabelValues(method, fmt.Sprintf("%d", resp.StatusCode)).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeBadGateway, "failed to read gateway response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Gateway request failed",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
		return raw, classifyStatus(resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, apperr.Wrap(apperr.CodeBadGateway, "malformed gateway response", err)
		}
	}

	return raw, nil
}

// classifyTransportError distinguishes timeout from connection failure so
// callers get distinct retryable codes.
func (c *Client) classifyTransportError(err error) *apperr.Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Wrap(apperr.CodeGatewayTimeout, "payment gateway timed out", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.CodeGatewayTimeout, "payment gateway timed out", err)
	}
	return apperr.Wrap(apperr.CodeGatewayUnavailable, "payment gateway unreachable", err)
}

// gatewayError is the body shape the gateway uses for errors
type gatewayError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// classifyStatus maps a gateway HTTP status onto the fixed error vocabulary.
func classifyStatus(status int, body []byte) *apperr.Error {
	var ge gatewayError
	_ = json.Unmarshal(body, &ge)
	msg := ge.Message
	if msg == "" {
		msg = "unknown error from payment gateway"
	}

	switch {
	case status == http.StatusBadRequest:
		return apperr.New(apperr.CodeGatewayBadRequest, msg)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.New(apperr.CodeGatewayUnauthorized, msg)
	case status == http.StatusNotFound:
		return apperr.New(apperr.CodeGatewayNotFound, msg)
	case status == http.StatusConflict:
		return apperr.New(apperr.CodeGatewayConflict, msg)
	case status == http.StatusUnprocessableEntity:
		return apperr.New(apperr.CodeGatewayValidation, msg)
	case status == http.StatusTooManyRequests:
		return apperr.New(apperr.CodeGatewayRateLimited, msg)
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
		return apperr.New(apperr.CodeBadGateway, msg)
	case status >= 500:
		return apperr.New(apperr.CodeGatewayInternal, msg)
	default:
		return apperr.New(apperr.CodeGatewayUnknown, msg)
	}
}

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"commerce-service/config"
	"commerce-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(config.GatewayConfig{
		BaseURL:        baseURL,
		ClientID:       "test-client",
		ClientSecret:   "test-secret",
		APIVersion:     "2023-08-01",
		Mode:           "sandbox",
		Currency:       "INR",
		TimeoutSeconds: 2,
	})
}

func TestCreateOrderSendsCredentialHeaders(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cf_order_id":"cf_1","order_id":"ORDER_X_1","payment_session_id":"sess_1","order_status":"ACTIVE"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	resp, raw, err := client.CreateOrder(context.Background(), &CreateOrderRequest{OrderID: "ORDER_X_1"})

	require.NoError(t, err)
	assert.Equal(t, "sess_1", resp.PaymentSessionID)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "2023-08-01", gotHeaders.Get("x-api-version"))
	assert.Equal(t, "test-client", gotHeaders.Get("x-client-id"))
	assert.Equal(t, "test-secret", gotHeaders.Get("x-client-secret"))
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status   int
		expected apperr.Code
	}{
		{http.StatusBadRequest, apperr.CodeGatewayBadRequest},
		{http.StatusUnauthorized, apperr.CodeGatewayUnauthorized},
		{http.StatusForbidden, apperr.CodeGatewayUnauthorized},
		{http.StatusNotFound, apperr.CodeGatewayNotFound},
		{http.StatusConflict, apperr.CodeGatewayConflict},
		{http.StatusUnprocessableEntity, apperr.CodeGatewayValidation},
		{http.StatusTooManyRequests, apperr.CodeGatewayRateLimited},
		{http.StatusBadGateway, apperr.CodeBadGateway},
		{http.StatusServiceUnavailable, apperr.CodeBadGateway},
		{http.StatusInternalServerError, apperr.CodeGatewayInternal},
		{http.StatusTeapot, apperr.CodeGatewayUnknown},
	}

	for _, tt := range tests {
		ae := classifyStatus(tt.status, []byte(`{"message":"nope"}`))
		assert.Equal(t, tt.expected, ae.Code, "status %d", tt.status)
		assert.Equal(t, "nope", ae.Message)
	}
}

func TestGatewayErrorSurfacedWithStableCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	_, _, err := client.GetOrder(context.Background(), "ORDER_X_1")

	require.Error(t, err)
	ae := apperr.FromError(err)
	assert.Equal(t, apperr.CodeGatewayRateLimited, ae.Code)
	assert.True(t, ae.Retryable())
}

func TestTimeoutClassifiedRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	_, _, err := client.GetOrder(context.Background(), "ORDER_X_1")

	require.Error(t, err)
	ae := apperr.FromError(err)
	assert.Equal(t, apperr.CodeGatewayTimeout, ae.Code)
	assert.True(t, ae.Retryable())
}

func TestConnectionRefusedClassifiedRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens on this address anymore

	client := testClient(srv.URL)
	_, _, err := client.GetOrder(context.Background(), "ORDER_X_1")

	require.Error(t, err)
	ae := apperr.FromError(err)
	assert.Equal(t, apperr.CodeGatewayUnavailable, ae.Code)
	assert.True(t, ae.Retryable())
}

func TestMalformedResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := testClient(srv.URL)
	_, _, err := client.GetOrder(context.Background(), "ORDER_X_1")

	require.Error(t, err)
	assert.Equal(t, apperr.CodeBadGateway, apperr.FromError(err).Code)
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "test-secret"
	timestamp := "1700000000"
	body := []byte(`{"type":"PAYMENT_SUCCESS_WEBHOOK"}`)

	sig := ComputeWebhookSignature(secret, timestamp, body)

	assert.True(t, VerifyWebhookSignature(secret, timestamp, body, sig))
	assert.False(t, VerifyWebhookSignature(secret, timestamp, body, sig+"x"))
	assert.False(t, VerifyWebhookSignature(secret, "1700000001", body, sig))
	assert.False(t, VerifyWebhookSignature("other-secret", timestamp, body, sig))
	assert.False(t, VerifyWebhookSignature(secret, timestamp, []byte(`{}`), sig))
	assert.False(t, VerifyWebhookSignature(secret, timestamp, body, ""))
	assert.False(t, VerifyWebhookSignature("", timestamp, body, sig))
}

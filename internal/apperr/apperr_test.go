package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryableCodes(t *testing.T) {
	retryable := []Code{CodeGatewayTimeout, CodeGatewayUnavailable, CodeGatewayRateLimited, CodeGatewayInternal, CodeBadGateway}
	for _, code := range retryable {
		assert.True(t, New(code, "x").Retryable(), "%s", code)
	}

	terminal := []Code{CodeNotFound, CodeValidation, CodeInvalidState, CodeGatewayBadRequest, CodeGatewayUnauthorized, CodeInternal}
	for _, code := range terminal {
		assert.False(t, New(code, "x").Retryable(), "%s", code)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("order").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, InvalidState("cannot cancel").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, Validation(map[string]string{"otp": "required"}).HTTPStatus())
	assert.Equal(t, http.StatusTooManyRequests, New(CodeGatewayRateLimited, "x").HTTPStatus())
	assert.Equal(t, http.StatusGatewayTimeout, New(CodeGatewayTimeout, "x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Internal(errors.New("boom")).HTTPStatus())
}

func TestFromErrorPassthrough(t *testing.T) {
	orig := NotFound("order")
	wrapped := fmt.Errorf("service: %w", orig)

	assert.Equal(t, orig, FromError(wrapped))

	plain := errors.New("boom")
	ae := FromError(plain)
	assert.Equal(t, CodeInternal, ae.Code)
	assert.ErrorIs(t, ae, plain)
}

func TestInternalHidesCause(t *testing.T) {
	ae := Internal(errors.New("pq: connection reset"))

	assert.Equal(t, "internal server error", ae.Message)
	assert.Contains(t, ae.Error(), "connection reset")
}

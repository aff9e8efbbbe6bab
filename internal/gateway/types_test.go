package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapCardChargeOutcome(t *testing.T) {
	otpResp := CardChargeResponse{Action: "link"}
	otpResp.Data.URL = "https://gw.example/otp/abc"

	tests := []struct {
		name     string
		resp     CardChargeResponse
		expected Outcome
	}{
		{"otp step-up", otpResp, OutcomeOTPRequired},
		{"immediate success", CardChargeResponse{PaymentStatus: "SUCCESS"}, OutcomeSuccess},
		{"action complete", CardChargeResponse{Action: "COMPLETE"}, OutcomeSuccess},
		{"declined", CardChargeResponse{PaymentStatus: "FAILED"}, OutcomeFailed},
		{"user dropped", CardChargeResponse{PaymentStatus: "USER_DROPPED"}, OutcomeFailed},
		{"pending", CardChargeResponse{PaymentStatus: "PENDING"}, OutcomePending},
		{"empty", CardChargeResponse{}, OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapCardChargeOutcome(&tt.resp))
		})
	}
}

func TestMapOTPOutcomeUnionSignals(t *testing.T) {
	// Any of the three signal shapes counts as success
	assert.Equal(t, OutcomeSuccess, MapOTPOutcome(&OTPResponse{PaymentStatus: "SUCCESS"}))
	assert.Equal(t, OutcomeSuccess, MapOTPOutcome(&OTPResponse{AuthenticateStatus: "SUCCESS"}))
	assert.Equal(t, OutcomeSuccess, MapOTPOutcome(&OTPResponse{Action: "COMPLETE"}))

	assert.Equal(t, OutcomeFailed, MapOTPOutcome(&OTPResponse{PaymentStatus: "FAILED"}))
	assert.Equal(t, OutcomeFailed, MapOTPOutcome(&OTPResponse{AuthenticateStatus: "FAILED"}))

	// Ambiguous responses resolve via a status poll, not here
	assert.Equal(t, OutcomeUnknown, MapOTPOutcome(&OTPResponse{}))
	assert.Equal(t, OutcomeUnknown, MapOTPOutcome(&OTPResponse{Action: "PENDING"}))
}

func TestMapOrderStatusOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, MapOrderStatusOutcome("PAID"))
	assert.Equal(t, OutcomeSuccess, MapOrderStatusOutcome("paid"))
	assert.Equal(t, OutcomeFailed, MapOrderStatusOutcome("CANCELLED"))
	assert.Equal(t, OutcomeFailed, MapOrderStatusOutcome("terminated"))
	assert.Equal(t, OutcomePending, MapOrderStatusOutcome("ACTIVE"))
	assert.Equal(t, OutcomeUnknown, MapOrderStatusOutcome("EXPIRED"))
	assert.Equal(t, OutcomeUnknown, MapOrderStatusOutcome(""))
}

package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ComputeWebhookSignature computes the signature the gateway attaches to
// webhook deliveries: base64(HMAC-SHA256(secret, timestamp + body)).
func ComputeWebhookSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks an inbound webhook signature in constant
// time. Payloads failing verification must not be persisted or acted on.
func VerifyWebhookSignature(secret, timestamp string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeWebhookSignature(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

package gateway

// CustomerDetails identifies the paying customer to the gateway
type CustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
}

// OrderMeta carries the callback URLs for a gateway order
type OrderMeta struct {
	ReturnURL string `json:"return_url"`
	NotifyURL string `json:"notify_url"`
}

// CreateOrderRequest is the gateway order-creation payload
type CreateOrderRequest struct {
	OrderID         string          `json:"order_id"`
	OrderCurrency   string          `json:"order_currency"`
	OrderAmount     float64         `json:"order_amount"`
	CustomerDetails CustomerDetails `json:"customer_details"`
	OrderMeta       OrderMeta       `json:"order_meta"`
	OrderNote       string          `json:"order_note,omitempty"`
}

// CreateOrderResponse is the gateway order-creation result
type CreateOrderResponse struct {
	CfOrderID        string `json:"cf_order_id"`
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	OrderStatus      string `json:"order_status"`
}

// OrderStatusResponse is the gateway status-fetch result
type OrderStatusResponse struct {
	OrderID     string  `json:"order_id"`
	OrderStatus string  `json:"order_status"`
	OrderAmount float64 `json:"order_amount"`
}

// Card holds raw card fields submitted by the client
type Card struct {
	Number      string `json:"card_number"`
	ExpiryMonth string `json:"card_expiry_mm"`
	ExpiryYear  string `json:"card_expiry_yy"`
	CVV         string `json:"card_cvv"`
	HolderName  string `json:"card_holder_name"`
}

// cardChargeRequest is the card-submission payload
type cardChargeRequest struct {
	PaymentSessionID string `json:"payment_session_id"`
	PaymentMethod    struct {
		Card Card `json:"card"`
	} `json:"payment_method"`
}

// CardChargeResponse is the gateway's card-submission result. The gateway
// either settles immediately, demands a step-up OTP via Data.URL, or fails.
type CardChargeResponse struct {
	CfPaymentID   int64  `json:"cf_payment_id"`
	PaymentStatus string `json:"payment_status"`
	Action        string `json:"action"`
	Channel       string `json:"channel"`
	Data          struct {
		URL string `json:"url"`
	} `json:"data"`
}

// otpSubmitRequest is the OTP-submission payload
type otpSubmitRequest struct {
	OTP    string `json:"otp"`
	Action string `json:"action"`
}

// OTPResponse is the gateway's OTP-verification result. Its shape is not
// fully determined: success may be signaled through payment_status,
// authenticate_status, or action=COMPLETE.
type OTPResponse struct {
	CfPaymentID        int64  `json:"cf_payment_id"`
	PaymentStatus      string `json:"payment_status"`
	AuthenticateStatus string `json:"authenticate_status"`
	Action             string `json:"action"`
}

// Outcome is the adapter-internal verdict mapped from a gateway response.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeSuccess
	OutcomeFailed
	OutcomePending
	OutcomeOTPRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomePending:
		return "pending"
	case OutcomeOTPRequired:
		return "otp_required"
	default:
		return "unknown"
	}
}

// MapCardChargeOutcome interprets a card-submission response.
func MapCardChargeOutcome(resp *CardChargeResponse) Outcome {
	if resp.Data.URL != "" && resp.Action != "COMPLETE" {
		return OutcomeOTPRequired
	}
	switch resp.PaymentStatus {
	case "SUCCESS":
		return OutcomeSuccess
	case "FAILED", "CANCELLED", "USER_DROPPED":
		return OutcomeFailed
	case "PENDING":
		return OutcomePending
	}
	if resp.Action == "COMPLETE" {
		return OutcomeSuccess
	}
	return OutcomeUnknown
}

// MapOTPOutcome interprets an OTP-verification response. Any one of the three
// success signals counts as success; an explicit FAILED in either status
// field counts as failure; everything else is unknown, which the caller
// resolves with a status poll.
func MapOTPOutcome(resp *OTPResponse) Outcome {
	if resp.PaymentStatus == "SUCCESS" || resp.AuthenticateStatus == "SUCCESS" || resp.Action == "COMPLETE" {
		return OutcomeSuccess
	}
	if resp.PaymentStatus == "FAILED" || resp.AuthenticateStatus == "FAILED" {
		return OutcomeFailed
	}
	return OutcomeUnknown
}

// MapOrderStatusOutcome maps the gateway's order_status vocabulary.
func MapOrderStatusOutcome(orderStatus string) Outcome {
	switch orderStatus {
	case "PAID", "paid":
		return OutcomeSuccess
	case "CANCELLED", "cancelled", "TERMINATED", "terminated":
		return OutcomeFailed
	case "ACTIVE", "active":
		return OutcomePending
	default:
		return OutcomeUnknown
	}
}

package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	GatewayStripe = "stripe"
	GatewayPaypal = "paypal"
	GatewayMTN    = "mtn"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
)

var (
	MessageSuccessCharge      = "payment processed successfully"
	MessageSuccessConfirm     = "payment confirmation processed successfully"
	MessageSuccessGetAttempts = "payment attempts retrieved successfully"

	MessageFailedCharge      = "failed to process payment"
	MessageFailedConfirm     = "failed to confirm payment"
	MessageFailedGetAttempts = "failed to retrieve payment attempts"

	ErrUnsupportedGateway = errors.New("unsupported payment gateway")
	ErrAlreadyPaid        = errors.New("order already has a succeeded payment")
	ErrAmountMismatch     = errors.New("amount does not match order cost")
	ErrOrderNotPayable    = errors.New("order is not awaiting payment")
	ErrMissingCost        = errors.New("order has no cost set")
	ErrNoPendingAttempt   = errors.New("order has no pending payment attempt")

	ErrInvalidCardNumber = errors.New("card number failed checksum validation")
	ErrInvalidCardHolder = errors.New("cardholder name is required")
	ErrCardExpired       = errors.New("card expiry date is in the past")
	ErrInvalidCVV        = errors.New("cvv length is invalid for this card")
	ErrInvalidPhone      = errors.New("phone number is not a valid mtn mobile money number")
)

// GatewayDeclinedError carries the provider's refusal message verbatim so the
// caller can surface it with a retry affordance.
type GatewayDeclinedError struct {
	Gateway string
	Message string
}

func (e *GatewayDeclinedError) Error() string {
	return fmt.Sprintf("%s declined the charge: %s", e.Gateway, e.Message)
}

type (
	PaymentData struct {
		CardNumber     string `json:"card_number,omitempty"`
		CardholderName string `json:"cardholder_name,omitempty"`
		ExpiryMonth    int    `json:"expiry_month,omitempty"`
		ExpiryYear     int    `json:"expiry_year,omitempty"`
		CVV            string `json:"cvv,omitempty"`
		PhoneNumber    string `json:"phone_number,omitempty"`
		ReturnURL      string `json:"return_url,omitempty"`
	}

	ChargeRequest struct {
		Gateway     string      `json:"gateway" validate:"required,oneof=stripe paypal mtn"`
		Amount      float64     `json:"amount" validate:"required,gt=0"`
		Currency    string      `json:"currency" validate:"required,len=3"`
		PaymentData PaymentData `json:"payment_data"`
	}

	PaymentAttemptResponse struct {
		PaymentID     string    `json:"payment_id"`
		OrderID       string    `json:"order_id"`
		Gateway       string    `json:"gateway"`
		Amount        float64   `json:"amount"`
		Currency      string    `json:"currency"`
		Status        string    `json:"status"`
		TransactionID string    `json:"transaction_id,omitempty"`
		FailureReason string    `json:"failure_reason,omitempty"`
		ApprovalURL   string    `json:"approval_url,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}
)

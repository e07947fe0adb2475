package domain

import (
	"errors"
	"time"
)

var (
	MessageTypeSMS      = "sms"
	MessageTypeWhatsapp = "whatsapp"
	MessageTypeEmail    = "email"

	ErrInvalidMessageType = errors.New("message type must be sms, whatsapp or email")
)

// TransitionEvent is emitted by the order state machine after every
// successful transition. Consumers must never block the emitting goroutine.
type TransitionEvent struct {
	OrderID          string
	PatientProfileID string
	FromStatus       OrderStatus
	ToStatus         OrderStatus
	Actor            string
	OccurredAt       time.Time
}

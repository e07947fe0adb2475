package entities

import (
	"github.com/google/uuid"
)

type PaymentAttempt struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"payment_id"`
	OrderID       uuid.UUID `gorm:"index" json:"order_id"`
	Gateway       string    `json:"gateway"` // "stripe", "paypal", "mtn"
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `gorm:"index" json:"status"` // "pending", "succeeded", "failed"
	TransactionID string    `json:"transaction_id,omitempty"`
	FailureReason string    `gorm:"type:text" json:"failure_reason,omitempty"`

	Order *PrescriptionOrder `gorm:"foreignKey:OrderID" json:"-"`
	Timestamp
}

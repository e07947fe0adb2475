package entities

import (
	"time"

	"github.com/google/uuid"
)

type MedicationDetails struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Quantity int    `json:"quantity"`
}

type PharmacistReview struct {
	ReviewedBy      uuid.UUID          `json:"reviewed_by"`
	ReviewedAt      time.Time          `json:"reviewed_at"`
	Approved        bool               `json:"approved"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	PharmacistNotes string             `json:"pharmacist_notes,omitempty"`
	CalculatedCost  *float64           `json:"calculated_cost,omitempty"`
	EditedDetails   *MedicationDetails `gorm:"embedded;embeddedPrefix:edited_" json:"edited_details,omitempty"`
}

type PrescriptionOrder struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	PatientProfileID uuid.UUID `gorm:"index" json:"patient_profile_id"`
	Status           string    `gorm:"index" json:"status"`
	OriginalImageURL string    `json:"original_image_url"`

	OcrStatus      string     `json:"ocr_status"` // "pending", "processing", "completed", "failed"
	OcrJobID       string     `json:"ocr_job_id,omitempty"`
	OcrConfidence  *float64   `json:"ocr_confidence,omitempty"`
	ExtractedText  *string    `gorm:"type:text" json:"extracted_text,omitempty"`
	OcrError       *string    `gorm:"type:text" json:"ocr_error,omitempty"`
	OcrProcessedAt *time.Time `json:"ocr_processed_at,omitempty"`

	MedicationDetails *MedicationDetails `gorm:"embedded;embeddedPrefix:medication_" json:"medication_details,omitempty"`

	UserVerified          bool   `json:"user_verified"`
	UserVerificationNotes string `gorm:"type:text" json:"user_verification_notes,omitempty"`

	PharmacistReview *PharmacistReview `gorm:"embedded;embeddedPrefix:review_" json:"pharmacist_review,omitempty"`
	PharmacistNotes  string            `gorm:"type:text" json:"pharmacist_notes,omitempty"`

	Cost    *float64 `json:"cost,omitempty"`
	Version int      `gorm:"default:1" json:"-"`

	Patient *User `gorm:"foreignKey:PatientProfileID" json:"-"`
	Timestamp
}

type OrderAuditEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	OrderID    uuid.UUID `gorm:"index" json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"` // "patient", "pharmacist", "system"
	Succeeded  bool      `json:"succeeded"`
	Reason     string    `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

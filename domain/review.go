package domain

import (
	"errors"
)

var (
	MessageSuccessApproveOrder = "order approved successfully"
	MessageSuccessRejectOrder  = "order rejected successfully"
	MessageSuccessEditOrder    = "medication details updated successfully"

	MessageFailedApproveOrder = "failed to approve order"
	MessageFailedRejectOrder  = "failed to reject order"
	MessageFailedEditOrder    = "failed to update medication details"

	ErrInvalidCost              = errors.New("calculated cost must be greater than zero")
	ErrMissingRejectionReason   = errors.New("rejection reason is required")
	ErrInvalidMedicationDetails = errors.New("medication name, dosage and a positive quantity are required")
	ErrOrderAlreadyReviewed     = errors.New("order already has a pharmacist review")
)

type (
	ApproveOrderRequest struct {
		CalculatedCost float64                   `json:"calculated_cost" validate:"required,gt=0"`
		EditedDetails  *MedicationDetailsPayload `json:"edited_details" validate:"omitempty"`
		Notes          string                    `json:"notes" validate:"omitempty,max=2000"`
	}

	RejectOrderRequest struct {
		RejectionReason string `json:"rejection_reason" validate:"required"`
		Notes           string `json:"notes" validate:"omitempty,max=2000"`
	}

	EditOrderRequest struct {
		EditedDetails MedicationDetailsPayload `json:"edited_details" validate:"required"`
		Notes         string                   `json:"notes" validate:"omitempty,max=2000"`
	}
)

package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	StatusPendingVerification  OrderStatus = "pending_verification"
	StatusAwaitingVerification OrderStatus = "awaiting_verification"
	StatusAwaitingPayment      OrderStatus = "awaiting_payment"
	StatusPreparing            OrderStatus = "preparing"
	StatusOutForDelivery       OrderStatus = "out_for_delivery"
	StatusDelivered            OrderStatus = "delivered"
	StatusRejected             OrderStatus = "rejected"
)

var (
	MessageSuccessCreateOrder    = "order created successfully"
	MessageSuccessGetOrder       = "order retrieved successfully"
	MessageSuccessGetOrders      = "orders retrieved successfully"
	MessageSuccessUpdateStatus   = "order status updated successfully"
	MessageSuccessVerifyOrder    = "order verified successfully"
	MessageSuccessGetAuditTrail  = "audit trail retrieved successfully"
	MessageSuccessRequestPayment = "payment link sent successfully"
	MessageSuccessDoctorOrder    = "prescription submitted successfully"

	MessageFailedCreateOrder    = "failed to create order"
	MessageFailedGetOrder       = "failed to retrieve order"
	MessageFailedGetOrders      = "failed to retrieve orders"
	MessageFailedUpdateStatus   = "failed to update order status"
	MessageFailedVerifyOrder    = "failed to verify order"
	MessageFailedGetAuditTrail  = "failed to retrieve audit trail"
	MessageFailedRequestPayment = "failed to send payment link"
	MessageFailedDoctorOrder    = "failed to submit prescription"

	ErrOrderNotFound           = errors.New("order not found")
	ErrUnauthorizedOrderAccess = errors.New("unauthorized access to order")
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrInvalidTransition       = errors.New("status transition not permitted from current status")
	ErrGuardFailed             = errors.New("transition guard condition not met")
	ErrTerminalState           = errors.New("order is in a terminal state")
	ErrMissingImageURL         = errors.New("original image url is required")
	ErrOrderNotVerifiable      = errors.New("order is not awaiting verification")
)

type (
	CreateOrderRequest struct {
		PatientProfileID string `json:"patient_profile_id" validate:"omitempty,uuid"`
		OriginalImageURL string `json:"original_image_url" validate:"required,url"`
	}

	UpdateOrderStatusRequest struct {
		Status string `json:"status" validate:"required,oneof=pending_verification awaiting_verification awaiting_payment preparing out_for_delivery delivered rejected"`
	}

	VerifyOrderRequest struct {
		Notes string `json:"notes" validate:"omitempty,max=2000"`
	}

	MedicationDetailsPayload struct {
		Name     string `json:"name" validate:"required"`
		Dosage   string `json:"dosage" validate:"required"`
		Quantity int    `json:"quantity" validate:"required,min=1"`
	}

	DoctorPrescriptionRequest struct {
		PatientProfileID  string                   `json:"patient_profile_id" validate:"required,uuid"`
		MedicationDetails MedicationDetailsPayload `json:"medication_details" validate:"required"`
		Instructions      string                   `json:"instructions" validate:"omitempty,max=2000"`
	}

	RequestPaymentLinkRequest struct {
		RecipientPhone string `json:"recipient_phone" validate:"required"`
		MessageType    string `json:"message_type" validate:"required,oneof=sms whatsapp email"`
	}

	PharmacistReviewResponse struct {
		ReviewedBy      string                    `json:"reviewed_by"`
		ReviewedAt      time.Time                 `json:"reviewed_at"`
		Approved        bool                      `json:"approved"`
		RejectionReason string                    `json:"rejection_reason,omitempty"`
		PharmacistNotes string                    `json:"pharmacist_notes,omitempty"`
		CalculatedCost  *float64                  `json:"calculated_cost,omitempty"`
		EditedDetails   *MedicationDetailsPayload `json:"edited_details,omitempty"`
	}

	OrderResponse struct {
		ID                    string                    `json:"id"`
		PatientProfileID      string                    `json:"patient_profile_id"`
		Status                string                    `json:"status"`
		OriginalImageURL      string                    `json:"original_image_url"`
		OcrStatus             string                    `json:"ocr_status"`
		OcrConfidence         *float64                  `json:"ocr_confidence,omitempty"`
		ExtractedText         *string                   `json:"extracted_text,omitempty"`
		OcrError              *string                   `json:"ocr_error,omitempty"`
		MedicationDetails     *MedicationDetailsPayload `json:"medication_details,omitempty"`
		UserVerified          bool                      `json:"user_verified"`
		UserVerificationNotes string                    `json:"user_verification_notes,omitempty"`
		PharmacistReview      *PharmacistReviewResponse `json:"pharmacist_review,omitempty"`
		Cost                  *float64                  `json:"cost,omitempty"`
		CreatedAt             time.Time                 `json:"created_at"`
		UpdatedAt             time.Time                 `json:"updated_at"`
	}

	AuditEntryResponse struct {
		OrderID    string    `json:"order_id"`
		FromStatus string    `json:"from_status"`
		ToStatus   string    `json:"to_status"`
		Actor      string    `json:"actor"`
		Succeeded  bool      `json:"succeeded"`
		Reason     string    `json:"reason,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
	}
)

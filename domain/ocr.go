package domain

import (
	"errors"
	"time"
)

const (
	OcrStatusPending    = "pending"
	OcrStatusProcessing = "processing"
	OcrStatusCompleted  = "completed"
	OcrStatusFailed     = "failed"
)

var (
	MessageSuccessGetOcrStatus = "ocr status retrieved successfully"
	MessageSuccessManualText   = "manual text saved successfully"

	MessageFailedGetOcrStatus = "failed to retrieve ocr status"
	MessageFailedManualText   = "failed to save manual text"

	ErrInvalidImage         = errors.New("prescription image is empty or unreachable")
	ErrEmptyManualText      = errors.New("manual text must not be empty")
	ErrManualTextNotAllowed = errors.New("manual text entry is not allowed after pharmacist review")
	ErrOcrAlreadySubmitted  = errors.New("ocr extraction already submitted for this order")
)

type (
	ManualTextRequest struct {
		ExtractedText string `json:"extracted_text" validate:"required"`
	}

	OcrStatusResponse struct {
		Status        string     `json:"status"`
		ExtractedText *string    `json:"extracted_text,omitempty"`
		Confidence    *float64   `json:"confidence,omitempty"`
		Error         *string    `json:"error,omitempty"`
		ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	}
)

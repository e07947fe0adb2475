package ocr

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"
	"github.com/akgtechceo/pharmarx-sub003/pkg/order"

	"gorm.io/gorm"
)

type (
	OcrService interface {
		// Submit registers the asynchronous extraction job and marks the
		// order as processing.
		Submit(ctx context.Context, orderID string) error
		// PollStatus is non-blocking and idempotent; the first poll that
		// observes a terminal collaborator result persists it.
		PollStatus(ctx context.Context, orderID string) (*domain.OcrStatusResponse, error)
		// EnterManualText is the fallback path when extraction failed or is
		// taking too long, and the correction path before pharmacist review.
		EnterManualText(ctx context.Context, orderID string, text string) (*domain.OrderResponse, error)
	}

	ocrService struct {
		orderRepository order.OrderRepository
		stateMachine    order.StateMachine
		client          Client
	}
)

func NewOcrService(orderRepository order.OrderRepository, stateMachine order.StateMachine, client Client) OcrService {
	return &ocrService{
		orderRepository: orderRepository,
		stateMachine:    stateMachine,
		client:          client,
	}
}

func (s *ocrService) Submit(ctx context.Context, orderID string) error {
	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if ord.OcrStatus == domain.OcrStatusProcessing || ord.OcrStatus == domain.OcrStatusCompleted {
		return domain.ErrOcrAlreadySubmitted
	}
	if ord.OriginalImageURL == "" {
		return domain.ErrInvalidImage
	}

	jobID, err := s.client.SubmitImage(ctx, ord.OriginalImageURL)
	if err != nil {
		return err
	}

	ord.OcrStatus = domain.OcrStatusProcessing
	ord.OcrJobID = jobID
	ord.OcrError = nil
	return s.orderRepository.UpdateOrder(ctx, ord)
}

func (s *ocrService) PollStatus(ctx context.Context, orderID string) (*domain.OcrStatusResponse, error) {
	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if ord.OcrStatus != domain.OcrStatusProcessing {
		// A previous poll may have persisted the completed result and then
		// lost the transition to a concurrent writer (or a crash). Re-polling
		// retries the move so the order cannot stay stranded.
		if err := s.advanceToVerification(ctx, ord); err != nil {
			return nil, err
		}
		return toOcrStatusResponse(ord), nil
	}

	result, err := s.client.FetchResult(ctx, ord.OcrJobID)
	if err != nil {
		// Collaborator unavailable: the job is reconciled on the next poll.
		return nil, err
	}
	if !result.Done {
		return toOcrStatusResponse(ord), nil
	}

	now := time.Now()
	if result.Succeeded {
		text := result.Text
		confidence := result.Confidence
		ord.OcrStatus = domain.OcrStatusCompleted
		ord.ExtractedText = &text
		ord.OcrConfidence = &confidence
		ord.OcrError = nil
		ord.OcrProcessedAt = &now
		if details := ParseMedicationDetails(text); details != nil {
			ord.MedicationDetails = details
		}
	} else {
		reason := result.Error
		if reason == "" {
			reason = "extraction failed"
		}
		ord.OcrStatus = domain.OcrStatusFailed
		ord.OcrError = &reason
		ord.OcrProcessedAt = &now
	}

	if err := s.orderRepository.UpdateOrder(ctx, ord); err != nil {
		return nil, err
	}

	if err := s.advanceToVerification(ctx, ord); err != nil {
		return nil, err
	}

	return toOcrStatusResponse(ord), nil
}

// advanceToVerification hands a completed extraction over to the patient. The
// move is a no-op unless the order still sits at pending_verification, so it
// is safe to attempt on every poll.
func (s *ocrService) advanceToVerification(ctx context.Context, ord *entities.PrescriptionOrder) error {
	if ord.OcrStatus != domain.OcrStatusCompleted || ord.Status != string(domain.StatusPendingVerification) {
		return nil
	}
	return s.stateMachine.Transition(ctx, ord, domain.StatusAwaitingVerification, domain.ActorSystem)
}

func (s *ocrService) EnterManualText(ctx context.Context, orderID string, text string) (*domain.OrderResponse, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, domain.ErrEmptyManualText
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// Manual entry is a fallback while extraction is unfinished or failed,
	// and a correction at any pre-review stage.
	if ord.PharmacistReview != nil {
		return nil, domain.ErrManualTextNotAllowed
	}
	switch domain.OrderStatus(ord.Status) {
	case domain.StatusPendingVerification, domain.StatusAwaitingVerification:
	default:
		return nil, domain.ErrManualTextNotAllowed
	}

	ord.OcrStatus = domain.OcrStatusCompleted
	ord.ExtractedText = &trimmed
	ord.OcrError = nil
	now := time.Now()
	ord.OcrProcessedAt = &now
	if details := ParseMedicationDetails(trimmed); details != nil {
		ord.MedicationDetails = details
	}

	if err := s.orderRepository.UpdateOrder(ctx, ord); err != nil {
		return nil, err
	}

	if ord.Status == string(domain.StatusPendingVerification) {
		if err := s.stateMachine.Transition(ctx, ord, domain.StatusAwaitingVerification, domain.ActorSystem); err != nil {
			return nil, err
		}
	}

	return order.ToOrderResponse(ord), nil
}

func (s *ocrService) getOrder(ctx context.Context, orderID string) (*entities.PrescriptionOrder, error) {
	ord, err := s.orderRepository.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return ord, nil
}

func toOcrStatusResponse(ord *entities.PrescriptionOrder) *domain.OcrStatusResponse {
	return &domain.OcrStatusResponse{
		Status:        ord.OcrStatus,
		ExtractedText: ord.ExtractedText,
		Confidence:    ord.OcrConfidence,
		Error:         ord.OcrError,
		ProcessedAt:   ord.OcrProcessedAt,
	}
}

var (
	dosagePattern   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?\s*(?:mg|mcg|g|ml|iu))`)
	quantityPattern = regexp.MustCompile(`(?i)(?:qty|quantity|x|#)\s*[:.]?\s*(\d+)`)
)

// ParseMedicationDetails extracts name/dosage/quantity from raw prescription
// text. The parse is best-effort: a missing field is not an error, and a text
// with no recognizable medication yields nil. Extraction quality is advisory;
// patient and pharmacist verification are the actual gates.
func ParseMedicationDetails(text string) *entities.MedicationDetails {
	line := text
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"Rx:", "rx:", "RX:"} {
		line = strings.TrimSpace(strings.TrimPrefix(line, prefix))
	}
	if line == "" {
		return nil
	}

	details := &entities.MedicationDetails{Quantity: 1}

	if m := dosagePattern.FindStringIndex(line); m != nil {
		details.Dosage = strings.TrimSpace(line[m[0]:m[1]])
		details.Name = strings.TrimSpace(line[:m[0]])
	} else {
		details.Name = line
	}

	// Dosage amounts are scrubbed first so "10mg" is never read as a quantity.
	scrubbed := dosagePattern.ReplaceAllString(text, "")
	if m := quantityPattern.FindStringSubmatch(scrubbed); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 {
			details.Quantity = qty
		}
	}

	// Quantity tokens like "x30" can leak into the name when no dosage is
	// present; strip anything the quantity pattern matched.
	details.Name = strings.TrimSpace(quantityPattern.ReplaceAllString(details.Name, ""))
	if details.Name == "" {
		return nil
	}

	return details
}

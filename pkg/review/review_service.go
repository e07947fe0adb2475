package review

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"
	"github.com/akgtechceo/pharmarx-sub003/pkg/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// ReviewService records the pharmacist's decision on an order and drives
	// the matching status transition. One review per order; the review
	// record is append-once and kept for audit.
	ReviewService interface {
		Approve(ctx context.Context, orderID string, pharmacistID string, req domain.ApproveOrderRequest) (*domain.OrderResponse, error)
		Reject(ctx context.Context, orderID string, pharmacistID string, req domain.RejectOrderRequest) (*domain.OrderResponse, error)
		Edit(ctx context.Context, orderID string, pharmacistID string, req domain.EditOrderRequest) (*domain.OrderResponse, error)
	}

	reviewService struct {
		orderRepository order.OrderRepository
		stateMachine    order.StateMachine
	}
)

func NewReviewService(orderRepository order.OrderRepository, stateMachine order.StateMachine) ReviewService {
	return &reviewService{
		orderRepository: orderRepository,
		stateMachine:    stateMachine,
	}
}

func (s *reviewService) Approve(ctx context.Context, orderID string, pharmacistID string, req domain.ApproveOrderRequest) (*domain.OrderResponse, error) {
	if req.CalculatedCost <= 0 {
		return nil, domain.ErrInvalidCost
	}
	if req.EditedDetails != nil {
		if err := validateDetails(*req.EditedDetails); err != nil {
			return nil, err
		}
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if isTerminal(ord) {
		return nil, domain.ErrTerminalState
	}
	if ord.PharmacistReview != nil {
		return nil, domain.ErrOrderAlreadyReviewed
	}

	pharmacistUUID, err := uuid.Parse(pharmacistID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	cost := req.CalculatedCost
	reviewRecord := &entities.PharmacistReview{
		ReviewedBy:      pharmacistUUID,
		ReviewedAt:      time.Now(),
		Approved:        true,
		PharmacistNotes: req.Notes,
		CalculatedCost:  &cost,
	}
	if req.EditedDetails != nil {
		edited := &entities.MedicationDetails{
			Name:     req.EditedDetails.Name,
			Dosage:   req.EditedDetails.Dosage,
			Quantity: req.EditedDetails.Quantity,
		}
		reviewRecord.EditedDetails = edited
		ord.MedicationDetails = edited
	}

	ord.PharmacistReview = reviewRecord
	ord.Cost = &cost

	if err := s.stateMachine.Transition(ctx, ord, domain.StatusAwaitingPayment, domain.ActorPharmacist); err != nil {
		return nil, err
	}

	return order.ToOrderResponse(ord), nil
}

func (s *reviewService) Reject(ctx context.Context, orderID string, pharmacistID string, req domain.RejectOrderRequest) (*domain.OrderResponse, error) {
	if strings.TrimSpace(req.RejectionReason) == "" {
		return nil, domain.ErrMissingRejectionReason
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if isTerminal(ord) {
		return nil, domain.ErrTerminalState
	}
	if ord.PharmacistReview != nil {
		return nil, domain.ErrOrderAlreadyReviewed
	}

	pharmacistUUID, err := uuid.Parse(pharmacistID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	ord.PharmacistReview = &entities.PharmacistReview{
		ReviewedBy:      pharmacistUUID,
		ReviewedAt:      time.Now(),
		Approved:        false,
		RejectionReason: req.RejectionReason,
		PharmacistNotes: req.Notes,
	}

	if err := s.stateMachine.Transition(ctx, ord, domain.StatusRejected, domain.ActorPharmacist); err != nil {
		return nil, err
	}

	return order.ToOrderResponse(ord), nil
}

// Edit corrects the medication details before a decision is made. The order
// status is untouched.
func (s *reviewService) Edit(ctx context.Context, orderID string, pharmacistID string, req domain.EditOrderRequest) (*domain.OrderResponse, error) {
	if err := validateDetails(req.EditedDetails); err != nil {
		return nil, err
	}

	ord, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if isTerminal(ord) {
		return nil, domain.ErrTerminalState
	}
	if ord.PharmacistReview != nil {
		return nil, domain.ErrOrderAlreadyReviewed
	}

	ord.MedicationDetails = &entities.MedicationDetails{
		Name:     req.EditedDetails.Name,
		Dosage:   req.EditedDetails.Dosage,
		Quantity: req.EditedDetails.Quantity,
	}
	if req.Notes != "" {
		ord.PharmacistNotes = req.Notes
	}

	if err := s.orderRepository.UpdateOrder(ctx, ord); err != nil {
		return nil, err
	}

	return order.ToOrderResponse(ord), nil
}

func (s *reviewService) getOrder(ctx context.Context, orderID string) (*entities.PrescriptionOrder, error) {
	ord, err := s.orderRepository.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return ord, nil
}

func validateDetails(details domain.MedicationDetailsPayload) error {
	if strings.TrimSpace(details.Name) == "" ||
		strings.TrimSpace(details.Dosage) == "" ||
		details.Quantity <= 0 {
		return domain.ErrInvalidMedicationDetails
	}
	return nil
}

func isTerminal(ord *entities.PrescriptionOrder) bool {
	status := domain.OrderStatus(ord.Status)
	return status == domain.StatusRejected || status == domain.StatusDelivered
}

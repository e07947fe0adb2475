package payment

import (
	"context"
	"errors"
	"math"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"
	"github.com/akgtechceo/pharmarx-sub003/pkg/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const amountEpsilon = 1e-9

type (
	PaymentService interface {
		// Validate applies gateway-specific rules to the payment data
		// without touching the order.
		Validate(gateway string, data domain.PaymentData) error
		// Charge is idempotent per order: once a succeeded attempt exists it
		// is returned as-is together with domain.ErrAlreadyPaid, which
		// callers treat as success. Charge never advances the order status;
		// that is the caller's move after confirming the attempt succeeded.
		Charge(ctx context.Context, orderID string, req domain.ChargeRequest) (*domain.PaymentAttemptResponse, error)
		// ConfirmPending re-checks the latest pending attempt against its
		// provider and settles it. Redirect flows (paypal approval) become
		// payable only through this call; like Charge, it never advances the
		// order status.
		ConfirmPending(ctx context.Context, orderID string) (*domain.PaymentAttemptResponse, error)
		GetPaymentAttempts(ctx context.Context, orderID string) ([]*domain.PaymentAttemptResponse, error)
	}

	paymentService struct {
		orderRepository order.OrderRepository
		gateways        map[string]Gateway
	}
)

func NewPaymentService(orderRepository order.OrderRepository, gateways ...Gateway) PaymentService {
	byName := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	return &paymentService{
		orderRepository: orderRepository,
		gateways:        byName,
	}
}

func (s *paymentService) Validate(gateway string, data domain.PaymentData) error {
	switch gateway {
	case domain.GatewayStripe:
		return validateStripe(data)
	case domain.GatewayMTN:
		return validateMTN(data)
	case domain.GatewayPaypal:
		// Field collection happens on PayPal's redirect pages; only the
		// order and amount are checked locally.
		return nil
	default:
		return domain.ErrUnsupportedGateway
	}
}

func (s *paymentService) Charge(ctx context.Context, orderID string, req domain.ChargeRequest) (*domain.PaymentAttemptResponse, error) {
	ord, err := s.orderRepository.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	// Idempotence first: a repeat charge after success must return the
	// original attempt even if the caller has already advanced the order.
	if existing, err := s.orderRepository.GetSucceededPaymentAttempt(ctx, orderID); err == nil {
		return toAttemptResponse(existing, ""), domain.ErrAlreadyPaid
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	switch domain.OrderStatus(ord.Status) {
	case domain.StatusRejected, domain.StatusDelivered:
		return nil, domain.ErrTerminalState
	case domain.StatusAwaitingPayment:
	default:
		return nil, domain.ErrOrderNotPayable
	}

	if ord.Cost == nil {
		return nil, domain.ErrMissingCost
	}
	if math.Abs(*ord.Cost-req.Amount) > amountEpsilon {
		return nil, domain.ErrAmountMismatch
	}

	if err := s.Validate(req.Gateway, req.PaymentData); err != nil {
		return nil, err
	}

	gateway, ok := s.gateways[req.Gateway]
	if !ok {
		return nil, domain.ErrUnsupportedGateway
	}

	result, err := gateway.Charge(ctx, orderID, req.Amount, req.Currency, req.PaymentData)
	if err != nil {
		var declined *domain.GatewayDeclinedError
		if errors.As(err, &declined) {
			// The refusal is recorded so retries stay auditable; the order
			// stays at awaiting_payment.
			failed := newAttempt(ord.ID, req, domain.PaymentStatusFailed)
			failed.FailureReason = declined.Message
			if _, recordErr := s.orderRepository.RecordPaymentAttempt(ctx, failed); recordErr != nil && !errors.Is(recordErr, domain.ErrAlreadyPaid) {
				return nil, recordErr
			}
		}
		return nil, err
	}

	attempt := newAttempt(ord.ID, req, result.Status)
	attempt.TransactionID = result.TransactionID

	recorded, err := s.orderRepository.RecordPaymentAttempt(ctx, attempt)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPaid) {
			// A concurrent charge won the compare-and-set; return its attempt.
			return toAttemptResponse(recorded, ""), domain.ErrAlreadyPaid
		}
		return nil, err
	}

	return toAttemptResponse(recorded, result.ApprovalURL), nil
}

func (s *paymentService) ConfirmPending(ctx context.Context, orderID string) (*domain.PaymentAttemptResponse, error) {
	if _, err := s.orderRepository.GetOrderByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	if existing, err := s.orderRepository.GetSucceededPaymentAttempt(ctx, orderID); err == nil {
		return toAttemptResponse(existing, ""), domain.ErrAlreadyPaid
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	attempts, err := s.orderRepository.GetPaymentAttempts(ctx, orderID)
	if err != nil {
		return nil, err
	}
	var pending *entities.PaymentAttempt
	for _, a := range attempts {
		if a.Status == domain.PaymentStatusPending {
			pending = a
		}
	}
	if pending == nil {
		return nil, domain.ErrNoPendingAttempt
	}

	gateway, ok := s.gateways[pending.Gateway]
	if !ok {
		return nil, domain.ErrUnsupportedGateway
	}

	result, err := gateway.FetchStatus(ctx, pending.TransactionID)
	if err != nil {
		return nil, err
	}

	switch result.Status {
	case domain.PaymentStatusSucceeded:
		pending.Status = domain.PaymentStatusSucceeded
		settled, err := s.orderRepository.SettlePaymentAttempt(ctx, pending)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyPaid) {
				return toAttemptResponse(settled, ""), domain.ErrAlreadyPaid
			}
			return nil, err
		}
		return toAttemptResponse(settled, ""), nil
	case domain.PaymentStatusFailed:
		pending.Status = domain.PaymentStatusFailed
		pending.FailureReason = result.FailureReason
		if settled, settleErr := s.orderRepository.SettlePaymentAttempt(ctx, pending); settleErr != nil {
			if errors.Is(settleErr, domain.ErrAlreadyPaid) {
				return toAttemptResponse(settled, ""), domain.ErrAlreadyPaid
			}
			return nil, settleErr
		}
		msg := result.FailureReason
		if msg == "" {
			msg = "payment was not completed"
		}
		return nil, &domain.GatewayDeclinedError{Gateway: pending.Gateway, Message: msg}
	default:
		// Still awaiting buyer action on the provider's side.
		return toAttemptResponse(pending, ""), nil
	}
}

func (s *paymentService) GetPaymentAttempts(ctx context.Context, orderID string) ([]*domain.PaymentAttemptResponse, error) {
	attempts, err := s.orderRepository.GetPaymentAttempts(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.PaymentAttemptResponse, 0, len(attempts))
	for _, a := range attempts {
		result = append(result, toAttemptResponse(a, ""))
	}
	return result, nil
}

func newAttempt(orderID uuid.UUID, req domain.ChargeRequest, status string) *entities.PaymentAttempt {
	return &entities.PaymentAttempt{
		ID:       uuid.New(),
		OrderID:  orderID,
		Gateway:  req.Gateway,
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   status,
	}
}

func toAttemptResponse(attempt *entities.PaymentAttempt, approvalURL string) *domain.PaymentAttemptResponse {
	return &domain.PaymentAttemptResponse{
		PaymentID:     attempt.ID.String(),
		OrderID:       attempt.OrderID.String(),
		Gateway:       attempt.Gateway,
		Amount:        attempt.Amount,
		Currency:      attempt.Currency,
		Status:        attempt.Status,
		TransactionID: attempt.TransactionID,
		FailureReason: attempt.FailureReason,
		ApprovalURL:   approvalURL,
		CreatedAt:     attempt.CreatedAt,
	}
}

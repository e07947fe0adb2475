package order

import (
	"context"
	"errors"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// Notifier receives an event after every successful transition.
	// Implementations must not block.
	Notifier interface {
		NotifyTransition(event domain.TransitionEvent)
	}

	// StateMachine validates and applies order status transitions. Every
	// attempt, permitted or not, is appended to the order's audit trail.
	StateMachine interface {
		Transition(ctx context.Context, order *entities.PrescriptionOrder, target domain.OrderStatus, actor string) error
	}

	stateMachine struct {
		orderRepository OrderRepository
		notifier        Notifier
	}

	transitionRule struct {
		actors []string
		guard  func(ctx context.Context, sm *stateMachine, order *entities.PrescriptionOrder) error
	}
)

var terminalStatuses = map[domain.OrderStatus]bool{
	domain.StatusDelivered: true,
	domain.StatusRejected:  true,
}

func guardOcrCompleted(_ context.Context, _ *stateMachine, order *entities.PrescriptionOrder) error {
	if order.OcrStatus != domain.OcrStatusCompleted {
		return domain.ErrGuardFailed
	}
	return nil
}

func guardApprovedWithCost(_ context.Context, _ *stateMachine, order *entities.PrescriptionOrder) error {
	if order.PharmacistReview == nil || !order.PharmacistReview.Approved {
		return domain.ErrGuardFailed
	}
	if order.Cost == nil || *order.Cost <= 0 {
		return domain.ErrGuardFailed
	}
	return nil
}

func guardRejectionReason(_ context.Context, _ *stateMachine, order *entities.PrescriptionOrder) error {
	if order.PharmacistReview == nil || order.PharmacistReview.RejectionReason == "" {
		return domain.ErrGuardFailed
	}
	return nil
}

func guardPaymentSucceeded(ctx context.Context, sm *stateMachine, order *entities.PrescriptionOrder) error {
	_, err := sm.orderRepository.GetSucceededPaymentAttempt(ctx, order.ID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrGuardFailed
		}
		return err
	}
	return nil
}

// transitions is the full edge table. Rejection is reachable from the
// pre-payment states only; delivered and rejected are terminal.
var transitions = map[domain.OrderStatus]map[domain.OrderStatus]transitionRule{
	domain.StatusPendingVerification: {
		domain.StatusAwaitingVerification: {
			actors: []string{domain.ActorSystem},
			guard:  guardOcrCompleted,
		},
		domain.StatusRejected: {
			actors: []string{domain.ActorPharmacist},
		},
	},
	domain.StatusAwaitingVerification: {
		domain.StatusAwaitingPayment: {
			actors: []string{domain.ActorPharmacist},
			guard:  guardApprovedWithCost,
		},
		domain.StatusRejected: {
			actors: []string{domain.ActorPharmacist},
			guard:  guardRejectionReason,
		},
	},
	domain.StatusAwaitingPayment: {
		domain.StatusPreparing: {
			actors: []string{domain.ActorPharmacist, domain.ActorSystem},
			guard:  guardPaymentSucceeded,
		},
		domain.StatusRejected: {
			actors: []string{domain.ActorPharmacist},
		},
	},
	domain.StatusPreparing: {
		domain.StatusOutForDelivery: {
			actors: []string{domain.ActorPharmacist},
		},
	},
	domain.StatusOutForDelivery: {
		domain.StatusDelivered: {
			actors: []string{domain.ActorPharmacist, domain.ActorSystem},
		},
	},
}

func NewStateMachine(orderRepository OrderRepository, notifier Notifier) StateMachine {
	return &stateMachine{
		orderRepository: orderRepository,
		notifier:        notifier,
	}
}

func (sm *stateMachine) Transition(ctx context.Context, order *entities.PrescriptionOrder, target domain.OrderStatus, actor string) error {
	from := domain.OrderStatus(order.Status)

	if err := sm.check(ctx, order, from, target, actor); err != nil {
		sm.audit(ctx, order, from, target, actor, err)
		return err
	}

	order.Status = string(target)
	if err := sm.orderRepository.UpdateOrder(ctx, order); err != nil {
		order.Status = string(from)
		sm.audit(ctx, order, from, target, actor, err)
		return err
	}

	sm.audit(ctx, order, from, target, actor, nil)

	if sm.notifier != nil {
		sm.notifier.NotifyTransition(domain.TransitionEvent{
			OrderID:          order.ID.String(),
			PatientProfileID: order.PatientProfileID.String(),
			FromStatus:       from,
			ToStatus:         target,
			Actor:            actor,
			OccurredAt:       time.Now(),
		})
	}
	return nil
}

func (sm *stateMachine) check(ctx context.Context, order *entities.PrescriptionOrder, from, target domain.OrderStatus, actor string) error {
	if terminalStatuses[from] {
		return domain.ErrTerminalState
	}

	edges, ok := transitions[from]
	if !ok {
		return domain.ErrInvalidTransition
	}
	rule, ok := edges[target]
	if !ok {
		return domain.ErrInvalidTransition
	}

	allowed := false
	for _, a := range rule.actors {
		if a == actor {
			allowed = true
			break
		}
	}
	if !allowed {
		return domain.ErrUserNotAllowed
	}

	if rule.guard != nil {
		return rule.guard(ctx, sm, order)
	}
	return nil
}

func (sm *stateMachine) audit(ctx context.Context, order *entities.PrescriptionOrder, from, target domain.OrderStatus, actor string, cause error) {
	entry := &entities.OrderAuditEntry{
		ID:         uuid.New(),
		OrderID:    order.ID,
		FromStatus: string(from),
		ToStatus:   string(target),
		Actor:      actor,
		Succeeded:  cause == nil,
	}
	if cause != nil {
		entry.Reason = cause.Error()
	}
	// Rejected attempts are audited too; compliance needs the full trail.
	_ = sm.orderRepository.AppendAuditEntry(ctx, entry)
}

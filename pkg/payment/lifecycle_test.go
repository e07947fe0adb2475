package payment

import (
	"context"
	"testing"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"
	"github.com/akgtechceo/pharmarx-sub003/pkg/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Walks an order from creation to delivery: extraction completes, the patient
// verifies, the pharmacist approves with a cost, the patient pays once, and
// fulfilment runs to the end. One succeeded attempt, five audit entries.
func TestOrderLifecycleEndToEnd(t *testing.T) {
	repo := newFakeOrderRepository()
	sm := order.NewStateMachine(repo, nil)
	gateway := &stubGateway{
		name:   domain.GatewayStripe,
		result: &GatewayResult{TransactionID: "txn_e2e", Status: domain.PaymentStatusSucceeded},
	}
	service := NewPaymentService(repo, gateway)
	ctx := context.Background()

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusPendingVerification),
		OriginalImageURL: "https://cdn.example.com/rx.jpg",
		OcrStatus:        domain.OcrStatusPending,
		Version:          1,
	}
	require.NoError(t, repo.CreateOrder(ctx, ord))

	// Extraction lands and the order reaches the patient.
	ord.OcrStatus = domain.OcrStatusCompleted
	text := "Amoxicillin 500mg x30"
	ord.ExtractedText = &text
	require.NoError(t, sm.Transition(ctx, ord, domain.StatusAwaitingVerification, domain.ActorSystem))

	// Patient confirms, pharmacist approves with a cost.
	ord.UserVerified = true
	cost := 45.50
	ord.PharmacistReview = &entities.PharmacistReview{
		ReviewedBy:     uuid.New(),
		Approved:       true,
		CalculatedCost: &cost,
	}
	ord.Cost = &cost
	require.NoError(t, sm.Transition(ctx, ord, domain.StatusAwaitingPayment, domain.ActorPharmacist))

	// Exactly one charge settles; the repeat returns the same attempt.
	attempt, err := service.Charge(ctx, ord.ID.String(), chargeRequest(45.50))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusSucceeded, attempt.Status)

	repeat, err := service.Charge(ctx, ord.ID.String(), chargeRequest(45.50))
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	assert.Equal(t, attempt.PaymentID, repeat.PaymentID)
	require.Len(t, repo.attempts, 1)

	// Fulfilment: payment guard passes, delivery completes.
	require.NoError(t, sm.Transition(ctx, ord, domain.StatusPreparing, domain.ActorSystem))
	require.NoError(t, sm.Transition(ctx, ord, domain.StatusOutForDelivery, domain.ActorPharmacist))
	require.NoError(t, sm.Transition(ctx, ord, domain.StatusDelivered, domain.ActorSystem))
	assert.Equal(t, string(domain.StatusDelivered), ord.Status)

	trail, err := repo.GetAuditTrail(ctx, ord.ID.String())
	require.NoError(t, err)
	require.Len(t, trail, 5)
	for _, entry := range trail {
		assert.True(t, entry.Succeeded)
	}

	// Terminal: nothing moves a delivered order.
	err = sm.Transition(ctx, ord, domain.StatusPreparing, domain.ActorPharmacist)
	assert.ErrorIs(t, err, domain.ErrTerminalState)
}

// racingOrderRepository mimics losing the insert race: the read-side check
// sees no succeeded attempt, but the transactional insert finds one.
type racingOrderRepository struct {
	*fakeOrderRepository
	winner *entities.PaymentAttempt
}

func (r *racingOrderRepository) GetSucceededPaymentAttempt(_ context.Context, _ string) (*entities.PaymentAttempt, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *racingOrderRepository) RecordPaymentAttempt(_ context.Context, _ *entities.PaymentAttempt) (*entities.PaymentAttempt, error) {
	return r.winner, domain.ErrAlreadyPaid
}

func TestChargeConcurrentLoserGetsWinningAttempt(t *testing.T) {
	base := newFakeOrderRepository()
	cost := 45.50
	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusAwaitingPayment),
		Cost:             &cost,
	}
	require.NoError(t, base.CreateOrder(context.Background(), ord))

	winner := &entities.PaymentAttempt{
		ID:      uuid.New(),
		OrderID: ord.ID,
		Status:  domain.PaymentStatusSucceeded,
	}
	repo := &racingOrderRepository{fakeOrderRepository: base, winner: winner}
	gateway := &stubGateway{
		name:   domain.GatewayStripe,
		result: &GatewayResult{TransactionID: "txn_loser", Status: domain.PaymentStatusSucceeded},
	}
	service := NewPaymentService(repo, gateway)

	res, err := service.Charge(context.Background(), ord.ID.String(), chargeRequest(45.50))
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	assert.Equal(t, winner.ID.String(), res.PaymentID)
}

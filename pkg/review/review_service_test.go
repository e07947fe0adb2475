package review

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

type fakeOrderRepository struct {
	orders map[string]*entities.PrescriptionOrder
	audits []*entities.OrderAuditEntry
}

func newFakeOrderRepository() *fakeOrderRepository {
	return &fakeOrderRepository{orders: make(map[string]*entities.PrescriptionOrder)}
}

func (r *fakeOrderRepository) CreateOrder(_ context.Context, ord *entities.PrescriptionOrder) error {
	r.orders[ord.ID.String()] = ord
	return nil
}

func (r *fakeOrderRepository) GetOrderByID(_ context.Context, id string) (*entities.PrescriptionOrder, error) {
	ord, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ord, nil
}

func (r *fakeOrderRepository) UpdateOrder(_ context.Context, ord *entities.PrescriptionOrder) error {
	r.orders[ord.ID.String()] = ord
	return nil
}

func (r *fakeOrderRepository) GetOrdersByPatient(_ context.Context, _ string, _, _ int) ([]*entities.PrescriptionOrder, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepository) GetOrdersByStatus(_ context.Context, _ string, _, _ int) ([]*entities.PrescriptionOrder, int64, error) {
	return nil, 0, nil
}

func (r *fakeOrderRepository) AppendAuditEntry(_ context.Context, entry *entities.OrderAuditEntry) error {
	r.audits = append(r.audits, entry)
	return nil
}

func (r *fakeOrderRepository) GetAuditTrail(_ context.Context, _ string) ([]*entities.OrderAuditEntry, error) {
	return r.audits, nil
}

func (r *fakeOrderRepository) RecordPaymentAttempt(_ context.Context, attempt *entities.PaymentAttempt) (*entities.PaymentAttempt, error) {
	return attempt, nil
}

func (r *fakeOrderRepository) SettlePaymentAttempt(_ context.Context, attempt *entities.PaymentAttempt) (*entities.PaymentAttempt, error) {
	return attempt, nil
}

func (r *fakeOrderRepository) GetPaymentAttempts(_ context.Context, _ string) ([]*entities.PaymentAttempt, error) {
	return nil, nil
}

func (r *fakeOrderRepository) GetSucceededPaymentAttempt(_ context.Context, _ string) (*entities.PaymentAttempt, error) {
	return nil, gorm.ErrRecordNotFound
}

func setupReviewTest(t *testing.T) (*fakeOrderRepository, ReviewService, *entities.PrescriptionOrder, string) {
	t.Helper()

	repo := newFakeOrderRepository()
	sm := order.NewStateMachine(repo, nil)
	service := NewReviewService(repo, sm)

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusAwaitingVerification),
		OcrStatus:        domain.OcrStatusCompleted,
		UserVerified:     true,
		MedicationDetails: &entities.MedicationDetails{
			Name:     "Amoxicillin",
			Dosage:   "500mg",
			Quantity: 30,
		},
	}
	require.NoError(t, repo.CreateOrder(context.Background(), ord))

	return repo, service, ord, uuid.NewString()
}

func TestApproveSetsCostAndAdvances(t *testing.T) {
	repo, service, ord, pharmacistID := setupReviewTest(t)

	res, err := service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{
		CalculatedCost: 45.50,
		Notes:          "generic substitution fine",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusAwaitingPayment), res.Status)
	require.NotNil(t, res.Cost)
	assert.Equal(t, 45.50, *res.Cost)
	require.NotNil(t, res.PharmacistReview)
	assert.True(t, res.PharmacistReview.Approved)
	assert.Equal(t, pharmacistID, res.PharmacistReview.ReviewedBy)
	assert.Equal(t, "generic substitution fine", res.PharmacistReview.PharmacistNotes)

	require.Len(t, repo.audits, 1)
	assert.True(t, repo.audits[0].Succeeded)
}

func TestApproveWithEditedDetails(t *testing.T) {
	repo, service, ord, pharmacistID := setupReviewTest(t)

	res, err := service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{
		CalculatedCost: 30,
		EditedDetails: &domain.MedicationDetailsPayload{
			Name:     "Amoxicillin Trihydrate",
			Dosage:   "250mg",
			Quantity: 60,
		},
	})
	require.NoError(t, err)

	require.NotNil(t, res.MedicationDetails)
	assert.Equal(t, "Amoxicillin Trihydrate", res.MedicationDetails.Name)
	assert.Equal(t, "250mg", res.MedicationDetails.Dosage)
	assert.Equal(t, 60, res.MedicationDetails.Quantity)

	stored := repo.orders[ord.ID.String()]
	require.NotNil(t, stored.PharmacistReview.EditedDetails)
	assert.Equal(t, "Amoxicillin Trihydrate", stored.PharmacistReview.EditedDetails.Name)
}

func TestApproveRejectsNonPositiveCost(t *testing.T) {
	_, service, ord, pharmacistID := setupReviewTest(t)

	_, err := service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{CalculatedCost: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidCost)

	_, err = service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{CalculatedCost: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidCost)
}

func TestApproveOncePerOrder(t *testing.T) {
	_, service, ord, pharmacistID := setupReviewTest(t)

	_, err := service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{CalculatedCost: 45.50})
	require.NoError(t, err)

	_, err = service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{CalculatedCost: 50})
	assert.ErrorIs(t, err, domain.ErrOrderAlreadyReviewed)
}

func TestRejectRequiresReason(t *testing.T) {
	_, service, ord, pharmacistID := setupReviewTest(t)

	_, err := service.Reject(context.Background(), ord.ID.String(), pharmacistID, domain.RejectOrderRequest{RejectionReason: "  "})
	assert.ErrorIs(t, err, domain.ErrMissingRejectionReason)
}

func TestRejectMovesOrderToRejected(t *testing.T) {
	repo, service, ord, pharmacistID := setupReviewTest(t)

	res, err := service.Reject(context.Background(), ord.ID.String(), pharmacistID, domain.RejectOrderRequest{
		RejectionReason: "dosage exceeds safe maximum",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusRejected), res.Status)
	require.NotNil(t, res.PharmacistReview)
	assert.False(t, res.PharmacistReview.Approved)
	assert.Equal(t, "dosage exceeds safe maximum", res.PharmacistReview.RejectionReason)

	// Rejected is terminal; no decision can follow.
	_, err = service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{CalculatedCost: 10})
	assert.ErrorIs(t, err, domain.ErrTerminalState)

	_, err = service.Edit(context.Background(), ord.ID.String(), pharmacistID, domain.EditOrderRequest{
		EditedDetails: domain.MedicationDetailsPayload{Name: "X", Dosage: "1mg", Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrTerminalState)

	require.Len(t, repo.audits, 1)
	assert.True(t, repo.audits[0].Succeeded)
	assert.Equal(t, string(domain.StatusRejected), repo.audits[0].ToStatus)
}

func TestEditUpdatesDetailsWithoutTransition(t *testing.T) {
	repo, service, ord, pharmacistID := setupReviewTest(t)

	res, err := service.Edit(context.Background(), ord.ID.String(), pharmacistID, domain.EditOrderRequest{
		EditedDetails: domain.MedicationDetailsPayload{Name: "Amoxicillin", Dosage: "250mg", Quantity: 45},
		Notes:         "corrected dosage from scan",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusAwaitingVerification), res.Status)
	require.NotNil(t, res.MedicationDetails)
	assert.Equal(t, "250mg", res.MedicationDetails.Dosage)
	assert.Equal(t, 45, res.MedicationDetails.Quantity)

	// No transition happened, so nothing was audited.
	assert.Empty(t, repo.audits)
	assert.Nil(t, repo.orders[ord.ID.String()].PharmacistReview)
}

func TestEditValidatesDetails(t *testing.T) {
	_, service, ord, pharmacistID := setupReviewTest(t)

	_, err := service.Edit(context.Background(), ord.ID.String(), pharmacistID, domain.EditOrderRequest{
		EditedDetails: domain.MedicationDetailsPayload{Name: "", Dosage: "1mg", Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMedicationDetails)

	_, err = service.Edit(context.Background(), ord.ID.String(), pharmacistID, domain.EditOrderRequest{
		EditedDetails: domain.MedicationDetailsPayload{Name: "X", Dosage: "1mg", Quantity: 0},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMedicationDetails)
}

func TestEditBlockedAfterDecision(t *testing.T) {
	_, service, ord, pharmacistID := setupReviewTest(t)

	_, err := service.Approve(context.Background(), ord.ID.String(), pharmacistID, domain.ApproveOrderRequest{CalculatedCost: 45.50})
	require.NoError(t, err)

	_, err = service.Edit(context.Background(), ord.ID.String(), pharmacistID, domain.EditOrderRequest{
		EditedDetails: domain.MedicationDetailsPayload{Name: "X", Dosage: "1mg", Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrOrderAlreadyReviewed)
}

func TestApproveUnknownOrder(t *testing.T) {
	_, service, _, pharmacistID := setupReviewTest(t)

	_, err := service.Approve(context.Background(), uuid.NewString(), pharmacistID, domain.ApproveOrderRequest{CalculatedCost: 10})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

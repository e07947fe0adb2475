package ocr

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

type fakeClient struct {
	jobID       string
	submitErr   error
	result      *ExtractionResult
	fetchErr    error
	submitCalls int
	fetchCalls  int
}

func (c *fakeClient) SubmitImage(_ context.Context, _ string) (string, error) {
	c.submitCalls++
	if c.submitErr != nil {
		return "", c.submitErr
	}
	return c.jobID, nil
}

func (c *fakeClient) FetchResult(_ context.Context, _ string) (*ExtractionResult, error) {
	c.fetchCalls++
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.result, nil
}

func setupOcrTest(t *testing.T) (*fakeOrderRepository, *fakeClient, OcrService, *entities.PrescriptionOrder) {
	t.Helper()

	repo := newFakeOrderRepository()
	client := &fakeClient{jobID: "job-1"}
	sm := order.NewStateMachine(repo, nil)
	service := NewOcrService(repo, sm, client)

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusPendingVerification),
		OriginalImageURL: "https://cdn.example.com/rx.jpg",
		OcrStatus:        domain.OcrStatusPending,
	}
	require.NoError(t, repo.CreateOrder(context.Background(), ord))

	return repo, client, service, ord
}

func TestSubmitRegistersJob(t *testing.T) {
	repo, client, service, ord := setupOcrTest(t)

	require.NoError(t, service.Submit(context.Background(), ord.ID.String()))

	stored := repo.orders[ord.ID.String()]
	assert.Equal(t, domain.OcrStatusProcessing, stored.OcrStatus)
	assert.Equal(t, "job-1", stored.OcrJobID)
	assert.Equal(t, 1, client.submitCalls)
}

func TestSubmitRejectsRepeat(t *testing.T) {
	_, _, service, ord := setupOcrTest(t)

	require.NoError(t, service.Submit(context.Background(), ord.ID.String()))
	assert.ErrorIs(t, service.Submit(context.Background(), ord.ID.String()), domain.ErrOcrAlreadySubmitted)
}

func TestPollStatusPersistsCompletion(t *testing.T) {
	repo, client, service, ord := setupOcrTest(t)
	require.NoError(t, service.Submit(context.Background(), ord.ID.String()))

	client.result = &ExtractionResult{
		Done:       true,
		Succeeded:  true,
		Text:       "Amoxicillin 500mg qty: 30",
		Confidence: 0.93,
	}

	res, err := service.PollStatus(context.Background(), ord.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.OcrStatusCompleted, res.Status)
	require.NotNil(t, res.ExtractedText)
	assert.Equal(t, "Amoxicillin 500mg qty: 30", *res.ExtractedText)

	stored := repo.orders[ord.ID.String()]
	require.NotNil(t, stored.MedicationDetails)
	assert.Equal(t, "Amoxicillin", stored.MedicationDetails.Name)
	assert.Equal(t, "500mg", stored.MedicationDetails.Dosage)
	assert.Equal(t, 30, stored.MedicationDetails.Quantity)
	require.NotNil(t, stored.OcrProcessedAt)

	// Completion moves the order to patient verification.
	assert.Equal(t, string(domain.StatusAwaitingVerification), stored.Status)
}

func TestPollStatusIsIdempotent(t *testing.T) {
	_, client, service, ord := setupOcrTest(t)
	require.NoError(t, service.Submit(context.Background(), ord.ID.String()))

	client.result = &ExtractionResult{Done: true, Succeeded: true, Text: "Ibuprofen 200mg", Confidence: 0.8}

	_, err := service.PollStatus(context.Background(), ord.ID.String())
	require.NoError(t, err)

	// Once terminal, later polls answer from storage without a fetch.
	_, err = service.PollStatus(context.Background(), ord.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, client.fetchCalls)
}

// conflictingOrderRepository fails a chosen UpdateOrder call with a version
// conflict, the way a concurrent writer would.
type conflictingOrderRepository struct {
	*fakeOrderRepository
	failCall    int
	updateCalls int
}

func (r *conflictingOrderRepository) UpdateOrder(ctx context.Context, ord *entities.PrescriptionOrder) error {
	r.updateCalls++
	if r.updateCalls == r.failCall {
		return domain.ErrConflict
	}
	return r.fakeOrderRepository.UpdateOrder(ctx, ord)
}

func TestPollStatusRetriesTransitionAfterConflict(t *testing.T) {
	base := newFakeOrderRepository()
	repo := &conflictingOrderRepository{fakeOrderRepository: base, failCall: 3}
	client := &fakeClient{jobID: "job-1"}
	sm := order.NewStateMachine(repo, nil)
	service := NewOcrService(repo, sm, client)
	ctx := context.Background()

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusPendingVerification),
		OriginalImageURL: "https://cdn.example.com/rx.jpg",
		OcrStatus:        domain.OcrStatusPending,
	}
	require.NoError(t, repo.CreateOrder(ctx, ord))
	require.NoError(t, service.Submit(ctx, ord.ID.String()))

	client.result = &ExtractionResult{Done: true, Succeeded: true, Text: "Amoxicillin 500mg", Confidence: 0.9}

	// The first poll persists the completed result but loses the follow-up
	// transition write to a concurrent writer.
	_, err := service.PollStatus(ctx, ord.ID.String())
	assert.ErrorIs(t, err, domain.ErrConflict)
	stored := base.orders[ord.ID.String()]
	assert.Equal(t, domain.OcrStatusCompleted, stored.OcrStatus)
	assert.Equal(t, string(domain.StatusPendingVerification), stored.Status)

	// Re-polling retries the move instead of answering from storage as-is.
	res, err := service.PollStatus(ctx, ord.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.OcrStatusCompleted, res.Status)
	assert.Equal(t, string(domain.StatusAwaitingVerification), base.orders[ord.ID.String()].Status)
	assert.Equal(t, 1, client.fetchCalls)
}

func TestPollStatusPersistsFailure(t *testing.T) {
	repo, client, service, ord := setupOcrTest(t)
	require.NoError(t, service.Submit(context.Background(), ord.ID.String()))

	client.result = &ExtractionResult{Done: true, Succeeded: false, Error: "image too blurry"}

	res, err := service.PollStatus(context.Background(), ord.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.OcrStatusFailed, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, "image too blurry", *res.Error)

	// A failed extraction leaves the order waiting for manual text.
	assert.Equal(t, string(domain.StatusPendingVerification), repo.orders[ord.ID.String()].Status)
}

func TestPollStatusWhileProcessing(t *testing.T) {
	_, client, service, ord := setupOcrTest(t)
	require.NoError(t, service.Submit(context.Background(), ord.ID.String()))

	client.result = &ExtractionResult{Done: false}

	res, err := service.PollStatus(context.Background(), ord.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.OcrStatusProcessing, res.Status)
}

func TestEnterManualTextFallback(t *testing.T) {
	repo, _, service, ord := setupOcrTest(t)
	ord.OcrStatus = domain.OcrStatusFailed

	res, err := service.EnterManualText(context.Background(), ord.ID.String(), "  Paracetamol 1g x 10  ")
	require.NoError(t, err)
	assert.Equal(t, domain.OcrStatusCompleted, res.OcrStatus)

	stored := repo.orders[ord.ID.String()]
	require.NotNil(t, stored.ExtractedText)
	assert.Equal(t, "Paracetamol 1g x 10", *stored.ExtractedText)
	require.NotNil(t, stored.MedicationDetails)
	assert.Equal(t, "Paracetamol", stored.MedicationDetails.Name)
	assert.Equal(t, "1g", stored.MedicationDetails.Dosage)
	assert.Equal(t, 10, stored.MedicationDetails.Quantity)
	assert.Equal(t, string(domain.StatusAwaitingVerification), stored.Status)
}

func TestEnterManualTextRejectsEmpty(t *testing.T) {
	_, _, service, ord := setupOcrTest(t)

	_, err := service.EnterManualText(context.Background(), ord.ID.String(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyManualText)
}

func TestEnterManualTextBlockedAfterReview(t *testing.T) {
	_, _, service, ord := setupOcrTest(t)
	ord.Status = string(domain.StatusAwaitingVerification)
	ord.PharmacistReview = &entities.PharmacistReview{ReviewedBy: uuid.New(), Approved: true}

	_, err := service.EnterManualText(context.Background(), ord.ID.String(), "Aspirin 100mg")
	assert.ErrorIs(t, err, domain.ErrManualTextNotAllowed)
}

func TestEnterManualTextBlockedAfterPayment(t *testing.T) {
	_, _, service, ord := setupOcrTest(t)
	ord.Status = string(domain.StatusAwaitingPayment)

	_, err := service.EnterManualText(context.Background(), ord.ID.String(), "Aspirin 100mg")
	assert.ErrorIs(t, err, domain.ErrManualTextNotAllowed)
}

func TestParseMedicationDetails(t *testing.T) {
	cases := []struct {
		name string
		text string
		want *entities.MedicationDetails
	}{
		{
			name: "name dosage and quantity",
			text: "Amoxicillin 500mg x30",
			want: &entities.MedicationDetails{Name: "Amoxicillin", Dosage: "500mg", Quantity: 30},
		},
		{
			name: "rx prefix and qty keyword",
			text: "Rx: Metformin 850 mg qty: 60",
			want: &entities.MedicationDetails{Name: "Metformin", Dosage: "850 mg", Quantity: 60},
		},
		{
			name: "dosage digits are not a quantity",
			text: "Paracetamol 10mg",
			want: &entities.MedicationDetails{Name: "Paracetamol", Dosage: "10mg", Quantity: 1},
		},
		{
			name: "only first line is parsed for the name",
			text: "Ibuprofen 200ml\ntake twice daily",
			want: &entities.MedicationDetails{Name: "Ibuprofen", Dosage: "200ml", Quantity: 1},
		},
		{
			name: "name only",
			text: "Vitamin C",
			want: &entities.MedicationDetails{Name: "Vitamin C", Quantity: 1},
		},
		{
			name: "empty text",
			text: "   ",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseMedicationDetails(tc.text)
			assert.Equal(t, tc.want, got)
		})
	}
}

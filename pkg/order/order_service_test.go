package order

import (
	"context"
	"testing"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOcrSubmitter struct {
	calls []string
	err   error
}

func (s *stubOcrSubmitter) Submit(_ context.Context, orderID string) error {
	s.calls = append(s.calls, orderID)
	return s.err
}

type stubLinkSender struct {
	calls int
	phone string
	kind  string
}

func (s *stubLinkSender) SendPaymentLink(_ context.Context, _ *entities.PrescriptionOrder, recipientPhone string, messageType string) error {
	s.calls++
	s.phone = recipientPhone
	s.kind = messageType
	return nil
}

func setupOrderServiceTest(t *testing.T) (*memoryOrderRepository, *stubOcrSubmitter, *stubLinkSender, OrderService) {
	t.Helper()

	repo := newMemoryOrderRepository()
	submitter := &stubOcrSubmitter{}
	sender := &stubLinkSender{}
	sm := NewStateMachine(repo, nil)
	service := NewOrderService(repo, sm, submitter, sender, nil)

	return repo, submitter, sender, service
}

func TestCreateOrderSubmitsExtraction(t *testing.T) {
	repo, submitter, _, service := setupOrderServiceTest(t)
	patientID := uuid.NewString()

	res, err := service.CreateOrder(context.Background(), domain.CreateOrderRequest{
		OriginalImageURL: "https://cdn.example.com/rx.jpg",
	}, patientID)
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusPendingVerification), res.Status)
	assert.Equal(t, patientID, res.PatientProfileID)
	assert.Equal(t, domain.OcrStatusPending, res.OcrStatus)

	require.Len(t, submitter.calls, 1)
	assert.Equal(t, res.ID, submitter.calls[0])
	assert.Len(t, repo.orders, 1)
}

func TestCreateOrderSurvivesSubmitFailure(t *testing.T) {
	_, submitter, _, service := setupOrderServiceTest(t)
	submitter.err = domain.ErrExternalService

	res, err := service.CreateOrder(context.Background(), domain.CreateOrderRequest{
		OriginalImageURL: "https://cdn.example.com/rx.jpg",
	}, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPendingVerification), res.Status)
}

func TestCreateOrderRequiresImage(t *testing.T) {
	_, _, _, service := setupOrderServiceTest(t)

	_, err := service.CreateOrder(context.Background(), domain.CreateOrderRequest{}, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrMissingImageURL)
}

func TestCreateDoctorPrescriptionSkipsExtraction(t *testing.T) {
	repo, submitter, _, service := setupOrderServiceTest(t)

	res, err := service.CreateDoctorPrescription(context.Background(), domain.DoctorPrescriptionRequest{
		PatientProfileID: uuid.NewString(),
		MedicationDetails: domain.MedicationDetailsPayload{
			Name:     "Lisinopril",
			Dosage:   "10mg",
			Quantity: 28,
		},
		Instructions: "take with food",
	}, uuid.NewString())
	require.NoError(t, err)

	// The prescription is trusted as entered: no upload, no extraction job,
	// straight to pharmacist review.
	assert.Equal(t, string(domain.StatusAwaitingVerification), res.Status)
	assert.Equal(t, domain.OcrStatusCompleted, res.OcrStatus)
	assert.True(t, res.UserVerified)
	assert.Empty(t, submitter.calls)

	trail, err := repo.GetAuditTrail(context.Background(), res.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.True(t, trail[0].Succeeded)
}

func TestGetOrderOwnership(t *testing.T) {
	_, _, _, service := setupOrderServiceTest(t)
	patientID := uuid.NewString()

	created, err := service.CreateOrder(context.Background(), domain.CreateOrderRequest{
		OriginalImageURL: "https://cdn.example.com/rx.jpg",
	}, patientID)
	require.NoError(t, err)

	_, err = service.GetOrder(context.Background(), created.ID, patientID, domain.RolePatient)
	assert.NoError(t, err)

	_, err = service.GetOrder(context.Background(), created.ID, uuid.NewString(), domain.RolePatient)
	assert.ErrorIs(t, err, domain.ErrUnauthorizedOrderAccess)

	// Pharmacists see every order.
	_, err = service.GetOrder(context.Background(), created.ID, uuid.NewString(), domain.RolePharmacist)
	assert.NoError(t, err)
}

func TestVerifyOrder(t *testing.T) {
	repo, _, _, service := setupOrderServiceTest(t)
	patientID := uuid.New()

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: patientID,
		Status:           string(domain.StatusAwaitingVerification),
		OcrStatus:        domain.OcrStatusCompleted,
	}
	require.NoError(t, repo.CreateOrder(context.Background(), ord))

	res, err := service.VerifyOrder(context.Background(), ord.ID.String(), patientID.String(), "looks right")
	require.NoError(t, err)
	assert.True(t, res.UserVerified)
	assert.Equal(t, "looks right", res.UserVerificationNotes)

	// Only the owning patient can verify.
	_, err = service.VerifyOrder(context.Background(), ord.ID.String(), uuid.NewString(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorizedOrderAccess)
}

func TestVerifyOrderWrongStatus(t *testing.T) {
	repo, _, _, service := setupOrderServiceTest(t)
	patientID := uuid.New()

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: patientID,
		Status:           string(domain.StatusAwaitingPayment),
	}
	require.NoError(t, repo.CreateOrder(context.Background(), ord))

	_, err := service.VerifyOrder(context.Background(), ord.ID.String(), patientID.String(), "")
	assert.ErrorIs(t, err, domain.ErrOrderNotVerifiable)
}

func TestRequestPaymentLink(t *testing.T) {
	repo, _, sender, service := setupOrderServiceTest(t)
	cost := 45.50

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusAwaitingPayment),
		Cost:             &cost,
	}
	require.NoError(t, repo.CreateOrder(context.Background(), ord))

	err := service.RequestPaymentLink(context.Background(), ord.ID.String(), domain.RequestPaymentLinkRequest{
		RecipientPhone: "670000000",
		MessageType:    domain.MessageTypeSMS,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "670000000", sender.phone)
	assert.Equal(t, domain.MessageTypeSMS, sender.kind)
}

func TestRequestPaymentLinkRequiresPayableOrder(t *testing.T) {
	repo, _, sender, service := setupOrderServiceTest(t)

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusAwaitingVerification),
	}
	require.NoError(t, repo.CreateOrder(context.Background(), ord))

	err := service.RequestPaymentLink(context.Background(), ord.ID.String(), domain.RequestPaymentLinkRequest{
		RecipientPhone: "670000000",
		MessageType:    domain.MessageTypeSMS,
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotPayable)
	assert.Equal(t, 0, sender.calls)
}

func TestUpdateStatusDelegatesToStateMachine(t *testing.T) {
	repo, _, _, service := setupOrderServiceTest(t)

	ord := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: uuid.New(),
		Status:           string(domain.StatusPreparing),
	}
	require.NoError(t, repo.CreateOrder(context.Background(), ord))

	res, err := service.UpdateStatus(context.Background(), ord.ID.String(), domain.StatusOutForDelivery, domain.ActorPharmacist)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusOutForDelivery), res.Status)

	_, err = service.UpdateStatus(context.Background(), ord.ID.String(), domain.StatusAwaitingPayment, domain.ActorPharmacist)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

package order

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// OcrSubmitter registers the asynchronous extraction job for a freshly
	// created order. Satisfied by the ocr service; declared here to keep the
	// dependency pointing inward.
	OcrSubmitter interface {
		Submit(ctx context.Context, orderID string) error
	}

	// PaymentLinkSender delegates payment-link delivery to the messaging
	// collaborator (sms, whatsapp or email).
	PaymentLinkSender interface {
		SendPaymentLink(ctx context.Context, order *entities.PrescriptionOrder, recipientPhone string, messageType string) error
	}

	OrderService interface {
		CreateOrder(ctx context.Context, req domain.CreateOrderRequest, callerID string) (*domain.OrderResponse, error)
		CreateOrderFromUpload(ctx context.Context, image *multipart.FileHeader, callerID string) (*domain.OrderResponse, error)
		CreateDoctorPrescription(ctx context.Context, req domain.DoctorPrescriptionRequest, doctorID string) (*domain.OrderResponse, error)
		GetOrder(ctx context.Context, orderID string, callerID string, role string) (*domain.OrderResponse, error)
		GetOrdersByPatient(ctx context.Context, patientID string, page, limit int) ([]*domain.OrderResponse, int64, error)
		GetOrdersByStatus(ctx context.Context, status string, page, limit int) ([]*domain.OrderResponse, int64, error)
		VerifyOrder(ctx context.Context, orderID string, patientID string, notes string) (*domain.OrderResponse, error)
		UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus, actor string) (*domain.OrderResponse, error)
		RequestPaymentLink(ctx context.Context, orderID string, req domain.RequestPaymentLinkRequest) error
		GetAuditTrail(ctx context.Context, orderID string) ([]*domain.AuditEntryResponse, error)
	}

	orderService struct {
		orderRepository OrderRepository
		stateMachine    StateMachine
		ocrSubmitter    OcrSubmitter
		linkSender      PaymentLinkSender
		s3              storage.AwsS3
	}
)

func NewOrderService(
	orderRepository OrderRepository,
	stateMachine StateMachine,
	ocrSubmitter OcrSubmitter,
	linkSender PaymentLinkSender,
	s3 storage.AwsS3,
) OrderService {
	return &orderService{
		orderRepository: orderRepository,
		stateMachine:    stateMachine,
		ocrSubmitter:    ocrSubmitter,
		linkSender:      linkSender,
		s3:              s3,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest, callerID string) (*domain.OrderResponse, error) {
	if req.OriginalImageURL == "" {
		return nil, domain.ErrMissingImageURL
	}

	patientID := req.PatientProfileID
	if patientID == "" {
		patientID = callerID
	}
	patientUUID, err := uuid.Parse(patientID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	order := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: patientUUID,
		Status:           string(domain.StatusPendingVerification),
		OriginalImageURL: req.OriginalImageURL,
		OcrStatus:        domain.OcrStatusPending,
	}

	if err := s.orderRepository.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	// Extraction is registered best-effort; a failed submit leaves the order
	// at ocr pending and the client retries or falls back to manual text.
	if s.ocrSubmitter != nil {
		_ = s.ocrSubmitter.Submit(ctx, order.ID.String())
	}

	fresh, err := s.orderRepository.GetOrderByID(ctx, order.ID.String())
	if err != nil {
		return ToOrderResponse(order), nil
	}
	return ToOrderResponse(fresh), nil
}

func (s *orderService) CreateOrderFromUpload(ctx context.Context, image *multipart.FileHeader, callerID string) (*domain.OrderResponse, error) {
	if image == nil {
		return nil, domain.ErrMissingImageURL
	}

	orderID := uuid.New()
	fileName := fmt.Sprintf("prescription-%s", orderID.String())
	objectKey, err := s.s3.UploadFile(fileName, image, "prescriptions", storage.AllowImage...)
	if err != nil {
		return nil, err
	}

	imageURL := s.s3.GetPublicLinkKey(objectKey)
	patientUUID, err := uuid.Parse(callerID)
	if err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return nil, domain.ErrParseUUID
	}

	order := &entities.PrescriptionOrder{
		ID:               orderID,
		PatientProfileID: patientUUID,
		Status:           string(domain.StatusPendingVerification),
		OriginalImageURL: imageURL,
		OcrStatus:        domain.OcrStatusPending,
	}

	if err := s.orderRepository.CreateOrder(ctx, order); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return nil, err
	}

	if s.ocrSubmitter != nil {
		_ = s.ocrSubmitter.Submit(ctx, order.ID.String())
	}

	fresh, err := s.orderRepository.GetOrderByID(ctx, order.ID.String())
	if err != nil {
		return ToOrderResponse(order), nil
	}
	return ToOrderResponse(fresh), nil
}

// CreateDoctorPrescription enters the flow with verified medication details,
// bypassing upload and extraction entirely.
func (s *orderService) CreateDoctorPrescription(ctx context.Context, req domain.DoctorPrescriptionRequest, doctorID string) (*domain.OrderResponse, error) {
	patientUUID, err := uuid.Parse(req.PatientProfileID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	text := fmt.Sprintf("%s %s x%d", req.MedicationDetails.Name, req.MedicationDetails.Dosage, req.MedicationDetails.Quantity)
	if req.Instructions != "" {
		text += "\n" + req.Instructions
	}

	order := &entities.PrescriptionOrder{
		ID:               uuid.New(),
		PatientProfileID: patientUUID,
		Status:           string(domain.StatusPendingVerification),
		OcrStatus:        domain.OcrStatusCompleted,
		ExtractedText:    &text,
		MedicationDetails: &entities.MedicationDetails{
			Name:     req.MedicationDetails.Name,
			Dosage:   req.MedicationDetails.Dosage,
			Quantity: req.MedicationDetails.Quantity,
		},
		UserVerified:          true,
		UserVerificationNotes: fmt.Sprintf("submitted by doctor %s", doctorID),
	}

	if err := s.orderRepository.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := s.stateMachine.Transition(ctx, order, domain.StatusAwaitingVerification, domain.ActorSystem); err != nil {
		return nil, err
	}

	return ToOrderResponse(order), nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string, callerID string, role string) (*domain.OrderResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if role == domain.RolePatient && order.PatientProfileID.String() != callerID {
		return nil, domain.ErrUnauthorizedOrderAccess
	}

	return ToOrderResponse(order), nil
}

func (s *orderService) GetOrdersByPatient(ctx context.Context, patientID string, page, limit int) ([]*domain.OrderResponse, int64, error) {
	orders, count, err := s.orderRepository.GetOrdersByPatient(ctx, patientID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, ToOrderResponse(o))
	}
	return result, count, nil
}

// GetOrdersByStatus backs the pharmacist work queue.
func (s *orderService) GetOrdersByStatus(ctx context.Context, status string, page, limit int) ([]*domain.OrderResponse, int64, error) {
	orders, count, err := s.orderRepository.GetOrdersByStatus(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, ToOrderResponse(o))
	}
	return result, count, nil
}

func (s *orderService) VerifyOrder(ctx context.Context, orderID string, patientID string, notes string) (*domain.OrderResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PatientProfileID.String() != patientID {
		return nil, domain.ErrUnauthorizedOrderAccess
	}
	if order.Status != string(domain.StatusAwaitingVerification) {
		return nil, domain.ErrOrderNotVerifiable
	}

	order.UserVerified = true
	order.UserVerificationNotes = notes
	if err := s.orderRepository.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}

	return ToOrderResponse(order), nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus, actor string) (*domain.OrderResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.stateMachine.Transition(ctx, order, target, actor); err != nil {
		return nil, err
	}

	return ToOrderResponse(order), nil
}

func (s *orderService) RequestPaymentLink(ctx context.Context, orderID string, req domain.RequestPaymentLinkRequest) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if order.Status != string(domain.StatusAwaitingPayment) {
		return domain.ErrOrderNotPayable
	}
	if order.Cost == nil {
		return domain.ErrMissingCost
	}

	return s.linkSender.SendPaymentLink(ctx, order, req.RecipientPhone, req.MessageType)
}

func (s *orderService) GetAuditTrail(ctx context.Context, orderID string) ([]*domain.AuditEntryResponse, error) {
	if _, err := s.getOrder(ctx, orderID); err != nil {
		return nil, err
	}

	entries, err := s.orderRepository.GetAuditTrail(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, &domain.AuditEntryResponse{
			OrderID:    e.OrderID.String(),
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			Actor:      e.Actor,
			Succeeded:  e.Succeeded,
			Reason:     e.Reason,
			CreatedAt:  e.CreatedAt,
		})
	}
	return result, nil
}

func (s *orderService) getOrder(ctx context.Context, orderID string) (*entities.PrescriptionOrder, error) {
	order, err := s.orderRepository.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func ToOrderResponse(order *entities.PrescriptionOrder) *domain.OrderResponse {
	resp := &domain.OrderResponse{
		ID:                    order.ID.String(),
		PatientProfileID:      order.PatientProfileID.String(),
		Status:                order.Status,
		OriginalImageURL:      order.OriginalImageURL,
		OcrStatus:             order.OcrStatus,
		OcrConfidence:         order.OcrConfidence,
		ExtractedText:         order.ExtractedText,
		OcrError:              order.OcrError,
		UserVerified:          order.UserVerified,
		UserVerificationNotes: order.UserVerificationNotes,
		Cost:                  order.Cost,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}

	if order.MedicationDetails != nil {
		resp.MedicationDetails = &domain.MedicationDetailsPayload{
			Name:     order.MedicationDetails.Name,
			Dosage:   order.MedicationDetails.Dosage,
			Quantity: order.MedicationDetails.Quantity,
		}
	}

	if order.PharmacistReview != nil {
		review := &domain.PharmacistReviewResponse{
			ReviewedBy:      order.PharmacistReview.ReviewedBy.String(),
			ReviewedAt:      order.PharmacistReview.ReviewedAt,
			Approved:        order.PharmacistReview.Approved,
			RejectionReason: order.PharmacistReview.RejectionReason,
			PharmacistNotes: order.PharmacistReview.PharmacistNotes,
			CalculatedCost:  order.PharmacistReview.CalculatedCost,
		}
		if order.PharmacistReview.EditedDetails != nil {
			review.EditedDetails = &domain.MedicationDetailsPayload{
				Name:     order.PharmacistReview.EditedDetails.Name,
				Dosage:   order.PharmacistReview.EditedDetails.Dosage,
				Quantity: order.PharmacistReview.EditedDetails.Quantity,
			}
		}
		resp.PharmacistReview = review
	}

	return resp
}

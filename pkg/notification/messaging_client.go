package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils/mailing"
	"github.com/akgtechceo/pharmarx-sub003/pkg/user"
)

type (
	// MessagingService delivers a payment link to the patient through the
	// messaging collaborator (sms, whatsapp) or straight over smtp.
	MessagingService interface {
		SendPaymentLink(ctx context.Context, order *entities.PrescriptionOrder, recipientPhone string, messageType string) error
	}

	messagingService struct {
		userRepository user.UserRepository
		client         *http.Client
	}
)

func NewMessagingService(userRepository user.UserRepository) MessagingService {
	return &messagingService{
		userRepository: userRepository,
		client:         &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *messagingService) SendPaymentLink(ctx context.Context, order *entities.PrescriptionOrder, recipientPhone string, messageType string) error {
	link := fmt.Sprintf("%s/orders/%s/pay", utils.GetConfig("APP_URL"), order.ID.String())
	text := fmt.Sprintf("Your prescription order is approved. Amount due: %.2f. Pay here: %s", *order.Cost, link)

	switch messageType {
	case domain.MessageTypeSMS, domain.MessageTypeWhatsapp:
		return s.postMessage(ctx, messageType, recipientPhone, text)
	case domain.MessageTypeEmail:
		patient, err := s.userRepository.GetUserByID(ctx, order.PatientProfileID.String())
		if err != nil {
			return err
		}
		body := fmt.Sprintf(
			"<p>Hello %s,</p><p>Your prescription order is approved. Amount due: <b>%.2f</b>.</p><p><a href=%q>Pay now</a></p>",
			patient.Name, *order.Cost, link,
		)
		return mailing.SendMail(patient.Email, "Payment link for your prescription", body)
	default:
		return domain.ErrInvalidMessageType
	}
}

func (s *messagingService) postMessage(ctx context.Context, channel string, recipient string, text string) error {
	payload := map[string]string{
		"channel":   channel,
		"recipient": recipient,
		"message":   text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, utils.GetConfig("MESSAGING_API_URL")+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+utils.GetConfig("MESSAGING_API_KEY"))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: messaging api returned %s", domain.ErrExternalService, resp.Status)
	}
	return nil
}

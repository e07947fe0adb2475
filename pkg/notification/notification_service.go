package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils/mailing"
	"github.com/akgtechceo/pharmarx-sub003/pkg/user"
)

const eventBufferSize = 64

// statusSubjects maps the reached status to the mail subject line. Statuses
// without an entry are internal moves the patient does not need to hear about.
var statusSubjects = map[domain.OrderStatus]string{
	domain.StatusAwaitingVerification: "Your prescription is ready for review",
	domain.StatusAwaitingPayment:      "Your prescription has been approved",
	domain.StatusOutForDelivery:       "Your order is out for delivery",
	domain.StatusDelivered:            "Your order has been delivered",
	domain.StatusRejected:             "Your prescription could not be processed",
}

type (
	// NotificationService consumes transition events off a buffered channel
	// and mails the patient. Emitters never block: when the buffer is full
	// the event is dropped and logged.
	NotificationService interface {
		NotifyTransition(event domain.TransitionEvent)
		Close()
	}

	notificationService struct {
		userRepository user.UserRepository
		events         chan domain.TransitionEvent
		done           chan struct{}
	}
)

func NewNotificationService(userRepository user.UserRepository) NotificationService {
	s := &notificationService{
		userRepository: userRepository,
		events:         make(chan domain.TransitionEvent, eventBufferSize),
		done:           make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *notificationService) NotifyTransition(event domain.TransitionEvent) {
	select {
	case s.events <- event:
	default:
		log.Printf("notification buffer full, dropping event for order %s", event.OrderID)
	}
}

func (s *notificationService) Close() {
	close(s.events)
	<-s.done
}

func (s *notificationService) run() {
	defer close(s.done)
	for event := range s.events {
		if err := s.deliver(event); err != nil {
			log.Printf("failed to notify order %s: %v", event.OrderID, err)
		}
	}
}

func (s *notificationService) deliver(event domain.TransitionEvent) error {
	subject, ok := statusSubjects[event.ToStatus]
	if !ok {
		return nil
	}

	patient, err := s.userRepository.GetUserByID(context.Background(), event.PatientProfileID)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your prescription order <b>%s</b> moved from <b>%s</b> to <b>%s</b>.</p>",
		patient.Name, event.OrderID, event.FromStatus, event.ToStatus,
	)
	return mailing.SendMail(patient.Email, subject, body)
}

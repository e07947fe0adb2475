package handlers

import (
	"errors"

	"github.com/akgtechceo/pharmarx-sub003/domain"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service errors onto HTTP status codes. Anything unmapped is
// a plain bad request.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoPendingAttempt):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorizedOrderAccess), errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrGuardFailed),
		errors.Is(err, domain.ErrTerminalState),
		errors.Is(err, domain.ErrOrderAlreadyReviewed),
		errors.Is(err, domain.ErrOcrAlreadySubmitted):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrExternalService):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusBadRequest
	}
}

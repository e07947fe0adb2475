package handlers

import (
	"errors"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/internal/api/presenters"
	"github.com/akgtechceo/pharmarx-sub003/pkg/order"
	"github.com/akgtechceo/pharmarx-sub003/pkg/payment"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	PaymentHandler interface {
		Charge(c *fiber.Ctx) error
		ConfirmPayment(c *fiber.Ctx) error
		GetPaymentAttempts(c *fiber.Ctx) error
	}

	paymentHandler struct {
		paymentService payment.PaymentService
		orderService   order.OrderService
		validator      *validator.Validate
	}
)

func NewPaymentHandler(paymentService payment.PaymentService, orderService order.OrderService, validator *validator.Validate) PaymentHandler {
	return &paymentHandler{
		paymentService: paymentService,
		orderService:   orderService,
		validator:      validator,
	}
}

func (h *paymentHandler) Charge(c *fiber.Ctx) error {
	orderID := c.Params("id")
	req := new(domain.ChargeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCharge, err)
	}

	res, err := h.paymentService.Charge(c.Context(), orderID, *req)
	if err != nil {
		// A repeat charge returns the original attempt; the client treats it
		// as settled.
		if errors.Is(err, domain.ErrAlreadyPaid) {
			return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessCharge)
		}
		var declined *domain.GatewayDeclinedError
		if errors.As(err, &declined) {
			return presenters.ErrorResponse(c, fiber.StatusPaymentRequired, domain.MessageFailedCharge, err)
		}
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedCharge, err)
	}

	// A settled charge moves the order on; pending attempts (paypal redirect)
	// leave it at awaiting_payment until approval lands.
	if res.Status == domain.PaymentStatusSucceeded {
		if _, err := h.orderService.UpdateStatus(c.Context(), orderID, domain.StatusPreparing, domain.ActorSystem); err != nil {
			return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedCharge, err)
		}
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCharge)
}

// ConfirmPayment settles a redirect-based attempt after the buyer returns
// from the provider. The paypal flow reaches preparing only through here.
func (h *paymentHandler) ConfirmPayment(c *fiber.Ctx) error {
	orderID := c.Params("id")

	res, err := h.paymentService.ConfirmPending(c.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPaid) {
			return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessConfirm)
		}
		var declined *domain.GatewayDeclinedError
		if errors.As(err, &declined) {
			return presenters.ErrorResponse(c, fiber.StatusPaymentRequired, domain.MessageFailedConfirm, err)
		}
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedConfirm, err)
	}

	if res.Status == domain.PaymentStatusSucceeded {
		if _, err := h.orderService.UpdateStatus(c.Context(), orderID, domain.StatusPreparing, domain.ActorSystem); err != nil {
			return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedConfirm, err)
		}
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessConfirm)
}

func (h *paymentHandler) GetPaymentAttempts(c *fiber.Ctx) error {
	orderID := c.Params("id")

	res, err := h.paymentService.GetPaymentAttempts(c.Context(), orderID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetAttempts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetAttempts)
}

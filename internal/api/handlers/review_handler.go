package handlers

import (
	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/internal/api/presenters"
	"github.com/akgtechceo/pharmarx-sub003/pkg/review"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ReviewHandler interface {
		ApproveOrder(c *fiber.Ctx) error
		RejectOrder(c *fiber.Ctx) error
		EditOrder(c *fiber.Ctx) error
	}

	reviewHandler struct {
		reviewService review.ReviewService
		validator     *validator.Validate
	}
)

func NewReviewHandler(reviewService review.ReviewService, validator *validator.Validate) ReviewHandler {
	return &reviewHandler{
		reviewService: reviewService,
		validator:     validator,
	}
}

func (h *reviewHandler) ApproveOrder(c *fiber.Ctx) error {
	pharmacistID := c.Locals("user_id").(string)
	orderID := c.Params("id")
	req := new(domain.ApproveOrderRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedApproveOrder, err)
	}

	res, err := h.reviewService.Approve(c.Context(), orderID, pharmacistID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedApproveOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessApproveOrder)
}

func (h *reviewHandler) RejectOrder(c *fiber.Ctx) error {
	pharmacistID := c.Locals("user_id").(string)
	orderID := c.Params("id")
	req := new(domain.RejectOrderRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRejectOrder, err)
	}

	res, err := h.reviewService.Reject(c.Context(), orderID, pharmacistID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedRejectOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessRejectOrder)
}

func (h *reviewHandler) EditOrder(c *fiber.Ctx) error {
	pharmacistID := c.Locals("user_id").(string)
	orderID := c.Params("id")
	req := new(domain.EditOrderRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedEditOrder, err)
	}

	res, err := h.reviewService.Edit(c.Context(), orderID, pharmacistID, *req)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedEditOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessEditOrder)
}

package handlers

import (
	"strconv"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/internal/api/presenters"
	"github.com/akgtechceo/pharmarx-sub003/pkg/ocr"
	"github.com/akgtechceo/pharmarx-sub003/pkg/order"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	OrderHandler interface {
		CreateOrder(c *fiber.Ctx) error
		UploadPrescription(c *fiber.Ctx) error
		SubmitDoctorPrescription(c *fiber.Ctx) error
		GetOrder(c *fiber.Ctx) error
		GetOrders(c *fiber.Ctx) error
		VerifyOrder(c *fiber.Ctx) error
		GetOcrStatus(c *fiber.Ctx) error
		EnterManualText(c *fiber.Ctx) error
		UpdateStatus(c *fiber.Ctx) error
		RequestPaymentLink(c *fiber.Ctx) error
		GetAuditTrail(c *fiber.Ctx) error
	}

	orderHandler struct {
		orderService order.OrderService
		ocrService   ocr.OcrService
		validator    *validator.Validate
	}
)

func NewOrderHandler(orderService order.OrderService, ocrService ocr.OcrService, validator *validator.Validate) OrderHandler {
	return &orderHandler{
		orderService: orderService,
		ocrService:   ocrService,
		validator:    validator,
	}
}

func (h *orderHandler) CreateOrder(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.CreateOrderRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateOrder, err)
	}

	res, err := h.orderService.CreateOrder(c.Context(), *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedCreateOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateOrder)
}

func (h *orderHandler) UploadPrescription(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	file, err := c.FormFile("prescription_image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.orderService.CreateOrderFromUpload(c.Context(), file, userID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedCreateOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateOrder)
}

func (h *orderHandler) SubmitDoctorPrescription(c *fiber.Ctx) error {
	doctorID := c.Locals("user_id").(string)
	req := new(domain.DoctorPrescriptionRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDoctorOrder, err)
	}

	res, err := h.orderService.CreateDoctorPrescription(c.Context(), *req, doctorID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedDoctorOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessDoctorOrder)
}

func (h *orderHandler) GetOrder(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	role := c.Locals("role").(string)
	orderID := c.Params("id")

	res, err := h.orderService.GetOrder(c.Context(), orderID, userID, role)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetOrder)
}

func (h *orderHandler) GetOrders(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	role := c.Locals("role").(string)

	// Patients only ever see their own orders; staff may list any patient's.
	patientID := userID
	if role != domain.RolePatient {
		if q := c.Query("patientId"); q != "" {
			patientID = q
		}
	}

	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	var (
		orders []*domain.OrderResponse
		count  int64
	)
	// Staff filter by status to work their queue; patients always get their
	// own orders.
	if status := c.Query("status"); status != "" && role != domain.RolePatient && c.Query("patientId") == "" {
		orders, count, err = h.orderService.GetOrdersByStatus(c.Context(), status, page, limit)
	} else {
		orders, count, err = h.orderService.GetOrdersByPatient(c.Context(), patientID, page, limit)
	}
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetOrders, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"orders": orders,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetOrders)
}

func (h *orderHandler) VerifyOrder(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	orderID := c.Params("id")
	req := new(domain.VerifyOrderRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedVerifyOrder, err)
	}

	res, err := h.orderService.VerifyOrder(c.Context(), orderID, userID, req.Notes)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedVerifyOrder, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessVerifyOrder)
}

func (h *orderHandler) GetOcrStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")

	res, err := h.ocrService.PollStatus(c.Context(), orderID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetOcrStatus, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetOcrStatus)
}

func (h *orderHandler) EnterManualText(c *fiber.Ctx) error {
	orderID := c.Params("id")
	req := new(domain.ManualTextRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedManualText, err)
	}

	res, err := h.ocrService.EnterManualText(c.Context(), orderID, req.ExtractedText)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedManualText, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessManualText)
}

func (h *orderHandler) UpdateStatus(c *fiber.Ctx) error {
	role := c.Locals("role").(string)
	orderID := c.Params("id")
	req := new(domain.UpdateOrderStatusRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateStatus, err)
	}

	res, err := h.orderService.UpdateStatus(c.Context(), orderID, domain.OrderStatus(req.Status), role)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedUpdateStatus, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateStatus)
}

func (h *orderHandler) RequestPaymentLink(c *fiber.Ctx) error {
	orderID := c.Params("id")
	req := new(domain.RequestPaymentLinkRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRequestPayment, err)
	}

	if err := h.orderService.RequestPaymentLink(c.Context(), orderID, *req); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedRequestPayment, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRequestPayment)
}

func (h *orderHandler) GetAuditTrail(c *fiber.Ctx) error {
	orderID := c.Params("id")

	entries, err := h.orderService.GetAuditTrail(c.Context(), orderID)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetAuditTrail, err)
	}

	return presenters.SuccessResponse(c, entries, fiber.StatusOK, domain.MessageSuccessGetAuditTrail)
}

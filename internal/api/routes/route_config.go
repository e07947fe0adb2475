package routes

import (
	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/internal/api/handlers"
	"github.com/akgtechceo/pharmarx-sub003/internal/middleware"
	"github.com/akgtechceo/pharmarx-sub003/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	App            *fiber.App
	UserHandler    handlers.UserHandler
	OrderHandler   handlers.OrderHandler
	ReviewHandler  handlers.ReviewHandler
	PaymentHandler handlers.PaymentHandler
	Middleware     middleware.Middleware
	JWTService     jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.User()
	c.Orders()
	c.Doctor()
	c.GuestRoute()
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	// user routes
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Me)
	}
}

func (c *Config) Orders() {
	orders := c.App.Group("/api/v1/orders", c.Middleware.AuthMiddleware(c.JWTService))

	// creation and reading
	orders.Post("", c.Middleware.RequireRoles(domain.RolePatient), c.OrderHandler.CreateOrder)
	orders.Post("/upload", c.Middleware.RequireRoles(domain.RolePatient), c.OrderHandler.UploadPrescription)
	orders.Get("", c.OrderHandler.GetOrders)
	orders.Get("/:id", c.OrderHandler.GetOrder)
	orders.Get("/:id/ocr-status", c.OrderHandler.GetOcrStatus)
	orders.Get("/:id/audit", c.Middleware.RequireRoles(domain.RolePharmacist), c.OrderHandler.GetAuditTrail)

	// extraction fallback and patient verification
	orders.Put("/:id/manual-text", c.OrderHandler.EnterManualText)
	orders.Put("/:id/verify", c.Middleware.RequireRoles(domain.RolePatient), c.OrderHandler.VerifyOrder)

	// pharmacist review
	review := orders.Group("/:id/review", c.Middleware.RequireRoles(domain.RolePharmacist))
	review.Post("/approve", c.ReviewHandler.ApproveOrder)
	review.Post("/reject", c.ReviewHandler.RejectOrder)
	review.Post("/edit", c.ReviewHandler.EditOrder)

	// fulfilment
	orders.Put("/:id/status", c.Middleware.RequireRoles(domain.RolePharmacist), c.OrderHandler.UpdateStatus)
	orders.Post("/:id/request-payment", c.Middleware.RequireRoles(domain.RolePharmacist), c.OrderHandler.RequestPaymentLink)

	// payment
	orders.Post("/:id/pay", c.Middleware.RequireRoles(domain.RolePatient), c.PaymentHandler.Charge)
	orders.Post("/:id/pay/confirm", c.Middleware.RequireRoles(domain.RolePatient), c.PaymentHandler.ConfirmPayment)
	orders.Get("/:id/payments", c.PaymentHandler.GetPaymentAttempts)
}

func (c *Config) Doctor() {
	doctor := c.App.Group("/api/v1/doctor",
		c.Middleware.AuthMiddleware(c.JWTService),
		c.Middleware.RequireRoles(domain.RoleDoctor),
	)
	doctor.Post("/prescriptions", c.OrderHandler.SubmitDoctorPrescription)
	doctor.Get("/patients", c.UserHandler.SearchPatients)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong, its works"})
	})
}

package config

import (
	"os"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/internal/api/handlers"
	"github.com/akgtechceo/pharmarx-sub003/internal/api/routes"
	"github.com/akgtechceo/pharmarx-sub003/internal/middleware"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils/storage"
	"github.com/akgtechceo/pharmarx-sub003/pkg/jwt"
	"github.com/akgtechceo/pharmarx-sub003/pkg/notification"
	"github.com/akgtechceo/pharmarx-sub003/pkg/ocr"
	"github.com/akgtechceo/pharmarx-sub003/pkg/order"
	"github.com/akgtechceo/pharmarx-sub003/pkg/payment"
	"github.com/akgtechceo/pharmarx-sub003/pkg/review"
	"github.com/akgtechceo/pharmarx-sub003/pkg/user"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()

	// Repository
	userRepository := user.NewUserRepository(db)
	orderRepository := order.NewOrderRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService)
	notificationService := notification.NewNotificationService(userRepository)
	messagingService := notification.NewMessagingService(userRepository)
	stateMachine := order.NewStateMachine(orderRepository, notificationService)
	ocrClient := ocr.NewClient()
	ocrService := ocr.NewOcrService(orderRepository, stateMachine, ocrClient)
	orderService := order.NewOrderService(orderRepository, stateMachine, ocrService, messagingService, s3)
	reviewService := review.NewReviewService(orderRepository, stateMachine)
	paymentService := payment.NewPaymentService(
		orderRepository,
		payment.NewStripeGateway(),
		payment.NewPaypalGateway(),
		payment.NewMTNGateway(),
	)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	orderHandler := handlers.NewOrderHandler(orderService, ocrService, validator)
	reviewHandler := handlers.NewReviewHandler(reviewService, validator)
	paymentHandler := handlers.NewPaymentHandler(paymentService, orderService, validator)

	// routes
	routesConfig := routes.Config{
		App:            app,
		UserHandler:    userHandler,
		OrderHandler:   orderHandler,
		ReviewHandler:  reviewHandler,
		PaymentHandler: paymentHandler,
		Middleware:     middlewares,
		JWTService:     jwtService,
	}
	routesConfig.Setup()
	return app, nil
}

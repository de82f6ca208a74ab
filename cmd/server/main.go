package main

import (
	"log"
	"net/http"

	_ "eventhub/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"eventhub/internal/auth"
	"eventhub/internal/cache"
	"eventhub/internal/config"
	"eventhub/internal/credstore"
	"eventhub/internal/db"
	"eventhub/internal/handler"
	"eventhub/internal/idp"
	"eventhub/internal/model"
	"eventhub/internal/notify"
	"eventhub/internal/repository"
	"eventhub/internal/router"
	"eventhub/internal/service"
)

// @title EventHub API
// @version 1.0
// @description Internal event management API with registration, ticketing, and dual-source authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.Department{},
		&model.User{},
		&model.Event{},
		&model.EventParticipant{},
		&model.Notification{},
		&model.Feedback{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	credStore, err := credstore.NewStore(cfg.CredentialFile)
	if err != nil {
		log.Fatalf("credential store init: %v", err)
	}

	provider := idp.NewClient(cfg.IDPDomain, cfg.IDPClientID, cfg.IDPClientSecret, cfg.IDPConnection)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	eventRepo := repository.NewEventRepository(gormDB)
	participantRepo := repository.NewParticipantRepository(gormDB)
	notificationRepo := repository.NewNotificationRepository(gormDB)
	feedbackRepo := repository.NewFeedbackRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Ticket delivery: pickup directory for local development, Mailgun otherwise.
	var mailer notify.Mailer
	if cfg.MailPickupDir != "" {
		mailer = notify.NewPickupMailer(cfg.MailPickupDir)
	} else if cfg.MailgunDomain != "" {
		mailer = notify.NewMailgunMailer(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailSender)
	}
	var tickets notify.TicketIssuer
	if mailer != nil {
		tickets = notify.NewEmailTicketIssuer(mailer, notify.NewQRCodeClient(cfg.QRCodeEndpoint))
	}

	// Initialize services
	reconciler := service.NewReconciler(userRepo)
	authService := service.NewAuthService(userRepo, credStore, provider, reconciler, jwtService, tokenStore)
	eventService := service.NewEventService(eventRepo, participantRepo, cacheClient)
	registrationService := service.NewRegistrationService(eventRepo, participantRepo, userRepo, notificationRepo, tickets)
	userService := service.NewUserService(userRepo, provider)
	notificationService := service.NewNotificationService(notificationRepo)
	feedbackService := service.NewFeedbackService(feedbackRepo, eventRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService, feedbackService)
	registrationHandler := handler.NewRegistrationHandler(registrationService)
	userHandler := handler.NewUserHandler(userService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// Register routes
	router.Register(
		e,
		cfg,
		tokenStore,
		authHandler,
		eventHandler,
		registrationHandler,
		userHandler,
		notificationHandler,
	)

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: http://%s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}

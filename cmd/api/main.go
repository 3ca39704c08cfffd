package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialevents/config"
	_ "socialevents/docs"
	"socialevents/internal/adapters/auth"
	"socialevents/internal/adapters/email"
	"socialevents/internal/database"
	delivery "socialevents/internal/delivery/http"
	"socialevents/internal/delivery/http/controllers"
	"socialevents/internal/delivery/http/middleware"
	"socialevents/internal/domain"
	"socialevents/internal/repository/postgres"
	"socialevents/internal/services"
)

const serviceTimeout = 10 * time.Second

// @title Social Events API
// @version 1.0
// @description Event participation, groups, messaging, and notifications.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	if err := database.RunMigrations(cfg.DBUrl, cfg.MigrationsPath); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}
	db, err := database.Connect(cfg.DBUrl)
	if err != nil {
		logger.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	eventRepo := postgres.NewEventRepository(db)
	participationRepo := postgres.NewParticipationRepository(db)
	favoriteRepo := postgres.NewFavoriteRepository(db)
	groupRepo := postgres.NewGroupRepository(db)
	memberRepo := postgres.NewGroupMemberRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	mailer := email.NewMailer(cfg.Mailer, logger)
	renderer := email.NewTemplateRenderer()
	limits := domain.DefaultLimitsPolicy()

	notificationSvc := services.NewNotificationService(notificationRepo, userRepo, mailer, renderer, logger, serviceTimeout)
	eventSvc := services.NewEventService(eventRepo, participationRepo, notificationSvc, limits, logger, serviceTimeout)
	participationSvc := services.NewParticipationService(eventRepo, participationRepo, favoriteRepo, notificationSvc, limits, logger, serviceTimeout)
	groupSvc := services.NewGroupService(groupRepo, memberRepo, logger, serviceTimeout)
	messageSvc := services.NewMessageService(conversationRepo, messageRepo, groupRepo, memberRepo, userRepo, notificationSvc, logger, serviceTimeout)

	verifier := auth.NewJWTCodec(cfg.JWTSecret)

	mux := delivery.NewRouter(
		verifier,
		controllers.NewEventController(logger, eventSvc),
		controllers.NewParticipationController(logger, participationSvc),
		controllers.NewGroupController(logger, groupSvc),
		controllers.NewMessageController(logger, messageSvc),
		controllers.NewNotificationController(logger, notificationSvc),
	)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.Logging(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

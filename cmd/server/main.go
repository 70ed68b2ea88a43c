// Package main runs the event planning HTTP server with WebSocket push and
// graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"gatherly/config"
	"gatherly/internal/adapters/auth"
	"gatherly/internal/adapters/email"
	"gatherly/internal/adapters/sms"
	"gatherly/internal/adapters/storage"
	httpdelivery "gatherly/internal/delivery/http"
	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/realtime"
	"gatherly/internal/repository/postgres"
	"gatherly/internal/services"
)

const contextTimeout = 5 * time.Second

func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "error", err)
		os.Exit(1)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	userRepo := postgres.NewUserRepository(db)
	notifRepo := postgres.NewNotificationRepository(db)

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.SES.FromAddress,
		FromName:    cfg.SES.FromName,
		SES: email.SESConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("mailer", "error", err)
		os.Exit(1)
	}

	texter, err := sms.NewTexter(sms.TexterConfig{
		Provider: cfg.SMSProvider,
		SNS: sms.SNSConfig{
			Region:          cfg.SNS.Region,
			AccessKeyID:     cfg.SNS.AccessKeyID,
			SecretAccessKey: cfg.SNS.SecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("texter", "error", err)
		os.Exit(1)
	}

	storageProvider := "noop"
	if cfg.S3.Bucket != "" {
		storageProvider = "s3"
	}
	blobStore, err := storage.NewBlobStore(storage.S3Config{
		Provider:        storageProvider,
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		Bucket:          cfg.S3.Bucket,
	})
	if err != nil {
		logger.Error("blob store", "error", err)
		os.Exit(1)
	}

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret)
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	renderer := email.NewTemplateRenderer()

	// Realtime hub
	hub := realtime.NewHub(logger)

	// Services
	dispatcher := services.NewChannelDispatcher(mailer, texter, logger)
	resolver := services.NewGuestResolver(userRepo, contextTimeout)
	userService := services.NewUserService(userRepo, hasher, issuer, dispatcher, renderer, logger, contextTimeout)
	notifService := services.NewNotificationService(notifRepo, contextTimeout)
	eventService := services.NewEventService(eventRepo, notifRepo, resolver, dispatcher, renderer, blobStore, hub, logger, cfg.RSVPLink, contextTimeout)

	// Controllers
	eventController := controllers.NewEventController(logger, eventService, userService)
	notifController := controllers.NewNotificationController(logger, notifService)
	userController := controllers.NewUserController(logger, userService)

	mux := httpdelivery.NewRouter(eventController, notifController, userController, hub, verifier, logger)
	handler := middleware.CORS(cfg.AllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server stopped")
}

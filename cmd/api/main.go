package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/logger"
	"fintrack/internal/mailer"
	"fintrack/internal/metrics"
	"fintrack/internal/server"
	"fintrack/internal/validator"
)

// @title           FinTrack API
// @version         1.0
// @description     FinTrack tracks income and expenses, recurring transactions, savings goals and budget alerts.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token issued by the hosted backend.

// @securityDefinitions.apikey PipelineKey
// @in header
// @name X-API-Key

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.ConfigFrom(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()
	m := metrics.New()

	// Outbound email is optional
	var dispatcher *mailer.Dispatcher
	if appConfig.EmailEnabled() {
		client := mailer.NewClient(appConfig.EmailAPIURL, appConfig.EmailAPIKey, appConfig.EmailFrom, &http.Client{Timeout: appConfig.EmailTimeout})
		dispatcher = mailer.NewDispatcher(client, appConfig.EmailTimeout, m)
		defer dispatcher.Wait()
	} else {
		log.Info("EMAIL_API_URL not set, notification emails are disabled")
	}
	if appConfig.PipelineAPIKey == "" {
		log.Warn("PIPELINE_API_KEY not set, pipeline endpoints will answer 503")
	}

	svc := server.NewServices(dbManager.DB(), appConfig, m, dispatcher)
	router := server.NewRouter(appConfig, dbManager.DB(), svc, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Starting FinTrack API on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return server.New(appConfig.Port, router).Run(ctx)
}

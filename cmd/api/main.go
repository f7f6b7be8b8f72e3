package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"communityhub/config"
	"communityhub/internal/adapters/auth"
	"communityhub/internal/adapters/email"
	delivery "communityhub/internal/delivery/http"
	"communityhub/internal/delivery/http/controllers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/jobs"
	"communityhub/internal/repository/postgres"
	"communityhub/internal/services"
)

const (
	serviceTimeout  = 10 * time.Second
	jobTimeout      = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
	bcryptCost      = 12
)

// @title CommunityHub API
// @version 1.0
// @description Community event platform: organizations, groups, recurring event series, and a visibility-filtered calendar.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	if err := runMigrations(cfg.DBUrl); err != nil {
		logger.Error("run migrations", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)
	groupRepo := postgres.NewGroupRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	// Adapters
	hasher := auth.NewBcryptHasher(bcryptCost)
	issuer, verifier := auth.NewJWTTokens(cfg.JWTSecret)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailerProvider,
		FromAddress: cfg.MailFrom,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:             cfg.SES.Region,
			AccessKeyID:        cfg.SES.AccessKeyID,
			SecretAccessKey:    cfg.SES.SecretAccessKey,
			InsecureSkipVerify: cfg.SES.InsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()

	// Services
	emailService := services.NewEmailService(mailer, renderer)
	authService := services.NewAuthService(userRepo, hasher, issuer, emailService, logger, cfg.JWTExpiry)
	orgService := services.NewOrganizationService(orgRepo, groupRepo, serviceTimeout)
	eventService := services.NewEventService(eventRepo, orgRepo, groupRepo, userRepo, emailService, logger, cfg.HorizonMonths, serviceTimeout)
	calendarService := services.NewCalendarService(eventRepo, orgRepo, groupRepo, serviceTimeout)

	// HTTP
	mux := delivery.NewRouter(
		logger,
		verifier,
		controllers.NewAuthController(logger, authService),
		controllers.NewOrganizationController(logger, orgService),
		controllers.NewEventController(logger, eventService),
		controllers.NewCalendarController(logger, calendarService),
	)
	var handler http.Handler = mux
	handler = middleware.CORS(cfg.AllowedOrigins, handler)
	handler = middleware.LoggingMiddleware(logger, handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Horizon job keeps series materialized as time advances.
	extender := jobs.NewHorizonExtender(eventService, logger, jobTimeout)
	if err := extender.Start(cfg.HorizonCronSpec); err != nil {
		logger.Error("schedule horizon job", "err", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	extender.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

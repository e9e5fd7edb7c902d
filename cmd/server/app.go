package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/platform/mail"
	"github.com/phrazzld/taskhub-api/internal/platform/postgres"
	"github.com/phrazzld/taskhub-api/internal/realtime"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/phrazzld/taskhub-api/internal/service/auth"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// application holds the shared application dependencies so wiring and cleanup
// live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore         store.UserStore
	todoStore         store.TodoStore
	notificationStore store.NotificationStore

	// Services
	jwtService          auth.JWTService
	passwordVerifier    auth.PasswordVerifier
	todoService         *service.TodoService
	sharingService      *service.SharingService
	notificationService *service.NotificationService

	// Real-time presence registry. Created at process start; connections
	// register and deregister through the WebSocket handler.
	hub *realtime.Hub

	// mailer is nil when SMTP is not configured; sharing then skips email.
	mailer mail.Mailer
}

// newApplication creates the application with all dependencies initialized.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	bcryptCost := cfg.Auth.BCryptCost
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	app.userStore = postgres.NewPostgresUserStore(db, bcryptCost)
	app.todoStore = postgres.NewPostgresTodoStore(db)
	app.notificationStore = postgres.NewPostgresNotificationStore(db)

	app.hub = realtime.NewHub()

	if cfg.SMTP.Enabled() {
		app.mailer, err = mail.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP mailer: %w", err)
		}
		logger.Info("SMTP mailer initialized", "host", cfg.SMTP.Host)
	} else {
		logger.Info("SMTP not configured, share emails disabled")
	}

	app.todoService = service.NewTodoService(app.todoStore, app.hub, logger)
	app.sharingService = service.NewSharingService(
		app.todoStore,
		app.userStore,
		app.notificationStore,
		app.hub,
		app.mailer,
		logger,
	)
	app.notificationService = service.NewNotificationService(
		db,
		app.notificationStore,
		app.userStore,
		app.hub,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.sharingService != nil {
		app.sharingService.Wait()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}

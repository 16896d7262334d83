package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/planhub/planhub-api/internal/config"
	"github.com/planhub/planhub-api/internal/dispatch"
	"github.com/planhub/planhub-api/internal/email"
	"github.com/planhub/planhub-api/internal/events"
	"github.com/planhub/planhub-api/internal/mention"
	"github.com/planhub/planhub-api/internal/platform/postgres"
	"github.com/planhub/planhub-api/internal/service"
	"github.com/planhub/planhub-api/internal/service/auth"
	"github.com/planhub/planhub-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	commentStore      store.CommentStore
	taskStore         store.TaskStore
	projectStore      store.ProjectStore
	notificationStore store.NotificationStore
	emailQueueStore   store.EmailQueueStore
	activityStore     store.ActivityLogStore

	// Service interfaces
	jwtService          auth.JWTService
	passwordVerifier    auth.PasswordVerifier
	userService         service.UserService
	commentService      service.CommentService
	taskService         service.TaskService
	projectService      service.ProjectService
	notificationService service.NotificationService

	// Event system
	eventEmitter events.Emitter

	// Email delivery
	dispatcher *dispatch.Dispatcher
}

// newApplication creates a new application instance with all dependencies
// initialized. Configuration, logger and database connection must already
// be established.
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

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.commentStore = postgres.NewPostgresCommentStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.projectStore = postgres.NewPostgresProjectStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)
	app.emailQueueStore = postgres.NewPostgresEmailQueueStore(db, logger)
	app.activityStore = postgres.NewPostgresActivityLogStore(db, logger)

	// Event emitter
	emitter := events.NewInMemoryEmitter(logger)
	app.eventEmitter = emitter

	// Mention resolution
	resolver := mention.NewResolver(app.userStore, mention.Policy(cfg.Notify.MentionPolicy))

	// Services
	app.userService, err = service.NewUserService(
		app.userStore,
		app.jwtService,
		app.passwordVerifier,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.commentService, err = service.NewCommentService(
		db,
		app.userStore,
		app.commentStore,
		app.notificationStore,
		app.emailQueueStore,
		app.activityStore,
		app.taskStore,
		app.projectStore,
		resolver,
		app.eventEmitter,
		cfg.Server.BaseURL,
		cfg.Notify.MaxAttempts,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment service: %w", err)
	}

	app.taskService, err = service.NewTaskService(
		db,
		app.userStore,
		app.taskStore,
		app.projectStore,
		app.notificationStore,
		app.emailQueueStore,
		app.activityStore,
		app.eventEmitter,
		cfg.Server.BaseURL,
		cfg.Notify.MaxAttempts,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.projectService, err = service.NewProjectService(
		db,
		app.userStore,
		app.projectStore,
		app.notificationStore,
		app.emailQueueStore,
		app.activityStore,
		app.eventEmitter,
		cfg.Server.BaseURL,
		cfg.Notify.MaxAttempts,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project service: %w", err)
	}

	app.notificationService, err = service.NewNotificationService(app.notificationStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}

	// Email delivery pipeline
	transport := email.NewSMTPTransport(cfg.SMTP)
	app.dispatcher = dispatch.NewDispatcher(app.emailQueueStore, transport, dispatch.Config{
		SweepInterval: time.Duration(cfg.Notify.SweepIntervalSeconds) * time.Second,
		BatchSize:     cfg.Notify.SweepBatch,
		SendTimeout:   time.Duration(cfg.Notify.SendTimeoutSeconds) * time.Second,
		StuckClaimAge: time.Duration(cfg.Notify.StuckClaimAgeSeconds) * time.Second,
	}, logger)

	// In production an enqueue triggers one best-effort immediate sweep.
	// The periodic sweep remains the reliable delivery path in every mode.
	if cfg.Server.Env == "production" {
		emitter.RegisterHandler(events.HandlerFunc(func(ctx context.Context, event *events.Event) error {
			switch event.Type {
			case events.EventTypeCommentCreated, events.EventTypeEmailEnqueued:
				app.dispatcher.Kick()
			}
			return nil
		}))
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the email dispatcher and the HTTP server, handling lifecycle
// and cleanup.
func (app *application) Run(ctx context.Context) error {
	app.dispatcher.Start()

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

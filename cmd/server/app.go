package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/config"
	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/jobs"
	"github.com/taskdeck/taskdeck-api/internal/notify"
	"github.com/taskdeck/taskdeck-api/internal/platform/postgres"
	"github.com/taskdeck/taskdeck-api/internal/scheduler"
	"github.com/taskdeck/taskdeck-api/internal/service"
	"github.com/taskdeck/taskdeck-api/internal/service/auth"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// NotificationEventHandler converts notification events into durable jobs
// and hands them to the runner. Registered with the event emitter so every
// emitted event is queued for asynchronous delivery.
type NotificationEventHandler struct {
	jobFactory *jobs.NotificationJobFactory
	jobRunner  *jobs.JobRunner
	logger     *slog.Logger
}

// HandleEvent processes events by creating and submitting notification jobs.
func (h *NotificationEventHandler) HandleEvent(
	ctx context.Context,
	event *events.NotificationEvent,
) error {
	job, err := h.jobFactory.CreateJob(event)
	if err != nil {
		h.logger.Error("failed to create notification job",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type)
		return fmt.Errorf("failed to create notification job: %w", err)
	}

	if err := h.jobRunner.Submit(ctx, job); err != nil {
		h.logger.Error("failed to submit notification job",
			"error", err,
			"job_id", job.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit notification job: %w", err)
	}

	h.logger.Debug("notification job submitted",
		"job_id", job.ID(),
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore      store.UserStore
	taskStore      store.TaskStore
	commentStore   store.CommentStore
	dashboardStore store.DashboardStore
	jobStore       jobs.JobStore

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService
	dashboardService service.DashboardService

	// Event system
	eventEmitter events.EventEmitter

	// Background processing
	jobRunner *jobs.JobRunner
	scheduler *scheduler.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	// Initialize password verifier
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Initialize stores
	app.userStore = postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.commentStore = postgres.NewPostgresCommentStore(db, logger)
	app.dashboardStore = postgres.NewPostgresDashboardStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db, logger)

	// Initialize the notification sender
	var sender notify.Sender
	if cfg.Notification.DeliveryDisabled {
		sender = notify.NewLogSender(logger)
		logger.Info("notification delivery disabled, using log sender")
	} else {
		sender, err = notify.NewSMTPSender(cfg.Notification)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
		}
	}

	// Initialize job runner and notification job factory
	jobFactory := jobs.NewNotificationJobFactory(
		app.userStore,
		sender,
		cfg.Notification.MaxAttempts,
		logger,
	)

	app.jobRunner, err = setupJobRunner(app, jobFactory)
	if err != nil {
		return nil, fmt.Errorf("failed to setup job runner: %w", err)
	}

	// Initialize event emitter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Initialize task service
	app.taskService, err = service.NewTaskService(
		db,
		app.taskStore,
		app.commentStore,
		app.userStore,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	// Initialize dashboard service
	app.dashboardService, err = service.NewDashboardService(app.dashboardStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard service: %w", err)
	}

	// Create and register the notification event handler
	notificationHandler := &NotificationEventHandler{
		jobFactory: jobFactory,
		jobRunner:  app.jobRunner,
		logger:     logger.With("component", "notification_event_handler"),
	}

	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(notificationHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register notification handler")
	}

	// Initialize the background scheduler for due-soon reminders and
	// retention archiving
	app.scheduler, err = scheduler.New(
		app.taskStore,
		app.eventEmitter,
		cfg.Scheduler,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	app.scheduler.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// setupJobRunner initializes and starts the background job processor,
// recovering any jobs left in flight by a previous run.
func setupJobRunner(app *application, jobFactory *jobs.NotificationJobFactory) (*jobs.JobRunner, error) {
	jobRunner := jobs.NewJobRunner(app.jobStore, jobs.JobRunnerConfig{
		QueueSize:   app.config.Notification.QueueSize,
		WorkerCount: app.config.Notification.WorkerCount,
		StuckJobAge: time.Duration(app.config.Notification.StuckJobAgeMins) * time.Minute,
	}, app.logger)

	// Persisted job rows are inert until rebuilt into executable jobs.
	jobRunner.SetRehydrator(jobFactory.RehydrateJob)

	if err := jobRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	return jobRunner, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop the scheduler
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	// Stop job runner
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/seoforge/seoforge-api/internal/config"
	"github.com/seoforge/seoforge-api/internal/platform/dataforseo"
	"github.com/seoforge/seoforge-api/internal/platform/postgres"
	"github.com/seoforge/seoforge-api/internal/quota"
	"github.com/seoforge/seoforge-api/internal/service"
	"github.com/seoforge/seoforge-api/internal/service/auth"
	"github.com/seoforge/seoforge-api/internal/store"
	"github.com/seoforge/seoforge-api/internal/task"
)

// application holds the shared application dependencies so wiring and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore       store.UserStore
	taskStore       store.TaskStore
	credentialStore store.CredentialStore
	costStore       store.CostStore
	statsStore      store.StatsStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      service.TaskService
	groupService     service.GroupService
	costService      service.CostService

	// Provider and quota
	providerClient *dataforseo.Client
	quotas         *quota.Manager
	redisClient    *redis.Client

	// Background workers
	asynqClient *asynq.Client
	asynqServer *asynq.Server
	costQueue   *task.CostQueueClient
	poller      *task.ReadinessPoller
}

// newApplication wires all dependencies. Background workers are
// constructed here but only started in Run.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
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
	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewPostgresUserStore(db, bcrypt.DefaultCost, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.credentialStore = postgres.NewPostgresCredentialStore(db, logger)
	app.costStore = postgres.NewPostgresCostStore(db, logger)
	app.statsStore = postgres.NewPostgresStatsStore(db, logger)

	app.providerClient = dataforseo.NewClient(cfg.Provider, logger)

	// Redis backs both the cost queue and the quota counters.
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	}
	app.asynqClient = asynq.NewClient(redisOpt)
	app.costQueue = task.NewCostQueueClient(app.asynqClient, cfg.Task.CostMaxRetry, logger)

	app.redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	app.quotas = quota.NewManager(app.redisClient, cfg.Quota, logger)

	app.taskService = service.NewTaskService(
		app.taskStore,
		app.credentialStore,
		app.providerClient,
		app.costQueue,
		logger,
	)
	app.groupService = service.NewGroupService(app.taskStore, logger)
	app.costService = service.NewCostService(app.costStore, app.statsStore, logger)

	app.asynqServer = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Task.QueueConcurrency,
		Queues:      map[string]int{task.QueueCosts: 1},
	})

	app.poller = task.NewReadinessPoller(
		app.taskService,
		app.taskStore,
		task.PollerConfig{
			Interval: time.Duration(cfg.Task.PollIntervalSeconds) * time.Second,
		},
		logger,
	)

	logger.Info("application initialized")
	return app, nil
}

// Run starts the background workers and the HTTP server, blocking until
// shutdown.
func (app *application) Run(ctx context.Context) error {
	costHandler := task.NewCostRecordHandler(app.costStore, app.statsStore, app.logger)
	if err := app.asynqServer.Start(task.NewCostMux(costHandler)); err != nil {
		return fmt.Errorf("failed to start cost queue worker: %w", err)
	}

	app.poller.Start(ctx)

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup stops the background workers and closes connections. Called
// after the HTTP server has drained.
func (app *application) cleanup() {
	if app.poller != nil {
		app.poller.Stop()
	}

	if app.asynqServer != nil {
		app.asynqServer.Shutdown()
	}

	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			app.logger.Error("error closing asynq client", "error", err)
		}
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}

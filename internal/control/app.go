// Package control wires storage, reconciliation components, and the HTTP
// surface into one application lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teampulse/calsync/internal/core/config"
	"github.com/teampulse/calsync/internal/infra/redis"
	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/infra/storage/memory"
	"github.com/teampulse/calsync/internal/infra/storage/postgres"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/generate"
	"github.com/teampulse/calsync/internal/recon/health"
	"github.com/teampulse/calsync/internal/recon/repair"
	"github.com/teampulse/calsync/internal/recon/retry"
	"github.com/teampulse/calsync/internal/recon/scheduler"
	"github.com/teampulse/calsync/internal/recon/syncer"
	"github.com/teampulse/calsync/internal/recon/validate"
)

// Config holds the application configuration.
type Config struct {
	Port     int
	Sync     config.SyncConfig
	Redis    redis.Config
	Database postgres.Config
}

// App is the main application struct that manages the reconciler lifecycle.
type App struct {
	cfg          Config
	store        *storage.Store
	db           *postgres.DB
	redisClient  *redis.Client
	scheduler    *scheduler.Service
	healthServer *health.Server
	log          *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	log := slog.Default()

	// 1. Initialize Storage
	var store *storage.Store
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		store = postgres.NewStore(db)
	} else {
		log.Warn("No database configured, using in-memory storage")
		store = memory.NewStore()
	}

	// 2. Initialize Redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, continuing without it", "error", err)
		}
	}

	// 3. Build reconciliation pipeline
	sink := notify.NewLogSink(log)
	rcfg := retry.Config{
		MaxRetries:        cfg.Sync.Retry.MaxRetries,
		BaseDelay:         cfg.Sync.Retry.BaseDelay,
		MaxDelay:          cfg.Sync.Retry.MaxDelay,
		BackoffMultiplier: cfg.Sync.Retry.BackoffMultiplier,
	}

	generator := generate.NewGenerator(store, sink, log).WithRetryConfig(rcfg)
	validator := validate.NewValidator(store, sink, log).WithRetryConfig(rcfg)
	repairer := repair.NewRepairer(store, validator, generator, sink, log).WithRetryConfig(rcfg)
	sync := syncer.NewSyncer(store, generator, sink, log, cfg.Sync.BirthdayLookaheadYears).WithRetryConfig(rcfg)

	svc := scheduler.NewService(sync, validator, repairer, sink, log)
	if redisClient != nil {
		svc.WithPublisher(redis.NewStatusPublisher(redisClient, log))
	}

	// 4. Health surface
	monitor := health.NewMonitor(svc, validator)
	healthServer := health.NewServer(monitor, cfg.Port)

	return &App{
		cfg:          cfg,
		store:        store,
		db:           db,
		redisClient:  redisClient,
		scheduler:    svc,
		healthServer: healthServer,
		log:          log,
	}, nil
}

// Store exposes the repository bundle (used by one-shot CLI commands).
func (a *App) Store() *storage.Store {
	return a.store
}

// Scheduler exposes the reconciliation service.
func (a *App) Scheduler() *scheduler.Service {
	return a.scheduler
}

// Start launches the health server and the periodic reconciliation loop.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.scheduler.StartPeriodicSync(ctx, a.cfg.Sync.Interval)

	return nil
}

// Stop shuts everything down in reverse order.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping calsync...")

	a.scheduler.Close()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.healthServer.Stop(ctx)
}

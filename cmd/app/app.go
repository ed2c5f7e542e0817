package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cglreviews/internal/config"
	"cglreviews/internal/database"
	handlers "cglreviews/internal/handler"
	"cglreviews/internal/mailer"
	"cglreviews/internal/scheduler"
	"cglreviews/internal/security"
	"cglreviews/internal/service"
	"cglreviews/internal/storage"
)

// App holds the running pieces so main can shut them down in order.
type App struct {
	DB        *database.DB
	Services  *service.Manager
	Scheduler *scheduler.Scheduler
	Server    *http.Server
	logger    *slog.Logger
}

// New connects the database and object store, seeds reference data, re-arms
// pending prunes and builds the HTTP server.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.ConnectDB(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sched := scheduler.New(scheduler.WithLogger(logger))
	opts := []service.Option{
		service.WithLogger(logger),
		service.WithHasher(security.NewHasher(cfg.Security.HashWorkers)),
		service.WithScheduler(sched),
	}

	if cfg.MinIO.Enabled {
		blobs, err := storage.NewMinIOClient(ctx, cfg.MinIO, logger)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
		}
		opts = append(opts, service.WithBlobStore(blobs))
		logger.Info("storing images in MinIO", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.BucketName)
	}

	services := service.NewManager(db, opts...)

	if err := services.Seed(ctx, cfg.ProgramNames()); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}
	if err := services.PruneAll(ctx); err != nil {
		db.CloseDB()
		return nil, err
	}

	h := handlers.NewHandlers(services, mailer.NewLogMailer(logger), cfg)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		DB:        db,
		Services:  services,
		Scheduler: sched,
		Server:    server,
		logger:    logger,
	}, nil
}

// Shutdown stops accepting requests, drops pending prunes and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Server.Shutdown(ctx)
	a.Scheduler.Stop()
	if cerr := a.DB.CloseDB(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// main is the entry point of the Students API server.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (plus .env and env overrides)
//  2. Initialise the logger
//  3. Open the repository selected by storage.driver and apply migrations
//  4. Register the routes and wrap them in middleware
//  5. Serve until SIGINT/SIGTERM, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/logger"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/postgres"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

const version = "1.0.0"

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	// Handlers log through slog's package functions, so the logger is
	// installed as the default.
	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	// ── 3. Wait for Ctrl+C / kill ─────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("students-api stopped with an error", logger.Err(err))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// run serves until ctx is cancelled or the listener fails.
func run(ctx context.Context, cfg *config.Config) error {
	repo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			slog.Error("failed to close storage", logger.Err(err))
		}
	}()

	slog.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      newRouter(repo, cfg.CORS.AllowedOrigins),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		// ErrServerClosed is the normal result of Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// openRepository returns the backend named by cfg.Driver. Callers only
// see the storage.Repository interface.
func openRepository(ctx context.Context, cfg config.Storage) (storage.Repository, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg)
	case config.DriverSQLite, "":
		return sqlite.New(cfg)
	default:
		return nil, &config.UnknownDriverError{Driver: cfg.Driver}
	}
}

// newRouter mounts every route and wraps the mux in middleware.
//
//	GET    /health
//	GET    /api/Students
//	GET    /api/Students/{id}
//	POST   /api/Students
//	PUT    /api/Students/{id}
//	DELETE /api/Students/{id}
func newRouter(repo storage.Repository, allowedOrigins []string) http.Handler {
	router := http.NewServeMux()

	health.Register(router)
	student.Register(router, repo)

	return middleware.Wrap(router, allowedOrigins)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/database"
	"github.com/emilythestrangee/qa-forum/backend/internal/events"
	"github.com/emilythestrangee/qa-forum/backend/internal/handlers"
	"github.com/emilythestrangee/qa-forum/backend/internal/metrics"
	"github.com/emilythestrangee/qa-forum/backend/internal/realtime"
	"github.com/emilythestrangee/qa-forum/backend/internal/server"
	"github.com/emilythestrangee/qa-forum/backend/internal/service"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
	"github.com/emilythestrangee/qa-forum/backend/internal/telemetry"
)

type forumStore interface {
	service.DocumentStore
	server.HealthChecker
}

// Run is the application entry point. It loads configuration, wires the
// store, service, event bus and HTTP server, and serves until ctx is
// cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("log_level", cfg.Log.Level),
		slog.String("store", cfg.Store.Driver),
		slog.String("addr", cfg.Server.Addr()),
	)

	tracer, shutdownTracing, err := telemetry.Init(ctx, cfg.Tracing, logger)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	bus := events.NewBus(logger, m)
	svc := service.New(logger, st, bus, m)
	hub := realtime.NewHub(bus, cfg.Realtime, cfg.CORS.Origins(), logger)

	srv := server.NewServer(cfg, server.Deps{
		Handler: handlers.NewHandler(svc, logger),
		Hub:     hub,
		Metrics: m,
		Health:  st,
		Tracer:  tracer,
		Log:     logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// openStore selects the document store configured by cfg.Store.Driver. The
// returned close function releases its resources.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (forumStore, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	db, err := database.New(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}

	pg := store.NewPostgres(db.GetDB())
	if cfg.Store.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database migrations completed")
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}
	return postgresStore{Postgres: pg, health: db}, closeFn, nil
}

// postgresStore reports health through the connection pool.
type postgresStore struct {
	*store.Postgres
	health database.Service
}

func (s postgresStore) Health(ctx context.Context) map[string]string {
	return s.health.Health(ctx)
}

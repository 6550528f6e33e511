// Command syncboard runs the collaborative event and task planning API
// with live change propagation over SSE.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/syncboard/syncboard/pkg/api"
	"github.com/syncboard/syncboard/pkg/auth"
	"github.com/syncboard/syncboard/pkg/config"
	"github.com/syncboard/syncboard/pkg/identity"
	"github.com/syncboard/syncboard/pkg/limiter"
	"github.com/syncboard/syncboard/pkg/observability"
	"github.com/syncboard/syncboard/pkg/planner"
	"github.com/syncboard/syncboard/pkg/store"
	"github.com/syncboard/syncboard/pkg/stream"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	events := store.NewSQLiteEventStore(db)
	tasks := store.NewSQLiteTaskStore(db)
	users := store.NewSQLiteUserStore(db)

	// Live sync
	hub := stream.NewHub(logger)
	defer hub.Close()

	// Telemetry
	obs, err := observability.New(ctx, &observability.Config{
		ServiceName:    "syncboard",
		ServiceVersion: version,
		Environment:    envName(),
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		Enabled:        cfg.OTLPEndpoint != "",
		Insecure:       true,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	tokens := identity.NewTokenManager([]byte(cfg.JWTSecret), cfg.TokenTTL)
	svc := planner.New(events, tasks, users, hub, tokens, logger)
	srv := api.NewServer(svc, stream.NewSSEHandler(hub), logger)

	// Middleware chain, outermost first: request id, CORS, telemetry,
	// authentication, then rate limiting keyed by the authenticated actor.
	var limitStore limiter.Store
	if cfg.RateLimitRPM > 0 {
		if cfg.RedisAddr != "" {
			limitStore = limiter.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			logger.Info("rate limiting via redis", "addr", cfg.RedisAddr)
		} else {
			limitStore = limiter.NewMemoryStore()
		}
	}

	handler := srv.Handler()
	handler = auth.RateLimitMiddleware(limitStore, limiter.Policy{
		RPM:   cfg.RateLimitRPM,
		Burst: cfg.RateLimitBurst,
	})(handler)
	handler = auth.NewMiddleware(tokens)(handler)
	handler = obs.Middleware(handler)
	handler = auth.CORSMiddleware(cfg.CORSOrigins)(handler)
	handler = auth.RequestIDMiddleware(handler)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr(), "db", cfg.DatabasePath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

const version = "1.0.0"

func envName() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

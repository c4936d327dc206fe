// Package main initializes and starts the Perseverance API server,
// setting up configuration, logging, database connections, the optional
// stats cache, repositories, services and handlers.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/cache"
	"github.com/atinyakov/Perseverance/internal/config"
	"github.com/atinyakov/Perseverance/internal/db"
	"github.com/atinyakov/Perseverance/internal/logger"
	"github.com/atinyakov/Perseverance/internal/middleware"
	"github.com/atinyakov/Perseverance/internal/repository"
	"github.com/atinyakov/Perseverance/internal/server/handler/http"
	"github.com/atinyakov/Perseverance/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	statsTTL        = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Parse command-line and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.InitFile(options.LogLevel, options.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, zapLogger); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer postgresDB.Close()

	// Completions of deleted habits are swept periodically.
	db.StartOrphanSweeper(ctx, postgresDB, options.SweepInterval.Duration, zapLogger)

	var stats *service.StatsCache
	if options.RedisAddr != "" {
		rdb, err := cache.NewRedis(ctx, options.RedisAddr, zapLogger)
		if err != nil {
			// the API works without the cache
			zapLogger.Warn("stats cache disabled", zap.String("addr", options.RedisAddr), zap.Error(err))
		} else {
			defer rdb.Close()
			stats = service.NewStatsCache(rdb, statsTTL, zapLogger)
		}
	}

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	habitRepo := repository.NewPostgresHabitRepository(postgresDB)
	completionRepo := repository.NewPostgresCompletionRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, []byte(options.JWTSecret), options.TokenTTL.Duration)
	habitService := service.NewHabitService(habitRepo, stats)
	completionService := service.NewCompletionService(completionRepo, habitRepo, stats)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth:        &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Habits:      &http.HabitHandler{HabitService: habitService, Log: zapLogger},
		Completions: &http.CompletionHandler{CompletionService: completionService, Log: zapLogger},
		Tokens:      authService,
		Gatherer:    registry,
		Metrics:     middleware.NewMetrics(registry),
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}
	useTLS := options.TLSCert != ""

	errCh := make(chan error, 1)
	go func() {
		zapLogger.Info("starting server",
			zap.String("addr", options.Port),
			zap.Bool("tls", useTLS),
			zap.Bool("statsCache", stats != nil),
		)
		var err error
		if useTLS {
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

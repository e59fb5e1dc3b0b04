package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/timetidy/timetidy-service/internal/db"
	"github.com/timetidy/timetidy-service/internal/jobs"
	"github.com/timetidy/timetidy-service/internal/metrics"
	"github.com/timetidy/timetidy-service/internal/router"
	"github.com/timetidy/timetidy-service/internal/seed"
	"github.com/timetidy/timetidy-service/internal/service"
	"github.com/timetidy/timetidy-service/internal/websockets"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply database migrations before serving (postgres store only)")

	return cmd
}

func runServer(parent context.Context, migrate bool) error {
	cfg, logger := app.cfg, app.logger

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrate && cfg.Store.Driver == "postgres" {
		if err := db.Migrate(cfg.Database, logger); err != nil {
			return err
		}
	}

	repos, closeStore, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize WebSocket hub
	hub := websockets.NewHub(logger, m)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(ctx)
	}()

	services := service.NewServices(
		service.Deps{Repos: repos, Logger: logger, Metrics: m, Events: hub},
		service.JWTConfig{Secret: cfg.JWT.Secret, ExpiresIn: cfg.JWT.ExpiresIn},
		service.NewLoginLimiter(cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow),
		cfg.Auth.BcryptCost,
	)

	if cfg.Store.Seed {
		if _, err := seed.Run(ctx, repos, services.Auth.HashPassword, time.Now(), logger); err != nil {
			return fmt.Errorf("failed to seed store: %w", err)
		}
	}

	var sweeper *jobs.Sweeper
	if cfg.Jobs.Enabled {
		sweeper, err = jobs.NewSweeper(cfg.Jobs.NoShowSweep, services.Shift, services.CheckIn, logger)
		if err != nil {
			return err
		}
		sweeper.Start()
	}

	// Initialize router
	r := router.New(router.Config{
		Services:       services,
		Repos:          repos,
		Hub:            hub,
		Metrics:        m,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("address", cfg.Server.Address), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	stop()
	<-hubDone

	logger.Info("Server exited properly")
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "rentdesk-backend/internal/api/grpc"
	httpapi "rentdesk-backend/internal/api/http"
	"rentdesk-backend/internal/app"
	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/jobs"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/scheduler"
	"rentdesk-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply the database schema before serving")
	withScheduler := flag.Bool("with-scheduler", false, "Run the overdue sweep cron in-process (needed for memory storage)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentDesk backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress(), "storage", cfg.Storage.Type)
	logger.Info("Rental policy", "strict_return_from_active", cfg.Rentals.StrictReturnFromActive, "sweep_on_read", cfg.SweepOnRead())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage and services
	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", "error", err)
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer a.Close()

	if *migrate {
		if err := a.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.Deps{
		Rentals:     a.Rentals,
		Equipment:   a.Equipment,
		Tokens:      tokenManager,
		Idempotency: a.Idempotency,
		Health:      a.Store,
	})
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Set up gRPC health server
	var stopGRPC func()
	if addr := cfg.GetGRPCAddress(); addr != "" {
		reporter := grpcapi.NewHealthReporter(a.Store, 10*time.Second)
		go reporter.Run(ctx)

		grpcServer := grpcapi.NewServer(reporter)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		go func() {
			logger.Info("gRPC health server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
		stopGRPC = grpcServer.GracefulStop
	}

	if *withScheduler {
		cronScheduler, err := scheduler.NewScheduler(jobs.NewJobRunner(&jobs.Services{Rental: a.Rentals}, cfg))
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server error", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if stopGRPC != nil {
		stopGRPC()
	}
	logger.Info("Server stopped. Goodbye!")
}

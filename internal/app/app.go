// Package app builds the storage backend and services shared by the
// server, cronjob and rentalctl binaries.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/idempotency"
	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/repository/memory"
	"rentdesk-backend/internal/repository/postgres"
	"rentdesk-backend/internal/service"

	"github.com/redis/go-redis/v9"
)

type App struct {
	Config      *config.Config
	Store       repository.Store
	DB          *sql.DB // nil for the memory backend
	Rentals     service.RentalService
	Equipment   service.EquipmentService
	Idempotency idempotency.Store

	redis *redis.Client
}

// New opens the configured store and wires the services on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	switch cfg.Storage.Type {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		a.Store = memory.NewStore()
	default:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := postgres.Connect(cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, err
		}
		logger.Info("Database connection established")
		a.DB = db
		a.Store = postgres.NewStore(db)
	}

	a.Idempotency = idempotency.Noop{}
	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("Idempotency keys enabled", "redis", cfg.Redis.Addr, "ttl_hours", cfg.Redis.KeyTTLHours)
		a.Idempotency = idempotency.NewRedisStore(a.redis, time.Duration(cfg.Redis.KeyTTLHours)*time.Hour)
	}

	policy := service.RentalPolicy{
		StrictReturnFromActive: cfg.Rentals.StrictReturnFromActive,
		SweepOnRead:            cfg.SweepOnRead(),
	}
	a.Rentals = service.NewRentalService(a.Store, policy, nil)
	a.Equipment = service.NewEquipmentService(a.Store)
	return a, nil
}

// Migrate applies the schema; a no-op for the memory backend.
func (a *App) Migrate(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return postgres.Migrate(ctx, a.DB)
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("Failed to close redis client", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err)
		}
	}
}

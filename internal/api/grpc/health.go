package grpc

import (
	"context"
	"time"

	"rentdesk-backend/internal/logger"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "rentdesk.RentalService"

// Pinger is satisfied by repository stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps a grpc health server in sync with the database.
type HealthReporter struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
}

func NewHealthReporter(pinger Pinger, interval time.Duration) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{
		server:   health.NewServer(),
		pinger:   pinger,
		interval: interval,
		timeout:  2 * time.Second,
	}
}

func (h *HealthReporter) Server() *health.Server { return h.server }

// Check pings the database once and publishes the result.
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.pinger.Ping(ctx); err != nil {
		logger.Warn("Health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks on every tick until ctx is done, then reports NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

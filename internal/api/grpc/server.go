package grpc

import (
	"rentdesk-backend/internal/api/grpc/interceptor"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewServer builds the gRPC server exposing the health service and reflection.
func NewServer(reporter *HealthReporter) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptor.UnaryLogging()),
		grpc.ChainStreamInterceptor(interceptor.StreamLogging()),
	)
	healthpb.RegisterHealthServer(s, reporter.Server())
	reflection.Register(s)
	return s
}

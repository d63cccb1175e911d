package interceptor

import (
	"context"
	"time"

	"rentdesk-backend/internal/logger"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

// requestID reuses the caller's x-request-id or makes a new one.
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDHeader); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return uuid.NewString()
}

// UnaryLogging attaches a request-scoped logger and logs every call.
func UnaryLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		ctx = logger.WithContext(ctx, "request_id", requestID(ctx), "method", info.FullMethod)

		resp, err := handler(ctx, req)
		log := logger.FromContext(ctx)
		if err != nil {
			log.Warn("gRPC call failed", "code", status.Code(err).String(), "duration", time.Since(start), "error", err)
		} else {
			log.Debug("gRPC call", "duration", time.Since(start))
		}
		return resp, err
	}
}

type loggedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *loggedStream) Context() context.Context { return s.ctx }

func StreamLogging() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx := logger.WithContext(ss.Context(), "request_id", requestID(ss.Context()), "method", info.FullMethod)

		err := handler(srv, &loggedStream{ServerStream: ss, ctx: ctx})
		if err != nil {
			logger.FromContext(ctx).Warn("gRPC stream failed", "code", status.Code(err).String(), "duration", time.Since(start), "error", err)
		}
		return err
	}
}

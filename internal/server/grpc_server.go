package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	// registers the JSON codec the services are served with
	_ "github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/config"
)

// NewGRPCServer builds a gRPC server and registers all provided services,
// the standard health service and reflection.
func NewGRPCServer(log *slog.Logger, registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor(log)),
	)

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer listens on the configured address and serves until the
// server is stopped.
func StartGRPCServer(cfg *config.Config, grpcServer *grpc.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return grpcServer.Serve(lis)
}

// loggingInterceptor logs every unary call with its status code and latency.
func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	log = log.With("component", "grpc")
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
		if err != nil {
			log.Warn("rpc failed", append(attrs, "err", err)...)
		} else {
			log.Debug("rpc served", attrs...)
		}
		return resp, err
	}
}

package services

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/weirlabs/weir/internal/logger"
)

// serveGRPC runs a gRPC server with the standard health service registered
// until ctx is cancelled. register, when non-nil, attaches additional
// services before the listener starts accepting.
func serveGRPC(ctx context.Context, service string, port int, register func(*grpc.Server)) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("%s failed to listen on port %d: %w", service, port, err)
	}

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if register != nil {
		register(srv)
	}
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	logger.Info("grpc server listening",
		logger.KeyService, service,
		logger.KeyPort, lis.Addr().(*net.TCPAddr).Port)

	select {
	case <-ctx.Done():
		hs.Shutdown()
		srv.GracefulStop()
		return nil

	case err := <-errCh:
		return err
	}
}

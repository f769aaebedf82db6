package grpc

import (
	"log/slog"
	"net"

	sdkgrpc "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes the standard gRPC health protocol so that orchestrators
// can check the process without going through the HTTP API.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	log    *slog.Logger
}

func NewHealthServer(log *slog.Logger) *HealthServer {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(sdkgrpc.UnaryLoggingInterceptor(log)))
	h := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, h)
	return &HealthServer{server: s, health: h, log: log}
}

// Serve blocks until Stop is called. The process reports SERVING while it runs.
func (s *HealthServer) Serve(listener net.Listener) error {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.log.Info("Starting gRPC health server", "address", listener.Addr().String())
	err := s.server.Serve(listener)
	if err == grpc.ErrServerStopped {
		return nil
	}
	return err
}

// SetServing flips the status of one named component.
func (s *HealthServer) SetServing(service string, serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
}

// Stop reports NOT_SERVING to watchers, then drains in-flight calls.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

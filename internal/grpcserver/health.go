// Package grpcserver exposes the standard gRPC health service so orchestrators
// can probe the simulation service without going through HTTP.
package grpcserver

import (
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/recognition-mock/internal/logging"
)

// Service names reported by the health server besides the overall "" entry.
const (
	ServiceRecognition = "recognition.Check"
	ServiceSentence    = "passages.Sentence"
)

// HealthServer wraps a gRPC server that only serves grpc.health.v1.Health.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewHealthServer returns a server with every service marked SERVING.
func NewHealthServer(logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	for _, name := range []string{"", ServiceRecognition, ServiceSentence} {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	return &HealthServer{server: srv, health: hs, logger: logger.Named("grpc_health")}
}

// Serve blocks until the listener fails or Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("gRPC health listening", zap.String("addr", lis.Addr().String()))
	if err := h.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return logging.NewOperationError("grpcserver.serve", "", err)
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains in-flight probes.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}

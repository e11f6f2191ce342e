package server

import (
	"net"

	"github.com/pixperk/padlock/pkg/types"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server advertises the locks this process holds over the grpc health protocol.
// each lock name is a health service: SERVING while held, NOT_SERVING otherwise.
// the empty service name reports the process itself
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		grpc:   gs,
		health: hs,
		logger: logger,
	}
}

// maps a handle state onto a health status
func servingStatus(state types.State) healthpb.HealthCheckResponse_ServingStatus {
	if state == types.Held {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// publishes the state of the named lock
func (s *Server) Track(name string, state types.State) {
	status := servingStatus(state)
	s.logger.Debug("health status", zap.String("lock", name), zap.Stringer("state", state), zap.Stringer("status", status))
	s.health.SetServingStatus(name, status)
}

// blocks serving on lis until Stop
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// flips every service to NOT_SERVING, then drains in-flight rpcs
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

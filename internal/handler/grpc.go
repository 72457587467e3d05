package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const ServiceName = "eshop.OrderService"

type Pinger interface {
	Ping(ctx context.Context) error
}

// GrpcHandler serves the standard gRPC health protocol. Status follows the last database ping.
type GrpcHandler struct {
	health *health.Server
	pinger Pinger
}

func CreateGRPCHandler(pinger Pinger) *GrpcHandler {
	return &GrpcHandler{
		health: health.NewServer(),
		pinger: pinger,
	}
}

func (h *GrpcHandler) NewServer() *grpc.Server {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(s, h.health)

	return s
}

func (h *GrpcHandler) RefreshHealth(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	err := h.pinger.Ping(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "RefreshHealth").Msg("")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

func (h *GrpcHandler) Shutdown() {
	h.health.Shutdown()
}

package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the payment API.
const ServiceName = "stkpush.v1.StkPushService"

// HealthServer reports readiness over the standard grpc.health.v1 protocol.
type HealthServer struct {
	srv *health.Server
}

func NewHealthServer() *HealthServer {
	h := &HealthServer{srv: health.NewServer()}
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

func (h *HealthServer) SetServing() {
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown flips every service to NOT_SERVING and ignores later updates.
func (h *HealthServer) Shutdown() {
	h.srv.Shutdown()
}

// NewServer builds the gRPC server with call logging.
func NewServer(log *zap.Logger) *grpc.Server {
	return grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(log.Named("grpc"))))
}

func loggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warn("grpc call failed",
				zap.String("method", info.FullMethod),
				zap.Duration("took", time.Since(started)),
				zap.Error(err),
			)
			return resp, err
		}
		log.Debug("grpc call", zap.String("method", info.FullMethod), zap.Duration("took", time.Since(started)))
		return resp, nil
	}
}

package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func newHealthClientForTest(t *testing.T, h *HealthServer) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(zap.NewNop())
	h.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealthLifecycle(t *testing.T) {
	h := NewHealthServer()
	c := newHealthClientForTest(t, h)

	if got := check(t, c, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("before start = %v", got)
	}

	h.SetServing()
	if got := check(t, c, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("after start = %v", got)
	}
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("overall = %v", got)
	}

	h.Shutdown()
	if got := check(t, c, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("after shutdown = %v", got)
	}
}

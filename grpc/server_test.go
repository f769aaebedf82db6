package grpc

import (
	"chat-presence/contract"
	"context"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

var _ contract.IHealthReporter = (*HealthServer)(nil)

func TestHealthServer(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	listener := bufconn.Listen(1024 * 1024)

	server := NewHealthServer(log)
	served := make(chan error, 1)
	go func() { served <- server.Serve(listener) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	req.NoError(err)
	defer func() { _ = conn.Close() }()
	client := grpc_health_v1.NewHealthClient(conn)

	// Then the process reports serving
	req.Eventually(func() bool {
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
		return err == nil && resp.Status == grpc_health_v1.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)

	// And a named component can be marked down
	server.SetServing("sweeper", false)
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: "sweeper"})
	req.NoError(err)
	req.Equal(grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)

	server.Stop()
	req.NoError(<-served)
}

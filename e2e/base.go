package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment and skips everything when no server is configured.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ChatAddr == "" {
		s.T().Skip("CHAT_ADDR is not set, skipping end-to-end suite")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header before running fn as a subtest.
func (s *BaseSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// Call sends a JSON request as user and decodes the response into out when given.
func (s *BaseSuite) Call(method, path, user string, body, out any) int {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		payload = bytes.NewReader(b)
	}

	request, err := http.NewRequest(method, s.Config.ChatAddr+path, payload)
	s.Require().NoError(err)
	request.Header.Set("Content-Type", "application/json")
	if user != "" {
		request.Header.Set("User", user)
	}

	start := time.Now()
	response, err := s.client.Do(request)
	s.Require().NoError(err)
	defer func() { _ = response.Body.Close() }()
	raw, err := io.ReadAll(response.Body)
	s.Require().NoError(err)

	s.T().Logf("HTTP %s %s [%d] in %v", method, path, response.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		s.T().Logf("RESPONSE: %s", raw)
	}
	if out != nil && len(raw) > 0 && response.StatusCode < http.StatusBadRequest {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return response.StatusCode
}

// WithHealth provides a gRPC health client. Steps using it are skipped without GRPC_ADDR.
func (s *BaseSuite) WithHealth(fn func(ctx context.Context, client grpc_health_v1.HealthClient)) {
	if s.Config.GrpcAddr == "" {
		s.T().Skip("GRPC_ADDR is not set")
	}
	conn, err := grpc.NewClient(s.Config.GrpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GrpcAddr)
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, grpc_health_v1.NewHealthClient(conn))
}

package e2e

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

type participant struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

type testPresenceSuite struct {
	BaseSuite
}

func TestPresenceSuite(t *testing.T) {
	suite.Run(t, &testPresenceSuite{})
}

func texts(messages []message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Text)
	}
	return out
}

func (s *testPresenceSuite) TestMessageLifecycle() {
	// Unique names keep runs against a shared server independent
	ana := "ana-" + uuid.NewString()[:8]
	bruno := "bruno-" + uuid.NewString()[:8]
	text := "hi " + uuid.NewString()
	var sent message

	s.Step("Step 1: Ana joins once", func() {
		s.Require().Equal(http.StatusCreated, s.Call(http.MethodPost, "/participants", "", map[string]string{"name": ana}, nil))
		s.Require().Equal(http.StatusConflict, s.Call(http.MethodPost, "/participants", "", map[string]string{"name": ana}, nil))
	})

	s.Step("Step 2: Ana broadcasts and Bruno reads", func() {
		body := map[string]string{"to": "Todos", "text": text, "type": "message"}
		s.Require().Equal(http.StatusCreated, s.Call(http.MethodPost, "/messages", ana, body, &sent))
		s.Require().NotEmpty(sent.ID)

		var visible []message
		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/messages?limit=50", bruno, nil, &visible))
		s.Require().Contains(texts(visible), text)
	})

	s.Step("Step 3: only the author deletes", func() {
		s.Require().Equal(http.StatusCreated, s.Call(http.MethodPost, "/participants", "", map[string]string{"name": bruno}, nil))
		s.Require().Equal(http.StatusUnauthorized, s.Call(http.MethodDelete, "/messages/"+sent.ID, bruno, nil, nil))
		s.Require().Equal(http.StatusOK, s.Call(http.MethodDelete, "/messages/"+sent.ID, ana, nil, nil))

		var visible []message
		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/messages", bruno, nil, &visible))
		s.Require().NotContains(texts(visible), text)
	})
}

func (s *testPresenceSuite) TestSilentParticipantIsEvicted() {
	threshold, err := time.ParseDuration(s.Config.StaleThreshold)
	s.Require().NoError(err)
	interval, err := time.ParseDuration(s.Config.SweepInterval)
	s.Require().NoError(err)
	carla := "carla-" + uuid.NewString()[:8]

	s.Step("Step 1: Carla joins and goes silent", func() {
		s.Require().Equal(http.StatusCreated, s.Call(http.MethodPost, "/participants", "", map[string]string{"name": carla}, nil))
	})

	s.Step("Step 2: the sweeper removes her and announces it", func() {
		s.Require().Eventually(func() bool {
			var participants []participant
			s.Call(http.MethodGet, "/participants", "", nil, &participants)
			for _, p := range participants {
				if p.Name == carla {
					return false
				}
			}
			return true
		}, threshold+2*interval, time.Second)

		s.Require().Equal(http.StatusNotFound, s.Call(http.MethodPost, "/status", carla, nil, nil))
		var visible []message
		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/messages", carla, nil, &visible))
		found := false
		for _, m := range visible {
			if m.From == carla && m.Type == "status" && m.Text == "left the room..." {
				found = true
			}
		}
		s.Require().True(found, "departure notice missing")
	})
}

func (s *testPresenceSuite) TestHealth() {
	s.Step("HTTP health", func() {
		s.Require().Equal(http.StatusOK, s.Call(http.MethodGet, "/healthz", "", nil, nil))
	})

	s.Step("gRPC health", func() {
		s.WithHealth(func(ctx context.Context, client grpc_health_v1.HealthClient) {
			resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
			s.Require().NoError(err)
			s.Require().Equal(grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

			// The workers report once they have started
			for _, component := range []string{"sweeper", "store"} {
				s.Require().Eventually(func() bool {
					resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: component})
					return err == nil && resp.Status == grpc_health_v1.HealthCheckResponse_SERVING
				}, 5*time.Second, 100*time.Millisecond, component)
			}
		})
	})
}

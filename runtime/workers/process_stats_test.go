package workers

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestProcessStatsWorker(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	worker := NewProcessStatsWorker(log, 10*time.Millisecond)

	// Given no sample yet
	req.Zero(worker.Latest().PID)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Then the own process gets sampled
	req.Eventually(func() bool { return worker.Latest().PID == int32(os.Getpid()) }, time.Second, 10*time.Millisecond)
	req.NotZero(worker.Latest().RSSBytes)
	req.False(worker.Latest().SampledAt.IsZero())

	cancel()
	req.NoError(<-done)
}

package services

import (
	"chat-presence/repositories"
	"chat-presence/storage"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testRoom struct {
	participants *ParticipantService
	messages     *MessageService
	clock        *fixedClock
	log          *slog.Logger
}

// setupRoom wires both services on top of an in-memory Badger store.
func setupRoom(t *testing.T, opts ...MessageServiceOption) testRoom {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := storage.NewBadgerStore(db, log, repositories.Constraints...)
	t.Cleanup(func() { _ = store.Close() })

	clock := &fixedClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	repos := repositories.New(store, log)
	participants := NewParticipantService(log, repos.Participants, repositories.NewTransactor(store, log), clock.Now)
	messages := NewMessageService(log, repos.Messages, participants, clock.Now, opts...)
	return testRoom{participants: participants, messages: messages, clock: clock, log: log}
}

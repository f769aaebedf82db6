package repositories

import (
	"chat-presence/storage"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// SetupTestStore initializes an in-memory Badger store for testing.
func SetupTestStore(t *testing.T) (storage.Store, *slog.Logger) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := storage.NewBadgerStore(db, log, Constraints...)
	t.Cleanup(func() { _ = store.Close() })
	return store, log
}

package internal

import (
	"chat-presence/storage"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func setupInspectedStore(t *testing.T) *storage.BadgerStore {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	store := storage.NewBadgerStore(db, logs.GetLoggerFromLevel(slog.LevelDebug))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDocumentRow(t *testing.T) {
	req := require.New(t)

	row := DocumentRow(storage.Document{
		ID:     "0f8fad5b-d9cb-469f-a165-70867728950e",
		Seq:    7,
		Fields: storage.Fields{"type": "message", "text": "hi", "from": "Ana"},
	})

	req.Equal(InspectRow{Seq: 7, ID: "0f8fad5b", Type: "message", Detail: "from=Ana text=hi"}, row)
	req.Equal("-", DocumentRow(storage.Document{ID: "1"}).Type)
}

func TestDebugServer(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := setupInspectedStore(t)
	_, err := store.Insert(ctx, "participants", storage.Fields{"name": "Ana"})
	req.NoError(err)

	server := NewDebugServer(store.DB(), ":0", "/inspect", []string{"participants", "messages"}, logs.GetLoggerFromLevel(slog.LevelDebug))

	// When the default collection is requested
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	// Then its documents are listed
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "name=Ana")

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?collection=secrets", nil))
	req.Equal(http.StatusNotFound, rec.Code)
}

package search

import (
	"chat-presence/domain"
	"context"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func setupIndex(t *testing.T) *MessageIndex {
	index, err := OpenInMemory(logs.GetLoggerFromLevel(slog.LevelDebug))
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func TestMessageIndex_SearchIsCaseInsensitive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := setupIndex(t)

	req.NoError(index.Index(ctx, domain.Message{ID: "m1", From: "Ana", Text: "Who brings the Coffee tomorrow?"}))
	req.NoError(index.Index(ctx, domain.Message{ID: "m2", From: "Bruno", Text: "tea for me"}))

	for _, terms := range []string{"coffee", "COFFEE", "Coffee"} {
		ids, err := index.Search(ctx, terms, 10)
		req.NoError(err)
		req.Equal([]string{"m1"}, ids, "terms=%s", terms)
	}
}

func TestMessageIndex_UpdateAndRemove(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	index := setupIndex(t)

	// Given an indexed message
	req.NoError(index.Index(ctx, domain.Message{ID: "m1", From: "Ana", Text: "coffee"}))

	// When its text is edited
	req.NoError(index.Index(ctx, domain.Message{ID: "m1", From: "Ana", Text: "tea"}))

	// Then only the new text matches
	ids, err := index.Search(ctx, "coffee", 10)
	req.NoError(err)
	req.Empty(ids)
	ids, err = index.Search(ctx, "tea", 10)
	req.NoError(err)
	req.Equal([]string{"m1"}, ids)

	// When it is deleted, nothing matches anymore
	req.NoError(index.Remove(ctx, "m1"))
	ids, err = index.Search(ctx, "tea", 10)
	req.NoError(err)
	req.Empty(ids)
}

//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_message_index.go -package=mocks
package search

import (
	"chat-presence/domain"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
)

const (
	textField = "text"
	fromField = "from"
	idField   = "_id"
)

type IMessageIndex interface {
	Index(ctx context.Context, message domain.Message) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, terms string, max int) ([]string, error)
	Close() error
}

// MessageIndex is a full-text index over message bodies.
// It only stores IDs: visibility is decided by whoever reads the hits.
type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// Open creates or reopens an index directory.
func Open(path string, log *slog.Logger) (*MessageIndex, error) {
	return open(bluge.DefaultConfig(path), log)
}

func OpenInMemory(log *slog.Logger) (*MessageIndex, error) {
	return open(bluge.InMemoryOnlyConfig(), log)
}

func open(config bluge.Config, log *slog.Logger) (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

// Index adds the message or replaces a previous version of it.
func (i *MessageIndex) Index(_ context.Context, message domain.Message) error {
	doc := bluge.NewDocument(message.ID).
		AddField(bluge.NewTextField(textField, message.Text)).
		AddField(bluge.NewKeywordField(fromField, message.From).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

func (i *MessageIndex) Remove(_ context.Context, id string) error {
	return i.writer.Delete(bluge.Identifier(id))
}

// Search returns the IDs of at most max messages matching terms, best match first.
func (i *MessageIndex) Search(ctx context.Context, terms string, max int) ([]string, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewMatchQuery(terms).SetField(textField)
	matches, err := reader.Search(ctx, bluge.NewTopNSearch(max, query))
	if err != nil {
		return nil, err
	}

	var ids []string
	match, err := matches.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	i.log.Debug("Search executed", "terms", terms, "hits", len(ids))
	return ids, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}

//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-presence/domain"
	"chat-presence/errors"
	"chat-presence/storage"
	"context"
	"log/slog"

	"github.com/samber/lo"
)

const MessagesCollection = "messages"

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message) (domain.Message, error)
	GetMessage(ctx context.Context, id string) (domain.Message, error)
	UpdateMessage(ctx context.Context, id string, to, text string, messageType domain.MessageType) error
	DeleteMessage(ctx context.Context, id string) error
	GetVisibleMessages(ctx context.Context, user string, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	ops storage.Operations
	log *slog.Logger
}

func NewMessageRepository(ops storage.Operations, log *slog.Logger) MessageRepository {
	return MessageRepository{ops: ops, log: log}
}

// StoreMessage appends the message and returns it with the ID and sequence given by the store.
func (m MessageRepository) StoreMessage(ctx context.Context, message domain.Message) (domain.Message, error) {
	doc, err := m.ops.Insert(ctx, MessagesCollection, fromMessage(message))
	if err != nil {
		return domain.Message{}, storeError(err, errors.ErrMessageNotFound)
	}
	return toMessage(doc), nil
}

func (m MessageRepository) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	doc, err := m.ops.FindOne(ctx, MessagesCollection, storage.ByID(id))
	if err != nil {
		return domain.Message{}, storeError(err, errors.ErrMessageNotFound)
	}
	return toMessage(doc), nil
}

// UpdateMessage only rewrites the fields an owner is allowed to change.
func (m MessageRepository) UpdateMessage(ctx context.Context, id string, to, text string, messageType domain.MessageType) error {
	err := m.ops.UpdateOne(ctx, MessagesCollection, storage.ByID(id), storage.Fields{
		"to":   to,
		"text": text,
		"type": string(messageType),
	})
	return storeError(err, errors.ErrMessageNotFound)
}

func (m MessageRepository) DeleteMessage(ctx context.Context, id string) error {
	err := m.ops.DeleteOne(ctx, MessagesCollection, storage.ByID(id))
	return storeError(err, errors.ErrMessageNotFound)
}

// GetVisibleMessages pushes the audience rule down to the store and returns
// the newest messages first. limit <= 0 returns every visible message.
func (m MessageRepository) GetVisibleMessages(ctx context.Context, user string, limit int) ([]domain.Message, error) {
	filter := storage.AnyOf(
		storage.Eq("from", user),
		storage.Eq("to", user),
		storage.Eq("to", domain.BroadcastTarget),
		storage.Eq("type", string(domain.MessageTypePublic)),
	)
	docs, err := m.ops.FindMany(ctx, MessagesCollection, filter, storage.FindOptions{
		NewestFirst: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, storeError(err, errors.ErrMessageNotFound)
	}
	m.log.Debug("Visible messages loaded", "user", user, "count", len(docs), "limit", limit)
	return lo.Map(docs, func(doc storage.Document, _ int) domain.Message {
		return toMessage(doc)
	}), nil
}

func fromMessage(message domain.Message) storage.Fields {
	return storage.Fields{
		"from": message.From,
		"to":   message.To,
		"text": message.Text,
		"type": string(message.Type),
		"time": message.Time,
	}
}

func toMessage(doc storage.Document) domain.Message {
	return domain.Message{
		ID:   doc.ID,
		Seq:  doc.Seq,
		From: doc.Fields.String("from"),
		To:   doc.Fields.String("to"),
		Text: doc.Fields.String("text"),
		Type: domain.MessageType(doc.Fields.String("type")),
		Time: doc.Fields.String("time"),
	}
}

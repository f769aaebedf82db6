//go:generate go run go.uber.org/mock/mockgen -source=transactor.go -destination=../mocks/mock_transactor.go -package=mocks
package repositories

import (
	"chat-presence/errors"
	"chat-presence/storage"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
)

// Repositories groups the repositories sharing one store handle or one transaction.
type Repositories struct {
	Participants IParticipantRepository
	Messages     IMessageRepository
}

func New(ops storage.Operations, log *slog.Logger) Repositories {
	return Repositories{
		Participants: NewParticipantRepository(ops, log),
		Messages:     NewMessageRepository(ops, log),
	}
}

type ITransactor interface {
	Transact(ctx context.Context, fn func(repos Repositories) error) error
}

// Transactor runs multi-step writes (arrival, eviction) as one unit.
type Transactor struct {
	store storage.Store
	log   *slog.Logger
}

func NewTransactor(store storage.Store, log *slog.Logger) Transactor {
	return Transactor{store: store, log: log}
}

// Transact hands fn repositories bound to a single transaction.
// Errors raised by fn come back untouched; commit failures are store errors.
func (t Transactor) Transact(ctx context.Context, fn func(repos Repositories) error) error {
	err := t.store.Transact(ctx, func(ops storage.Operations) error {
		return fn(New(ops, t.log))
	})
	if err == nil || errors.IsClientError(err) || stderrors.Is(err, errors.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %w", errors.ErrStore, err)
}

// storeError maps a missing document to notFound and everything else to errors.ErrStore.
func storeError(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, storage.ErrNoDocument):
		return notFound
	default:
		return fmt.Errorf("%w: %w", errors.ErrStore, err)
	}
}

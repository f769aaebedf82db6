//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"chat-presence/domain"
	"chat-presence/errors"
	"chat-presence/storage"
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

const ParticipantsCollection = "participants"

// Constraints must be declared to the store: a name is held by one active participant at most.
var Constraints = []storage.Unique{{Collection: ParticipantsCollection, Field: "name"}}

type IParticipantRepository interface {
	CreateParticipant(ctx context.Context, participant domain.Participant) error
	GetParticipant(ctx context.Context, name string) (domain.Participant, error)
	ListParticipants(ctx context.Context) ([]domain.Participant, error)
	TouchParticipant(ctx context.Context, name string, at time.Time) error
	DeleteParticipant(ctx context.Context, name string) error
}

type ParticipantRepository struct {
	ops storage.Operations
	log *slog.Logger
}

func NewParticipantRepository(ops storage.Operations, log *slog.Logger) ParticipantRepository {
	return ParticipantRepository{ops: ops, log: log}
}

// CreateParticipant stores a participant. A name already held fails with errors.ErrNameConflict,
// provided the store enforces Constraints.
func (r ParticipantRepository) CreateParticipant(ctx context.Context, participant domain.Participant) error {
	_, err := r.ops.Insert(ctx, ParticipantsCollection, fromParticipant(participant))
	if stderrors.Is(err, storage.ErrDuplicate) {
		return errors.ErrNameConflict
	}
	return storeError(err, errors.ErrParticipantNotFound)
}

// GetParticipant returns errors.ErrParticipantNotFound when no active participant holds the name.
func (r ParticipantRepository) GetParticipant(ctx context.Context, name string) (domain.Participant, error) {
	doc, err := r.ops.FindOne(ctx, ParticipantsCollection, byName(name))
	if err != nil {
		return domain.Participant{}, storeError(err, errors.ErrParticipantNotFound)
	}
	return toParticipant(doc), nil
}

func (r ParticipantRepository) ListParticipants(ctx context.Context) ([]domain.Participant, error) {
	docs, err := r.ops.FindMany(ctx, ParticipantsCollection, storage.Filter{}, storage.FindOptions{})
	if err != nil {
		return nil, storeError(err, errors.ErrParticipantNotFound)
	}
	return lo.Map(docs, func(doc storage.Document, _ int) domain.Participant {
		return toParticipant(doc)
	}), nil
}

func (r ParticipantRepository) TouchParticipant(ctx context.Context, name string, at time.Time) error {
	err := r.ops.UpdateOne(ctx, ParticipantsCollection, byName(name), storage.Fields{
		"lastStatus": at.UnixMilli(),
	})
	return storeError(err, errors.ErrParticipantNotFound)
}

func (r ParticipantRepository) DeleteParticipant(ctx context.Context, name string) error {
	err := r.ops.DeleteOne(ctx, ParticipantsCollection, byName(name))
	return storeError(err, errors.ErrParticipantNotFound)
}

func byName(name string) storage.Filter {
	return storage.Where(storage.Eq("name", name))
}

func fromParticipant(participant domain.Participant) storage.Fields {
	return storage.Fields{
		"name":       participant.Name,
		"lastStatus": participant.LastSeen.UnixMilli(),
	}
}

func toParticipant(doc storage.Document) domain.Participant {
	return domain.Participant{
		Name:     doc.Fields.String("name"),
		LastSeen: time.UnixMilli(doc.Fields.Int64("lastStatus")),
	}
}

package services

import (
	"chat-presence/domain"
	"chat-presence/errors"
	"chat-presence/repositories"
	"context"
	stderrors "errors"
	"log/slog"
)

type IParticipantService interface {
	Join(ctx context.Context, name string) (domain.Participant, error)
	List(ctx context.Context) ([]domain.Participant, error)
	Heartbeat(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
}

// ParticipantService is the registry of active participants.
type ParticipantService struct {
	participants repositories.IParticipantRepository
	transactor   repositories.ITransactor
	clock        domain.Clock
	log          *slog.Logger
}

func NewParticipantService(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	transactor repositories.ITransactor,
	clock domain.Clock,
) *ParticipantService {
	return &ParticipantService{participants: participants, transactor: transactor, clock: clock, log: log}
}

// Join registers name and announces the arrival to the room.
// The name check, the arrival notice and the participant record are committed together:
// a failure of any step leaves no trace. Racing joins on one name are settled by the
// store's unique constraint on the name; the losers get errors.ErrNameConflict.
func (s *ParticipantService) Join(ctx context.Context, name string) (domain.Participant, error) {
	if err := validateStruct(JoinRequest{Name: name}); err != nil {
		return domain.Participant{}, err
	}

	now := s.clock()
	participant := domain.NewParticipant(name, now)
	err := s.transactor.Transact(ctx, func(repos repositories.Repositories) error {
		_, err := repos.Participants.GetParticipant(ctx, name)
		switch {
		case err == nil:
			return errors.ErrNameConflict
		case !stderrors.Is(err, errors.ErrParticipantNotFound):
			return err
		}
		if _, err = repos.Messages.StoreMessage(ctx, domain.NewArrival(name, now)); err != nil {
			return err
		}
		return repos.Participants.CreateParticipant(ctx, participant)
	})
	if err != nil {
		return domain.Participant{}, err
	}

	s.log.Info("Participant joined", "name", name)
	return participant, nil
}

func (s *ParticipantService) List(ctx context.Context) ([]domain.Participant, error) {
	return s.participants.ListParticipants(ctx)
}

// Heartbeat refreshes the participant's last-seen time. Unknown names must join again.
func (s *ParticipantService) Heartbeat(ctx context.Context, name string) error {
	if err := validateStruct(HeartbeatRequest{Name: name}); err != nil {
		return err
	}
	return s.participants.TouchParticipant(ctx, name, s.clock())
}

func (s *ParticipantService) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.participants.GetParticipant(ctx, name)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, errors.ErrParticipantNotFound):
		return false, nil
	default:
		return false, err
	}
}

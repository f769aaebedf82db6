package services

import (
	"chat-presence/domain"
	"chat-presence/errors"
	"chat-presence/repositories"
	"chat-presence/search"
	"context"
	stderrors "errors"
	"log/slog"
	"sort"

	"github.com/samber/lo"
)

// searchWindow bounds how many index hits are checked against the audience rule.
const searchWindow = 200

type IMessageService interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	Edit(ctx context.Context, cmd domain.EditMessageCommand) error
	Delete(ctx context.Context, cmd domain.DeleteMessageCommand) error
	ListVisible(ctx context.Context, cmd domain.ListMessagesCommand) ([]domain.Message, error)
	Search(ctx context.Context, cmd domain.SearchMessagesCommand) ([]domain.Message, error)
}

// Censor rewrites message text before it is stored.
type Censor interface {
	Censor(text string) (string, []string)
}

type MessageService struct {
	messages     repositories.IMessageRepository
	participants IParticipantService
	censor       Censor
	index        search.IMessageIndex
	clock        domain.Clock
	log          *slog.Logger
}

type MessageServiceOption func(*MessageService)

// WithCensor masks forbidden words in every sent or edited message.
func WithCensor(censor Censor) MessageServiceOption {
	return func(s *MessageService) { s.censor = censor }
}

// WithIndex keeps a full-text index in sync and enables Search.
func WithIndex(index search.IMessageIndex) MessageServiceOption {
	return func(s *MessageService) { s.index = index }
}

func NewMessageService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	participants IParticipantService,
	clock domain.Clock,
	opts ...MessageServiceOption,
) *MessageService {
	s := &MessageService{messages: messages, participants: participants, clock: clock, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a message from an active participant.
func (s *MessageService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := validateStruct(cmd); err != nil {
		return domain.Message{}, err
	}
	exists, err := s.participants.Exists(ctx, cmd.From)
	if err != nil {
		return domain.Message{}, err
	}
	if !exists {
		return domain.Message{}, errors.ErrNotLoggedIn
	}

	message := domain.NewMessage(cmd.From, cmd.To, s.sanitize(cmd.Text), domain.MessageType(cmd.Type), s.clock())
	stored, err := s.messages.StoreMessage(ctx, message)
	if err != nil {
		return domain.Message{}, err
	}
	s.indexMessage(ctx, stored)
	return stored, nil
}

// Edit lets the author replace recipient, text and type. ID, author and time never change.
// Status notices are append-only and cannot be edited.
func (s *MessageService) Edit(ctx context.Context, cmd domain.EditMessageCommand) error {
	if err := validateStruct(cmd); err != nil {
		return err
	}
	exists, err := s.participants.Exists(ctx, cmd.From)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrParticipantNotFound
	}

	message, err := s.messages.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		return err
	}
	if !message.Type.IsUserAuthored() || !message.OwnedBy(cmd.From) {
		return errors.ErrForbidden
	}

	message.To = cmd.To
	message.Text = s.sanitize(cmd.Text)
	message.Type = domain.MessageType(cmd.Type)
	if err = s.messages.UpdateMessage(ctx, message.ID, message.To, message.Text, message.Type); err != nil {
		return err
	}
	s.indexMessage(ctx, message)
	return nil
}

// Delete removes a message for good. Only its author may do so, and never a status notice.
func (s *MessageService) Delete(ctx context.Context, cmd domain.DeleteMessageCommand) error {
	if err := validateStruct(cmd); err != nil {
		return err
	}
	message, err := s.messages.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		return err
	}
	if !message.Type.IsUserAuthored() || !message.OwnedBy(cmd.Caller) {
		return errors.ErrForbidden
	}
	if err = s.messages.DeleteMessage(ctx, message.ID); err != nil {
		return err
	}
	if s.index != nil {
		if err = s.index.Remove(ctx, message.ID); err != nil {
			s.log.Warn("Failed to remove message from index", "id", message.ID, "error", err)
		}
	}
	return nil
}

// ListVisible returns what cmd.User may read, newest first.
// A non-positive limit returns every visible message.
func (s *MessageService) ListVisible(ctx context.Context, cmd domain.ListMessagesCommand) ([]domain.Message, error) {
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}
	return s.messages.GetVisibleMessages(ctx, cmd.User, max(cmd.Limit, 0))
}

// Search looks the terms up in the index and keeps the hits cmd.User may read, newest first.
func (s *MessageService) Search(ctx context.Context, cmd domain.SearchMessagesCommand) ([]domain.Message, error) {
	if s.index == nil {
		return nil, errors.ErrSearchDisabled
	}
	if err := validateStruct(cmd); err != nil {
		return nil, err
	}

	ids, err := s.index.Search(ctx, cmd.Query, searchWindow)
	if err != nil {
		return nil, err
	}

	var found []domain.Message
	for _, id := range ids {
		message, err := s.messages.GetMessage(ctx, id)
		if stderrors.Is(err, errors.ErrMessageNotFound) {
			// The index may lag behind a delete.
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, message)
	}

	visible := lo.Filter(found, func(m domain.Message, _ int) bool {
		return m.IsVisibleTo(cmd.User)
	})
	sort.Slice(visible, func(i, j int) bool { return visible[i].Seq > visible[j].Seq })
	if cmd.Limit > 0 && len(visible) > cmd.Limit {
		visible = visible[:cmd.Limit]
	}
	return visible, nil
}

func (s *MessageService) sanitize(text string) string {
	if s.censor == nil {
		return text
	}
	censored, words := s.censor.Censor(text)
	if len(words) > 0 {
		s.log.Info("Forbidden words masked", "count", len(words))
	}
	return censored
}

// indexMessage never fails the request: the store stays the source of truth.
func (s *MessageService) indexMessage(ctx context.Context, message domain.Message) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, message); err != nil {
		s.log.Warn("Failed to index message", "id", message.ID, "error", err)
	}
}

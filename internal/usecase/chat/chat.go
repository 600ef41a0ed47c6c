// Package chat cuida da conversa entre quem reservou e o dono do terreno.
package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/chat"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type Service struct {
	repo domain.Repository
	now  func() time.Time
}

func NewService(repo domain.Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}

// Open devolve a conversa da reserva, criando na primeira vez.
func (s *Service) Open(ctx context.Context, actorID, bookingID uint) (*models.Conversation, error) {
	b, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, notFound(err, "booking_not_found")
	}
	if b.UserID != actorID && b.OwnerID != actorID {
		return nil, httperr.ErrBusiness("booking_not_found")
	}

	c, err := s.repo.GetConversationByBooking(ctx, bookingID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = &models.Conversation{
		BookingID: b.ID,
		UserID:    b.UserID,
		OwnerID:   b.OwnerID,
	}
	if err := s.repo.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) participantConversation(ctx context.Context, repo domain.Repository, actorID, id uint) (*models.Conversation, error) {
	c, err := repo.GetConversation(ctx, id)
	if err != nil {
		return nil, notFound(err, "conversation_not_found")
	}
	if !domain.IsParticipant(c, actorID) {
		return nil, httperr.ErrBusiness("conversation_not_found")
	}
	return c, nil
}

// Send grava a mensagem e soma uma não lida para o outro participante.
func (s *Service) Send(ctx context.Context, actorID, conversationID uint, body string) (*models.Message, error) {
	body, err := domain.ValidateBody(body)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	err = s.repo.Transaction(ctx, func(tx domain.Repository) error {
		c, err := s.participantConversation(ctx, tx, actorID, conversationID)
		if err != nil {
			return err
		}

		now := s.now()
		msg = &models.Message{
			ConversationID: c.ID,
			SenderID:       actorID,
			Body:           body,
			CreatedAt:      now,
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}
		if err := tx.TouchConversation(ctx, c.ID, now); err != nil {
			return err
		}
		return tx.IncrementUnread(ctx, c.ID, domain.Recipient(c, actorID))
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) Messages(ctx context.Context, actorID, conversationID, beforeID uint, limit int) ([]models.Message, error) {
	if _, err := s.participantConversation(ctx, s.repo, actorID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	return s.repo.ListMessages(ctx, conversationID, beforeID, limit)
}

func (s *Service) MarkRead(ctx context.Context, actorID, conversationID uint) error {
	if _, err := s.participantConversation(ctx, s.repo, actorID, conversationID); err != nil {
		return err
	}
	return s.repo.ResetUnread(ctx, conversationID, actorID)
}

func (s *Service) Conversations(ctx context.Context, userID uint) ([]domain.Summary, error) {
	return s.repo.ListConversations(ctx, userID)
}

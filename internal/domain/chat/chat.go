package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

const MaxMessageLength = 2000

// ValidateBody devolve o texto sem espaços nas pontas.
func ValidateBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	n := utf8.RuneCountInString(body)
	if n == 0 || n > MaxMessageLength {
		return "", httperr.ErrBusiness("invalid_message")
	}
	return body, nil
}

func IsParticipant(c *models.Conversation, userID uint) bool {
	return userID != 0 && (c.UserID == userID || c.OwnerID == userID)
}

// Recipient é o outro lado da conversa.
func Recipient(c *models.Conversation, senderID uint) uint {
	if c.UserID == senderID {
		return c.OwnerID
	}
	return c.UserID
}

type Summary struct {
	models.Conversation
	UnreadCount int `json:"unread_count"`
}

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	GetBooking(ctx context.Context, id uint) (*models.Booking, error)

	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	GetConversationByBooking(ctx context.Context, bookingID uint) (*models.Conversation, error)
	// CreateConversation não duplica: se já existir uma para a reserva, c recebe a existente.
	CreateConversation(ctx context.Context, c *models.Conversation) error
	TouchConversation(ctx context.Context, id uint, at time.Time) error

	CreateMessage(ctx context.Context, m *models.Message) error
	// ListMessages pagina do mais novo para o mais antigo; beforeID 0 = do fim.
	ListMessages(ctx context.Context, conversationID uint, beforeID uint, limit int) ([]models.Message, error)

	IncrementUnread(ctx context.Context, conversationID, userID uint) error
	ResetUnread(ctx context.Context, conversationID, userID uint) error
	ListConversations(ctx context.Context, userID uint) ([]Summary, error)
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/field-booking/internal/domain/chat"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type ChatGormRepository struct {
	db *gorm.DB
}

func NewChatGormRepository(db *gorm.DB) *ChatGormRepository {
	return &ChatGormRepository{db: db}
}

var _ chat.Repository = (*ChatGormRepository)(nil)

func (r *ChatGormRepository) Transaction(ctx context.Context, fn func(tx chat.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ChatGormRepository{db: tx})
	})
}

func (r *ChatGormRepository) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *ChatGormRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChatGormRepository) GetConversationByBooking(ctx context.Context, bookingID uint) (*models.Conversation, error) {
	var c models.Conversation
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ChatGormRepository) CreateConversation(ctx context.Context, c *models.Conversation) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// outra requisição criou primeiro
		return r.db.WithContext(ctx).Where("booking_id = ?", c.BookingID).First(c).Error
	}
	return nil
}

func (r *ChatGormRepository) TouchConversation(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("last_message_at", at).Error
}

func (r *ChatGormRepository) CreateMessage(ctx context.Context, m *models.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ChatGormRepository) ListMessages(ctx context.Context, conversationID, beforeID uint, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var out []models.Message
	err := q.Order("id DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *ChatGormRepository) IncrementUnread(ctx context.Context, conversationID, userID uint) error {
	n := models.ConversationNotification{
		ConversationID: conversationID,
		UserID:         userID,
		UnreadCount:    1,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"unread_count": gorm.Expr("conversation_notifications.unread_count + 1"),
				"updated_at":   time.Now(),
			}),
		}).
		Create(&n).Error
}

func (r *ChatGormRepository) ResetUnread(ctx context.Context, conversationID, userID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.ConversationNotification{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("unread_count", 0).Error
}

func (r *ChatGormRepository) ListConversations(ctx context.Context, userID uint) ([]chat.Summary, error) {
	var out []chat.Summary
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select("c.*, COALESCE(n.unread_count, 0) AS unread_count").
		Joins("LEFT JOIN conversation_notifications n ON n.conversation_id = c.id AND n.user_id = ?", userID).
		Where("c.user_id = ? OR c.owner_id = ?", userID, userID).
		Order("COALESCE(c.last_message_at, c.created_at) DESC").
		Scan(&out).Error
	return out, err
}

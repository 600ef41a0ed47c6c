package models

import "time"

type Conversation struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	BookingID uint `gorm:"uniqueIndex;not null" json:"booking_id"`
	UserID    uint `gorm:"index;not null" json:"user_id"`
	OwnerID   uint `gorm:"index;not null" json:"owner_id"`

	LastMessageAt *time.Time `json:"last_message_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ConversationID uint   `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint   `gorm:"not null" json:"sender_id"`
	Body           string `gorm:"type:text;not null" json:"body"`

	CreatedAt time.Time `json:"created_at"`
}

// ConversationNotification guarda o contador de não lidas por participante.
type ConversationNotification struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ConversationID uint `gorm:"uniqueIndex:idx_conv_user;not null" json:"conversation_id"`
	UserID         uint `gorm:"uniqueIndex:idx_conv_user;not null" json:"user_id"`
	UnreadCount    int  `gorm:"default:0" json:"unread_count"`

	UpdatedAt time.Time `json:"updated_at"`
}

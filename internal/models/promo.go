package models

import (
	"time"

	"gorm.io/datatypes"
)

type PromoCode struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OwnerID uint   `gorm:"index;not null" json:"owner_id"`
	Code    string `gorm:"size:40;uniqueIndex;not null" json:"code"`

	Description   string `gorm:"size:255" json:"description"`
	DiscountType  string `gorm:"size:10;not null" json:"discount_type"`
	DiscountValue int64  `gorm:"not null" json:"discount_value"`
	MinAmount     int64  `gorm:"default:0" json:"min_amount"`
	MaxDiscount   int64  `gorm:"default:0" json:"max_discount"`

	// vazio = todos os terrenos do dono / todos os dias
	FieldIDs datatypes.JSONSlice[uint] `gorm:"type:jsonb" json:"field_ids"`
	Weekdays datatypes.JSONSlice[int]  `gorm:"type:jsonb" json:"weekdays"`

	StartTime  string     `gorm:"size:5" json:"start_time,omitempty"`
	EndTime    string     `gorm:"size:5" json:"end_time,omitempty"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`

	MaxUses        int  `gorm:"default:0" json:"max_uses"`
	MaxUsesPerUser int  `gorm:"default:0" json:"max_uses_per_user"`
	UsedCount      int  `gorm:"default:0" json:"used_count"`
	Active         bool `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PromoRedemption struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	PromoCodeID uint `gorm:"index;not null" json:"promo_code_id"`
	UserID      uint `gorm:"index;not null" json:"user_id"`
	BookingID   uint `gorm:"uniqueIndex;not null" json:"booking_id"`

	DiscountAmount int64 `json:"discount_amount"`
	Released       bool  `gorm:"default:false" json:"released"`

	CreatedAt time.Time `json:"created_at"`
}

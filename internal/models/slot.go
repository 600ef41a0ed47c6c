package models

import "time"

// FieldAvailability é um slot concreto de um terreno numa data.
type FieldAvailability struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	FieldID uint `gorm:"uniqueIndex:idx_slot_field_start;not null" json:"field_id"`

	Date      time.Time `gorm:"type:date;index" json:"date"`
	StartTime string    `gorm:"size:5" json:"start_time"`
	EndTime   string    `gorm:"size:5" json:"end_time"`
	StartsAt  time.Time `gorm:"uniqueIndex:idx_slot_field_start;not null" json:"starts_at"`
	EndsAt    time.Time `gorm:"not null" json:"ends_at"`

	IsAvailable   bool   `gorm:"default:true" json:"is_available"`
	PriceOverride *int64 `json:"price_override,omitempty"`

	OnHoldUntil *time.Time `gorm:"index" json:"on_hold_until,omitempty"`
	HoldToken   string     `gorm:"size:64" json:"-"`
	HeldBy      *uint      `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FieldAvailability) TableName() string {
	return "field_availability"
}

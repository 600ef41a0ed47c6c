package models

import "time"

// FieldSchedule é a grade semanal de um terreno (0 = domingo).
type FieldSchedule struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	FieldID uint `gorm:"uniqueIndex:idx_field_weekday;not null" json:"field_id"`

	Weekday int `gorm:"uniqueIndex:idx_field_weekday" json:"weekday"`

	OpenTime    string `gorm:"size:5" json:"open_time"`
	CloseTime   string `gorm:"size:5" json:"close_time"`
	SlotMinutes int    `gorm:"default:60" json:"slot_minutes"`
	Active      bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

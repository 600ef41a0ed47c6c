package models

import "time"

// Payout é o repasse ao dono do valor retido (escrow) de uma reserva.
type Payout struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	BookingID uint `gorm:"uniqueIndex;not null" json:"booking_id"`
	OwnerID   uint `gorm:"index;not null" json:"owner_id"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"size:3;default:'XOF'" json:"currency"`
	Status   string `gorm:"size:20;index;default:'scheduled'" json:"status"`

	ReleaseAt   time.Time  `gorm:"index" json:"release_at"`
	Provider    string     `gorm:"size:20" json:"provider,omitempty"`
	TransferRef string     `gorm:"size:128" json:"transfer_ref,omitempty"`
	Attempts    int        `gorm:"default:0" json:"attempts"`
	LastError   string     `gorm:"size:255" json:"last_error,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`

	// início da tentativa em curso; vale como lease do status processing
	ProcessingSince *time.Time `gorm:"index" json:"processing_since,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

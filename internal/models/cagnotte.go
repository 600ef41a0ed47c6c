package models

import "time"

// Cagnotte é a vaquinha de um slot: vários usuários pagam uma reserva.
type Cagnotte struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	SlotID      uint `gorm:"index;not null" json:"slot_id"`
	FieldID     uint `gorm:"index;not null" json:"field_id"`
	OrganizerID uint `gorm:"index;not null" json:"organizer_id"`

	Title           string `gorm:"size:120" json:"title"`
	NetAmount       int64  `gorm:"not null" json:"net_amount"`
	TargetAmount    int64  `gorm:"not null" json:"target_amount"`
	CollectedAmount int64  `gorm:"default:0" json:"collected_amount"`
	HoldPercent     int    `gorm:"default:50" json:"hold_percent"`
	Currency        string `gorm:"size:3;default:'XOF'" json:"currency"`

	Status    string    `gorm:"size:20;index;default:'collecting'" json:"status"`
	BookingID *uint     `json:"booking_id,omitempty"`
	Deadline  time.Time `gorm:"index" json:"deadline"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`

	Contributions []CagnotteContribution `gorm:"foreignKey:CagnotteID" json:"contributions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CagnotteContribution struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CagnotteID uint `gorm:"index;not null" json:"cagnotte_id"`
	UserID     uint `gorm:"index;not null" json:"user_id"`

	Amount           int64  `gorm:"not null" json:"amount"`
	Status           string `gorm:"size:20;default:'pending'" json:"status"`
	PaymentReference string `gorm:"size:64;index" json:"payment_reference"`
	Provider         string `gorm:"size:20" json:"provider"`
	TransactionID    string `gorm:"size:128" json:"transaction_id,omitempty"`

	RefundStatus string     `gorm:"size:20;default:'none'" json:"refund_status"`
	RefundError  string     `gorm:"size:255" json:"-"`
	RefundedAt   *time.Time `json:"refunded_at,omitempty"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

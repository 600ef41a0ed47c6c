package models

import "time"

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID  uint   `gorm:"index;not null" json:"user_id"`
	User    *User  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"user,omitempty"`
	FieldID uint   `gorm:"index;not null" json:"field_id"`
	Field   *Field `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"field,omitempty"`
	SlotID  uint   `gorm:"index;not null" json:"slot_id"`
	OwnerID uint   `gorm:"index;not null" json:"owner_id"`

	BookingDate time.Time `gorm:"type:date" json:"booking_date"`
	StartTime   string    `gorm:"size:5" json:"start_time"`
	EndTime     string    `gorm:"size:5" json:"end_time"`
	StartsAt    time.Time `gorm:"index" json:"starts_at"`
	EndsAt      time.Time `gorm:"index" json:"ends_at"`

	Status        string `gorm:"size:20;index;default:'pending'" json:"status"`
	PaymentStatus string `gorm:"size:20;default:'unpaid'" json:"payment_status"`
	PaymentMode   string `gorm:"size:10;default:'full'" json:"payment_mode"`

	TotalAmount      int64  `json:"total_amount"`
	NetAmount        int64  `json:"net_amount"`
	CommissionAmount int64  `json:"commission_amount"`
	DiscountAmount   int64  `json:"discount_amount"`
	AmountDueOnline  int64  `json:"amount_due_online"`
	AmountDueOnSite  int64  `json:"amount_due_on_site"`
	OwnerAmount      int64  `json:"owner_amount"`
	Currency         string `gorm:"size:3;default:'XOF'" json:"currency"`

	PromoCodeID *uint `json:"promo_code_id,omitempty"`
	CagnotteID  *uint `gorm:"index" json:"cagnotte_id,omitempty"`

	PaymentProvider string `gorm:"size:20" json:"payment_provider,omitempty"`
	PaymentIntentID string `gorm:"size:128;index" json:"payment_intent_id,omitempty"`
	HoldToken       string `gorm:"size:64" json:"-"`

	ExpiresAt        *time.Time `gorm:"index" json:"expires_at,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	OwnerConfirmedAt *time.Time `json:"owner_confirmed_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	RefundedAt       *time.Time `json:"refunded_at,omitempty"`
	CancelReason     string     `gorm:"size:255" json:"cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

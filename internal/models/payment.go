package models

import "time"

const (
	PaymentPurposeBooking      = "booking"
	PaymentPurposeContribution = "contribution"
)

const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusExpired   = "expired"
	PaymentStatusRefunded  = "refunded"
)

// Payment é a tentativa de cobrança junto a um gateway.
type Payment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	Provider  string `gorm:"size:20;not null" json:"provider"`
	Purpose   string `gorm:"size:20;not null" json:"purpose"`

	BookingID      *uint `gorm:"index" json:"booking_id,omitempty"`
	ContributionID *uint `gorm:"index" json:"contribution_id,omitempty"`
	PayerID        uint  `gorm:"index" json:"payer_id"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"size:3;default:'XOF'" json:"currency"`
	Status   string `gorm:"size:20;index;default:'initiated'" json:"status"`

	ProviderRef string     `gorm:"size:128;index" json:"provider_ref,omitempty"`
	CheckoutURL string     `gorm:"size:500" json:"checkout_url,omitempty"`
	RawStatus   string     `gorm:"size:40" json:"raw_status,omitempty"`
	FailReason  string     `gorm:"size:255" json:"fail_reason,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	RefundedAt  *time.Time `json:"refunded_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookEvent é o ledger de idempotência dos webhooks.
type WebhookEvent struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Provider  string `gorm:"size:20;uniqueIndex:idx_webhook_provider_event;not null" json:"provider"`
	EventID   string `gorm:"size:160;uniqueIndex:idx_webhook_provider_event;not null" json:"event_id"`
	Reference string `gorm:"size:64;index" json:"reference"`

	ProcessedAt time.Time `json:"processed_at"`
}

// Package events publica e consome os eventos de domínio via RabbitMQ.
package events

import (
	"encoding/json"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/models"
)

// Routing keys
const (
	RKBookingCreated   = "booking.created"
	RKBookingApproved  = "booking.approved"
	RKBookingConfirmed = "booking.confirmed"
	RKBookingCancelled = "booking.cancelled"
	RKBookingExpired   = "booking.expired"
	RKBookingRefunded  = "booking.refunded"
	RKBookingCompleted = "booking.completed"
	RKPaymentFailed    = "payment.failed"
	RKCagnotteHolding  = "cagnotte.holding"
	RKCagnotteComplete = "cagnotte.completed"
	RKCagnotteClosed   = "cagnotte.closed"
	RKPayoutPaid       = "payout.paid"
)

// Bindings usados pelo worker de notificações.
var NotificationBindings = []string{"booking.*", "payment.*", "cagnotte.*", "payout.*"}

type BookingEvent struct {
	BookingID uint      `json:"booking_id"`
	UserID    uint      `json:"user_id"`
	OwnerID   uint      `json:"owner_id"`
	FieldID   uint      `json:"field_id"`
	Status    string    `json:"status"`
	StartsAt  time.Time `json:"starts_at"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Reason    string    `json:"reason,omitempty"`
}

func NewBookingEvent(b *models.Booking) BookingEvent {
	return BookingEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		OwnerID:   b.OwnerID,
		FieldID:   b.FieldID,
		Status:    b.Status,
		StartsAt:  b.StartsAt,
		Amount:    b.AmountDueOnline,
		Currency:  b.Currency,
		Reason:    b.CancelReason,
	}
}

type CagnotteEvent struct {
	CagnotteID     uint   `json:"cagnotte_id"`
	OrganizerID    uint   `json:"organizer_id"`
	SlotID         uint   `json:"slot_id"`
	BookingID      *uint  `json:"booking_id,omitempty"`
	Status         string `json:"status"`
	Collected      int64  `json:"collected"`
	Target         int64  `json:"target"`
	ContributorIDs []uint `json:"contributor_ids,omitempty"`
}

func NewCagnotteEvent(c *models.Cagnotte, contributors []uint) CagnotteEvent {
	return CagnotteEvent{
		CagnotteID:     c.ID,
		OrganizerID:    c.OrganizerID,
		SlotID:         c.SlotID,
		BookingID:      c.BookingID,
		Status:         c.Status,
		Collected:      c.CollectedAmount,
		Target:         c.TargetAmount,
		ContributorIDs: contributors,
	}
}

type PayoutEvent struct {
	PayoutID    uint   `json:"payout_id"`
	BookingID   uint   `json:"booking_id"`
	OwnerID     uint   `json:"owner_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	TransferRef string `json:"transfer_ref"`
}

type PaymentEvent struct {
	Reference string `json:"reference"`
	Provider  string `json:"provider"`
	PayerID   uint   `json:"payer_id"`
	BookingID *uint  `json:"booking_id,omitempty"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason,omitempty"`
}

func Unmarshal[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}

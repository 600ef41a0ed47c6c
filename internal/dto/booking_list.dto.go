package dto

import (
	"time"

	"github.com/BruksfildServices01/field-booking/internal/models"
)

// BookingListDTO é a linha enxuta das listagens de reservas.
type BookingListDTO struct {
	ID              uint      `json:"id"`
	FieldID         uint      `json:"field_id"`
	FieldName       string    `json:"field_name"`
	UserName        string    `json:"user_name,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	PaymentMode     string    `json:"payment_mode"`
	TotalAmount     int64     `json:"total_amount"`
	AmountDueOnline int64     `json:"amount_due_online"`
	AmountDueOnSite int64     `json:"amount_due_on_site"`
	OwnerAmount     int64     `json:"owner_amount"`
	Currency        string    `json:"currency"`
	CagnotteID      *uint     `json:"cagnotte_id,omitempty"`
}

func BookingList(bookings []models.Booking) []BookingListDTO {
	out := make([]BookingListDTO, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]

		row := BookingListDTO{
			ID:              b.ID,
			FieldID:         b.FieldID,
			StartsAt:        b.StartsAt,
			EndsAt:          b.EndsAt,
			Status:          b.Status,
			PaymentStatus:   b.PaymentStatus,
			PaymentMode:     b.PaymentMode,
			TotalAmount:     b.TotalAmount,
			AmountDueOnline: b.AmountDueOnline,
			AmountDueOnSite: b.AmountDueOnSite,
			OwnerAmount:     b.OwnerAmount,
			Currency:        b.Currency,
			CagnotteID:      b.CagnotteID,
		}
		if b.Field != nil {
			row.FieldName = b.Field.Name
		}
		if b.User != nil {
			row.UserName = b.User.Name
		}
		out = append(out, row)
	}
	return out
}

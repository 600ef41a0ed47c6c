package booking

import (
	"context"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/payout"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type CompleteBooking struct {
	deps Deps
}

func NewCompleteBooking(deps Deps) *CompleteBooking {
	return &CompleteBooking{deps: deps}
}

// Execute conclui uma reserva paga cujo jogo terminou e agenda o repasse.
func (uc *CompleteBooking) Execute(ctx context.Context, bookingID uint) (bool, error) {
	d := uc.deps
	now := d.Clock()

	var b *models.Booking
	var po *models.Payout

	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = tx.LockBooking(ctx, bookingID); err != nil {
			return NotFound(err, "booking_not_found")
		}
		if !domain.Status(b.Status).IsPaid() || now.Before(b.EndsAt) {
			b = nil
			return nil
		}
		if err := domain.Complete(b, now); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if b.OwnerAmount <= 0 {
			return nil
		}
		po = payout.Schedule(b, d.Policy.EscrowReleaseDelay)
		return tx.CreatePayout(ctx, po)
	})
	if err != nil || b == nil {
		return false, err
	}

	d.SchedulePayout(ctx, po)
	d.Record(nil, "booking_completed", "booking", b.ID, nil)
	d.Emit(ctx, BookingMessage(events.RKBookingCompleted, b))
	return true, nil
}

package booking

import (
	"context"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type ExpireBooking struct {
	deps Deps
}

func NewExpireBooking(deps Deps) *ExpireBooking {
	return &ExpireBooking{deps: deps}
}

// Execute é idempotente: reserva fora de pending/approved ou ainda no prazo não muda.
func (uc *ExpireBooking) Execute(ctx context.Context, bookingID uint) (bool, error) {
	d := uc.deps
	now := d.Clock()

	var b *models.Booking
	changed := false

	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = tx.LockBooking(ctx, bookingID); err != nil {
			return NotFound(err, "booking_not_found")
		}

		st := domain.Status(b.Status)
		if st != domain.StatusPending && st != domain.StatusApproved {
			return nil
		}
		if !domain.IsExpired(b, now) {
			return nil
		}

		if err := domain.Expire(b, now); err != nil {
			return err
		}
		if err := ReleaseSlotHold(ctx, tx, b.SlotID, b.HoldToken); err != nil {
			return err
		}
		if err := tx.ReleasePromoRedemption(ctx, b.ID); err != nil {
			return err
		}
		changed = true
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil || !changed {
		return false, err
	}

	d.Record(nil, "booking_expired", "booking", b.ID, nil)
	d.Emit(ctx, BookingMessage(events.RKBookingExpired, b))
	return true, nil
}

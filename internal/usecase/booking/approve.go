package booking

import (
	"context"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

// lockOwned trava a reserva e confere o dono.
func lockOwned(ctx context.Context, tx domain.Repository, bookingID, ownerID uint) (*models.Booking, error) {
	b, err := tx.LockBooking(ctx, bookingID)
	if err != nil {
		return nil, NotFound(err, "booking_not_found")
	}
	if b.OwnerID != ownerID {
		return nil, httperr.ErrBusiness("forbidden")
	}
	return b, nil
}

type ApproveBooking struct {
	deps Deps
}

func NewApproveBooking(deps Deps) *ApproveBooking {
	return &ApproveBooking{deps: deps}
}

func (uc *ApproveBooking) Execute(
	ctx context.Context,
	ownerID uint,
	bookingID uint,
) (*models.Booking, error) {

	d := uc.deps
	now := d.Clock()

	var b *models.Booking
	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		b, err = lockOwned(ctx, tx, bookingID, ownerID)
		if err != nil {
			return err
		}
		if domain.Status(b.Status) == domain.StatusPending && domain.IsExpired(b, now) {
			return httperr.ErrBusiness("booking_expired")
		}

		if err := domain.Approve(b, now, d.Policy.PaymentWindow); err != nil {
			return err
		}
		if b.ExpiresAt.After(b.StartsAt) {
			b.ExpiresAt = ptr(b.StartsAt)
		}

		// o hold acompanha a nova janela de pagamento
		slot, err := tx.LockSlot(ctx, b.SlotID)
		if err != nil {
			return NotFound(err, "slot_not_found")
		}
		if slot.HoldToken == b.HoldToken {
			domain.Hold(slot, b.HoldToken, b.UserID, *b.ExpiresAt)
			if err := tx.UpdateSlot(ctx, slot); err != nil {
				return err
			}
		}

		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	d.scheduleExpiry(ctx, b)
	d.Record(&ownerID, "booking_approved", "booking", b.ID, nil)
	d.Emit(ctx, BookingMessage(events.RKBookingApproved, b))

	return b, nil
}

type RejectBooking struct {
	deps Deps
}

func NewRejectBooking(deps Deps) *RejectBooking {
	return &RejectBooking{deps: deps}
}

func (uc *RejectBooking) Execute(
	ctx context.Context,
	ownerID uint,
	bookingID uint,
	reason string,
) (*models.Booking, error) {

	d := uc.deps
	now := d.Clock()
	if reason == "" {
		reason = "rejected_by_owner"
	}

	var b *models.Booking
	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		b, err = lockOwned(ctx, tx, bookingID, ownerID)
		if err != nil {
			return err
		}
		if err := domain.Reject(b, now, reason); err != nil {
			return err
		}
		if err := ReleaseSlotHold(ctx, tx, b.SlotID, b.HoldToken); err != nil {
			return err
		}
		if err := tx.ReleasePromoRedemption(ctx, b.ID); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	d.Record(&ownerID, "booking_rejected", "booking", b.ID, map[string]any{"reason": reason})
	d.Emit(ctx, BookingMessage(events.RKBookingCancelled, b))

	return b, nil
}

type ConfirmBookingByOwner struct {
	deps Deps
}

func NewConfirmBookingByOwner(deps Deps) *ConfirmBookingByOwner {
	return &ConfirmBookingByOwner{deps: deps}
}

func (uc *ConfirmBookingByOwner) Execute(
	ctx context.Context,
	ownerID uint,
	bookingID uint,
) (*models.Booking, error) {

	d := uc.deps
	now := d.Clock()

	var b *models.Booking
	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		b, err = lockOwned(ctx, tx, bookingID, ownerID)
		if err != nil {
			return err
		}
		if err := domain.ConfirmByOwner(b, now); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	d.Record(&ownerID, "booking_owner_confirmed", "booking", b.ID, nil)
	return b, nil
}

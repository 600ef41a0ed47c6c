package cagnotte

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	bookingdomain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	domain "github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/models"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

type CloseCagnotte struct {
	deps bookinguc.Deps
}

func NewCloseCagnotte(deps bookinguc.Deps) *CloseCagnotte {
	return &CloseCagnotte{deps: deps}
}

// Expire encerra uma cagnotte vencida. Ainda no prazo ou já fechada → (false, nil).
func (uc *CloseCagnotte) Expire(ctx context.Context, cagnotteID uint) (bool, error) {
	c, err := uc.close(ctx, cagnotteID, domain.StatusExpired, nil)
	if httperr.IsBusiness(err, "invalid_state") {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

// Cancel é o cancelamento pelo organizador antes da meta.
func (uc *CloseCagnotte) Cancel(ctx context.Context, cagnotteID, organizerID uint) (*models.Cagnotte, error) {
	c, err := uc.deps.Repo.GetCagnotte(ctx, cagnotteID)
	if err != nil {
		return nil, bookinguc.NotFound(err, "cagnotte_not_found")
	}
	if c.OrganizerID != organizerID {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if !domain.Status(c.Status).IsOpen() {
		return nil, httperr.ErrBusiness("cagnotte_closed")
	}
	return uc.close(ctx, cagnotteID, domain.StatusCancelled, &organizerID)
}

func (uc *CloseCagnotte) close(
	ctx context.Context,
	cagnotteID uint,
	to domain.Status,
	actorID *uint,
) (*models.Cagnotte, error) {

	d := uc.deps

	release, err := d.Locker.Acquire(ctx, fmt.Sprintf("cagnotte:%d", cagnotteID), d.Policy.SlotLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, httperr.ErrBusiness("cagnotte_busy")
	}
	if err != nil {
		return nil, err
	}
	defer release()

	now := d.Clock()

	var c *models.Cagnotte
	var b *models.Booking
	var ids []uint

	err = d.Repo.Transaction(ctx, func(tx bookingdomain.Repository) error {
		var err error
		if c, err = tx.LockCagnotte(ctx, cagnotteID); err != nil {
			return bookinguc.NotFound(err, "cagnotte_not_found")
		}
		if err := domain.Close(c, to, now); err != nil {
			return err
		}

		// --------------------------------------------------
		// 1️⃣ Reserva provisória + hold do slot
		// --------------------------------------------------
		if c.BookingID != nil {
			if b, err = tx.LockBooking(ctx, *c.BookingID); err != nil {
				return err
			}
			if bookingdomain.Status(b.Status) == bookingdomain.StatusProvisional {
				if to == domain.StatusExpired {
					err = bookingdomain.Expire(b, now)
				} else {
					err = bookingdomain.Cancel(b, now, "cagnotte_cancelled")
				}
				if err != nil {
					return err
				}
				if err := tx.UpdateBooking(ctx, b); err != nil {
					return err
				}
			} else {
				b = nil
			}
		}
		if err := bookinguc.ReleaseSlotHold(ctx, tx, c.SlotID, domain.HoldToken(c)); err != nil {
			return err
		}

		// --------------------------------------------------
		// 2️⃣ Contribuições pagas → reembolso
		// --------------------------------------------------
		if ids, err = bookinguc.MarkContributionsForRefund(ctx, tx, c.ID); err != nil {
			return err
		}
		return tx.UpdateCagnotte(ctx, c)
	})
	if err != nil {
		return nil, err
	}

	d.RefundContributions(ctx, ids)

	d.Record(actorID, "cagnotte_"+string(to), "cagnotte", c.ID, map[string]any{
		"collected": c.CollectedAmount,
		"refunds":   len(ids),
	})

	msgs := []events.Message{cagnotteMessage(events.RKCagnotteClosed, c)}
	if b != nil {
		key := events.RKBookingExpired
		if to == domain.StatusCancelled {
			key = events.RKBookingCancelled
		}
		msgs = append(msgs, bookinguc.BookingMessage(key, b))
	}
	d.Emit(ctx, msgs...)

	d.Log.Info("cagnotte closed",
		zap.Uint("cagnotte_id", c.ID),
		zap.String("status", c.Status),
		zap.Int("refunds", len(ids)),
	)
	return c, nil
}

// ExpireDue varre as cagnottes vencidas (rede de segurança do job agendado).
func (uc *CloseCagnotte) ExpireDue(ctx context.Context, limit int) (int, error) {
	list, err := uc.deps.Repo.ListCagnottesToExpire(ctx, uc.deps.Clock(), limit)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, c := range list {
		ok, err := uc.Expire(ctx, c.ID)
		if err != nil {
			uc.deps.Log.Warn("cagnotte expiry failed", zap.Uint("cagnotte_id", c.ID), zap.Error(err))
			continue
		}
		if ok {
			n++
		}
	}
	return n, nil
}

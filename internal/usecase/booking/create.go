package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
)

// ======================================================
// INPUT
// ======================================================

type CreateBookingInput struct {
	UserID      uint
	SlotID      uint
	PaymentMode string
	PromoCode   string
}

// ======================================================
// USE CASE
// ======================================================

type CreateBooking struct {
	deps Deps
}

func NewCreateBooking(deps Deps) *CreateBooking {
	return &CreateBooking{deps: deps}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateBookingInput,
) (*models.Booking, error) {

	d := uc.deps
	repo := d.Repo

	// --------------------------------------------------
	// 1️⃣ Slot + terreno
	// --------------------------------------------------
	slot, err := repo.GetSlot(ctx, in.SlotID)
	if err != nil {
		return nil, NotFound(err, "slot_not_found")
	}

	field, err := repo.GetField(ctx, slot.FieldID)
	if err != nil {
		return nil, NotFound(err, "field_not_found")
	}
	if !field.IsBookable() {
		return nil, httperr.ErrBusiness("field_unavailable")
	}
	if field.OwnerID == in.UserID {
		return nil, httperr.ErrBusiness("own_field")
	}

	// --------------------------------------------------
	// 2️⃣ Modo de pagamento
	// --------------------------------------------------
	mode, err := domain.ParseMode(in.PaymentMode)
	if err != nil {
		return nil, err
	}
	depositPercent := field.DepositPercent
	if depositPercent <= 0 {
		depositPercent = d.Policy.DefaultDepositPercent
	}

	// --------------------------------------------------
	// 3️⃣ Cagnotte aberta segura o slot
	// --------------------------------------------------
	open, err := repo.HasOpenCagnotte(ctx, slot.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, httperr.ErrBusiness("slot_on_hold")
	}

	// --------------------------------------------------
	// 4️⃣ Lock distribuído do slot (falha rápido)
	// --------------------------------------------------
	release, err := d.Locker.Acquire(ctx, fmt.Sprintf("slot:%d", slot.ID), d.Policy.SlotLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, httperr.ErrBusiness("slot_on_hold")
	}
	if err != nil {
		return nil, err
	}
	defer release()

	now := d.Clock()
	loc := timezone.Location(field.Timezone)
	token := uuid.NewString()

	var b *models.Booking

	// --------------------------------------------------
	// 5️⃣ Transação: row lock + checagens + hold + reserva
	// --------------------------------------------------
	err = repo.Transaction(ctx, func(tx domain.Repository) error {
		slot, err := tx.LockSlot(ctx, in.SlotID)
		if err != nil {
			return NotFound(err, "slot_not_found")
		}
		if err := domain.CanHold(slot, token, now); err != nil {
			return err
		}

		busy, err := tx.HasActiveOverlap(ctx, slot.FieldID, slot.StartsAt, slot.EndsAt, 0)
		if err != nil {
			return err
		}
		if busy {
			return httperr.ErrBusiness("slot_unavailable")
		}

		net := domain.SlotNetPrice(slot, field)

		// promo
		var pc *models.PromoCode
		var discount int64
		if in.PromoCode != "" {
			pc, discount, err = ResolvePromo(ctx, tx, in.PromoCode, in.UserID, field, slot, net, now)
			if err != nil {
				return err
			}
			ok, err := tx.ReservePromoUse(ctx, pc.ID)
			if err != nil {
				return err
			}
			if !ok {
				return httperr.ErrBusiness("promo_exhausted")
			}
		}

		quote, err := domain.NewQuote(net, d.Policy.CommissionRate, mode, depositPercent, discount)
		if err != nil {
			return err
		}

		b = &models.Booking{
			UserID:        in.UserID,
			FieldID:       field.ID,
			SlotID:        slot.ID,
			OwnerID:       field.OwnerID,
			BookingDate:   slot.Date,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			StartsAt:      slot.StartsAt,
			EndsAt:        slot.EndsAt,
			PaymentStatus: string(domain.PaymentUnpaid),
			Currency:      d.Policy.Currency,
			HoldToken:     token,
		}
		quote.Apply(b)
		if pc != nil {
			b.PromoCodeID = &pc.ID
		}

		// status inicial: aprovação do dono ou direto para pagamento
		if field.RequiresApproval {
			b.Status = string(domain.StatusPending)
			b.ExpiresAt = ptr(now.Add(d.Policy.ApprovalTTL))
		} else {
			b.Status = string(domain.StatusApproved)
			b.ApprovedAt = ptr(now)
			b.ExpiresAt = ptr(now.Add(d.Policy.PaymentWindow))
		}
		// o prazo nunca passa do início do jogo
		if b.ExpiresAt.After(slot.StartsAt) {
			b.ExpiresAt = ptr(slot.StartsAt)
		}

		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}

		if pc != nil {
			if err := tx.CreatePromoRedemption(ctx, &models.PromoRedemption{
				PromoCodeID:    pc.ID,
				UserID:         in.UserID,
				BookingID:      b.ID,
				DiscountAmount: quote.Discount,
			}); err != nil {
				return err
			}
		}

		domain.Hold(slot, token, in.UserID, *b.ExpiresAt)
		return tx.UpdateSlot(ctx, slot)
	})
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6️⃣ Expiração agendada + auditoria + evento
	// --------------------------------------------------
	d.scheduleExpiry(ctx, b)

	d.Record(&in.UserID, "booking_created", "booking", b.ID, map[string]any{
		"slot_id":    b.SlotID,
		"status":     b.Status,
		"mode":       b.PaymentMode,
		"due_online": b.AmountDueOnline,
		"local_time": b.StartsAt.In(loc).Format("2006-01-02 15:04"),
	})
	d.Emit(ctx, BookingMessage(events.RKBookingCreated, b))

	return b, nil
}

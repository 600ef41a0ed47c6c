package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/payout"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type CancelBookingInput struct {
	ActorID   uint
	BookingID uint
	ByOwner   bool
	Reason    string
}

type CancelBooking struct {
	deps Deps
}

func NewCancelBooking(deps Deps) *CancelBooking {
	return &CancelBooking{deps: deps}
}

// Execute aplica a política de cancelamento:
//   - pending / approved: cancela e solta o slot;
//   - pago, pelo dono: sempre reembolsa;
//   - pago, pelo usuário: reembolsa até REFUND_CUTOFF antes do início, depois disso
//     cancela sem reembolso e o dono recebe o repasse.
func (uc *CancelBooking) Execute(
	ctx context.Context,
	in CancelBookingInput,
) (*models.Booking, error) {

	d := uc.deps

	release, err := d.Locker.Acquire(ctx, fmt.Sprintf("booking:%d", in.BookingID), refundLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, httperr.ErrBusiness("booking_busy")
	}
	if err != nil {
		return nil, err
	}
	defer release()

	b, err := d.Repo.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, NotFound(err, "booking_not_found")
	}
	if in.ByOwner && b.OwnerID != in.ActorID {
		return nil, httperr.ErrBusiness("forbidden")
	}
	if !in.ByOwner && b.UserID != in.ActorID {
		return nil, httperr.ErrBusiness("booking_not_found")
	}

	reason := in.Reason
	if reason == "" {
		reason = "cancelled_by_user"
		if in.ByOwner {
			reason = "cancelled_by_owner"
		}
	}

	now := d.Clock()
	status := domain.Status(b.Status)

	switch {
	case status == domain.StatusPending || status == domain.StatusApproved:
		return uc.cancelUnpaid(ctx, in, reason)

	case status == domain.StatusProvisional:
		return nil, httperr.ErrBusiness("cagnotte_booking")

	case status.IsPaid():
		if b.CagnotteID != nil {
			if !in.ByOwner {
				return nil, httperr.ErrBusiness("cagnotte_booking")
			}
			return uc.refundCagnotte(ctx, in, reason)
		}
		if in.ByOwner || domain.RefundEligible(b, now, d.Policy.RefundCutoff) {
			return uc.refund(ctx, in, reason)
		}
		return uc.cancelLate(ctx, in, reason)
	}

	return nil, httperr.ErrBusiness("invalid_transition")
}

func (uc *CancelBooking) cancelUnpaid(ctx context.Context, in CancelBookingInput, reason string) (*models.Booking, error) {
	d := uc.deps
	now := d.Clock()

	var b *models.Booking
	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = tx.LockBooking(ctx, in.BookingID); err != nil {
			return err
		}
		if err := domain.Cancel(b, now, reason); err != nil {
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

	d.Record(&in.ActorID, "booking_cancelled", "booking", b.ID, map[string]any{"reason": reason})
	d.Emit(ctx, BookingMessage(events.RKBookingCancelled, b))
	return b, nil
}

// cancelLate: dentro do prazo de corte o pagamento fica com o dono.
func (uc *CancelBooking) cancelLate(ctx context.Context, in CancelBookingInput, reason string) (*models.Booking, error) {
	d := uc.deps
	now := d.Clock()

	var b *models.Booking
	var po *models.Payout
	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = tx.LockBooking(ctx, in.BookingID); err != nil {
			return err
		}
		if err := domain.Cancel(b, now, reason); err != nil {
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
	if err != nil {
		return nil, err
	}

	d.SchedulePayout(ctx, po)
	d.Record(&in.ActorID, "booking_cancelled_late", "booking", b.ID, map[string]any{"reason": reason})
	d.Emit(ctx, BookingMessage(events.RKBookingCancelled, b))
	return b, nil
}

func (uc *CancelBooking) refund(ctx context.Context, in CancelBookingInput, reason string) (*models.Booking, error) {
	d := uc.deps

	pay, err := d.Repo.GetPaidPaymentForBooking(ctx, in.BookingID)
	if err != nil {
		return nil, NotFound(err, "payment_not_found")
	}

	// ---- 1️⃣ Transição válida e repasse retido antes de devolver o dinheiro
	var held *models.Payout
	var heldStatus string
	err = d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		b, err := tx.LockBooking(ctx, in.BookingID)
		if err != nil {
			return err
		}
		if err := domain.CanTransition(domain.Status(b.Status), domain.StatusRefunded); err != nil {
			return err
		}
		held, heldStatus, err = holdPayout(ctx, tx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// ---- 2️⃣ Gateway fora da transação, protegido pelo lock da reserva
	if err := d.RefundPayment(ctx, pay, reason); err != nil {
		uc.releaseHold(ctx, held, heldStatus)
		d.Record(&in.ActorID, "booking_refund_failed", "booking", in.BookingID, nil)
		return nil, err
	}

	// ---- 3️⃣ Reserva e pagamento reembolsados
	now := d.Clock()
	var b *models.Booking
	err = d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = tx.LockBooking(ctx, in.BookingID); err != nil {
			return err
		}
		if err := domain.Refund(b, now, reason); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}

		p, err := tx.LockPaymentByReference(ctx, pay.Reference)
		if err != nil {
			return err
		}
		p.Status = models.PaymentStatusRefunded
		p.RefundedAt = &now
		return tx.UpdatePayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	d.Record(&in.ActorID, "booking_refunded", "booking", b.ID, map[string]any{
		"reason": reason,
		"amount": pay.Amount,
	})
	d.Emit(ctx, BookingMessage(events.RKBookingRefunded, b))
	return b, nil
}

// releaseHold devolve o repasse ao status anterior quando o reembolso falha.
func (uc *CancelBooking) releaseHold(ctx context.Context, po *models.Payout, prev string) {
	if po == nil {
		return
	}
	d := uc.deps
	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := tx.LockPayout(ctx, po.ID)
		if err != nil {
			return err
		}
		if payout.Status(locked.Status) != payout.StatusCancelled {
			return nil
		}
		locked.Status = prev
		return tx.UpdatePayout(ctx, locked)
	})
	if err != nil {
		d.Log.Error("payout hold not released", zap.Uint("payout_id", po.ID), zap.Error(err))
	}
}

// refundCagnotte: reserva paga por cagnotte, cancelada pelo dono; cada contribuição é devolvida.
func (uc *CancelBooking) refundCagnotte(ctx context.Context, in CancelBookingInput, reason string) (*models.Booking, error) {
	d := uc.deps
	now := d.Clock()

	var b *models.Booking
	var ids []uint
	err := d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if b, err = tx.LockBooking(ctx, in.BookingID); err != nil {
			return err
		}
		if err := domain.Refund(b, now, reason); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if ids, err = MarkContributionsForRefund(ctx, tx, *b.CagnotteID); err != nil {
			return err
		}
		return cancelPayout(ctx, tx, b.ID)
	})
	if err != nil {
		return nil, err
	}

	d.RefundContributions(ctx, ids)

	d.Record(&in.ActorID, "booking_refunded", "booking", b.ID, map[string]any{
		"reason":        reason,
		"cagnotte_id":   *b.CagnotteID,
		"contributions": len(ids),
	})
	d.Emit(ctx, BookingMessage(events.RKBookingRefunded, b))
	return b, nil
}

func cancelPayout(ctx context.Context, tx domain.Repository, bookingID uint) error {
	_, _, err := holdPayout(ctx, tx, bookingID)
	return err
}

// holdPayout cancela o repasse ainda não enviado e devolve o status que ele tinha.
// Sem repasse → (nil, "", nil).
func holdPayout(ctx context.Context, tx domain.Repository, bookingID uint) (*models.Payout, string, error) {
	po, err := tx.GetPayoutByBooking(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	locked, err := tx.LockPayout(ctx, po.ID)
	if err != nil {
		return nil, "", err
	}
	prev := locked.Status
	if err := payout.Cancel(locked); err != nil {
		return nil, "", httperr.ErrBusiness("payout_already_sent")
	}
	if err := tx.UpdatePayout(ctx, locked); err != nil {
		return nil, "", err
	}
	return locked, prev, nil
}

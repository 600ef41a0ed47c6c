package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/payout"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/payment"
)

type ReleasePayout struct {
	deps Deps
}

func NewReleasePayout(deps Deps) *ReleasePayout {
	return &ReleasePayout{deps: deps}
}

// providerFor escolhe o canal do dono: Stripe Connect ou mobile money.
func (d Deps) providerFor(owner *models.User) string {
	if owner.PayoutChannel == models.PayoutChannelStripe && owner.StripeAccountID != "" {
		return "stripe"
	}
	return d.Policy.PayoutProvider
}

// Execute envia um repasse vencido. Não vencido ou já pago → (false, nil).
func (uc *ReleasePayout) Execute(ctx context.Context, payoutID uint) (bool, error) {
	d := uc.deps

	release, err := d.Locker.Acquire(ctx, fmt.Sprintf("payout:%d", payoutID), refundLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer release()

	now := d.Clock()
	max := d.Policy.PayoutMaxAttempts

	// --------------------------------------------------
	// 1️⃣ processing + tentativa
	// --------------------------------------------------
	var po *models.Payout
	err = d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		var err error
		if po, err = tx.LockPayout(ctx, payoutID); err != nil {
			return NotFound(err, "payout_not_found")
		}
		if !payout.IsDue(po, now, max) {
			po = nil
			return nil
		}
		if err := payout.Start(po, now, max); err != nil {
			return err
		}
		return tx.UpdatePayout(ctx, po)
	})
	if err != nil || po == nil {
		return false, err
	}

	// --------------------------------------------------
	// 2️⃣ Transferência
	// --------------------------------------------------
	sendErr := uc.send(ctx, po)

	// --------------------------------------------------
	// 3️⃣ Resultado
	// --------------------------------------------------
	err = d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := tx.LockPayout(ctx, payoutID)
		if err != nil {
			return err
		}
		if sendErr != nil {
			payout.Fail(locked, po.Provider, sendErr)
		} else {
			payout.Succeed(locked, po.Provider, po.TransferRef, d.Clock())
		}
		po = locked
		return tx.UpdatePayout(ctx, locked)
	})
	if err != nil {
		return false, err
	}

	if sendErr != nil {
		d.Log.Warn("payout failed",
			zap.Uint("payout_id", po.ID),
			zap.Int("attempts", po.Attempts),
			zap.Error(sendErr),
		)
		d.Record(nil, "payout_failed", "payout", po.ID, map[string]any{"attempts": po.Attempts})
		return false, nil
	}

	d.Record(nil, "payout_paid", "payout", po.ID, map[string]any{
		"amount":       po.Amount,
		"transfer_ref": po.TransferRef,
	})
	d.Emit(ctx, events.Message{Key: events.RKPayoutPaid, Payload: events.PayoutEvent{
		PayoutID:    po.ID,
		BookingID:   po.BookingID,
		OwnerID:     po.OwnerID,
		Amount:      po.Amount,
		Currency:    po.Currency,
		TransferRef: po.TransferRef,
	}})
	return true, nil
}

// send preenche Provider e TransferRef em po.
func (uc *ReleasePayout) send(ctx context.Context, po *models.Payout) error {
	d := uc.deps

	owner, err := d.Repo.GetUser(ctx, po.OwnerID)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}

	po.Provider = d.providerFor(owner)
	tr, err := d.Gateways.Transferer(po.Provider)
	if err != nil {
		return httperr.ErrBusiness("unsupported_provider")
	}

	phone := owner.PayoutPhone
	if phone == "" {
		phone = owner.Phone
	}

	ref, err := tr.Transfer(ctx, payment.TransferRequest{
		Reference:   fmt.Sprintf("po-%d-%d", po.ID, po.Attempts),
		Amount:      po.Amount,
		Currency:    po.Currency,
		Phone:       phone,
		AccountID:   owner.StripeAccountID,
		Name:        owner.Name,
		Description: fmt.Sprintf("Versement réservation #%d", po.BookingID),
	})
	if err != nil {
		return err
	}
	po.TransferRef = ref
	return nil
}

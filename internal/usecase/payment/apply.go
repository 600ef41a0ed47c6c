// Package payment aplica os resultados confirmados pelos gateways.
package payment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	bookingdomain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	gateway "github.com/BruksfildServices01/field-booking/internal/payment"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
	cagnotteuc "github.com/BruksfildServices01/field-booking/internal/usecase/cagnotte"
)

// ======================================================
// USE CASE
// ======================================================

type ApplyPaymentResult struct {
	deps    bookinguc.Deps
	settler *cagnotteuc.Settler
}

func NewApplyPaymentResult(deps bookinguc.Deps) *ApplyPaymentResult {
	return &ApplyPaymentResult{
		deps:    deps,
		settler: cagnotteuc.NewSettler(deps),
	}
}

// effects acumula o que roda depois do commit.
type effects struct {
	duplicate bool
	payment   *models.Payment
	messages  []events.Message
	refundIDs []uint
	payout    *models.Payout
	lateRef   string
}

// ======================================================
// EXECUTE
// ======================================================

// Execute confirma a notificação junto ao provedor e aplica o resultado.
// Devolve false quando nada mudou (pendente, evento repetido, pagamento já liquidado).
func (uc *ApplyPaymentResult) Execute(
	ctx context.Context,
	provider string,
	n gateway.Notification,
) (bool, error) {

	d := uc.deps

	gw, err := d.Gateways.Get(provider)
	if err != nil {
		return false, httperr.ErrBusiness("unsupported_provider")
	}

	// --------------------------------------------------
	// 1️⃣ Verificação no provedor
	// --------------------------------------------------
	res, err := gw.Verify(ctx, n)
	if err != nil {
		return false, fmt.Errorf("verify %s: %w", gw.Name(), err)
	}
	ref := res.Reference
	if ref == "" {
		ref = n.Reference
	}
	if ref == "" {
		return false, httperr.ErrBusiness("payment_not_found")
	}
	if res.Status == gateway.StatusPending {
		return false, nil
	}

	eventID := n.EventID
	if eventID == "" {
		eventID = ref + ":" + string(res.Status)
	}

	now := d.Clock()
	var fx effects

	// --------------------------------------------------
	// 2️⃣ Ledger + pagamento na mesma transação
	// --------------------------------------------------
	err = d.Repo.Transaction(ctx, func(tx bookingdomain.Repository) error {
		fx = effects{}

		fresh, err := tx.RecordWebhookEvent(ctx, &models.WebhookEvent{
			Provider:    gw.Name(),
			EventID:     eventID,
			Reference:   ref,
			ProcessedAt: now,
		})
		if err != nil {
			return err
		}
		if !fresh {
			fx.duplicate = true
			return nil
		}

		p, err := tx.LockPaymentByReference(ctx, ref)
		if err != nil {
			return bookinguc.NotFound(err, "payment_not_found")
		}
		if p.Provider != gw.Name() {
			return httperr.ErrBusiness("payment_not_found")
		}
		fx.payment = p

		switch res.Status {
		case gateway.StatusPaid:
			return uc.applyPaid(ctx, tx, p, res, &fx)
		case gateway.StatusFailed:
			return uc.applyFailed(ctx, tx, p, res, &fx)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if fx.duplicate || fx.payment == nil {
		return false, nil
	}

	// --------------------------------------------------
	// 3️⃣ Efeitos fora da transação
	// --------------------------------------------------
	d.Emit(ctx, fx.messages...)
	d.SchedulePayout(ctx, fx.payout)
	d.RefundContributions(ctx, fx.refundIDs)
	if fx.lateRef != "" {
		uc.refundLate(ctx, fx.lateRef)
	}

	d.Record(&fx.payment.PayerID, "payment_"+fx.payment.Status, "payment", fx.payment.ID, map[string]any{
		"reference":  ref,
		"provider":   gw.Name(),
		"raw_status": res.RawStatus,
	})
	return true, nil
}

func (uc *ApplyPaymentResult) applyPaid(
	ctx context.Context,
	tx bookingdomain.Repository,
	p *models.Payment,
	res *gateway.Result,
	fx *effects,
) error {

	d := uc.deps
	now := d.Clock()

	if p.Status == models.PaymentStatusPaid || p.Status == models.PaymentStatusRefunded {
		fx.payment = nil
		return nil
	}

	// valor divergente: não confirma nada, fica para análise
	if res.Amount != p.Amount || (res.Currency != "" && !strings.EqualFold(res.Currency, p.Currency)) {
		d.Log.Error("payment amount mismatch",
			zap.String("reference", p.Reference),
			zap.Int64("expected", p.Amount),
			zap.Int64("received", res.Amount),
			zap.String("currency", res.Currency),
		)
		p.Status = models.PaymentStatusFailed
		p.FailReason = "amount_mismatch"
		p.RawStatus = res.RawStatus
		return tx.UpdatePayment(ctx, p)
	}

	p.Status = models.PaymentStatusPaid
	p.PaidAt = &now
	p.RawStatus = res.RawStatus
	p.FailReason = ""
	if res.ProviderRef != "" {
		p.ProviderRef = res.ProviderRef
	}
	if err := tx.UpdatePayment(ctx, p); err != nil {
		return err
	}

	switch p.Purpose {
	case models.PaymentPurposeContribution:
		out, err := uc.settler.ContributionPaid(ctx, tx, *p.ContributionID, p.ProviderRef, now)
		if err != nil {
			return err
		}
		fx.messages = append(fx.messages, out.Messages...)
		fx.refundIDs = out.RefundIDs
		fx.payout = out.Payout
		return nil

	case models.PaymentPurposeBooking:
		b, err := tx.LockBooking(ctx, *p.BookingID)
		if err != nil {
			return err
		}
		if bookingdomain.Status(b.Status) != bookingdomain.StatusApproved {
			// reserva expirada, cancelada ou já paga por outro pagamento
			d.Log.Warn("late payment",
				zap.String("reference", p.Reference),
				zap.Uint("booking_id", b.ID),
				zap.String("booking_status", b.Status),
			)
			fx.lateRef = p.Reference
			return nil
		}
		if err := bookingdomain.MarkPaid(b, now); err != nil {
			return err
		}
		b.PaymentProvider = p.Provider
		b.PaymentIntentID = p.ProviderRef
		if err := bookinguc.ReleaseSlotHold(ctx, tx, b.SlotID, b.HoldToken); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		fx.messages = append(fx.messages, bookinguc.BookingMessage(events.RKBookingConfirmed, b))
		return nil
	}

	return fmt.Errorf("payment %s: unknown purpose %q", p.Reference, p.Purpose)
}

func (uc *ApplyPaymentResult) applyFailed(
	ctx context.Context,
	tx bookingdomain.Repository,
	p *models.Payment,
	res *gateway.Result,
	fx *effects,
) error {

	if p.Status != models.PaymentStatusInitiated {
		fx.payment = nil
		return nil
	}

	p.Status = models.PaymentStatusFailed
	p.RawStatus = res.RawStatus
	p.FailReason = res.RawStatus
	if err := tx.UpdatePayment(ctx, p); err != nil {
		return err
	}

	ev := events.PaymentEvent{
		Reference: p.Reference,
		Provider:  p.Provider,
		PayerID:   p.PayerID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Reason:    res.RawStatus,
	}
	fx.messages = append(fx.messages, events.Message{Key: events.RKPaymentFailed, Payload: ev})

	switch p.Purpose {
	case models.PaymentPurposeContribution:
		return uc.settler.ContributionFailed(ctx, tx, *p.ContributionID)

	case models.PaymentPurposeBooking:
		b, err := tx.LockBooking(ctx, *p.BookingID)
		if err != nil {
			return err
		}
		// o hold continua até a janela fechar; o usuário pode tentar de novo
		if bookingdomain.Status(b.Status) != bookingdomain.StatusApproved {
			return nil
		}
		if err := bookingdomain.MarkPaymentFailed(b); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, b)
	}
	return nil
}

// refundLate devolve um pagamento que chegou depois da reserva sair da janela.
func (uc *ApplyPaymentResult) refundLate(ctx context.Context, ref string) {
	d := uc.deps

	p, err := d.Repo.GetPaymentByReference(ctx, ref)
	if err != nil {
		d.Log.Error("late payment lookup failed", zap.String("reference", ref), zap.Error(err))
		return
	}

	if err := d.RefundPayment(ctx, p, "late_payment"); err != nil {
		// fica pago e sem reserva: tratamento manual a partir do audit log
		d.Record(nil, "late_payment_refund_failed", "payment", p.ID, map[string]any{
			"reference": ref,
			"amount":    p.Amount,
		})
		return
	}

	now := d.Clock()
	err = d.Repo.Transaction(ctx, func(tx bookingdomain.Repository) error {
		locked, err := tx.LockPaymentByReference(ctx, ref)
		if err != nil {
			return err
		}
		locked.Status = models.PaymentStatusRefunded
		locked.RefundedAt = &now
		locked.FailReason = "late_payment"
		return tx.UpdatePayment(ctx, locked)
	})
	if err != nil {
		d.Log.Error("late payment refund not recorded", zap.String("reference", ref), zap.Error(err))
		return
	}
	d.Record(nil, "late_payment_refunded", "payment", p.ID, map[string]any{"amount": p.Amount})
}

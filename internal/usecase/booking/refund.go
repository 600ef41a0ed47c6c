package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/payment"
)

const refundLockTTL = 30 * time.Second

// RefundPayment devolve um pagamento pelo gateway que o recebeu.
// Não altera o banco; quem chama registra o resultado.
func (d Deps) RefundPayment(ctx context.Context, p *models.Payment, reason string) error {
	gw, err := d.Gateways.Get(p.Provider)
	if err != nil {
		return httperr.ErrBusiness("unsupported_provider")
	}

	req := payment.RefundRequest{
		Reference:   p.Reference,
		ProviderRef: p.ProviderRef,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Reason:      reason,
	}
	if payer, err := d.Repo.GetUser(ctx, p.PayerID); err == nil {
		req.Phone = payer.Phone
	}

	if err := gw.Refund(ctx, req); err != nil {
		d.Log.Error("refund failed",
			zap.String("reference", p.Reference),
			zap.String("provider", p.Provider),
			zap.Error(err),
		)
		return httperr.ErrBusiness("refund_failed")
	}
	return nil
}

// RefundContribution reembolsa uma contribuição marcada como pendente de reembolso.
func (d Deps) RefundContribution(ctx context.Context, contributionID uint) error {
	release, err := d.Locker.Acquire(ctx, fmt.Sprintf("contribution:%d", contributionID), refundLockTTL)
	if err != nil {
		return err
	}
	defer release()

	contrib, err := d.Repo.LockContribution(ctx, contributionID)
	if err != nil {
		return NotFound(err, "contribution_not_found")
	}
	if contrib.Status != cagnotte.ContributionPaid ||
		(contrib.RefundStatus != cagnotte.RefundPending && contrib.RefundStatus != cagnotte.RefundFailed) {
		return nil
	}

	pay, err := d.Repo.GetPaymentByReference(ctx, contrib.PaymentReference)
	if err != nil {
		return NotFound(err, "payment_not_found")
	}

	refundErr := d.RefundPayment(ctx, pay, "cagnotte_refund")
	now := d.Clock()

	err = d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		c, err := tx.LockContribution(ctx, contributionID)
		if err != nil {
			return err
		}
		if refundErr != nil {
			c.RefundStatus = cagnotte.RefundFailed
			c.RefundError = "refund_failed"
			return tx.UpdateContribution(ctx, c)
		}

		c.RefundStatus = cagnotte.RefundDone
		c.RefundError = ""
		c.RefundedAt = &now
		if err := tx.UpdateContribution(ctx, c); err != nil {
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
		return err
	}

	d.Record(nil, "contribution_refund", "cagnotte_contribution", contributionID, map[string]any{
		"ok":     refundErr == nil,
		"amount": contrib.Amount,
	})
	return refundErr
}

// MarkContributionsForRefund marca as contribuições pagas para reembolso e devolve os ids.
// Pendentes viram failed; se pagarem depois, o webhook reembolsa.
func MarkContributionsForRefund(ctx context.Context, tx domain.Repository, cagnotteID uint) ([]uint, error) {
	list, err := tx.ListContributions(ctx, cagnotteID)
	if err != nil {
		return nil, err
	}

	var ids []uint
	for i := range list {
		c := &list[i]
		switch c.Status {
		case cagnotte.ContributionPaid:
			if c.RefundStatus == cagnotte.RefundDone {
				continue
			}
			c.RefundStatus = cagnotte.RefundPending
			ids = append(ids, c.ID)
		case cagnotte.ContributionPending:
			c.Status = cagnotte.ContributionFailed
		default:
			continue
		}
		if err := tx.UpdateContribution(ctx, c); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// RefundContributions tenta cada reembolso; falhas ficam para a varredura.
func (d Deps) RefundContributions(ctx context.Context, ids []uint) {
	for _, id := range ids {
		if err := d.RefundContribution(ctx, id); err != nil && !errors.Is(err, lock.ErrNotAcquired) {
			d.Log.Warn("contribution refund deferred", zap.Uint("contribution_id", id), zap.Error(err))
		}
	}
}

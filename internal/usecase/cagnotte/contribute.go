package cagnotte

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingdomain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	domain "github.com/BruksfildServices01/field-booking/internal/domain/cagnotte"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/payment"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

type ContributeInput struct {
	UserID     uint
	CagnotteID uint
	Amount     int64
	Provider   string
	ReturnURL  string
}

type Contribute struct {
	deps bookinguc.Deps
}

func NewContribute(deps bookinguc.Deps) *Contribute {
	return &Contribute{deps: deps}
}

func (uc *Contribute) Execute(
	ctx context.Context,
	in ContributeInput,
) (*bookinguc.PaymentOutput, error) {

	d := uc.deps
	now := d.Clock()

	gw, err := d.Gateways.Get(in.Provider)
	if err != nil {
		return nil, httperr.ErrBusiness("unsupported_provider")
	}

	ref := uuid.NewString()
	var contrib *models.CagnotteContribution
	var c *models.Cagnotte

	// --------------------------------------------------
	// 1️⃣ Reserva o valor: pendentes recentes contam para a meta
	// --------------------------------------------------
	err = d.Repo.Transaction(ctx, func(tx bookingdomain.Repository) error {
		var err error
		if c, err = tx.LockCagnotte(ctx, in.CagnotteID); err != nil {
			return bookinguc.NotFound(err, "cagnotte_not_found")
		}

		committed, err := tx.SumCommittedContributions(ctx, c.ID, now.Add(-d.Policy.PaymentWindow))
		if err != nil {
			return err
		}
		if err := domain.CanContribute(c, in.Amount, committed, now); err != nil {
			return err
		}

		contrib = &models.CagnotteContribution{
			CagnotteID:       c.ID,
			UserID:           in.UserID,
			Amount:           in.Amount,
			Status:           domain.ContributionPending,
			PaymentReference: ref,
			Provider:         gw.Name(),
			RefundStatus:     domain.RefundNone,
		}
		if err := tx.CreateContribution(ctx, contrib); err != nil {
			return err
		}

		return tx.CreatePayment(ctx, &models.Payment{
			Reference:      ref,
			Provider:       gw.Name(),
			Purpose:        models.PaymentPurposeContribution,
			ContributionID: &contrib.ID,
			PayerID:        in.UserID,
			Amount:         in.Amount,
			Currency:       c.Currency,
			Status:         models.PaymentStatusInitiated,
		})
	})
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2️⃣ Checkout
	// --------------------------------------------------
	req := payment.CheckoutRequest{
		Reference:   ref,
		Amount:      in.Amount,
		Currency:    c.Currency,
		Description: fmt.Sprintf("Cagnotte #%d", c.ID),
		ReturnURL:   in.ReturnURL,
		NotifyURL:   d.NotifyURL(gw.Name()),
	}
	if u, err := d.Repo.GetUser(ctx, in.UserID); err == nil {
		req.CustomerName = u.Name
		req.CustomerEmail = u.Email
		req.CustomerPhone = u.Phone
	}

	checkout, gwErr := gw.CreateCheckout(ctx, req)

	// --------------------------------------------------
	// 3️⃣ Resultado do checkout
	// --------------------------------------------------
	err = d.Repo.Transaction(ctx, func(tx bookingdomain.Repository) error {
		p, err := tx.LockPaymentByReference(ctx, ref)
		if err != nil {
			return err
		}
		if gwErr != nil {
			p.Status = models.PaymentStatusFailed
			p.FailReason = "checkout_failed"
			if err := tx.UpdatePayment(ctx, p); err != nil {
				return err
			}
			locked, err := tx.LockContribution(ctx, contrib.ID)
			if err != nil {
				return err
			}
			locked.Status = domain.ContributionFailed
			return tx.UpdateContribution(ctx, locked)
		}
		p.ProviderRef = checkout.ProviderRef
		p.CheckoutURL = checkout.CheckoutURL
		return tx.UpdatePayment(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if gwErr != nil {
		d.Log.Error("contribution checkout failed",
			zap.Uint("cagnotte_id", c.ID),
			zap.String("provider", gw.Name()),
			zap.Error(gwErr),
		)
		return nil, httperr.ErrBusiness("gateway_error")
	}

	d.Record(&in.UserID, "contribution_initiated", "cagnotte", c.ID, map[string]any{
		"amount":    in.Amount,
		"reference": ref,
	})

	return &bookinguc.PaymentOutput{
		Reference:    ref,
		Provider:     gw.Name(),
		Amount:       in.Amount,
		Currency:     c.Currency,
		CheckoutURL:  checkout.CheckoutURL,
		ClientSecret: checkout.ClientSecret,
	}, nil
}

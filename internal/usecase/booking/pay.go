package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/payment"
)

type InitiatePaymentInput struct {
	UserID    uint
	BookingID uint
	Provider  string
	ReturnURL string
}

type PaymentOutput struct {
	Reference    string `json:"reference"`
	Provider     string `json:"provider"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	CheckoutURL  string `json:"checkout_url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

type InitiatePayment struct {
	deps Deps
}

func NewInitiatePayment(deps Deps) *InitiatePayment {
	return &InitiatePayment{deps: deps}
}

// NotifyURL é o webhook público do provedor.
func (d Deps) NotifyURL(provider string) string {
	return fmt.Sprintf("%s/api/webhooks/%s", d.Policy.PublicBaseURL, provider)
}

func (uc *InitiatePayment) Execute(
	ctx context.Context,
	in InitiatePaymentInput,
) (*PaymentOutput, error) {

	d := uc.deps
	now := d.Clock()

	// --------------------------------------------------
	// 1️⃣ Reserva do usuário, aprovada e dentro da janela
	// --------------------------------------------------
	b, err := d.Repo.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, NotFound(err, "booking_not_found")
	}
	if b.UserID != in.UserID {
		return nil, httperr.ErrBusiness("booking_not_found")
	}
	if err := domain.CanInitiatePayment(b, now); err != nil {
		return nil, err
	}

	gw, err := d.Gateways.Get(in.Provider)
	if err != nil {
		return nil, httperr.ErrBusiness("unsupported_provider")
	}

	// --------------------------------------------------
	// 2️⃣ Checkout no provedor (fora da transação)
	// --------------------------------------------------
	req := payment.CheckoutRequest{
		Reference:   uuid.NewString(),
		Amount:      b.AmountDueOnline,
		Currency:    b.Currency,
		Description: fmt.Sprintf("Réservation #%d", b.ID),
		ReturnURL:   in.ReturnURL,
		NotifyURL:   d.NotifyURL(gw.Name()),
	}
	if u, err := d.Repo.GetUser(ctx, in.UserID); err == nil {
		req.CustomerName = u.Name
		req.CustomerEmail = u.Email
		req.CustomerPhone = u.Phone
	}

	checkout, err := gw.CreateCheckout(ctx, req)
	if err != nil {
		d.Log.Error("checkout failed",
			zap.Uint("booking_id", b.ID),
			zap.String("provider", gw.Name()),
			zap.Error(err),
		)
		return nil, httperr.ErrBusiness("gateway_error")
	}

	// --------------------------------------------------
	// 3️⃣ Registro do pagamento
	// --------------------------------------------------
	err = d.Repo.Transaction(ctx, func(tx domain.Repository) error {
		locked, err := tx.LockBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := domain.InitiatePayment(locked, gw.Name(), checkout.ProviderRef, now); err != nil {
			return err
		}

		p := &models.Payment{
			Reference:   req.Reference,
			Provider:    gw.Name(),
			Purpose:     models.PaymentPurposeBooking,
			BookingID:   &locked.ID,
			PayerID:     in.UserID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Status:      models.PaymentStatusInitiated,
			ProviderRef: checkout.ProviderRef,
			CheckoutURL: checkout.CheckoutURL,
		}
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		return tx.UpdateBooking(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	d.Record(&in.UserID, "payment_initiated", "booking", b.ID, map[string]any{
		"provider":  gw.Name(),
		"reference": req.Reference,
		"amount":    req.Amount,
	})

	return &PaymentOutput{
		Reference:    req.Reference,
		Provider:     gw.Name(),
		Amount:       req.Amount,
		Currency:     req.Currency,
		CheckoutURL:  checkout.CheckoutURL,
		ClientSecret: checkout.ClientSecret,
	}, nil
}

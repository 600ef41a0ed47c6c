package payment

import (
	"context"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	gateway "github.com/BruksfildServices01/field-booking/internal/payment"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

type SyncPayment struct {
	apply *ApplyPaymentResult
}

func NewSyncPayment(apply *ApplyPaymentResult) *SyncPayment {
	return &SyncPayment{apply: apply}
}

// Execute consulta o provedor por iniciativa do pagador (retorno do checkout sem webhook).
// Usa a mesma chave de idempotência reference:status do webhook sem event id.
func (uc *SyncPayment) Execute(ctx context.Context, payerID uint, reference string) (*models.Payment, error) {
	d := uc.apply.deps

	p, err := d.Repo.GetPaymentByReference(ctx, reference)
	if err != nil {
		return nil, bookinguc.NotFound(err, "payment_not_found")
	}
	if p.PayerID != payerID {
		return nil, httperr.ErrBusiness("payment_not_found")
	}

	if p.Status == models.PaymentStatusInitiated {
		if _, err := uc.apply.Execute(ctx, p.Provider, gateway.Notification{
			Reference:   p.Reference,
			ProviderRef: p.ProviderRef,
		}); err != nil {
			return nil, err
		}
		if p, err = d.Repo.GetPaymentByReference(ctx, reference); err != nil {
			return nil, err
		}
	}
	return p, nil
}

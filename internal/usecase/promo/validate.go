package promo

import (
	"context"

	bookingdomain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

type ValidatePromoInput struct {
	Code        string
	SlotID      uint
	UserID      uint
	PaymentMode string
}

type Preview struct {
	Code     string              `json:"code"`
	Discount int64               `json:"discount"`
	Quote    bookingdomain.Quote `json:"quote"`
}

// ValidatePromo simula o código num slot sem reservar uso.
type ValidatePromo struct {
	deps bookinguc.Deps
}

func NewValidatePromo(deps bookinguc.Deps) *ValidatePromo {
	return &ValidatePromo{deps: deps}
}

func (uc *ValidatePromo) Execute(ctx context.Context, in ValidatePromoInput) (*Preview, error) {
	d := uc.deps

	slot, err := d.Repo.GetSlot(ctx, in.SlotID)
	if err != nil {
		return nil, bookinguc.NotFound(err, "slot_not_found")
	}
	field, err := d.Repo.GetField(ctx, slot.FieldID)
	if err != nil {
		return nil, bookinguc.NotFound(err, "field_not_found")
	}

	mode, err := bookingdomain.ParseMode(in.PaymentMode)
	if err != nil {
		return nil, err
	}
	depositPercent := field.DepositPercent
	if depositPercent <= 0 {
		depositPercent = d.Policy.DefaultDepositPercent
	}

	net := bookingdomain.SlotNetPrice(slot, field)
	pc, discount, err := bookinguc.ResolvePromo(ctx, d.Repo, in.Code, in.UserID, field, slot, net, d.Clock())
	if err != nil {
		return nil, err
	}

	q, err := bookingdomain.NewQuote(net, d.Policy.CommissionRate, mode, depositPercent, discount)
	if err != nil {
		return nil, err
	}

	return &Preview{Code: pc.Code, Discount: q.Discount, Quote: q}, nil
}

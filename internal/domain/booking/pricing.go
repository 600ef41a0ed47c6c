package booking

import (
	"math"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

// Quote é o detalhamento financeiro de uma reserva (XOF, sem centavos).
type Quote struct {
	Mode        PaymentMode `json:"payment_mode"`
	Net         int64       `json:"net_amount"`
	Commission  int64       `json:"commission_amount"`
	Total       int64       `json:"total_amount"`
	Discount    int64       `json:"discount_amount"`
	DueOnline   int64       `json:"amount_due_online"`
	DueOnSite   int64       `json:"amount_due_on_site"`
	OwnerAmount int64       `json:"owner_amount"`
}

func Commission(net int64, rate float64) int64 {
	return int64(math.Round(float64(net) * rate))
}

func PublicPrice(net int64, rate float64) int64 {
	return net + Commission(net, rate)
}

// SlotNetPrice: override do slot ou preço do terreno.
func SlotNetPrice(slot *models.FieldAvailability, field *models.Field) int64 {
	if slot.PriceOverride != nil && *slot.PriceOverride > 0 {
		return *slot.PriceOverride
	}
	return field.NetPrice
}

// NewQuote calcula os valores. O desconto sai da parte do dono (limitado ao net),
// a comissão da plataforma é sempre cobrada online.
func NewQuote(net int64, rate float64, mode PaymentMode, depositPercent int, discount int64) (Quote, error) {
	if net <= 0 {
		return Quote{}, httperr.ErrBusiness("invalid_price")
	}
	if discount < 0 {
		discount = 0
	}
	if discount > net {
		discount = net
	}

	q := Quote{
		Mode:       mode,
		Net:        net,
		Commission: Commission(net, rate),
		Discount:   discount,
	}
	q.Total = q.Net + q.Commission
	payable := q.Total - q.Discount

	switch mode {
	case ModeFull:
		q.DueOnline = payable
	case ModeDeposit:
		if depositPercent <= 0 || depositPercent > 100 {
			return Quote{}, httperr.ErrBusiness("invalid_payment_mode")
		}
		deposit := (q.Total*int64(depositPercent) + 99) / 100
		if deposit < q.Commission {
			deposit = q.Commission
		}
		if deposit > payable {
			deposit = payable
		}
		q.DueOnline = deposit
	default:
		return Quote{}, httperr.ErrBusiness("invalid_payment_mode")
	}

	q.DueOnSite = payable - q.DueOnline
	// parte do dono que fica retida (o saldo no local vai direto para ele)
	q.OwnerAmount = q.DueOnline - q.Commission
	return q, nil
}

// Apply copia o orçamento para a reserva.
func (q Quote) Apply(b *models.Booking) {
	b.PaymentMode = string(q.Mode)
	b.NetAmount = q.Net
	b.CommissionAmount = q.Commission
	b.TotalAmount = q.Total
	b.DiscountAmount = q.Discount
	b.AmountDueOnline = q.DueOnline
	b.AmountDueOnSite = q.DueOnSite
	b.OwnerAmount = q.OwnerAmount
}

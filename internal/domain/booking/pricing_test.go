package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

func TestCommissionRounding(t *testing.T) {
	assert.Equal(t, int64(2000), Commission(20000, 0.10))
	assert.Equal(t, int64(1235), Commission(12345, 0.10))
	assert.Equal(t, int64(22000), PublicPrice(20000, 0.10))
}

func TestQuoteFull(t *testing.T) {
	q, err := NewQuote(20000, 0.10, ModeFull, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(22000), q.Total)
	assert.Equal(t, int64(22000), q.DueOnline)
	assert.Zero(t, q.DueOnSite)
	assert.Equal(t, int64(20000), q.OwnerAmount)
}

func TestQuoteDepositRoundsUpAndKeepsCommission(t *testing.T) {
	q, err := NewQuote(20000, 0.10, ModeDeposit, 30, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6600), q.DueOnline)
	assert.Equal(t, int64(15400), q.DueOnSite)
	assert.Equal(t, int64(4600), q.OwnerAmount)

	q, err = NewQuote(10001, 0.10, ModeDeposit, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, q.Commission, q.DueOnline, "deposit never below commission")
}

func TestQuoteDiscountAbsorbedByOwner(t *testing.T) {
	q, err := NewQuote(20000, 0.10, ModeFull, 0, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), q.Commission)
	assert.Equal(t, int64(17000), q.DueOnline)
	assert.Equal(t, int64(15000), q.OwnerAmount)

	q, err = NewQuote(20000, 0.10, ModeFull, 0, 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), q.Discount)
	assert.Equal(t, q.Commission, q.DueOnline)
	assert.Zero(t, q.OwnerAmount)
}

func TestQuoteInvariants(t *testing.T) {
	for _, net := range []int64{1, 999, 15000, 27350} {
		for _, disc := range []int64{0, 500, 99999} {
			for _, pct := range []int{1, 30, 100} {
				for _, mode := range []PaymentMode{ModeFull, ModeDeposit} {
					q, err := NewQuote(net, 0.10, mode, pct, disc)
					require.NoError(t, err)

					assert.Equal(t, q.Net+q.Commission, q.Total)
					assert.Equal(t, q.Total-q.Discount, q.DueOnline+q.DueOnSite)
					assert.GreaterOrEqual(t, q.DueOnline, q.Commission)
					assert.Equal(t, q.DueOnline, q.OwnerAmount+q.Commission)
					assert.LessOrEqual(t, q.Discount, q.Net)
				}
			}
		}
	}
}

func TestQuoteErrors(t *testing.T) {
	_, err := NewQuote(0, 0.10, ModeFull, 0, 0)
	assert.True(t, httperr.IsBusiness(err, "invalid_price"))

	_, err = NewQuote(1000, 0.10, ModeDeposit, 0, 0)
	assert.True(t, httperr.IsBusiness(err, "invalid_payment_mode"))
}

func TestSlotNetPrice(t *testing.T) {
	field := &models.Field{NetPrice: 20000}
	slot := &models.FieldAvailability{}
	assert.Equal(t, int64(20000), SlotNetPrice(slot, field))

	override := int64(15000)
	slot.PriceOverride = &override
	assert.Equal(t, int64(15000), SlotNetPrice(slot, field))
}

func TestApplyCopiesQuote(t *testing.T) {
	q, err := NewQuote(20000, 0.10, ModeDeposit, 30, 1000)
	require.NoError(t, err)

	var b models.Booking
	q.Apply(&b)
	assert.Equal(t, "deposit", b.PaymentMode)
	assert.Equal(t, q.DueOnline, b.AmountDueOnline)
	assert.Equal(t, q.OwnerAmount, b.OwnerAmount)
}

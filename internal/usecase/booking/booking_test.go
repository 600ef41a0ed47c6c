package booking_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/domain/payout"
	"github.com/BruksfildServices01/field-booking/internal/domain/promo"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/payment"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
	paymentuc "github.com/BruksfildServices01/field-booking/internal/usecase/payment"
	"github.com/BruksfildServices01/field-booking/internal/usecase/usecasetest"
)

var ctx = context.Background()

func create(t *testing.T, f *usecasetest.Fixture, userID, slotID uint, mode, code string) *models.Booking {
	t.Helper()
	b, err := bookinguc.NewCreateBooking(f.Deps).Execute(ctx, bookinguc.CreateBookingInput{
		UserID:      userID,
		SlotID:      slotID,
		PaymentMode: mode,
		PromoCode:   code,
	})
	require.NoError(t, err)
	return b
}

// confirm cria, paga e confirma uma reserva pelo webhook do sandbox.
func confirm(t *testing.T, f *usecasetest.Fixture, slotID uint) *models.Booking {
	t.Helper()
	b := create(t, f, f.User.ID, slotID, "full", "")

	out, err := bookinguc.NewInitiatePayment(f.Deps).Execute(ctx, bookinguc.InitiatePaymentInput{
		UserID:    f.User.ID,
		BookingID: b.ID,
		Provider:  "sandbox",
	})
	require.NoError(t, err)

	f.Gateway.Settle(out.Reference, payment.StatusPaid, 0)
	applied, err := paymentuc.NewApplyPaymentResult(f.Deps).Execute(ctx, "sandbox", payment.Notification{Reference: out.Reference})
	require.NoError(t, err)
	require.True(t, applied)

	got, err := f.Repo.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusConfirmed), got.Status)
	return got
}

func TestCreateBookingHoldsSlotUntilPaymentWindow(t *testing.T) {
	f := usecasetest.New(t)

	b := create(t, f, f.User.ID, f.Slot.ID, "", "")

	assert.Equal(t, string(domain.StatusApproved), b.Status)
	assert.Equal(t, int64(22000), b.TotalAmount)
	assert.Equal(t, int64(22000), b.AmountDueOnline)
	assert.Equal(t, int64(20000), b.OwnerAmount)
	require.NotNil(t, b.ExpiresAt)
	assert.Equal(t, usecasetest.T0.Add(30*time.Minute), *b.ExpiresAt)

	slot, err := f.Repo.GetSlot(ctx, f.Slot.ID)
	require.NoError(t, err)
	assert.Equal(t, b.HoldToken, slot.HoldToken)
	require.NotNil(t, slot.OnHoldUntil)
	assert.Equal(t, *b.ExpiresAt, *slot.OnHoldUntil)

	_, err = bookinguc.NewCreateBooking(f.Deps).Execute(ctx, bookinguc.CreateBookingInput{UserID: f.Other.ID, SlotID: f.Slot.ID})
	assert.True(t, httperr.IsBusiness(err, "slot_on_hold"))
}

func TestCreateBookingDepositMode(t *testing.T) {
	f := usecasetest.New(t)

	b := create(t, f, f.User.ID, f.Slot.ID, "deposit", "")

	assert.Equal(t, int64(6600), b.AmountDueOnline)
	assert.Equal(t, int64(15400), b.AmountDueOnSite)
	assert.Equal(t, int64(4600), b.OwnerAmount)
}

func TestCreateBookingRejectsOwnFieldAndPastSlot(t *testing.T) {
	f := usecasetest.New(t)

	_, err := bookinguc.NewCreateBooking(f.Deps).Execute(ctx, bookinguc.CreateBookingInput{UserID: f.Owner.ID, SlotID: f.Slot.ID})
	assert.True(t, httperr.IsBusiness(err, "own_field"))

	past := f.AddSlot(-2 * time.Hour)
	_, err = bookinguc.NewCreateBooking(f.Deps).Execute(ctx, bookinguc.CreateBookingInput{UserID: f.User.ID, SlotID: past.ID})
	assert.True(t, httperr.IsBusiness(err, "slot_in_past"))

	_, err = bookinguc.NewCreateBooking(f.Deps).Execute(ctx, bookinguc.CreateBookingInput{UserID: f.User.ID, SlotID: 999})
	assert.True(t, httperr.IsBusiness(err, "slot_not_found"))
}

func TestApprovalFlow(t *testing.T) {
	f := usecasetest.New(t)
	f.Field.RequiresApproval = true
	f.Repo.AddField(*f.Field)

	b := create(t, f, f.User.ID, f.Slot.ID, "full", "")
	assert.Equal(t, string(domain.StatusPending), b.Status)
	assert.Equal(t, usecasetest.T0.Add(12*time.Hour), *b.ExpiresAt)

	_, err := bookinguc.NewApproveBooking(f.Deps).Execute(ctx, f.Other.ID, b.ID)
	assert.True(t, httperr.IsBusiness(err, "forbidden"))

	f.Advance(time.Hour)
	approved, err := bookinguc.NewApproveBooking(f.Deps).Execute(ctx, f.Owner.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusApproved), approved.Status)
	assert.Equal(t, f.Now().Add(30*time.Minute), *approved.ExpiresAt)

	slot, _ := f.Repo.GetSlot(ctx, f.Slot.ID)
	assert.Equal(t, *approved.ExpiresAt, *slot.OnHoldUntil)
}

func TestRejectReleasesSlot(t *testing.T) {
	f := usecasetest.New(t)
	f.Field.RequiresApproval = true
	f.Repo.AddField(*f.Field)

	b := create(t, f, f.User.ID, f.Slot.ID, "full", "")

	rejected, err := bookinguc.NewRejectBooking(f.Deps).Execute(ctx, f.Owner.ID, b.ID, "terrain fermé")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), rejected.Status)

	slot, _ := f.Repo.GetSlot(ctx, f.Slot.ID)
	assert.Nil(t, slot.OnHoldUntil)

	// o slot volta a ficar livre
	create(t, f, f.Other.ID, f.Slot.ID, "full", "")
}

func TestPromoIsReservedAndReleasedOnCancel(t *testing.T) {
	f := usecasetest.New(t)
	pc := f.Repo.AddPromo(models.PromoCode{
		OwnerID:       f.Owner.ID,
		Code:          "RENTREE",
		DiscountType:  string(promo.DiscountPercent),
		DiscountValue: 10,
		MaxUses:       1,
		Active:        true,
	})

	b := create(t, f, f.User.ID, f.Slot.ID, "full", "rentree")
	assert.Equal(t, int64(2000), b.DiscountAmount)
	assert.Equal(t, int64(20000), b.AmountDueOnline)
	assert.Equal(t, int64(18000), b.OwnerAmount)
	assert.Equal(t, 1, f.Repo.Promo(pc.ID).UsedCount)

	other := f.AddSlot(72 * time.Hour)
	_, err := bookinguc.NewCreateBooking(f.Deps).Execute(ctx, bookinguc.CreateBookingInput{UserID: f.Other.ID, SlotID: other.ID, PromoCode: "RENTREE"})
	assert.True(t, httperr.IsBusiness(err, "promo_exhausted"))

	_, err = bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.User.ID, BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, f.Repo.Promo(pc.ID).UsedCount)
}

func TestInitiatePaymentRecordsPayment(t *testing.T) {
	f := usecasetest.New(t)
	b := create(t, f, f.User.ID, f.Slot.ID, "full", "")

	_, err := bookinguc.NewInitiatePayment(f.Deps).Execute(ctx, bookinguc.InitiatePaymentInput{UserID: f.Other.ID, BookingID: b.ID, Provider: "sandbox"})
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))

	_, err = bookinguc.NewInitiatePayment(f.Deps).Execute(ctx, bookinguc.InitiatePaymentInput{UserID: f.User.ID, BookingID: b.ID, Provider: "paypal"})
	assert.True(t, httperr.IsBusiness(err, "unsupported_provider"))

	out, err := bookinguc.NewInitiatePayment(f.Deps).Execute(ctx, bookinguc.InitiatePaymentInput{UserID: f.User.ID, BookingID: b.ID, Provider: "sandbox"})
	require.NoError(t, err)
	assert.Equal(t, int64(22000), out.Amount)
	assert.NotEmpty(t, out.CheckoutURL)

	p := f.Payment(t, out.Reference)
	assert.Equal(t, models.PaymentStatusInitiated, p.Status)
	assert.Equal(t, models.PaymentPurposeBooking, p.Purpose)

	got, _ := f.Repo.GetBooking(ctx, b.ID)
	assert.Equal(t, string(domain.PaymentInitiated), got.PaymentStatus)

	f.Advance(31 * time.Minute)
	_, err = bookinguc.NewInitiatePayment(f.Deps).Execute(ctx, bookinguc.InitiatePaymentInput{UserID: f.User.ID, BookingID: b.ID, Provider: "sandbox"})
	assert.True(t, httperr.IsBusiness(err, "payment_window_closed"))
}

func TestGatewayFailureOnCheckout(t *testing.T) {
	f := usecasetest.New(t)
	b := create(t, f, f.User.ID, f.Slot.ID, "full", "")

	f.Gateway.FailCheckout = true
	_, err := bookinguc.NewInitiatePayment(f.Deps).Execute(ctx, bookinguc.InitiatePaymentInput{UserID: f.User.ID, BookingID: b.ID, Provider: "sandbox"})
	assert.True(t, httperr.IsBusiness(err, "gateway_error"))
	assert.Empty(t, f.Repo.Payments())
}

func TestCancelEarlyRefunds(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	got, err := bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.User.ID, BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusRefunded), got.Status)
	assert.Equal(t, string(domain.PaymentRefunded), got.PaymentStatus)
	assert.Equal(t, 1, f.Gateway.RefundCount())
	assert.Equal(t, int64(22000), f.Gateway.Refunds[0].Amount)

	payments := f.Repo.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStatusRefunded, payments[0].Status)
}

func TestCancelLateKeepsMoneyForOwner(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	f.SetNow(b.StartsAt.Add(-2 * time.Hour))
	got, err := bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.User.ID, BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), got.Status)
	assert.Equal(t, 0, f.Gateway.RefundCount())

	po, err := f.Repo.GetPayoutByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), po.Amount)
	assert.Equal(t, b.EndsAt.Add(24*time.Hour), po.ReleaseAt)
}

func TestCancelLateAfterOwnerConfirmation(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	_, err := bookinguc.NewConfirmBookingByOwner(f.Deps).Execute(ctx, f.Owner.ID, b.ID)
	require.NoError(t, err)

	f.SetNow(b.StartsAt.Add(-2 * time.Hour))
	got, err := bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.User.ID, BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), got.Status)
	assert.Equal(t, 0, f.Gateway.RefundCount())
	po, err := f.Repo.GetPayoutByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), po.Amount)
}

func TestOwnerCancelAlwaysRefunds(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	f.SetNow(b.StartsAt.Add(-time.Hour))
	_, err := bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.Other.ID, BookingID: b.ID, ByOwner: true})
	assert.True(t, httperr.IsBusiness(err, "forbidden"))

	got, err := bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.Owner.ID, BookingID: b.ID, ByOwner: true})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRefunded), got.Status)
	assert.Equal(t, "cancelled_by_owner", got.CancelReason)
	assert.Equal(t, 1, f.Gateway.RefundCount())
}

func TestRefundFailureKeepsBookingPaid(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	f.Gateway.FailRefund = true
	_, err := bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.User.ID, BookingID: b.ID})
	assert.True(t, httperr.IsBusiness(err, "refund_failed"))

	got, _ := f.Repo.GetBooking(ctx, b.ID)
	assert.Equal(t, string(domain.StatusConfirmed), got.Status)
}

func TestRefundBlockedBySentPayoutTouchesNoMoney(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	po := &models.Payout{BookingID: b.ID, OwnerID: f.Owner.ID, Amount: 20000, Currency: "XOF", Status: "processing"}
	require.NoError(t, f.Repo.CreatePayout(ctx, po))

	_, err := bookinguc.NewCancelBooking(f.Deps).Execute(ctx, bookinguc.CancelBookingInput{ActorID: f.Owner.ID, BookingID: b.ID, ByOwner: true})
	assert.True(t, httperr.IsBusiness(err, "payout_already_sent"), "got %v", err)
	assert.Equal(t, 0, f.Gateway.RefundCount())

	got, _ := f.Repo.GetBooking(ctx, b.ID)
	assert.Equal(t, string(domain.StatusConfirmed), got.Status)
	assert.Equal(t, string(domain.PaymentPaid), got.PaymentStatus)

	still, _ := f.Repo.LockPayout(ctx, po.ID)
	assert.Equal(t, "processing", still.Status)
}

func TestRefundFailureRestoresPayout(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	po := &models.Payout{BookingID: b.ID, OwnerID: f.Owner.ID, Amount: 20000, Currency: "XOF", Status: "failed", Attempts: 2}
	require.NoError(t, f.Repo.CreatePayout(ctx, po))

	cancel := bookinguc.NewCancelBooking(f.Deps)
	in := bookinguc.CancelBookingInput{ActorID: f.Owner.ID, BookingID: b.ID, ByOwner: true}

	f.Gateway.FailRefund = true
	_, err := cancel.Execute(ctx, in)
	assert.True(t, httperr.IsBusiness(err, "refund_failed"))

	restored, _ := f.Repo.LockPayout(ctx, po.ID)
	assert.Equal(t, "failed", restored.Status)
	assert.Equal(t, 2, restored.Attempts)

	f.Gateway.FailRefund = false
	got, err := cancel.Execute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRefunded), got.Status)
	assert.Equal(t, 1, f.Gateway.RefundCount())

	cancelled, _ := f.Repo.LockPayout(ctx, po.ID)
	assert.Equal(t, "cancelled", cancelled.Status)
}

func TestExpireIsIdempotent(t *testing.T) {
	f := usecasetest.New(t)
	b := create(t, f, f.User.ID, f.Slot.ID, "full", "")
	uc := bookinguc.NewExpireBooking(f.Deps)

	changed, err := uc.Execute(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, changed, "still inside the payment window")

	f.Advance(31 * time.Minute)
	changed, err = uc.Execute(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = uc.Execute(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, _ := f.Repo.GetBooking(ctx, b.ID)
	assert.Equal(t, string(domain.StatusExpired), got.Status)
	slot, _ := f.Repo.GetSlot(ctx, f.Slot.ID)
	assert.Empty(t, slot.HoldToken)
}

func TestCompleteSchedulesPayoutAndRelease(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	confirmed, err := bookinguc.NewConfirmBookingByOwner(f.Deps).Execute(ctx, f.Owner.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusOwnerConfirmed), confirmed.Status)

	done, err := bookinguc.NewCompleteBooking(f.Deps).Execute(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, done, "game not over yet")

	f.SetNow(b.EndsAt.Add(time.Minute))
	done, err = bookinguc.NewCompleteBooking(f.Deps).Execute(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, done)

	po, err := f.Repo.GetPayoutByBooking(ctx, b.ID)
	require.NoError(t, err)

	release := bookinguc.NewReleasePayout(f.Deps)
	sent, err := release.Execute(ctx, po.ID)
	require.NoError(t, err)
	assert.False(t, sent, "escrow delay not elapsed")

	f.SetNow(po.ReleaseAt.Add(time.Minute))
	f.Gateway.FailTransfer = true
	sent, err = release.Execute(ctx, po.ID)
	require.NoError(t, err)
	assert.False(t, sent)

	failed, _ := f.Repo.LockPayout(ctx, po.ID)
	assert.Equal(t, 1, failed.Attempts)
	assert.Equal(t, "failed", failed.Status)

	f.Gateway.FailTransfer = false
	sent, err = release.Execute(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, sent)

	paid, _ := f.Repo.LockPayout(ctx, po.ID)
	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, 1, f.Gateway.TransferCount())
	assert.Equal(t, f.Owner.Phone, f.Gateway.Transfers[0].Phone)
	assert.Equal(t, int64(20000), f.Gateway.Transfers[0].Amount)

	sent, err = release.Execute(ctx, po.ID)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestAbandonedPayoutIsResentAfterLease(t *testing.T) {
	f := usecasetest.New(t)
	b := confirm(t, f, f.Slot.ID)

	f.SetNow(b.EndsAt.Add(time.Minute))
	done, err := bookinguc.NewCompleteBooking(f.Deps).Execute(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, done)
	po, err := f.Repo.GetPayoutByBooking(ctx, b.ID)
	require.NoError(t, err)

	// worker morreu depois de marcar processing, antes do resultado
	f.SetNow(po.ReleaseAt.Add(time.Minute))
	require.NoError(t, payout.Start(po, f.Now(), 5))
	require.NoError(t, f.Repo.UpdatePayout(ctx, po))

	release := bookinguc.NewReleasePayout(f.Deps)
	sent, err := release.Execute(ctx, po.ID)
	require.NoError(t, err)
	assert.False(t, sent, "lease still running")

	f.Advance(payout.ProcessingLease)
	due, err := f.Repo.ListDuePayouts(ctx, f.Now(), 5, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	sent, err = release.Execute(ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, sent)

	paid, _ := f.Repo.LockPayout(ctx, po.ID)
	assert.Equal(t, "paid", paid.Status)
	assert.Equal(t, 1, paid.Attempts)
	require.Equal(t, 1, f.Gateway.TransferCount())
	assert.Equal(t, fmt.Sprintf("po-%d-1", po.ID), f.Gateway.Transfers[0].Reference)
}

func TestGetBookingVisibility(t *testing.T) {
	f := usecasetest.New(t)
	b := create(t, f, f.User.ID, f.Slot.ID, "full", "")
	uc := bookinguc.NewGetBooking(f.Repo)

	_, err := uc.Execute(ctx, f.User.ID, b.ID)
	assert.NoError(t, err)
	_, err = uc.Execute(ctx, f.Owner.ID, b.ID)
	assert.NoError(t, err)
	_, err = uc.Execute(ctx, f.Other.ID, b.ID)
	assert.True(t, httperr.IsBusiness(err, "booking_not_found"))
}

package booking

import (
	"time"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func transition(b *models.Booking, to Status) error {
	if err := CanTransition(Status(b.Status), to); err != nil {
		return err
	}
	b.Status = string(to)
	return nil
}

func Approve(b *models.Booking, now time.Time, paymentWindow time.Duration) error {
	if err := transition(b, StatusApproved); err != nil {
		return err
	}
	deadline := now.Add(paymentWindow)
	b.ApprovedAt = &now
	b.ExpiresAt = &deadline
	return nil
}

func Reject(b *models.Booking, now time.Time, reason string) error {
	if Status(b.Status) != StatusPending {
		return httperr.ErrBusiness("invalid_transition")
	}
	return Cancel(b, now, reason)
}

// CanInitiatePayment: só reservas aprovadas, dentro da janela e sem pagamento concluído.
func CanInitiatePayment(b *models.Booking, now time.Time) error {
	if Status(b.Status) != StatusApproved {
		return httperr.ErrBusiness("invalid_transition")
	}
	if b.ExpiresAt != nil && !now.Before(*b.ExpiresAt) {
		return httperr.ErrBusiness("payment_window_closed")
	}
	switch PaymentStatus(b.PaymentStatus) {
	case PaymentUnpaid, PaymentFailed, PaymentInitiated:
		return nil
	}
	return httperr.ErrBusiness("invalid_transition")
}

func InitiatePayment(b *models.Booking, provider, intentID string, now time.Time) error {
	if err := CanInitiatePayment(b, now); err != nil {
		return err
	}
	b.PaymentStatus = string(PaymentInitiated)
	b.PaymentProvider = provider
	b.PaymentIntentID = intentID
	return nil
}

// MarkPaid confirma a reserva (approved ou provisional → confirmed).
func MarkPaid(b *models.Booking, now time.Time) error {
	if err := transition(b, StatusConfirmed); err != nil {
		return err
	}
	b.PaymentStatus = string(PaymentPaid)
	b.PaidAt = &now
	b.ExpiresAt = nil
	return nil
}

// MarkPaymentFailed mantém o status; o usuário pode tentar de novo até a janela fechar.
func MarkPaymentFailed(b *models.Booking) error {
	if Status(b.Status) != StatusApproved {
		return httperr.ErrBusiness("invalid_transition")
	}
	b.PaymentStatus = string(PaymentFailed)
	return nil
}

func ConfirmByOwner(b *models.Booking, now time.Time) error {
	if err := transition(b, StatusOwnerConfirmed); err != nil {
		return err
	}
	b.OwnerConfirmedAt = &now
	return nil
}

func Complete(b *models.Booking, now time.Time) error {
	if now.Before(b.EndsAt) {
		return httperr.ErrBusiness("too_early")
	}
	if err := transition(b, StatusCompleted); err != nil {
		return err
	}
	b.CompletedAt = &now
	return nil
}

func Cancel(b *models.Booking, now time.Time, reason string) error {
	if err := transition(b, StatusCancelled); err != nil {
		return err
	}
	b.CancelledAt = &now
	b.CancelReason = reason
	b.ExpiresAt = nil
	if !PaymentStatus(b.PaymentStatus).settled() {
		b.PaymentStatus = string(PaymentExpired)
	}
	return nil
}

func Expire(b *models.Booking, now time.Time) error {
	if err := transition(b, StatusExpired); err != nil {
		return err
	}
	b.ExpiresAt = nil
	if !PaymentStatus(b.PaymentStatus).settled() {
		b.PaymentStatus = string(PaymentExpired)
	}
	return nil
}

func Refund(b *models.Booking, now time.Time, reason string) error {
	if err := transition(b, StatusRefunded); err != nil {
		return err
	}
	b.PaymentStatus = string(PaymentRefunded)
	b.RefundedAt = &now
	b.CancelledAt = &now
	b.CancelReason = reason
	return nil
}

func (p PaymentStatus) settled() bool {
	return p == PaymentPaid || p == PaymentRefunded
}

// RefundEligible: cancelamento do usuário com antecedência mínima.
func RefundEligible(b *models.Booking, now time.Time, cutoff time.Duration) bool {
	return !now.Add(cutoff).After(b.StartsAt)
}

// IsExpired: janela (aprovação ou pagamento) já passou.
func IsExpired(b *models.Booking, now time.Time) bool {
	return b.ExpiresAt != nil && !now.Before(*b.ExpiresAt)
}

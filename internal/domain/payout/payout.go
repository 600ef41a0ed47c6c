// Package payout regula o repasse (escrow) do valor do dono.
package payout

import (
	"time"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/models"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// ProcessingLease: depois disso um repasse em processing é considerado abandonado
// (worker morto entre o envio e o registro do resultado) e volta a ser enviado.
const ProcessingLease = 10 * time.Minute

// Schedule cria o repasse de uma reserva paga: release_at = fim do jogo + atraso.
func Schedule(b *models.Booking, delay time.Duration) *models.Payout {
	return &models.Payout{
		BookingID: b.ID,
		OwnerID:   b.OwnerID,
		Amount:    b.OwnerAmount,
		Currency:  b.Currency,
		Status:    string(StatusScheduled),
		ReleaseAt: b.EndsAt.Add(delay),
	}
}

// IsStale: processing com lease vencido.
func IsStale(p *models.Payout, now time.Time) bool {
	if Status(p.Status) != StatusProcessing {
		return false
	}
	return p.ProcessingSince == nil || !now.Before(p.ProcessingSince.Add(ProcessingLease))
}

// IsDue: pode ser enviado agora.
func IsDue(p *models.Payout, now time.Time, maxAttempts int) bool {
	switch Status(p.Status) {
	case StatusProcessing:
		// retomada da mesma tentativa, não conta contra o limite
		return IsStale(p, now)
	case StatusScheduled:
	case StatusFailed:
		if p.Attempts >= maxAttempts {
			return false
		}
	default:
		return false
	}
	return !now.Before(p.ReleaseAt)
}

func Start(p *models.Payout, now time.Time, maxAttempts int) error {
	if !IsDue(p, now, maxAttempts) {
		return httperr.ErrBusiness("invalid_state")
	}
	// tentativa abandonada: mesmo número, mesma referência de transferência,
	// e o provedor deduplica
	if Status(p.Status) != StatusProcessing {
		p.Attempts++
	}
	p.Status = string(StatusProcessing)
	p.ProcessingSince = &now
	return nil
}

func Succeed(p *models.Payout, provider, transferRef string, now time.Time) {
	p.Status = string(StatusPaid)
	p.Provider = provider
	p.TransferRef = transferRef
	p.LastError = ""
	p.PaidAt = &now
	p.ProcessingSince = nil
}

func Fail(p *models.Payout, provider string, err error) {
	p.Status = string(StatusFailed)
	p.Provider = provider
	msg := err.Error()
	if len(msg) > 255 {
		msg = msg[:255]
	}
	p.LastError = msg
	p.ProcessingSince = nil
}

// Cancel: reembolso antes do repasse.
func Cancel(p *models.Payout) error {
	switch Status(p.Status) {
	case StatusScheduled, StatusFailed:
		p.Status = string(StatusCancelled)
		return nil
	}
	return httperr.ErrBusiness("invalid_state")
}

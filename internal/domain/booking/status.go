package booking

import "github.com/BruksfildServices01/field-booking/internal/httperr"

// ===============================
// Booking Status
// ===============================

type Status string

const (
	StatusPending        Status = "pending"
	StatusApproved       Status = "approved"
	StatusProvisional    Status = "provisional"
	StatusConfirmed      Status = "confirmed"
	StatusOwnerConfirmed Status = "owner_confirmed"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
	StatusRefunded       Status = "refunded"
	StatusExpired        Status = "expired"
)

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentExpired   PaymentStatus = "expired"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMode string

const (
	ModeFull    PaymentMode = "full"
	ModeDeposit PaymentMode = "deposit"
)

// ParseMode aceita "" como pagamento integral.
func ParseMode(s string) (PaymentMode, error) {
	switch PaymentMode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeDeposit:
		return ModeDeposit, nil
	}
	return "", httperr.ErrBusiness("invalid_payment_mode")
}

// ===============================
// Transitions
// ===============================

var transitions = map[Status][]Status{
	StatusPending:        {StatusApproved, StatusCancelled, StatusExpired},
	StatusApproved:       {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusProvisional:    {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed:      {StatusOwnerConfirmed, StatusCancelled, StatusRefunded, StatusCompleted},
	StatusOwnerConfirmed: {StatusCompleted, StatusCancelled, StatusRefunded},
}

// CanTransition valida a máquina de estados da reserva.
func CanTransition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return httperr.ErrBusiness("invalid_transition")
}

func (s Status) IsTerminal() bool {
	_, ok := transitions[s]
	return !ok
}

// IsActive: a reserva ainda ocupa o slot.
func (s Status) IsActive() bool {
	switch s {
	case StatusPending, StatusApproved, StatusProvisional, StatusConfirmed, StatusOwnerConfirmed:
		return true
	}
	return false
}

// IsPaid: dinheiro já está retido na plataforma.
func (s Status) IsPaid() bool {
	return s == StatusConfirmed || s == StatusOwnerConfirmed
}

// ActiveStatuses para filtros SQL.
func ActiveStatuses() []string {
	return []string{
		string(StatusPending),
		string(StatusApproved),
		string(StatusProvisional),
		string(StatusConfirmed),
		string(StatusOwnerConfirmed),
	}
}

func AllStatuses() []Status {
	return []Status{
		StatusPending, StatusApproved, StatusProvisional, StatusConfirmed, StatusOwnerConfirmed,
		StatusCompleted, StatusCancelled, StatusRefunded, StatusExpired,
	}
}

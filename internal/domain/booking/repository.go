package booking

import (
	"context"
	"time"

	"github.com/BruksfildServices01/field-booking/internal/models"
)

// Repository é tudo que o ciclo reserva / pagamento / cagnotte / repasse precisa.
// Transaction entrega um Repository preso à mesma transação; Lock* usam SELECT … FOR UPDATE.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// -------- User / Field --------
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetField(ctx context.Context, id uint) (*models.Field, error)

	// -------- Slot --------
	GetSlot(ctx context.Context, id uint) (*models.FieldAvailability, error)
	LockSlot(ctx context.Context, id uint) (*models.FieldAvailability, error)
	UpdateSlot(ctx context.Context, slot *models.FieldAvailability) error
	HasActiveOverlap(ctx context.Context, fieldID uint, start, end time.Time, excludeBookingID uint) (bool, error)
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int64, error)

	// -------- Booking --------
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	LockBooking(ctx context.Context, id uint) (*models.Booking, error)
	UpdateBooking(ctx context.Context, b *models.Booking) error
	ListBookingsToExpire(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	ListBookingsToComplete(ctx context.Context, now time.Time, limit int) ([]models.Booking, error)
	ListBookings(ctx context.Context, f Filter) ([]models.Booking, int64, error)
	OwnerStats(ctx context.Context, ownerID uint, from, to time.Time) (*Stats, error)

	// -------- Payment --------
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPaymentByReference(ctx context.Context, ref string) (*models.Payment, error)
	LockPaymentByReference(ctx context.Context, ref string) (*models.Payment, error)
	GetPaidPaymentForBooking(ctx context.Context, bookingID uint) (*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error
	// RecordWebhookEvent devolve false quando (provider, eventID) já foi processado.
	RecordWebhookEvent(ctx context.Context, ev *models.WebhookEvent) (bool, error)

	// -------- Promo --------
	GetPromoByCode(ctx context.Context, code string) (*models.PromoCode, error)
	CountPromoRedemptions(ctx context.Context, promoID, userID uint) (int64, error)
	// ReservePromoUse incrementa used_count só se ainda houver saldo.
	ReservePromoUse(ctx context.Context, promoID uint) (bool, error)
	CreatePromoRedemption(ctx context.Context, r *models.PromoRedemption) error
	ReleasePromoRedemption(ctx context.Context, bookingID uint) error

	// -------- Cagnotte --------
	CreateCagnotte(ctx context.Context, c *models.Cagnotte) error
	GetCagnotte(ctx context.Context, id uint) (*models.Cagnotte, error)
	LockCagnotte(ctx context.Context, id uint) (*models.Cagnotte, error)
	UpdateCagnotte(ctx context.Context, c *models.Cagnotte) error
	HasOpenCagnotte(ctx context.Context, slotID uint) (bool, error)
	ListCagnottesToExpire(ctx context.Context, now time.Time, limit int) ([]models.Cagnotte, error)
	CreateContribution(ctx context.Context, c *models.CagnotteContribution) error
	LockContribution(ctx context.Context, id uint) (*models.CagnotteContribution, error)
	UpdateContribution(ctx context.Context, c *models.CagnotteContribution) error
	ListContributions(ctx context.Context, cagnotteID uint) ([]models.CagnotteContribution, error)
	// SumCommittedContributions soma pagas + pendentes criadas depois de pendingSince.
	SumCommittedContributions(ctx context.Context, cagnotteID uint, pendingSince time.Time) (int64, error)
	// ListContributionsAwaitingRefund: pagas, de cagnottes encerradas, com reembolso pendente ou falho
	// e sem tentativa desde before.
	ListContributionsAwaitingRefund(ctx context.Context, before time.Time, limit int) ([]models.CagnotteContribution, error)

	// -------- Payout --------
	CreatePayout(ctx context.Context, p *models.Payout) error
	GetPayoutByBooking(ctx context.Context, bookingID uint) (*models.Payout, error)
	LockPayout(ctx context.Context, id uint) (*models.Payout, error)
	UpdatePayout(ctx context.Context, p *models.Payout) error
	ListDuePayouts(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.Payout, error)
}

// Filter das listagens de reservas; zero = sem filtro.
type Filter struct {
	UserID  uint
	OwnerID uint
	FieldID uint
	Status  string
	From    *time.Time
	To      *time.Time
	Page    int
	Limit   int
}

// Stats alimenta o painel do dono.
type Stats struct {
	ByStatus        map[string]int64 `json:"by_status"`
	Upcoming        int64            `json:"upcoming"`
	GrossAmount     int64            `json:"gross_amount"`
	OwnerAmount     int64            `json:"owner_amount"`
	CommissionTotal int64            `json:"commission_total"`
	PendingPayouts  int64            `json:"pending_payouts"`
	PaidPayouts     int64            `json:"paid_payouts"`
}

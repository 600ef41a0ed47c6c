package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/audit"
	"github.com/BruksfildServices01/field-booking/internal/config"
	domain "github.com/BruksfildServices01/field-booking/internal/domain/booking"
	"github.com/BruksfildServices01/field-booking/internal/events"
	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/jobs"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/models"
	"github.com/BruksfildServices01/field-booking/internal/payment"
)

// Policy são as regras de negócio configuráveis.
type Policy struct {
	Currency              string
	CommissionRate        float64
	DefaultDepositPercent int

	SlotLockTTL        time.Duration
	ApprovalTTL        time.Duration
	PaymentWindow      time.Duration
	EscrowReleaseDelay time.Duration
	RefundCutoff       time.Duration

	CagnotteHoldPercent int
	CagnotteTTL         time.Duration

	PayoutMaxAttempts int
	PayoutProvider    string

	PublicBaseURL string
}

func PolicyFrom(cfg *config.Config) Policy {
	return Policy{
		Currency:              cfg.Currency,
		CommissionRate:        cfg.CommissionRate,
		DefaultDepositPercent: cfg.DefaultDepositPercent,
		SlotLockTTL:           cfg.SlotLockTTL,
		ApprovalTTL:           cfg.ApprovalTTL,
		PaymentWindow:         cfg.PaymentWindow,
		EscrowReleaseDelay:    cfg.EscrowReleaseDelay,
		RefundCutoff:          cfg.RefundCutoff,
		CagnotteHoldPercent:   cfg.CagnotteHoldPercent,
		CagnotteTTL:           cfg.CagnotteTTL,
		PayoutMaxAttempts:     cfg.PayoutMaxAttempts,
		PayoutProvider:        cfg.PayoutProvider,
		PublicBaseURL:         cfg.PublicBaseURL,
	}
}

// Deps é compartilhado pelos use cases de reserva, pagamento e cagnotte.
type Deps struct {
	Repo     domain.Repository
	Locker   lock.Locker
	Audit    audit.Recorder
	Events   events.Publisher
	Jobs     jobs.Scheduler
	Gateways *payment.Registry
	Policy   Policy
	Log      *zap.Logger
	Now      func() time.Time
}

// Clock devolve o instante atual (injetável nos testes).
func (d Deps) Clock() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Emit publica os eventos acumulados numa transação, já fora dela.
func (d Deps) Emit(ctx context.Context, msgs ...events.Message) {
	events.EmitAll(ctx, d.Events, d.Log, msgs)
}

func (d Deps) Record(actorID *uint, action, entity string, entityID uint, metadata any) {
	if d.Audit == nil {
		return
	}
	id := entityID
	d.Audit.Dispatch(audit.Event{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: &id,
		Metadata: metadata,
	})
}

func BookingMessage(key string, b *models.Booking) events.Message {
	return events.Message{Key: key, Payload: events.NewBookingEvent(b)}
}

// NotFound traduz gorm.ErrRecordNotFound para o código de negócio.
func NotFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}

// ReleaseSlotHold solta o hold do token dentro da transação.
func ReleaseSlotHold(ctx context.Context, tx domain.Repository, slotID uint, token string) error {
	if token == "" {
		return nil
	}
	slot, err := tx.LockSlot(ctx, slotID)
	if err != nil {
		return NotFound(err, "slot_not_found")
	}
	if domain.Release(slot, token) {
		return tx.UpdateSlot(ctx, slot)
	}
	return nil
}

// SchedulePayout agenda a liberação do repasse; a varredura cobre falhas.
func (d Deps) SchedulePayout(ctx context.Context, p *models.Payout) {
	if d.Jobs == nil || p == nil || p.ID == 0 {
		return
	}
	if err := d.Jobs.ReleasePayoutAt(ctx, p.ID, p.ReleaseAt); err != nil {
		d.Log.Warn("schedule payout release failed", zap.Uint("payout_id", p.ID), zap.Error(err))
	}
}

func (d Deps) scheduleExpiry(ctx context.Context, b *models.Booking) {
	if d.Jobs == nil || b.ExpiresAt == nil {
		return
	}
	if err := d.Jobs.ExpireBookingAt(ctx, b.ID, *b.ExpiresAt); err != nil {
		d.Log.Warn("schedule booking expiry failed", zap.Uint("booking_id", b.ID), zap.Error(err))
	}
}

func ptr[T any](v T) *T { return &v }

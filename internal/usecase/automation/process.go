// Package automation roda a varredura periódica que reconcilia prazos vencidos.
// Os jobs agendados cobrem o caso normal; a varredura cobre jobs perdidos.
package automation

import (
	"context"
	"time"

	"go.uber.org/zap"

	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
	cagnotteuc "github.com/BruksfildServices01/field-booking/internal/usecase/cagnotte"
)

const (
	batchSize = 100
	// refundRetryDelay: intervalo mínimo entre tentativas de reembolso da mesma contribuição.
	refundRetryDelay = 5 * time.Minute
)

// SweepLockKey/SweepLockTTL: uma varredura por vez; quem chama segura o lock.
const (
	SweepLockKey = "automation:sweep"
	SweepLockTTL = 2 * time.Minute
)

type Report struct {
	ExpiredBookings     int   `json:"expired_bookings"`
	ReleasedHolds       int64 `json:"released_holds"`
	ExpiredCagnottes    int   `json:"expired_cagnottes"`
	CompletedBookings   int   `json:"completed_bookings"`
	RetriedRefunds      int   `json:"retried_refunds"`
	ReleasedPayouts     int   `json:"released_payouts"`
	Errors              int   `json:"errors"`
	DurationMillisecond int64 `json:"duration_ms"`
}

type ProcessAutomationTasks struct {
	deps bookinguc.Deps

	expire    *bookinguc.ExpireBooking
	complete  *bookinguc.CompleteBooking
	payouts   *bookinguc.ReleasePayout
	cagnottes *cagnotteuc.CloseCagnotte
}

func NewProcessAutomationTasks(deps bookinguc.Deps) *ProcessAutomationTasks {
	return &ProcessAutomationTasks{
		deps:      deps,
		expire:    bookinguc.NewExpireBooking(deps),
		complete:  bookinguc.NewCompleteBooking(deps),
		payouts:   bookinguc.NewReleasePayout(deps),
		cagnottes: cagnotteuc.NewCloseCagnotte(deps),
	}
}

// Execute roda as etapas em ordem; uma etapa com erro não impede as seguintes.
func (uc *ProcessAutomationTasks) Execute(ctx context.Context) (*Report, error) {
	d := uc.deps
	start := time.Now()
	now := d.Clock()
	rep := &Report{}

	// ---- 1️⃣ Reservas fora do prazo de aprovação / pagamento
	if list, err := d.Repo.ListBookingsToExpire(ctx, now, batchSize); err != nil {
		uc.fail(rep, "list bookings to expire", err)
	} else {
		for _, b := range list {
			ok, err := uc.expire.Execute(ctx, b.ID)
			if err != nil {
				uc.fail(rep, "expire booking", err, zap.Uint("booking_id", b.ID))
				continue
			}
			if ok {
				rep.ExpiredBookings++
			}
		}
	}

	// ---- 2️⃣ Holds órfãos
	if n, err := d.Repo.ReleaseExpiredHolds(ctx, now); err != nil {
		uc.fail(rep, "release holds", err)
	} else {
		rep.ReleasedHolds = n
	}

	// ---- 3️⃣ Cagnottes vencidas
	if n, err := uc.cagnottes.ExpireDue(ctx, batchSize); err != nil {
		uc.fail(rep, "expire cagnottes", err)
	} else {
		rep.ExpiredCagnottes = n
	}

	// ---- 4️⃣ Jogos terminados
	if list, err := d.Repo.ListBookingsToComplete(ctx, now, batchSize); err != nil {
		uc.fail(rep, "list bookings to complete", err)
	} else {
		for _, b := range list {
			ok, err := uc.complete.Execute(ctx, b.ID)
			if err != nil {
				uc.fail(rep, "complete booking", err, zap.Uint("booking_id", b.ID))
				continue
			}
			if ok {
				rep.CompletedBookings++
			}
		}
	}

	// ---- 5️⃣ Reembolsos de contribuições pendentes
	if list, err := d.Repo.ListContributionsAwaitingRefund(ctx, now.Add(-refundRetryDelay), batchSize); err != nil {
		uc.fail(rep, "list refunds", err)
	} else {
		for _, c := range list {
			if err := d.RefundContribution(ctx, c.ID); err != nil {
				uc.fail(rep, "refund contribution", err, zap.Uint("contribution_id", c.ID))
				continue
			}
			rep.RetriedRefunds++
		}
	}

	// ---- 6️⃣ Repasses vencidos
	if list, err := d.Repo.ListDuePayouts(ctx, now, d.Policy.PayoutMaxAttempts, batchSize); err != nil {
		uc.fail(rep, "list payouts", err)
	} else {
		for _, p := range list {
			ok, err := uc.payouts.Execute(ctx, p.ID)
			if err != nil {
				uc.fail(rep, "release payout", err, zap.Uint("payout_id", p.ID))
				continue
			}
			if ok {
				rep.ReleasedPayouts++
			}
		}
	}

	rep.DurationMillisecond = time.Since(start).Milliseconds()
	d.Log.Info("automation sweep",
		zap.Int("expired_bookings", rep.ExpiredBookings),
		zap.Int64("released_holds", rep.ReleasedHolds),
		zap.Int("expired_cagnottes", rep.ExpiredCagnottes),
		zap.Int("completed_bookings", rep.CompletedBookings),
		zap.Int("retried_refunds", rep.RetriedRefunds),
		zap.Int("released_payouts", rep.ReleasedPayouts),
		zap.Int("errors", rep.Errors),
	)
	return rep, nil
}

func (uc *ProcessAutomationTasks) fail(rep *Report, step string, err error, fields ...zap.Field) {
	rep.Errors++
	uc.deps.Log.Error(step+" failed", append(fields, zap.Error(err))...)
}

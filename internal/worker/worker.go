// Package worker executa as tarefas agendadas (asynq) e a varredura periódica.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/httperr"
	"github.com/BruksfildServices01/field-booking/internal/jobs"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/usecase/automation"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
	cagnotteuc "github.com/BruksfildServices01/field-booking/internal/usecase/cagnotte"
)

const SweepSpec = "@every 1m"

type Worker struct {
	expireBooking *bookinguc.ExpireBooking
	closeCagnotte *cagnotteuc.CloseCagnotte
	releasePayout *bookinguc.ReleasePayout
	sweep         *automation.ProcessAutomationTasks
	locker        lock.Locker
	log           *zap.Logger
}

func New(deps bookinguc.Deps) *Worker {
	return &Worker{
		expireBooking: bookinguc.NewExpireBooking(deps),
		closeCagnotte: cagnotteuc.NewCloseCagnotte(deps),
		releasePayout: bookinguc.NewReleasePayout(deps),
		sweep:         automation.NewProcessAutomationTasks(deps),
		locker:        deps.Locker,
		log:           deps.Log,
	}
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeBookingExpire, w.handleBookingExpire)
	mux.HandleFunc(jobs.TypeCagnotteExpire, w.handleCagnotteExpire)
	mux.HandleFunc(jobs.TypePayoutRelease, w.handlePayoutRelease)
	mux.HandleFunc(jobs.TypeAutomationSweep, w.handleSweep)
	return mux
}

func (w *Worker) handleBookingExpire(ctx context.Context, t *asynq.Task) error {
	p, err := jobs.ParseEntity(t)
	if err != nil {
		return err
	}
	done, err := w.expireBooking.Execute(ctx, p.ID)
	if err != nil {
		return taskErr("expire booking", p.ID, err)
	}
	w.log.Debug("booking expiry task", zap.Uint("booking_id", p.ID), zap.Bool("expired", done))
	return nil
}

func (w *Worker) handleCagnotteExpire(ctx context.Context, t *asynq.Task) error {
	p, err := jobs.ParseEntity(t)
	if err != nil {
		return err
	}
	done, err := w.closeCagnotte.Expire(ctx, p.ID)
	if err != nil {
		return taskErr("expire cagnotte", p.ID, err)
	}
	w.log.Debug("cagnotte expiry task", zap.Uint("cagnotte_id", p.ID), zap.Bool("expired", done))
	return nil
}

func (w *Worker) handlePayoutRelease(ctx context.Context, t *asynq.Task) error {
	p, err := jobs.ParseEntity(t)
	if err != nil {
		return err
	}
	sent, err := w.releasePayout.Execute(ctx, p.ID)
	if err != nil {
		return taskErr("release payout", p.ID, err)
	}
	w.log.Debug("payout release task", zap.Uint("payout_id", p.ID), zap.Bool("sent", sent))
	return nil
}

// handleSweep roda uma varredura por vez entre todas as instâncias.
func (w *Worker) handleSweep(ctx context.Context, _ *asynq.Task) error {
	release, err := w.locker.Acquire(ctx, automation.SweepLockKey, automation.SweepLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		w.log.Debug("sweep already running")
		return nil
	}
	if err != nil {
		return err
	}
	defer release()

	rep, err := w.sweep.Execute(ctx)
	if err != nil {
		return err
	}
	if rep.Errors > 0 {
		w.log.Warn("sweep finished with errors", zap.Any("report", rep))
	}
	return nil
}

// taskErr: erro de negócio não melhora com retry, exceto disputa de lock.
func taskErr(what string, id uint, err error) error {
	switch code := httperr.CodeOf(err); code {
	case "", "booking_busy", "cagnotte_busy":
		return fmt.Errorf("%s %d: %w", what, id, err)
	default:
		return fmt.Errorf("%s %d: %s: %w", what, id, code, asynq.SkipRetry)
	}
}

// ServerConfig é a configuração do servidor asynq usada pelo cmd/worker.
func ServerConfig(log *zap.Logger, concurrency int) asynq.Config {
	if concurrency <= 0 {
		concurrency = 10
	}
	return asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			jobs.QueueCritical: 6,
			jobs.QueueDefault:  3,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			log.Warn("task failed", zap.String("type", t.Type()), zap.Error(err))
		}),
		Logger: log.Sugar(),
	}
}

// RegisterSweep agenda a varredura periódica no scheduler do asynq.
func RegisterSweep(s *asynq.Scheduler) (string, error) {
	return s.Register(SweepSpec, jobs.NewAutomationSweepTask(), asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(0))
}

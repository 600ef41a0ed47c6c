package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Scheduler agenda as transições por tempo. A varredura periódica cobre o que falhar aqui.
type Scheduler interface {
	ExpireBookingAt(ctx context.Context, bookingID uint, at time.Time) error
	ExpireCagnotteAt(ctx context.Context, cagnotteID uint, at time.Time) error
	ReleasePayoutAt(ctx context.Context, payoutID uint, at time.Time) error
}

type AsynqScheduler struct {
	client *asynq.Client
	log    *zap.Logger
}

func NewAsynqScheduler(client *asynq.Client, log *zap.Logger) *AsynqScheduler {
	return &AsynqScheduler{client: client, log: log}
}

func (s *AsynqScheduler) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option, err error) error {
	if err != nil {
		return err
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Debug("task scheduled",
		zap.String("type", task.Type()),
		zap.String("id", info.ID),
		zap.Time("at", info.NextProcessAt),
	)
	return nil
}

func (s *AsynqScheduler) ExpireBookingAt(ctx context.Context, bookingID uint, at time.Time) error {
	task, opts, err := NewBookingExpireTask(bookingID, at)
	return s.enqueue(ctx, task, opts, err)
}

func (s *AsynqScheduler) ExpireCagnotteAt(ctx context.Context, cagnotteID uint, at time.Time) error {
	task, opts, err := NewCagnotteExpireTask(cagnotteID, at)
	return s.enqueue(ctx, task, opts, err)
}

func (s *AsynqScheduler) ReleasePayoutAt(ctx context.Context, payoutID uint, at time.Time) error {
	task, opts, err := NewPayoutReleaseTask(payoutID, at)
	return s.enqueue(ctx, task, opts, err)
}

// NoopScheduler deixa tudo para a varredura periódica.
type NoopScheduler struct{}

func (NoopScheduler) ExpireBookingAt(context.Context, uint, time.Time) error  { return nil }
func (NoopScheduler) ExpireCagnotteAt(context.Context, uint, time.Time) error { return nil }
func (NoopScheduler) ReleasePayoutAt(context.Context, uint, time.Time) error  { return nil }

// RedisOpt monta a conexão da fila.
func RedisOpt(addr, password string, db int) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
}

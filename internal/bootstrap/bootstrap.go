// Package bootstrap abre as conexões compartilhadas pelo cmd/api e pelo cmd/worker.
package bootstrap

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/field-booking/internal/audit"
	"github.com/BruksfildServices01/field-booking/internal/config"
	"github.com/BruksfildServices01/field-booking/internal/events"
	infraRepo "github.com/BruksfildServices01/field-booking/internal/infra/repository"
	"github.com/BruksfildServices01/field-booking/internal/jobs"
	"github.com/BruksfildServices01/field-booking/internal/lock"
	"github.com/BruksfildServices01/field-booking/internal/middleware"
	"github.com/BruksfildServices01/field-booking/internal/payment"
	"github.com/BruksfildServices01/field-booking/internal/storage"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
	bookinguc "github.com/BruksfildServices01/field-booking/internal/usecase/booking"
)

type Infra struct {
	Log      *zap.Logger
	Locker   lock.Locker
	Jobs     jobs.Scheduler
	Events   events.Publisher
	Gateways *payment.Registry
	Storage  storage.Storage
	Audit    audit.Recorder
	Limiter  *middleware.RateLimiter

	closers []func()
}

// Open nunca falha por Redis ou RabbitMQ fora do ar: o lock degrada para o banco
// e os eventos caem no log.
func Open(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Infra {
	in := &Infra{Log: log}

	// ---- Redis (lock)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	cancel()
	in.Locker = lock.NewRedisLocker(rdb, log)
	in.closers = append(in.closers, func() { _ = rdb.Close() })

	// ---- Fila (asynq)
	client := asynq.NewClient(jobs.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisQueueDB))
	in.Jobs = jobs.NewAsynqScheduler(client, log)
	in.closers = append(in.closers, func() { _ = client.Close() })

	// ---- Eventos
	in.Events = events.NewLogPublisher(log)
	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Warn("amqp unavailable, events go to the log", zap.Error(err))
		} else {
			in.Events = pub
			in.closers = append(in.closers, func() { _ = pub.Close() })
		}
	}

	// ---- Gateways
	in.Gateways = payment.FromConfig(cfg, log)

	// ---- Storage
	if cfg.S3Bucket != "" {
		in.Storage = storage.NewS3Storage(cfg)
	} else {
		log.Warn("S3_BUCKET not set, photos kept in memory")
		in.Storage = storage.NewMemoryStorage(cfg.PublicBaseURL + "/media")
	}

	// ---- Auditoria
	dispatcher := audit.NewDispatcher(audit.New(db), log)
	in.Audit = dispatcher
	in.closers = append(in.closers, dispatcher.Close)

	in.Limiter = middleware.NewRateLimiter(cfg.RateLimitPerMin, log)

	return in
}

// BookingDeps monta as dependências dos use cases de reserva.
func (in *Infra) BookingDeps(db *gorm.DB, cfg *config.Config) bookinguc.Deps {
	return bookinguc.Deps{
		Repo:     infraRepo.NewBookingGormRepository(db),
		Locker:   in.Locker,
		Audit:    in.Audit,
		Events:   in.Events,
		Jobs:     in.Jobs,
		Gateways: in.Gateways,
		Policy:   bookinguc.PolicyFrom(cfg),
		Log:      in.Log,
		Now:      timezone.Now,
	}
}

// Close fecha na ordem inversa da abertura.
func (in *Infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
}

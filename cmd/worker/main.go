package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/bootstrap"
	"github.com/BruksfildServices01/field-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/field-booking/internal/db"
	"github.com/BruksfildServices01/field-booking/internal/events"
	infraRepo "github.com/BruksfildServices01/field-booking/internal/infra/repository"
	"github.com/BruksfildServices01/field-booking/internal/jobs"
	"github.com/BruksfildServices01/field-booking/internal/logger"
	"github.com/BruksfildServices01/field-booking/internal/notify"
	"github.com/BruksfildServices01/field-booking/internal/timezone"
	"github.com/BruksfildServices01/field-booking/internal/worker"
)

const notificationQueue = "field.notifications"

func main() {

	cfg := config.Load()
	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	db := dbpkg.NewDB(cfg, log)

	infra := bootstrap.Open(db, cfg, log)
	defer infra.Close()

	w := worker.New(infra.BookingDeps(db, cfg))
	redisOpt := jobs.RedisOpt(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisQueueDB)

	// ---- 1️⃣ Tarefas agendadas
	srv := asynq.NewServer(redisOpt, worker.ServerConfig(log, 10))
	if err := srv.Start(w.Mux()); err != nil {
		log.Fatal("asynq server", zap.Error(err))
	}
	defer srv.Shutdown()

	// ---- 2️⃣ Varredura periódica
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: timezone.Location(cfg.Timezone)})
	if _, err := worker.RegisterSweep(scheduler); err != nil {
		log.Fatal("register sweep", zap.Error(err))
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal("asynq scheduler", zap.Error(err))
	}
	defer scheduler.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- 3️⃣ Notificações (opcional: sem RabbitMQ os eventos só vão para o log)
	if cfg.AMQPURL != "" {
		consumer, err := events.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, notificationQueue, events.NotificationBindings, 16, log)
		if err != nil {
			log.Error("notification consumer disabled", zap.Error(err))
		} else {
			defer consumer.Close()
			handler := notify.NewHandler(
				notify.NewLogSender(log),
				infraRepo.NewUserDirectory(db),
				timezone.Location(cfg.Timezone),
				log,
			)
			go func() {
				if err := consumer.Run(ctx, handler.Handle); err != nil {
					log.Error("notification consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	log.Info("worker started", zap.String("sweep", worker.SweepSpec))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("worker shutting down")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/field-booking/internal/bootstrap"
	"github.com/BruksfildServices01/field-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/field-booking/internal/db"
	"github.com/BruksfildServices01/field-booking/internal/logger"
	"github.com/BruksfildServices01/field-booking/internal/routes"
)

func main() {

	cfg := config.Load()
	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWTSecret == "changeme" {
			log.Fatal("JWT_SECRET must be set in production")
		}
	}

	db := dbpkg.NewDB(cfg, log)

	infra := bootstrap.Open(db, cfg, log)
	defer infra.Close()

	stop := make(chan struct{})
	go infra.Limiter.Cleanup(stop)

	r := gin.New()
	routes.RegisterRoutes(r, db, cfg, infra)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("server shutting down")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

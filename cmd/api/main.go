package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sudo-init-do/arenahub/internal/api"
	"github.com/sudo-init-do/arenahub/internal/config"
	"github.com/sudo-init-do/arenahub/internal/db"
	"github.com/sudo-init-do/arenahub/internal/logger"
	"github.com/sudo-init-do/arenahub/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() {
		_ = zlog.Sync()
	}()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatalw("database connection failed", "err", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		zlog.Fatalw("schema setup failed", "err", err)
	}
	zlog.Infow("connected to postgres")

	srv := api.NewServer(store.New(pool), []byte(cfg.JWTSecret), zlog)
	e := srv.Routes()

	go func() {
		zlog.Infow("api server listening", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("shutdown error", "err", err)
	}
}

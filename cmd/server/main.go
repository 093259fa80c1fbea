package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/plantcare/internal/app"
	"github.com/plantcare/internal/config"
	"github.com/plantcare/internal/logging"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		logrus.Fatalf("failed to load environment: %v", err)
	}
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func run(ctx context.Context, cfg config.AppConfig, log *logrus.Logger) error {
	// 初始化数据库与服务
	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}()

	done := make(chan struct{})
	defer close(done)
	a.Limiter.StartCleanup(time.Minute, done)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":     cfg.ListenAddr,
			"driver":   cfg.DatabaseDriver,
			"supabase": cfg.SupabaseEnabled(),
		}).Info("plantcare server listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

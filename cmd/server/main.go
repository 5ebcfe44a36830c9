package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-match/internal/app"
	"resume-match/internal/config"
	"resume-match/internal/database/migration"
	"resume-match/internal/pkg/logging"
	"resume-match/migrations"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// .env is optional; real environment variables always win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "", false).WithError(err).Fatal("failed to load config")
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.App.IsDevelopment())
	log := logger.WithField("app", cfg.App.AppName)

	bootstrap, cleanup, err := app.Bootstrap(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to bootstrap app")
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.WithError(err).Warn("cleanup error")
		}
	}()

	if cfg.Database.RunMigrationsOnStart {
		migCtx, migCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		r := migration.Runner{Dir: cfg.Database.MigrationsDir, FS: migrations.Files, Logger: log}
		n, err := r.Run(migCtx, bootstrap.Container.DB)
		migCancel()
		if err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.WithField("applied", n).Info("migrations complete")
	}

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		log.WithError(err).Fatal("invalid HTTP port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bootstrap.Container.Hub.Run(gctx)
	})
	g.Go(func() error {
		log.WithField("addr", addr).Info("http server listening")
		return bootstrap.Fiber.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return bootstrap.Fiber.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("server stopped")
		stop()
		os.Exit(1)
	}
	log.Info("server stopped")
}

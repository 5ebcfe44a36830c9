package main

import (
	"context"
	"flag"
	"time"

	"resume-match/internal/config"
	"resume-match/internal/database/migration"
	dbpostgres "resume-match/internal/database/postgres"
	"resume-match/internal/database/seeder"
	"resume-match/internal/pkg/logging"
	"resume-match/migrations"

	"github.com/joho/godotenv"
)

func main() {
	seed := flag.Bool("seed", true, "run seeders after migrating")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "", false).WithError(err).Fatal("failed to load config")
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.App.IsDevelopment()).WithField("cmd", "migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer func() {
		_ = db.Close()
	}()

	r := migration.Runner{Dir: cfg.Database.MigrationsDir, FS: migrations.Files, Logger: log}
	n, err := r.Run(ctx, db)
	if err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	log.WithField("applied", n).Info("migrations complete")

	if !*seed {
		return
	}
	if err := (seeder.Runner{Seeders: seeder.Defaults(cfg.Seed), Logger: log}).Run(ctx, db); err != nil {
		log.WithError(err).Fatal("seeding failed")
	}
	log.Info("seeding complete")
}

//go:build migrate

package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/config"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = cfg.Database.DSN()
	}

	source := os.Getenv("MIGRATIONS_PATH")
	if source == "" {
		source = "file://migrations"
	}

	m, err := migrate.New(source, dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to create migrate instance")
	}
	defer m.Close()

	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|version|force N>")
	}

	switch os.Args[1] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.WithError(err).Fatal("failed to run migrations")
		}
		log.Info("migrations applied")

	case "down":
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.WithError(err).Fatal("failed to roll back migration")
		}
		log.Info("migration rolled back")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.WithError(err).Fatal("failed to read version")
		}
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")

	case "force":
		if len(os.Args) < 3 {
			log.Fatal("usage: migrate force <version>")
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.WithError(err).Fatal("invalid version")
		}
		if err := m.Force(version); err != nil {
			log.WithError(err).Fatal("failed to force version")
		}
		log.WithField("version", version).Info("version forced")

	default:
		log.WithField("command", os.Args[1]).Fatal("unknown command")
	}
}

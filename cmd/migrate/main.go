package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"bizdash/internal/config"
	"bizdash/migrations"
	"bizdash/pkg/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env)

	if err := run(log, cfg, os.Args[1:]); err != nil {
		log.Error("migrate failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg config.Config, args []string) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	// Avoid logging the URL; it contains the password.
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.PostgresURL("pgx5"))
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			log.Warn("migrate close failed", "source_err", sourceErr, "db_err", dbErr)
		}
	}()

	switch args[0] {
	case "up":
		err := m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no change: database is up to date")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("migrations applied")

	case "down":
		// roll back the latest migration only
		if err := m.Steps(-1); err != nil {
			return err
		}
		log.Info("latest migration rolled back")

	case "goto":
		if len(args) < 2 {
			return errors.New("goto requires a version")
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid version: %w", err)
		}
		err = m.Migrate(uint(version))
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no change", "version", version)
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("migrated", "version", version)

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("current version", "version", version, "dirty", dirty)

	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func printUsage() {
	fmt.Println("usage: migrate <command>")
	fmt.Println("commands:")
	fmt.Println("  up       apply all pending migrations")
	fmt.Println("  down     roll back the latest migration")
	fmt.Println("  goto N   migrate to version N")
	fmt.Println("  version  print the current version")
}

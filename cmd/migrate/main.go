package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/af-corp/textguard/internal/config"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	dbURL := flag.String("db-url", "", "database URL (overrides env)")
	migrationsPath := flag.String("path", "migrations", "path to migrations directory")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		port, err := strconv.Atoi(envOrDefault("DB_PORT", "5432"))
		if err != nil {
			logger.Error("invalid DB_PORT", "error", err)
			os.Exit(2)
		}
		dsn = config.DatabaseConfig{
			Host:     envOrDefault("DB_HOST", "localhost"),
			Port:     port,
			User:     envOrDefault("DB_USER", "textguard"),
			Password: envOrDefault("DB_PASSWORD", "textguard-dev"),
			Name:     envOrDefault("DB_NAME", "textguard"),
		}.DSN()
	}

	m, err := migrate.New("file://"+*migrationsPath, dsn)
	if err != nil {
		logger.Error("failed to create migrator", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	default:
		logger.Error("invalid direction, use up or down", "direction", *direction)
		os.Exit(2)
	}

	if err != nil && err != migrate.ErrNoChange {
		logger.Error("migration failed", "direction", *direction, "error", err)
		os.Exit(1)
	}

	v, dirty, _ := m.Version()
	logger.Info("migration complete", "direction", *direction, "version", v, "dirty", dirty)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

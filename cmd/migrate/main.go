package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tracker/internal/config"
	"tracker/internal/logger"
	"tracker/internal/storage/ch"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	log, err := logger.New(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Warn("No .env file found, using system environment variables")
	}

	// Get command from arguments (default to "up")
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	if err := run(context.Background(), log, command); err != nil {
		log.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}

// run applies a goose command to ClickHouse. The SQL backends are created
// by gorm and have no migrations.
func run(ctx context.Context, log *zap.Logger, command string) error {
	cfg, err := config.LoadClickHouseFromEnv()
	if err != nil {
		return err
	}

	db := clickhouse.OpenDB(ch.Options(
		cfg.ClickHouseHost,
		cfg.ClickHousePort,
		cfg.ClickHouseDatabase,
		cfg.ClickHouseUser,
		cfg.ClickHousePassword,
		cfg.ClickHouseUseTLS,
	))
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("Connected to ClickHouse", zap.String("host", cfg.ClickHouseHost), zap.String("database", cfg.ClickHouseDatabase))

	migrator, err := ch.NewMigrator(db)
	if err != nil {
		return err
	}

	log.Info("Running migrations", zap.String("command", command))
	switch command {
	case "up":
		results, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		log.Info("Migrations completed successfully", zap.Int("applied", len(results)))
	case "down":
		result, err := migrator.Down(ctx)
		if err != nil {
			return err
		}
		log.Info("Rollback completed successfully", zap.Int64("version", result.Source.Version))
	case "status":
		statuses, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			log.Info("Migration",
				zap.Int64("version", s.Source.Version),
				zap.String("path", s.Source.Path),
				zap.String("state", string(s.State)),
			)
		}
	case "version":
		version, err := migrator.GetDBVersion(ctx)
		if err != nil {
			return err
		}
		log.Info("Current migration version", zap.Int64("version", version))
	default:
		return fmt.Errorf("unknown command: %s (available: up, down, status, version)", command)
	}
	return nil
}

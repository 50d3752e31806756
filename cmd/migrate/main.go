package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/postgres"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/sqlite"
	"github.com/kevin07696/authorizenet-gateway/pkg/security"
	"go.uber.org/zap"
)

var (
	flags   = flag.NewFlagSet("migrate", flag.ExitOnError)
	driver  = flags.String("driver", getEnv("STORE_DRIVER", "postgres"), "storage driver: postgres or sqlite")
	dsn     = flags.String("dsn", "", "connection string (defaults to DATABASE_URL or SQLITE_DSN)")
	timeout = flags.Duration("timeout", 30*time.Second, "overall timeout")
)

func main() {
	flags.Usage = usage
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	logger, err := security.NewLogger(true, getEnv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *driver, *dsn, logger); err != nil {
		logger.Fatal("Migration failed", zap.String("driver", *driver), zap.Error(err))
	}
	logger.Info("Schema is up to date", zap.String("driver", *driver))
}

func run(ctx context.Context, driver, dsn string, logger *zap.Logger) error {
	switch driver {
	case "postgres":
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL or -dsn is required")
		}
		store, err := postgres.NewStore(ctx, postgres.DefaultConfig(dsn), logger)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Migrate(ctx)

	case "sqlite":
		if dsn == "" {
			dsn = getEnv("SQLITE_DSN", "file:authorizenet.db")
		}
		// Open creates any missing tables
		store, err := sqlite.Open(ctx, dsn, logger)
		if err != nil {
			return err
		}
		store.Close()
		return nil

	default:
		return fmt.Errorf("unknown driver %q", driver)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func usage() {
	fmt.Print(`Usage: migrate [-driver postgres|sqlite] [-dsn DSN] [-timeout 30s]

Applies the embedded schema. Every statement is idempotent, so running it
against an up-to-date database is a no-op.

Examples:
    DATABASE_URL=postgres://localhost/authorizenet migrate
    migrate -driver sqlite -dsn file:dev.db
`)
}

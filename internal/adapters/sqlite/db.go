package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements ports.Store on an embedded SQLite database. It backs local
// development and the service tests.
type Store struct {
	sqlDB  *sql.DB
	db     DBTX
	logger *zap.Logger
	inTx   bool
}

var _ ports.Store = (*Store)(nil)

// Open opens (or creates) a SQLite database at dsn and ensures the schema exists.
// Pass ":memory:" for an in-memory database.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Each connection to ":memory:" is a separate database
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	} else if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info("SQLite store initialized", zap.String("dsn", dsn))

	return &Store{sqlDB: db, db: db, logger: logger}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS gateways (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			provider TEXT NOT NULL,
			method TEXT NOT NULL,
			api_login TEXT,
			transaction_key TEXT,
			client_key TEXT,
			test INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS parties (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			phone TEXT,
			fax TEXT,
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS addresses (
			id TEXT PRIMARY KEY,
			party_id TEXT NOT NULL REFERENCES parties(id),
			name TEXT,
			street TEXT,
			streetbis TEXT,
			city TEXT,
			zip TEXT,
			subdivision_code TEXT,
			country_code TEXT,
			authorize_id TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_addresses_party ON addresses(party_id)`,

		`CREATE TABLE IF NOT EXISTS payment_profiles (
			id TEXT PRIMARY KEY,
			party_id TEXT NOT NULL REFERENCES parties(id),
			address_id TEXT NOT NULL REFERENCES addresses(id),
			gateway_id TEXT NOT NULL REFERENCES gateways(id),
			provider_reference TEXT NOT NULL,
			authorize_profile_id TEXT,
			last_4_digits TEXT,
			expiry_month TEXT,
			expiry_year TEXT,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_profiles_party_gateway ON payment_profiles(party_id, gateway_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_profiles_customer ON payment_profiles(authorize_profile_id)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL DEFAULT 'charge',
			origin_id TEXT REFERENCES transactions(id),
			amount TEXT NOT NULL,
			currency TEXT NOT NULL,
			party_id TEXT NOT NULL REFERENCES parties(id),
			address_id TEXT NOT NULL REFERENCES addresses(id),
			shipping_address_id TEXT REFERENCES addresses(id),
			payment_profile_id TEXT REFERENCES payment_profiles(id),
			gateway_id TEXT NOT NULL REFERENCES gateways(id),
			state TEXT NOT NULL DEFAULT 'draft',
			provider_reference TEXT,
			last_four_digits TEXT,
			description TEXT,
			sale_reference TEXT,
			claim_token TEXT,
			claimed_at TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_state ON transactions(state)`,

		`CREATE TABLE IF NOT EXISTS transaction_logs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			transaction_id TEXT NOT NULL REFERENCES transactions(id),
			log TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transaction_logs_transaction ON transaction_logs(transaction_id, seq)`,
		`CREATE TRIGGER IF NOT EXISTS transaction_logs_no_update BEFORE UPDATE ON transaction_logs
			BEGIN SELECT RAISE(ABORT, 'transaction_logs is append-only'); END`,
		`CREATE TRIGGER IF NOT EXISTS transaction_logs_no_delete BEFORE DELETE ON transaction_logs
			BEGIN SELECT RAISE(ABORT, 'transaction_logs is append-only'); END`,
	}

	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the database
func (s *Store) Close() {
	if s.inTx {
		return
	}
	if err := s.sqlDB.Close(); err != nil {
		s.logger.Warn("Failed to close SQLite store", zap.Error(err))
	}
}

// WithTx executes fn within a database transaction. Nested calls join the
// outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &Store{sqlDB: s.sqlDB, db: tx, logger: s.logger, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("original_error", err),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// mapError turns driver errors into domain errors
func mapError(err error, notFound *domain.DomainError) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewDomainError(notFound.Code, notFound.Message)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return domain.WrapError(domain.ErrorCodeValidationFailed, "record already exists", err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return domain.WrapError(domain.ErrorCodeValidationFailed, "referenced record does not exist", err)
	}
	return domain.WrapError(domain.ErrorCodeDatabaseError, "database error", err)
}

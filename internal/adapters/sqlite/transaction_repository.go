package sqlite

import (
	"context"
	"database/sql"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
)

const transactionColumns = `id, type, origin_id, amount, currency, party_id, address_id, shipping_address_id,
	payment_profile_id, gateway_id, state, provider_reference, last_four_digits, description,
	sale_reference, created_at, updated_at`

// CreateTransaction inserts a transaction. Amounts are stored as decimal text.
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Type), nullStringPtr(t.OriginID), t.Amount.String(), t.Currency, t.PartyID, t.AddressID,
		nullStringPtr(t.ShippingAddressID), nullStringPtr(t.PaymentProfileID), t.GatewayID, string(t.State),
		nullString(t.ProviderReference), nullString(t.LastFourDigits), nullString(t.Description),
		nullStringPtr(t.SaleReference), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	return mapError(err, domain.ErrTxnNotFound)
}

// GetTransaction loads a transaction by id
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrTxnNotFound)
	}
	return t, nil
}

// UpdateTransaction writes the mutable lifecycle fields when the row is still in state from
func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction, from domain.TransactionState) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET state = ?, provider_reference = ?, last_four_digits = ?, amount = ?,
		    payment_profile_id = ?, updated_at = ?, claim_token = NULL, claimed_at = NULL
		WHERE id = ? AND state = ?`,
		string(t.State), nullString(t.ProviderReference), nullString(t.LastFourDigits), t.Amount.String(),
		nullStringPtr(t.PaymentProfileID), formatTime(t.UpdatedAt), t.ID, string(from),
	)
	if err != nil {
		return mapError(err, domain.ErrTxnNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.missedTransaction(ctx, t.ID, from, domain.ErrTxnStale)
	}
	return nil
}

// ClaimTransaction marks the row as held by claim.Token
func (s *Store) ClaimTransaction(ctx context.Context, c *ports.TransactionClaim) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET claim_token = ?, claimed_at = ?
		WHERE id = ? AND state = ? AND (claim_token IS NULL OR claimed_at < ?)`,
		c.Token, formatTime(c.ClaimedAt), c.TransactionID, string(c.State), formatTime(c.StaleBefore),
	)
	if err != nil {
		return mapError(err, domain.ErrTxnNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return s.missedTransaction(ctx, c.TransactionID, c.State, domain.ErrTxnBusy)
	}
	return nil
}

// ReleaseTransaction clears the claim if token still holds it
func (s *Store) ReleaseTransaction(ctx context.Context, id, token string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET claim_token = NULL, claimed_at = NULL
		WHERE id = ? AND claim_token = ?`, id, token)
	return mapError(err, domain.ErrTxnNotFound)
}

// missedTransaction explains why a conditional write matched no row
func (s *Store) missedTransaction(ctx context.Context, id string, expected domain.TransactionState, inState error) error {
	var state string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM transactions WHERE id = ?`, id).Scan(&state)
	if err != nil {
		return mapError(err, domain.ErrTxnNotFound)
	}
	if domain.TransactionState(state) != expected {
		return domain.ErrTxnStale
	}
	return inState
}

// AppendLog inserts a transaction log entry
func (s *Store) AppendLog(ctx context.Context, l *domain.TransactionLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_logs (id, transaction_id, log, created_at) VALUES (?, ?, ?, ?)`,
		l.ID, l.TransactionID, l.Log, formatTime(l.CreatedAt),
	)
	return mapError(err, domain.ErrTxnNotFound)
}

// ListLogs returns a transaction's log entries oldest first
func (s *Store) ListLogs(ctx context.Context, transactionID string) ([]*domain.TransactionLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, log, created_at FROM transaction_logs
		WHERE transaction_id = ? ORDER BY seq`, transactionID)
	if err != nil {
		return nil, mapError(err, domain.ErrTxnNotFound)
	}
	defer rows.Close()

	var logs []*domain.TransactionLog
	for rows.Next() {
		var (
			l       domain.TransactionLog
			created string
		)
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.Log, &created); err != nil {
			return nil, mapError(err, domain.ErrTxnNotFound)
		}
		if l.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, mapError(rows.Err(), domain.ErrTxnNotFound)
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var (
		t                                 domain.Transaction
		txType, state, amount             string
		created, updated                  string
		originID, shippingID, profileID   sql.NullString
		providerRef, lastFour, desc, sale sql.NullString
	)
	if err := row.Scan(&t.ID, &txType, &originID, &amount, &t.Currency, &t.PartyID, &t.AddressID,
		&shippingID, &profileID, &t.GatewayID, &state, &providerRef, &lastFour, &desc, &sale,
		&created, &updated); err != nil {
		return nil, err
	}

	var err error
	if t.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	t.State = domain.TransactionState(state)
	t.OriginID = stringPtr(originID)
	t.ShippingAddressID = stringPtr(shippingID)
	t.PaymentProfileID = stringPtr(profileID)
	t.SaleReference = stringPtr(sale)
	t.ProviderReference = providerRef.String
	t.LastFourDigits = lastFour.String
	t.Description = desc.String
	return &t, nil
}

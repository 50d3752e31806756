package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
)

const transactionColumns = `id, type, origin_id, amount, currency, party_id, address_id, shipping_address_id,
	payment_profile_id, gateway_id, state, provider_reference, last_four_digits, description,
	sale_reference, created_at, updated_at`

// CreateTransaction inserts a transaction
func (s *Store) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	amount, err := decimalToNumeric(t.Amount)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		t.ID, string(t.Type), nullTextPtr(t.OriginID), amount, t.Currency, t.PartyID, t.AddressID,
		nullTextPtr(t.ShippingAddressID), nullTextPtr(t.PaymentProfileID), t.GatewayID, string(t.State),
		nullText(t.ProviderReference), nullText(t.LastFourDigits), nullText(t.Description),
		nullTextPtr(t.SaleReference), t.CreatedAt, t.UpdatedAt,
	)
	return mapError(err, domain.ErrTxnNotFound)
}

// GetTransaction loads a transaction by id
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, domain.ErrTxnNotFound)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	if err != nil {
		return nil, mapError(err, domain.ErrTxnNotFound)
	}
	return t, nil
}

// UpdateTransaction writes the mutable lifecycle fields when the row is still in state from
func (s *Store) UpdateTransaction(ctx context.Context, t *domain.Transaction, from domain.TransactionState) error {
	amount, err := decimalToNumeric(t.Amount)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions
		SET state = $2, provider_reference = $3, last_four_digits = $4, amount = $5,
		    payment_profile_id = $6, updated_at = $7, claim_token = NULL, claimed_at = NULL
		WHERE id = $1 AND state = $8`,
		t.ID, string(t.State), nullText(t.ProviderReference), nullText(t.LastFourDigits), amount,
		nullTextPtr(t.PaymentProfileID), t.UpdatedAt, string(from),
	)
	if err != nil {
		return mapError(err, domain.ErrTxnNotFound)
	}
	if tag.RowsAffected() == 0 {
		return s.missedTransaction(ctx, t.ID, from, domain.ErrTxnStale)
	}
	return nil
}

// ClaimTransaction marks the row as held by claim.Token
func (s *Store) ClaimTransaction(ctx context.Context, c *ports.TransactionClaim) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions SET claim_token = $2, claimed_at = $3
		WHERE id = $1 AND state = $4 AND (claim_token IS NULL OR claimed_at < $5)`,
		c.TransactionID, c.Token, c.ClaimedAt, string(c.State), c.StaleBefore,
	)
	if err != nil {
		return mapError(err, domain.ErrTxnNotFound)
	}
	if tag.RowsAffected() == 0 {
		return s.missedTransaction(ctx, c.TransactionID, c.State, domain.ErrTxnBusy)
	}
	return nil
}

// ReleaseTransaction clears the claim if token still holds it
func (s *Store) ReleaseTransaction(ctx context.Context, id, token string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE transactions SET claim_token = NULL, claimed_at = NULL
		WHERE id = $1 AND claim_token = $2`, id, token)
	return mapError(err, domain.ErrTxnNotFound)
}

// missedTransaction explains why a conditional write matched no row
func (s *Store) missedTransaction(ctx context.Context, id string, expected domain.TransactionState, inState error) error {
	var state string
	if err := s.db.QueryRow(ctx, `SELECT state FROM transactions WHERE id = $1`, id).Scan(&state); err != nil {
		return mapError(err, domain.ErrTxnNotFound)
	}
	if domain.TransactionState(state) != expected {
		return domain.ErrTxnStale
	}
	return inState
}

// AppendLog inserts a transaction log entry
func (s *Store) AppendLog(ctx context.Context, l *domain.TransactionLog) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO transaction_logs (id, transaction_id, log, created_at) VALUES ($1, $2, $3, $4)`,
		l.ID, l.TransactionID, l.Log, l.CreatedAt,
	)
	return mapError(err, domain.ErrTxnNotFound)
}

// ListLogs returns a transaction's log entries oldest first
func (s *Store) ListLogs(ctx context.Context, transactionID string) ([]*domain.TransactionLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, transaction_id, log, created_at FROM transaction_logs
		WHERE transaction_id = $1 ORDER BY seq`, transactionID)
	if err != nil {
		return nil, mapError(err, domain.ErrTxnNotFound)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.TransactionLog, error) {
		var l domain.TransactionLog
		err := row.Scan(&l.ID, &l.TransactionID, &l.Log, &l.CreatedAt)
		return &l, err
	})
	if err != nil {
		return nil, mapError(err, domain.ErrTxnNotFound)
	}
	return logs, nil
}

func scanTransaction(row pgx.CollectableRow) (*domain.Transaction, error) {
	var (
		t                                 domain.Transaction
		txType, state                     string
		amount                            pgtype.Numeric
		originID, shippingID, profileID   pgtype.Text
		providerRef, lastFour, desc, sale pgtype.Text
	)
	if err := row.Scan(&t.ID, &txType, &originID, &amount, &t.Currency, &t.PartyID, &t.AddressID,
		&shippingID, &profileID, &t.GatewayID, &state, &providerRef, &lastFour, &desc, &sale,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}

	dec, err := pgNumericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	t.Amount = dec
	t.Type = domain.TransactionType(txType)
	t.State = domain.TransactionState(state)
	t.OriginID = textPtr(originID)
	t.ShippingAddressID = textPtr(shippingID)
	t.PaymentProfileID = textPtr(profileID)
	t.SaleReference = textPtr(sale)
	t.ProviderReference = providerRef.String
	t.LastFourDigits = lastFour.String
	t.Description = desc.String
	return &t, nil
}

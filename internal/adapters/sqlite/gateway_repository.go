package sqlite

import (
	"context"
	"database/sql"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

// CreateGateway inserts a gateway
func (s *Store) CreateGateway(ctx context.Context, g *domain.Gateway) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gateways (id, name, provider, method, api_login, transaction_key, client_key, test, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, string(g.Provider), g.Method,
		nullString(g.APILogin), nullString(g.TransactionKey), nullString(g.ClientKey),
		g.Test, formatTime(g.CreatedAt), formatTime(g.UpdatedAt),
	)
	return mapError(err, domain.ErrGatewayNotFound)
}

// GetGateway loads a gateway by id
func (s *Store) GetGateway(ctx context.Context, id string) (*domain.Gateway, error) {
	var (
		g                           domain.Gateway
		provider, created, updated  string
		apiLogin, txnKey, clientKey sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, provider, method, api_login, transaction_key, client_key, test, created_at, updated_at
		FROM gateways WHERE id = ?`, id,
	).Scan(&g.ID, &g.Name, &provider, &g.Method, &apiLogin, &txnKey, &clientKey, &g.Test, &created, &updated)
	if err != nil {
		return nil, mapError(err, domain.ErrGatewayNotFound)
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	g.Provider = domain.Provider(provider)
	g.APILogin = apiLogin.String
	g.TransactionKey = txnKey.String
	g.ClientKey = clientKey.String
	return &g, nil
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

const insertGateway = `
INSERT INTO gateways (id, name, provider, method, api_login, transaction_key, client_key, test, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const selectGateway = `
SELECT id, name, provider, method, api_login, transaction_key, client_key, test, created_at, updated_at
FROM gateways WHERE id = $1`

// CreateGateway inserts a gateway
func (s *Store) CreateGateway(ctx context.Context, g *domain.Gateway) error {
	_, err := s.db.Exec(ctx, insertGateway,
		g.ID, g.Name, string(g.Provider), g.Method,
		nullText(g.APILogin), nullText(g.TransactionKey), nullText(g.ClientKey),
		g.Test, g.CreatedAt, g.UpdatedAt,
	)
	return mapError(err, domain.ErrGatewayNotFound)
}

// GetGateway loads a gateway by id
func (s *Store) GetGateway(ctx context.Context, id string) (*domain.Gateway, error) {
	var (
		g                           domain.Gateway
		provider                    string
		apiLogin, txnKey, clientKey pgtype.Text
	)
	err := s.db.QueryRow(ctx, selectGateway, id).Scan(
		&g.ID, &g.Name, &provider, &g.Method, &apiLogin, &txnKey, &clientKey,
		&g.Test, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, domain.ErrGatewayNotFound)
	}
	g.Provider = domain.Provider(provider)
	g.APILogin = apiLogin.String
	g.TransactionKey = txnKey.String
	g.ClientKey = clientKey.String
	return &g, nil
}

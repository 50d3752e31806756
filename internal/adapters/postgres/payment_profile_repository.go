package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
)

const paymentProfileColumns = `id, party_id, address_id, gateway_id, provider_reference, authorize_profile_id,
	last_4_digits, expiry_month, expiry_year, active, created_at, updated_at`

// CreatePaymentProfile inserts a payment profile
func (s *Store) CreatePaymentProfile(ctx context.Context, p *domain.PaymentProfile) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO payment_profiles (`+paymentProfileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.PartyID, p.AddressID, p.GatewayID, p.ProviderReference, nullText(p.AuthorizeProfileID),
		nullText(p.LastFourDigits), nullText(p.ExpiryMonth), nullText(p.ExpiryYear),
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return mapError(err, domain.ErrPaymentProfileNotFound)
}

// GetPaymentProfile loads a payment profile by id
func (s *Store) GetPaymentProfile(ctx context.Context, id string) (*domain.PaymentProfile, error) {
	rows, err := s.db.Query(ctx, `SELECT `+paymentProfileColumns+` FROM payment_profiles WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, domain.ErrPaymentProfileNotFound)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPaymentProfile)
	if err != nil {
		return nil, mapError(err, domain.ErrPaymentProfileNotFound)
	}
	return p, nil
}

// UpdatePaymentProfile writes the remote references, expiry and active flag
func (s *Store) UpdatePaymentProfile(ctx context.Context, p *domain.PaymentProfile) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE payment_profiles
		SET provider_reference = $2, authorize_profile_id = $3, last_4_digits = $4,
		    expiry_month = $5, expiry_year = $6, active = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.ProviderReference, nullText(p.AuthorizeProfileID), nullText(p.LastFourDigits),
		nullText(p.ExpiryMonth), nullText(p.ExpiryYear), p.Active, p.UpdatedAt,
	)
	if err != nil {
		return mapError(err, domain.ErrPaymentProfileNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodePaymentProfileNotFound, "payment profile not found")
	}
	return nil
}

// ListPaymentProfiles returns profiles matching filter, oldest first
func (s *Store) ListPaymentProfiles(ctx context.Context, filter ports.PaymentProfileFilter) ([]*domain.PaymentProfile, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("party_id", filter.PartyID)
	add("gateway_id", filter.GatewayID)
	add("authorize_profile_id", filter.AuthorizeProfileID)
	if filter.ActiveOnly {
		conds = append(conds, "active")
	}

	query := `SELECT ` + paymentProfileColumns + ` FROM payment_profiles`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, domain.ErrPaymentProfileNotFound)
	}
	profiles, err := pgx.CollectRows(rows, scanPaymentProfile)
	if err != nil {
		return nil, mapError(err, domain.ErrPaymentProfileNotFound)
	}
	return profiles, nil
}

func scanPaymentProfile(row pgx.CollectableRow) (*domain.PaymentProfile, error) {
	var (
		p                                       domain.PaymentProfile
		customerID, lastFour, expMonth, expYear pgtype.Text
	)
	if err := row.Scan(&p.ID, &p.PartyID, &p.AddressID, &p.GatewayID, &p.ProviderReference,
		&customerID, &lastFour, &expMonth, &expYear, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.AuthorizeProfileID = customerID.String
	p.LastFourDigits = lastFour.String
	p.ExpiryMonth, p.ExpiryYear = expMonth.String, expYear.String
	return &p, nil
}

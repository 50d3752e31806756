package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
)

const paymentProfileColumns = `id, party_id, address_id, gateway_id, provider_reference, authorize_profile_id,
	last_4_digits, expiry_month, expiry_year, active, created_at, updated_at`

// CreatePaymentProfile inserts a payment profile
func (s *Store) CreatePaymentProfile(ctx context.Context, p *domain.PaymentProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_profiles (`+paymentProfileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.PartyID, p.AddressID, p.GatewayID, p.ProviderReference, nullString(p.AuthorizeProfileID),
		nullString(p.LastFourDigits), nullString(p.ExpiryMonth), nullString(p.ExpiryYear),
		p.Active, formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	return mapError(err, domain.ErrPaymentProfileNotFound)
}

// GetPaymentProfile loads a payment profile by id
func (s *Store) GetPaymentProfile(ctx context.Context, id string) (*domain.PaymentProfile, error) {
	p, err := scanPaymentProfile(s.db.QueryRowContext(ctx,
		`SELECT `+paymentProfileColumns+` FROM payment_profiles WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrPaymentProfileNotFound)
	}
	return p, nil
}

// UpdatePaymentProfile writes the remote references, expiry and active flag
func (s *Store) UpdatePaymentProfile(ctx context.Context, p *domain.PaymentProfile) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payment_profiles
		SET provider_reference = ?, authorize_profile_id = ?, last_4_digits = ?,
		    expiry_month = ?, expiry_year = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		p.ProviderReference, nullString(p.AuthorizeProfileID), nullString(p.LastFourDigits),
		nullString(p.ExpiryMonth), nullString(p.ExpiryYear), p.Active, formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return mapError(err, domain.ErrPaymentProfileNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
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
		conds = append(conds, column+" = ?")
	}
	add("party_id", filter.PartyID)
	add("gateway_id", filter.GatewayID)
	add("authorize_profile_id", filter.AuthorizeProfileID)
	if filter.ActiveOnly {
		conds = append(conds, "active = 1")
	}

	query := `SELECT ` + paymentProfileColumns + ` FROM payment_profiles`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, domain.ErrPaymentProfileNotFound)
	}
	defer rows.Close()

	var profiles []*domain.PaymentProfile
	for rows.Next() {
		p, err := scanPaymentProfile(rows)
		if err != nil {
			return nil, mapError(err, domain.ErrPaymentProfileNotFound)
		}
		profiles = append(profiles, p)
	}
	return profiles, mapError(rows.Err(), domain.ErrPaymentProfileNotFound)
}

func scanPaymentProfile(row scanner) (*domain.PaymentProfile, error) {
	var (
		p                                       domain.PaymentProfile
		created, updated                        string
		customerID, lastFour, expMonth, expYear sql.NullString
	)
	if err := row.Scan(&p.ID, &p.PartyID, &p.AddressID, &p.GatewayID, &p.ProviderReference,
		&customerID, &lastFour, &expMonth, &expYear, &p.Active, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	p.AuthorizeProfileID = customerID.String
	p.LastFourDigits = lastFour.String
	p.ExpiryMonth, p.ExpiryYear = expMonth.String, expYear.String
	return &p, nil
}

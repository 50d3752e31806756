package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

// CreateParty inserts a party
func (s *Store) CreateParty(ctx context.Context, p *domain.Party) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO parties (id, name, email, phone, fax, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, nullText(p.Email), nullText(p.Phone), nullText(p.Fax), p.CreatedAt,
	)
	return mapError(err, domain.ErrPartyNotFound)
}

// GetParty loads a party by id
func (s *Store) GetParty(ctx context.Context, id string) (*domain.Party, error) {
	var (
		p                 domain.Party
		email, phone, fax pgtype.Text
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, name, email, phone, fax, created_at FROM parties WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &email, &phone, &fax, &p.CreatedAt)
	if err != nil {
		return nil, mapError(err, domain.ErrPartyNotFound)
	}
	p.Email, p.Phone, p.Fax = email.String, phone.String, fax.String
	return &p, nil
}

const addressColumns = `id, party_id, name, street, streetbis, city, zip, subdivision_code, country_code, authorize_id, created_at`

// CreateAddress inserts an address
func (s *Store) CreateAddress(ctx context.Context, a *domain.Address) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO addresses (`+addressColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.PartyID, nullText(a.Name), nullText(a.Street), nullText(a.StreetBis),
		nullText(a.City), nullText(a.Zip), nullText(a.SubdivisionCode), nullText(a.CountryCode),
		nullTextPtr(a.AuthorizeID), a.CreatedAt,
	)
	return mapError(err, domain.ErrAddressNotFound)
}

// GetAddress loads an address by id
func (s *Store) GetAddress(ctx context.Context, id string) (*domain.Address, error) {
	rows, err := s.db.Query(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id)
	if err != nil {
		return nil, mapError(err, domain.ErrAddressNotFound)
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		return nil, mapError(err, domain.ErrAddressNotFound)
	}
	return a, nil
}

// ListAddressesByParty returns a party's addresses in creation order
func (s *Store) ListAddressesByParty(ctx context.Context, partyID string) ([]*domain.Address, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE party_id = $1 ORDER BY created_at, id`, partyID)
	if err != nil {
		return nil, mapError(err, domain.ErrAddressNotFound)
	}
	addresses, err := pgx.CollectRows(rows, scanAddress)
	if err != nil {
		return nil, mapError(err, domain.ErrAddressNotFound)
	}
	return addresses, nil
}

// SetAddressAuthorizeID caches the remote address id
func (s *Store) SetAddressAuthorizeID(ctx context.Context, id, authorizeID string) error {
	tag, err := s.db.Exec(ctx, `UPDATE addresses SET authorize_id = $2 WHERE id = $1`, id, authorizeID)
	if err != nil {
		return mapError(err, domain.ErrAddressNotFound)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrorCodeAddressNotFound, "address not found")
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (*domain.Address, error) {
	var (
		a                                                   domain.Address
		name, street, streetBis, city, zip, subdiv, country pgtype.Text
		authorizeID                                         pgtype.Text
	)
	if err := row.Scan(&a.ID, &a.PartyID, &name, &street, &streetBis, &city, &zip,
		&subdiv, &country, &authorizeID, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Name, a.Street, a.StreetBis = name.String, street.String, streetBis.String
	a.City, a.Zip = city.String, zip.String
	a.SubdivisionCode, a.CountryCode = subdiv.String, country.String
	a.AuthorizeID = textPtr(authorizeID)
	return &a, nil
}

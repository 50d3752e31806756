package sqlite

import (
	"context"
	"database/sql"

	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

// CreateParty inserts a party
func (s *Store) CreateParty(ctx context.Context, p *domain.Party) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parties (id, name, email, phone, fax, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullString(p.Email), nullString(p.Phone), nullString(p.Fax), formatTime(p.CreatedAt),
	)
	return mapError(err, domain.ErrPartyNotFound)
}

// GetParty loads a party by id
func (s *Store) GetParty(ctx context.Context, id string) (*domain.Party, error) {
	var (
		p                 domain.Party
		created           string
		email, phone, fax sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, fax, created_at FROM parties WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &email, &phone, &fax, &created)
	if err != nil {
		return nil, mapError(err, domain.ErrPartyNotFound)
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	p.Email, p.Phone, p.Fax = email.String, phone.String, fax.String
	return &p, nil
}

const addressColumns = `id, party_id, name, street, streetbis, city, zip, subdivision_code, country_code, authorize_id, created_at`

// CreateAddress inserts an address
func (s *Store) CreateAddress(ctx context.Context, a *domain.Address) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO addresses (`+addressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PartyID, nullString(a.Name), nullString(a.Street), nullString(a.StreetBis),
		nullString(a.City), nullString(a.Zip), nullString(a.SubdivisionCode), nullString(a.CountryCode),
		nullStringPtr(a.AuthorizeID), formatTime(a.CreatedAt),
	)
	return mapError(err, domain.ErrAddressNotFound)
}

// GetAddress loads an address by id
func (s *Store) GetAddress(ctx context.Context, id string) (*domain.Address, error) {
	a, err := scanAddress(s.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrAddressNotFound)
	}
	return a, nil
}

// ListAddressesByParty returns a party's addresses in creation order
func (s *Store) ListAddressesByParty(ctx context.Context, partyID string) ([]*domain.Address, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE party_id = ? ORDER BY created_at, id`, partyID)
	if err != nil {
		return nil, mapError(err, domain.ErrAddressNotFound)
	}
	defer rows.Close()

	var addresses []*domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, mapError(err, domain.ErrAddressNotFound)
		}
		addresses = append(addresses, a)
	}
	return addresses, mapError(rows.Err(), domain.ErrAddressNotFound)
}

// SetAddressAuthorizeID caches the remote address id
func (s *Store) SetAddressAuthorizeID(ctx context.Context, id, authorizeID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE addresses SET authorize_id = ? WHERE id = ?`, authorizeID, id)
	if err != nil {
		return mapError(err, domain.ErrAddressNotFound)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewDomainError(domain.ErrorCodeAddressNotFound, "address not found")
	}
	return nil
}

func scanAddress(row scanner) (*domain.Address, error) {
	var (
		a                                                   domain.Address
		created                                             string
		name, street, streetBis, city, zip, subdiv, country sql.NullString
		authorizeID                                         sql.NullString
	)
	if err := row.Scan(&a.ID, &a.PartyID, &name, &street, &streetBis, &city, &zip,
		&subdiv, &country, &authorizeID, &created); err != nil {
		return nil, err
	}
	createdAt, err := parseTime(created)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = createdAt
	a.Name, a.Street, a.StreetBis = name.String, street.String, streetBis.String
	a.City, a.Zip = city.String, zip.String
	a.SubdivisionCode, a.CountryCode = subdiv.String, country.String
	a.AuthorizeID = stringPtr(authorizeID)
	return &a, nil
}

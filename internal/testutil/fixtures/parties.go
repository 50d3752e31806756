package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

// PartyBuilder provides fluent API for building test parties.
type PartyBuilder struct {
	party *domain.Party
}

// NewParty creates a party builder with sensible defaults.
func NewParty() *PartyBuilder {
	return &PartyBuilder{
		party: &domain.Party{
			ID:        uuid.NewString(),
			Name:      "Ada Lovelace",
			Email:     "ada@example.com",
			Phone:     "555-0100",
			CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		},
	}
}

func (b *PartyBuilder) WithID(id string) *PartyBuilder {
	b.party.ID = id
	return b
}

func (b *PartyBuilder) WithName(name string) *PartyBuilder {
	b.party.Name = name
	return b
}

func (b *PartyBuilder) WithEmail(email string) *PartyBuilder {
	b.party.Email = email
	return b
}

// Build returns the constructed party.
func (b *PartyBuilder) Build() *domain.Party {
	return b.party
}

// AddressBuilder provides fluent API for building test addresses.
type AddressBuilder struct {
	address *domain.Address
}

// NewAddress creates an address builder owned by partyID.
func NewAddress(partyID string) *AddressBuilder {
	return &AddressBuilder{
		address: &domain.Address{
			ID:              uuid.NewString(),
			PartyID:         partyID,
			Name:            "Ada Lovelace",
			Street:          "12 Analytical Row",
			City:            "Springfield",
			Zip:             "62701",
			SubdivisionCode: "US-IL",
			CountryCode:     "US",
			CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
		},
	}
}

func (b *AddressBuilder) WithID(id string) *AddressBuilder {
	b.address.ID = id
	return b
}

func (b *AddressBuilder) WithName(name string) *AddressBuilder {
	b.address.Name = name
	return b
}

func (b *AddressBuilder) WithStreet(street, streetBis string) *AddressBuilder {
	b.address.Street = street
	b.address.StreetBis = streetBis
	return b
}

func (b *AddressBuilder) WithAuthorizeID(id string) *AddressBuilder {
	b.address.AuthorizeID = &id
	return b
}

func (b *AddressBuilder) WithCreatedAt(t time.Time) *AddressBuilder {
	b.address.CreatedAt = t
	return b
}

// Build returns the constructed address.
func (b *AddressBuilder) Build() *domain.Address {
	return b.address
}

package domain

import "time"

// Party is a customer known to the host system
type Party struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Fax       string    `json:"fax,omitempty"`
}

// Address belongs to a party. AuthorizeID caches the remote shipping address id
// once the address has been sent to Authorize.net.
type Address struct {
	CreatedAt       time.Time `json:"created_at"`
	AuthorizeID     *string   `json:"authorize_id,omitempty"`
	ID              string    `json:"id"`
	PartyID         string    `json:"party_id"`
	Name            string    `json:"name,omitempty"`
	Street          string    `json:"street,omitempty"`
	StreetBis       string    `json:"streetbis,omitempty"`
	City            string    `json:"city,omitempty"`
	Zip             string    `json:"zip,omitempty"`
	SubdivisionCode string    `json:"subdivision_code,omitempty"`
	CountryCode     string    `json:"country_code,omitempty"`
}

// HasAuthorizeID returns true once the address exists remotely
func (a *Address) HasAuthorizeID() bool {
	return a.AuthorizeID != nil && *a.AuthorizeID != ""
}

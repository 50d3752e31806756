package domain

import (
	"strconv"
	"time"
)

// PaymentProfile is a tokenized card stored at the gateway
type PaymentProfile struct {
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	ID                 string    `json:"id"`
	PartyID            string    `json:"party_id"`
	AddressID          string    `json:"address_id"`
	GatewayID          string    `json:"gateway_id"`
	ProviderReference  string    `json:"provider_reference"`   // Remote payment profile id
	AuthorizeProfileID string    `json:"authorize_profile_id"` // Remote customer profile id
	LastFourDigits     string    `json:"last_4_digits"`
	ExpiryMonth        string    `json:"expiry_month"`
	ExpiryYear         string    `json:"expiry_year"`
	Active             bool      `json:"active"`
}

// IsExpired returns true once the card's expiry month has passed
func (p *PaymentProfile) IsExpired(now time.Time) bool {
	year, err := strconv.Atoi(p.ExpiryYear)
	if err != nil {
		return false
	}
	month, err := strconv.Atoi(p.ExpiryMonth)
	if err != nil {
		return false
	}
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

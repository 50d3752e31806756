package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

// PaymentProfileBuilder provides fluent API for building test payment profiles.
type PaymentProfileBuilder struct {
	profile *domain.PaymentProfile
}

// NewPaymentProfile creates an active profile builder for the given party, address and gateway.
func NewPaymentProfile(partyID, addressID, gatewayID string) *PaymentProfileBuilder {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &PaymentProfileBuilder{
		profile: &domain.PaymentProfile{
			ID:                 uuid.NewString(),
			PartyID:            partyID,
			AddressID:          addressID,
			GatewayID:          gatewayID,
			ProviderReference:  "pp-1",
			AuthorizeProfileID: "cust-1",
			LastFourDigits:     "1111",
			ExpiryMonth:        "12",
			ExpiryYear:         "2030",
			Active:             true,
			CreatedAt:          now,
			UpdatedAt:          now,
		},
	}
}

func (b *PaymentProfileBuilder) WithID(id string) *PaymentProfileBuilder {
	b.profile.ID = id
	return b
}

func (b *PaymentProfileBuilder) WithRemoteIDs(customerProfileID, paymentProfileID string) *PaymentProfileBuilder {
	b.profile.AuthorizeProfileID = customerProfileID
	b.profile.ProviderReference = paymentProfileID
	return b
}

func (b *PaymentProfileBuilder) WithExpiry(month, year string) *PaymentProfileBuilder {
	b.profile.ExpiryMonth = month
	b.profile.ExpiryYear = year
	return b
}

func (b *PaymentProfileBuilder) Inactive() *PaymentProfileBuilder {
	b.profile.Active = false
	return b
}

func (b *PaymentProfileBuilder) WithCreatedAt(t time.Time) *PaymentProfileBuilder {
	b.profile.CreatedAt = t
	b.profile.UpdatedAt = t
	return b
}

// Build returns the constructed payment profile.
func (b *PaymentProfileBuilder) Build() *domain.PaymentProfile {
	return b.profile
}

package customer

import (
	"context"

	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
)

// maxMerchantCustomerID is the gateway's limit on merchantCustomerId
const maxMerchantCustomerID = 20

// Resolver maps a party onto its remote customer profile for one gateway.
// The remote id is never stored on the party; it is read back from the
// party's payment profiles so each gateway keeps its own.
type Resolver struct {
	profiles ports.PaymentProfileRepository
	logger   ports.Logger
}

// NewResolver creates a customer profile resolver
func NewResolver(profiles ports.PaymentProfileRepository, logger ports.Logger) *Resolver {
	return &Resolver{profiles: profiles, logger: logger}
}

// Lookup returns the remote customer id already used by party on gateway, or "".
// Inactive profiles count: deactivating a card leaves the remote customer in place.
func (r *Resolver) Lookup(ctx context.Context, partyID, gatewayID string) (string, error) {
	profiles, err := r.profiles.ListPaymentProfiles(ctx, ports.PaymentProfileFilter{
		PartyID:   partyID,
		GatewayID: gatewayID,
	})
	if err != nil {
		return "", err
	}
	for _, p := range profiles {
		if p.AuthorizeProfileID != "" {
			return p.AuthorizeProfileID, nil
		}
	}
	return "", nil
}

// Resolve returns the party's remote customer id, creating the remote customer
// profile when the party has none on this gateway yet
func (r *Resolver) Resolve(ctx context.Context, client adapterports.AuthorizeNetClient, party *domain.Party, gateway *domain.Gateway) (string, error) {
	customerID, err := r.Lookup(ctx, party.ID, gateway.ID)
	if err != nil {
		return "", err
	}
	if customerID != "" {
		return customerID, nil
	}

	merchantCustomerID := party.ID
	if len(merchantCustomerID) > maxMerchantCustomerID {
		merchantCustomerID = merchantCustomerID[:maxMerchantCustomerID]
	}

	customerID, err = client.CreateCustomerProfile(ctx, adapterports.CustomerProfileRequest{
		MerchantCustomerID: merchantCustomerID,
		Description:        party.Name,
		Email:              party.Email,
	})
	if gwErr, ok := domain.AsGatewayError(err); ok && gwErr.IsDuplicate() && gwErr.ExistingID != "" {
		r.logger.Info("Reusing existing customer profile",
			ports.String("party_id", party.ID),
			ports.String("gateway_id", gateway.ID),
			ports.String("customer_profile_id", gwErr.ExistingID),
		)
		return gwErr.ExistingID, nil
	}
	if err != nil {
		r.logger.Warn("Failed to create customer profile",
			ports.String("party_id", party.ID),
			ports.String("gateway_id", gateway.ID),
			ports.Err(err),
		)
		return "", domain.NewGatewayUserError(err)
	}

	r.logger.Info("Created customer profile",
		ports.String("party_id", party.ID),
		ports.String("gateway_id", gateway.ID),
		ports.String("customer_profile_id", customerID),
	)
	return customerID, nil
}

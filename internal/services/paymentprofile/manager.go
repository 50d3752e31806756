package paymentprofile

import (
	"context"

	"github.com/google/uuid"
	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/services/address"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
)

const maxAttempts = 2

// CustomerResolver maps a party onto its remote customer profile
type CustomerResolver interface {
	Resolve(ctx context.Context, client adapterports.AuthorizeNetClient, party *domain.Party, gateway *domain.Gateway) (string, error)
}

// AddProfileRequest tokenizes card for a party
type AddProfileRequest struct {
	PartyID   string
	AddressID string
	GatewayID string
	Card      domain.CardInfo
}

// Manager creates, re-validates and deactivates tokenized cards
type Manager struct {
	store       ports.Store
	clients     adapterports.ClientFactory
	credentials ports.CredentialResolver
	customers   CustomerResolver
	logger      ports.Logger
	now         timeutil.Clock
}

// NewManager creates a payment card profile manager
func NewManager(
	store ports.Store,
	clients adapterports.ClientFactory,
	credentials ports.CredentialResolver,
	customers CustomerResolver,
	logger ports.Logger,
) *Manager {
	return &Manager{
		store:       store,
		clients:     clients,
		credentials: credentials,
		customers:   customers,
		logger:      logger,
		now:         timeutil.Now,
	}
}

// WithClock replaces the manager's clock
func (m *Manager) WithClock(clock timeutil.Clock) *Manager {
	m.now = clock
	return m
}

// AddProfile validates card, stores it on the gateway under the party's
// customer profile and records a new local payment profile
func (m *Manager) AddProfile(ctx context.Context, req AddProfileRequest) (*domain.PaymentProfile, error) {
	if err := req.Card.Validate(); err != nil {
		return nil, err
	}

	party, err := m.store.GetParty(ctx, req.PartyID)
	if err != nil {
		return nil, err
	}
	billing, err := m.store.GetAddress(ctx, req.AddressID)
	if err != nil {
		return nil, err
	}
	if billing.PartyID != party.ID {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "address does not belong to party")
	}

	gateway, client, err := m.clientFor(ctx, req.GatewayID)
	if err != nil {
		return nil, err
	}

	customerID, err := m.customers.Resolve(ctx, client, party, gateway)
	if err != nil {
		return nil, err
	}

	billTo := address.ToRemote(billing, party, req.Card.Owner)
	remoteReq := adapterports.PaymentProfileRequest{
		CustomerProfileID: customerID,
		Card: adapterports.CardData{
			CardNumber:     req.Card.CleanNumber(),
			ExpirationDate: req.Card.ExpirationDate(),
			CardCode:       req.Card.CSC,
		},
		BillTo:         &billTo,
		ValidationMode: validationMode(gateway),
	}

	paymentProfileID, err := m.createRemote(ctx, client, remoteReq)
	if err != nil {
		m.logger.Warn("Failed to add payment profile",
			ports.String("party_id", party.ID),
			ports.String("gateway_id", gateway.ID),
			ports.Err(err),
		)
		return nil, err
	}

	now := m.now()
	profile := &domain.PaymentProfile{
		ID:                 uuid.NewString(),
		PartyID:            party.ID,
		AddressID:          billing.ID,
		GatewayID:          gateway.ID,
		ProviderReference:  paymentProfileID,
		AuthorizeProfileID: customerID,
		LastFourDigits:     req.Card.LastFour(),
		ExpiryMonth:        req.Card.ExpiryMonth,
		ExpiryYear:         req.Card.ExpiryYear,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := m.store.CreatePaymentProfile(ctx, profile); err != nil {
		return nil, err
	}

	observability.RecordPaymentProfileCreated(gateway.ID)
	m.logger.Info("Payment profile added",
		ports.String("payment_profile_id", profile.ID),
		ports.String("party_id", party.ID),
		ports.String("customer_profile_id", customerID),
		ports.String("last_four", profile.LastFourDigits),
	)
	return profile, nil
}

// createRemote creates the remote payment profile. A duplicate on the first
// attempt either reuses a remote card already known locally or removes the
// customer's orphaned cards and retries once.
func (m *Manager) createRemote(ctx context.Context, client adapterports.AuthorizeNetClient, req adapterports.PaymentProfileRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := client.CreatePaymentProfile(ctx, req)
		if err == nil {
			if attempt > 0 {
				observability.RecordDuplicateRecovery("payment_profile", true)
			}
			return id, nil
		}
		lastErr = err

		gwErr, ok := domain.AsGatewayError(err)
		if !ok || !gwErr.IsDuplicate() || attempt > 0 {
			break
		}

		known, err := m.knownRemoteIDs(ctx, req.CustomerProfileID)
		if err != nil {
			return "", err
		}
		if _, ok := known[gwErr.ExistingID]; ok && gwErr.ExistingID != "" {
			m.logger.Info("Card already stored for customer, reusing remote payment profile",
				ports.String("customer_profile_id", req.CustomerProfileID),
				ports.String("provider_reference", gwErr.ExistingID),
			)
			observability.RecordDuplicateRecovery("payment_profile", true)
			return gwErr.ExistingID, nil
		}

		if err := m.deleteOrphans(ctx, client, req.CustomerProfileID, known); err != nil {
			return "", err
		}
	}

	if domain.IsDuplicateError(lastErr) {
		observability.RecordDuplicateRecovery("payment_profile", false)
	}
	return "", domain.NewGatewayUserError(lastErr)
}

// knownRemoteIDs returns the remote payment profile ids referenced locally for customerID
func (m *Manager) knownRemoteIDs(ctx context.Context, customerID string) (map[string]struct{}, error) {
	local, err := m.store.ListPaymentProfiles(ctx, ports.PaymentProfileFilter{AuthorizeProfileID: customerID})
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(local))
	for _, p := range local {
		known[p.ProviderReference] = struct{}{}
	}
	return known, nil
}

func (m *Manager) deleteOrphans(ctx context.Context, client adapterports.AuthorizeNetClient, customerID string, known map[string]struct{}) error {
	remote, err := client.GetCustomerProfile(ctx, customerID)
	if err != nil {
		return domain.NewGatewayUserError(err)
	}

	deleted := 0
	for _, id := range remote.PaymentProfileIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if err := client.DeletePaymentProfile(ctx, customerID, id); err != nil {
			m.logger.Warn("Failed to delete orphaned remote payment profile",
				ports.String("customer_profile_id", customerID),
				ports.String("provider_reference", id),
				ports.Err(err),
			)
			continue
		}
		deleted++
	}

	m.logger.Info("Removed orphaned remote payment profiles",
		ports.String("customer_profile_id", customerID),
		ports.Int("deleted", deleted),
	)
	return nil
}

// Revalidate asks the gateway to re-verify a stored card
func (m *Manager) Revalidate(ctx context.Context, profileID, csc string) (*domain.PaymentProfile, error) {
	profile, err := m.store.GetPaymentProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.AuthorizeProfileID == "" || profile.ProviderReference == "" {
		return nil, domain.ErrNoProviderReference
	}

	gateway, client, err := m.clientFor(ctx, profile.GatewayID)
	if err != nil {
		return nil, err
	}

	err = client.ValidatePaymentProfile(ctx, adapterports.ValidatePaymentProfileRequest{
		CustomerProfileID: profile.AuthorizeProfileID,
		PaymentProfileID:  profile.ProviderReference,
		CardCode:          csc,
		ValidationMode:    validationMode(gateway),
	})
	if err != nil {
		m.logger.Warn("Payment profile validation failed",
			ports.String("payment_profile_id", profile.ID),
			ports.Err(err),
		)
		return nil, domain.NewGatewayUserError(err)
	}

	profile.UpdatedAt = m.now()
	if err := m.store.UpdatePaymentProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// Deactivate deletes the card on the gateway and marks the local profile inactive
func (m *Manager) Deactivate(ctx context.Context, profileID string) (*domain.PaymentProfile, error) {
	profile, err := m.store.GetPaymentProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !profile.Active {
		return profile, nil
	}

	if profile.AuthorizeProfileID != "" && profile.ProviderReference != "" {
		_, client, err := m.clientFor(ctx, profile.GatewayID)
		if err != nil {
			return nil, err
		}
		err = client.DeletePaymentProfile(ctx, profile.AuthorizeProfileID, profile.ProviderReference)
		if gwErr, ok := domain.AsGatewayError(err); ok && gwErr.IsNotFound() {
			err = nil
		}
		if err != nil {
			return nil, domain.NewGatewayUserError(err)
		}
	}

	profile.Active = false
	profile.UpdatedAt = m.now()
	if err := m.store.UpdatePaymentProfile(ctx, profile); err != nil {
		return nil, err
	}

	m.logger.Info("Payment profile deactivated", ports.String("payment_profile_id", profile.ID))
	return profile, nil
}

func (m *Manager) clientFor(ctx context.Context, gatewayID string) (*domain.Gateway, adapterports.AuthorizeNetClient, error) {
	gateway, err := m.store.GetGateway(ctx, gatewayID)
	if err != nil {
		return nil, nil, err
	}
	if gateway.Provider != domain.ProviderAuthorizeNet {
		return nil, nil, domain.ErrProviderNotSupported
	}
	creds, err := m.credentials.Resolve(ctx, gateway)
	if err != nil {
		return nil, nil, err
	}
	return gateway, m.clients.ClientFor(creds), nil
}

func validationMode(gateway *domain.Gateway) string {
	if gateway.Test {
		return adapterports.ValidationModeTest
	}
	return adapterports.ValidationModeLive
}

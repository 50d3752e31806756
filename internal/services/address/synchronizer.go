package address

import (
	"context"
	"strings"

	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
)

// maxNameLength applies to first name, last name and company
const maxNameLength = 50

// maxAttempts bounds remote creation when the first attempt hits a duplicate
const maxAttempts = 2

// ToRemote converts a local address into the gateway representation.
// name overrides the address name, which in turn overrides the party name.
func ToRemote(address *domain.Address, party *domain.Party, name string) adapterports.RemoteAddress {
	if name == "" {
		name = address.Name
	}
	if name == "" {
		name = party.Name
	}

	first, last, found := strings.Cut(name, " ")
	if !found {
		last = ""
	}

	var lines []string
	for _, part := range []string{address.Street, address.StreetBis} {
		if part != "" {
			lines = append(lines, part)
		}
	}

	return adapterports.RemoteAddress{
		FirstName:   truncate(first, maxNameLength),
		LastName:    truncate(last, maxNameLength),
		Company:     truncate(party.Name, maxNameLength),
		Address:     strings.Join(lines, "\n"),
		City:        address.City,
		State:       address.SubdivisionCode,
		Zip:         address.Zip,
		Country:     address.CountryCode,
		PhoneNumber: party.Phone,
		FaxNumber:   party.Fax,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Synchronizer creates local addresses on the gateway and caches the remote id
type Synchronizer struct {
	addresses ports.AddressRepository
	logger    ports.Logger
}

// NewSynchronizer creates an address synchronizer
func NewSynchronizer(addresses ports.AddressRepository, logger ports.Logger) *Synchronizer {
	return &Synchronizer{addresses: addresses, logger: logger}
}

// Sync returns the remote id of address under customerID. The first call
// creates the remote address and stores its id on the address; later calls
// reuse the cached id without contacting the gateway.
func (s *Synchronizer) Sync(ctx context.Context, client adapterports.AuthorizeNetClient, address *domain.Address, party *domain.Party, customerID string) (string, error) {
	if address.HasAuthorizeID() {
		return *address.AuthorizeID, nil
	}

	remote := ToRemote(address, party, "")

	var (
		remoteID string
		err      error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		remoteID, err = client.CreateShippingAddress(ctx, customerID, remote)
		if err == nil {
			if attempt > 0 {
				observability.RecordDuplicateRecovery("address", true)
			}
			break
		}
		if attempt == 0 && domain.IsDuplicateError(err) {
			s.logger.Info("Duplicate remote address, removing orphans before retry",
				ports.String("address_id", address.ID),
				ports.String("customer_profile_id", customerID),
			)
			if cleanupErr := s.deleteOrphans(ctx, client, party.ID, customerID); cleanupErr != nil {
				return "", cleanupErr
			}
			continue
		}
		break
	}

	if err != nil {
		if domain.IsDuplicateError(err) {
			observability.RecordDuplicateRecovery("address", false)
		}
		s.logger.Warn("Failed to create remote address",
			ports.String("address_id", address.ID),
			ports.String("customer_profile_id", customerID),
			ports.Err(err),
		)
		return "", domain.NewGatewayUserError(err)
	}

	if err := s.addresses.SetAddressAuthorizeID(ctx, address.ID, remoteID); err != nil {
		return "", err
	}
	address.AuthorizeID = &remoteID

	s.logger.Info("Created remote address",
		ports.String("address_id", address.ID),
		ports.String("authorize_id", remoteID),
	)
	return remoteID, nil
}

// deleteOrphans removes remote addresses of the customer that no local address references
func (s *Synchronizer) deleteOrphans(ctx context.Context, client adapterports.AuthorizeNetClient, partyID, customerID string) error {
	profile, err := client.GetCustomerProfile(ctx, customerID)
	if err != nil {
		return domain.NewGatewayUserError(err)
	}

	local, err := s.addresses.ListAddressesByParty(ctx, partyID)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(local))
	for _, a := range local {
		if a.HasAuthorizeID() {
			known[*a.AuthorizeID] = struct{}{}
		}
	}

	deleted := 0
	for _, id := range profile.ShippingAddressIDs {
		if _, ok := known[id]; ok {
			continue
		}
		if err := client.DeleteShippingAddress(ctx, customerID, id); err != nil {
			s.logger.Warn("Failed to delete orphaned remote address",
				ports.String("customer_profile_id", customerID),
				ports.String("authorize_id", id),
				ports.Err(err),
			)
			continue
		}
		deleted++
	}

	s.logger.Info("Removed orphaned remote addresses",
		ports.String("customer_profile_id", customerID),
		ports.Int("deleted", deleted),
	)
	return nil
}

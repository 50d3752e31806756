package registry

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
	pkgerrors "github.com/kevin07696/authorizenet-gateway/pkg/errors"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
)

// KeySealer moves a gateway's literal transaction key into secret storage
type KeySealer interface {
	Seal(ctx context.Context, gateway *domain.Gateway) error
}

// CreateGatewayRequest registers processor credentials
type CreateGatewayRequest struct {
	Name           string
	Provider       domain.Provider
	APILogin       string
	TransactionKey string
	ClientKey      string
	Test           bool
}

// CreatePartyRequest registers a customer of the host system
type CreatePartyRequest struct {
	Name  string
	Email string
	Phone string
	Fax   string
}

// CreateAddressRequest adds an address to a party
type CreateAddressRequest struct {
	Name            string
	Street          string
	StreetBis       string
	City            string
	Zip             string
	SubdivisionCode string
	CountryCode     string
}

// Service manages the gateways, parties and addresses transactions refer to
type Service struct {
	store  ports.Store
	sealer KeySealer
	logger ports.Logger
	now    timeutil.Clock
}

// NewService creates a registry service. sealer may be nil to keep keys inline.
func NewService(store ports.Store, sealer KeySealer, logger ports.Logger) *Service {
	return &Service{
		store:  store,
		sealer: sealer,
		logger: logger,
		now:    timeutil.Now,
	}
}

// WithClock replaces the service's clock
func (s *Service) WithClock(clock timeutil.Clock) *Service {
	s.now = clock
	return s
}

// CreateGateway validates and stores a gateway, sealing its transaction key first
func (s *Service) CreateGateway(ctx context.Context, req CreateGatewayRequest) (*domain.Gateway, error) {
	now := s.now()
	gateway := &domain.Gateway{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Provider:       req.Provider,
		APILogin:       strings.TrimSpace(req.APILogin),
		TransactionKey: strings.TrimSpace(req.TransactionKey),
		ClientKey:      strings.TrimSpace(req.ClientKey),
		Test:           req.Test,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if methods := gateway.Methods(); len(methods) > 0 {
		gateway.Method = methods[0]
	}
	if err := gateway.Validate(); err != nil {
		return nil, err
	}

	if s.sealer != nil && gateway.Provider == domain.ProviderAuthorizeNet {
		if err := s.sealer.Seal(ctx, gateway); err != nil {
			s.logger.Error("Failed to seal gateway transaction key",
				ports.String("gateway_id", gateway.ID),
				ports.Err(err),
			)
			return nil, err
		}
	}

	if err := s.store.CreateGateway(ctx, gateway); err != nil {
		return nil, err
	}

	s.logger.Info("Gateway registered",
		ports.String("gateway_id", gateway.ID),
		ports.String("provider", string(gateway.Provider)),
		ports.Bool("test", gateway.Test),
	)
	return gateway, nil
}

// GetGateway returns a gateway by id
func (s *Service) GetGateway(ctx context.Context, id string) (*domain.Gateway, error) {
	return s.store.GetGateway(ctx, id)
}

// CreateParty stores a party
func (s *Service) CreateParty(ctx context.Context, req CreatePartyRequest) (*domain.Party, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("name", "party name is required")
	}

	party := &domain.Party{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Fax:       strings.TrimSpace(req.Fax),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateParty(ctx, party); err != nil {
		return nil, err
	}
	return party, nil
}

// CreateAddress adds an address to an existing party
func (s *Service) CreateAddress(ctx context.Context, partyID string, req CreateAddressRequest) (*domain.Address, error) {
	if _, err := s.store.GetParty(ctx, partyID); err != nil {
		return nil, err
	}
	if req.CountryCode != "" && len(req.CountryCode) != 2 {
		return nil, pkgerrors.NewValidationError("country_code", "country code must be ISO 3166-1 alpha-2")
	}

	addr := &domain.Address{
		ID:              uuid.NewString(),
		PartyID:         partyID,
		Name:            strings.TrimSpace(req.Name),
		Street:          strings.TrimSpace(req.Street),
		StreetBis:       strings.TrimSpace(req.StreetBis),
		City:            strings.TrimSpace(req.City),
		Zip:             strings.TrimSpace(req.Zip),
		SubdivisionCode: strings.TrimSpace(req.SubdivisionCode),
		CountryCode:     strings.ToUpper(req.CountryCode),
		CreatedAt:       s.now(),
	}
	if err := s.store.CreateAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

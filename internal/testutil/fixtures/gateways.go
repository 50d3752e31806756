package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
)

// GatewayBuilder provides fluent API for building test gateways.
type GatewayBuilder struct {
	gateway *domain.Gateway
}

// NewGateway creates a sandbox Authorize.net gateway builder.
func NewGateway() *GatewayBuilder {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &GatewayBuilder{
		gateway: &domain.Gateway{
			ID:             uuid.NewString(),
			Name:           "Test Authorize.net",
			Provider:       domain.ProviderAuthorizeNet,
			Method:         domain.PaymentMethodCreditCard,
			APILogin:       "test-login",
			TransactionKey: "test-key",
			Test:           true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

func (b *GatewayBuilder) WithID(id string) *GatewayBuilder {
	b.gateway.ID = id
	return b
}

func (b *GatewayBuilder) WithProvider(p domain.Provider) *GatewayBuilder {
	b.gateway.Provider = p
	return b
}

func (b *GatewayBuilder) WithCredentials(login, key string) *GatewayBuilder {
	b.gateway.APILogin = login
	b.gateway.TransactionKey = key
	return b
}

func (b *GatewayBuilder) Production() *GatewayBuilder {
	b.gateway.Test = false
	return b
}

// Build returns the constructed gateway.
func (b *GatewayBuilder) Build() *domain.Gateway {
	return b.gateway
}

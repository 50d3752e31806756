package domain

import (
	"strings"
	"time"

	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
)

// Provider identifies the processor implementation behind a gateway
type Provider string

const (
	ProviderAuthorizeNet Provider = "authorize_net"
	ProviderManual       Provider = "manual" // Cash, cheque and other offline payments
)

// ProviderLabel returns the human readable provider name
func (p Provider) ProviderLabel() string {
	switch p {
	case ProviderAuthorizeNet:
		return "Authorize.net"
	case ProviderManual:
		return "Manual"
	default:
		return string(p)
	}
}

// PaymentMethodCreditCard is the only method Authorize.net gateways expose
const PaymentMethodCreditCard = "credit_card"

// secretPrefix marks a transaction key that lives in the secret manager
const secretPrefix = "secret:"

// Gateway holds processor credentials and mode
type Gateway struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Provider       Provider  `json:"provider"`
	Method         string    `json:"method"`
	APILogin       string    `json:"api_login,omitempty"`
	TransactionKey string    `json:"-"`
	ClientKey      string    `json:"client_key,omitempty"`
	Test           bool      `json:"test"`
}

// Methods returns the payment methods supported by the gateway's provider
func (g *Gateway) Methods() []string {
	switch g.Provider {
	case ProviderAuthorizeNet:
		return []string{PaymentMethodCreditCard}
	case ProviderManual:
		return []string{"manual"}
	default:
		return nil
	}
}

// TransactionKeySecretPath returns the secret manager path of the transaction key,
// or an empty string when the key is stored inline
func (g *Gateway) TransactionKeySecretPath() string {
	if strings.HasPrefix(g.TransactionKey, secretPrefix) {
		return strings.TrimPrefix(g.TransactionKey, secretPrefix)
	}
	return ""
}

// Validate checks the gateway carries what its provider needs
func (g *Gateway) Validate() error {
	if g.Name == "" {
		return NewDomainError(ErrorCodeValidationMissingField, "gateway name is required")
	}
	switch g.Provider {
	case ProviderAuthorizeNet:
		if g.APILogin == "" || g.TransactionKey == "" {
			return NewDomainError(ErrorCodeValidationMissingField,
				"api login and transaction key are required for authorize_net")
		}
	case ProviderManual:
	default:
		return NewDomainError(ErrorCodeProviderNotSupported, "unknown provider: "+string(g.Provider))
	}
	return nil
}

// Touch updates the modification timestamp
func (g *Gateway) Touch() {
	g.UpdatedAt = timeutil.Now()
}

// Credentials is the tuple a remote client is built from
type Credentials struct {
	APILogin       string
	TransactionKey string
	ClientKey      string
	Test           bool
}

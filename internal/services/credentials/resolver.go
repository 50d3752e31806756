package credentials

import (
	"context"
	"fmt"

	adapterports "github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
)

// secretPathFormat is where a gateway's transaction key is stored
const secretPathFormat = "authorizenet-gateway/gateways/%s/transaction-key"

// Resolver implements ports.CredentialResolver. Transaction keys stored as
// "secret:<path>" are read from the secret manager; literal keys are used as-is.
type Resolver struct {
	secrets adapterports.SecretManagerAdapter
	logger  ports.Logger
}

var _ ports.CredentialResolver = (*Resolver)(nil)

// NewResolver creates a resolver. secrets may be nil when every key is stored inline.
func NewResolver(secrets adapterports.SecretManagerAdapter, logger ports.Logger) *Resolver {
	return &Resolver{secrets: secrets, logger: logger}
}

// Resolve returns the credentials for gateway
func (r *Resolver) Resolve(ctx context.Context, gateway *domain.Gateway) (domain.Credentials, error) {
	creds := domain.Credentials{
		APILogin:       gateway.APILogin,
		TransactionKey: gateway.TransactionKey,
		ClientKey:      gateway.ClientKey,
		Test:           gateway.Test,
	}

	path := gateway.TransactionKeySecretPath()
	if path == "" {
		return creds, nil
	}
	if r.secrets == nil {
		return domain.Credentials{}, domain.NewDomainError(domain.ErrorCodeInternalError,
			"gateway transaction key is stored in a secret manager but none is configured")
	}

	secret, err := r.secrets.GetSecret(ctx, path)
	if err != nil {
		r.logger.Error("Failed to resolve gateway transaction key",
			ports.String("gateway_id", gateway.ID),
			ports.String("secret_path", path),
			ports.Err(err),
		)
		return domain.Credentials{}, domain.WrapError(domain.ErrorCodeInternalError,
			"failed to resolve gateway transaction key", err)
	}

	creds.TransactionKey = secret.Value
	return creds, nil
}

// Seal moves a literal transaction key into the secret manager and replaces it
// on the gateway with a secret reference. It is a no-op without a secret manager
// or when the key is already a reference.
func (r *Resolver) Seal(ctx context.Context, gateway *domain.Gateway) error {
	if r.secrets == nil || gateway.TransactionKey == "" || gateway.TransactionKeySecretPath() != "" {
		return nil
	}

	path := fmt.Sprintf(secretPathFormat, gateway.ID)
	version, err := r.secrets.PutSecret(ctx, path, gateway.TransactionKey, map[string]string{
		"gateway_id": gateway.ID,
		"provider":   string(gateway.Provider),
	})
	if err != nil {
		return domain.WrapError(domain.ErrorCodeInternalError, "failed to store gateway transaction key", err)
	}

	r.logger.Info("Stored gateway transaction key",
		ports.String("gateway_id", gateway.ID),
		ports.String("secret_path", path),
		ports.String("version", version),
	)

	gateway.TransactionKey = "secret:" + path
	return nil
}

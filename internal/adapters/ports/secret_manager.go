package ports

import (
	"context"
	"errors"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value, e.g. a gateway transaction key
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string
}

// SecretManagerAdapter stores gateway transaction keys outside the database.
// Backends: local filesystem (development), AWS Secrets Manager, HashiCorp Vault.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name
	// Path format depends on implementation:
	//   - AWS: "authorizenet-gateway/gateways/{gateway_id}/transaction-key"
	//   - Vault: "secret/data/authorizenet-gateway/gateways/{gateway_id}"
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// PutSecret creates or updates a secret and returns the new version identifier
	PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (version string, err error)

	// DeleteSecret permanently deletes a secret
	DeleteSecret(ctx context.Context, path string) error
}

// ErrSecretNotFound is returned by GetSecret and DeleteSecret for unknown paths
var ErrSecretNotFound = errors.New("secret not found")

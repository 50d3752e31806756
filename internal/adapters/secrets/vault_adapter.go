package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"go.uber.org/zap"
)

// VaultConfig contains configuration for the HashiCorp Vault adapter
type VaultConfig struct {
	// e.g. "https://vault.example.com:8200"
	Address string

	// "token", "approle" or "kubernetes"
	AuthMethod string

	Token string

	RoleID   string
	SecretID string

	K8sTokenPath string
	K8sRole      string

	// Vault Enterprise only
	Namespace string

	// KV secrets engine mount path (default: "secret")
	MountPath string

	// "v1" or "v2" (default: "v2")
	KVVersion string

	CacheTTL    time.Duration
	EnableCache bool

	TLSSkipVerify bool
}

// DefaultVaultConfig returns default configuration for the Vault adapter
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:      address,
		AuthMethod:   "token",
		MountPath:    "secret",
		KVVersion:    "v2",
		K8sTokenPath: "/var/run/secrets/kubernetes.io/serviceaccount/token",
		CacheTTL:     5 * time.Minute,
		EnableCache:  true,
	}
}

type vaultAdapter struct {
	client *vault.Client
	config *VaultConfig
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultAdapter creates and authenticates a Vault adapter
func NewVaultAdapter(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault adapter initialized",
		zap.String("address", cfg.Address),
		zap.String("auth_method", cfg.AuthMethod),
		zap.String("mount_path", cfg.MountPath),
		zap.String("kv_version", cfg.KVVersion),
	)

	return &vaultAdapter{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	switch cfg.AuthMethod {
	case "token":
		if cfg.Token == "" {
			return fmt.Errorf("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return fmt.Errorf("role_id and secret_id are required for AppRole auth")
		}
		return login(ctx, client, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})

	case "kubernetes":
		if cfg.K8sTokenPath == "" || cfg.K8sRole == "" {
			return fmt.Errorf("k8s_token_path and k8s_role are required for Kubernetes auth")
		}
		jwt, err := os.ReadFile(cfg.K8sTokenPath)
		if err != nil {
			return fmt.Errorf("failed to read service account token: %w", err)
		}
		return login(ctx, client, "auth/kubernetes/login", map[string]interface{}{
			"jwt":  string(jwt),
			"role": cfg.K8sRole,
		})

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

func login(ctx context.Context, client *vault.Client, path string, data map[string]interface{}) error {
	resp, err := client.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return fmt.Errorf("login at %s failed: %w", path, err)
	}
	if resp == nil || resp.Auth == nil {
		return fmt.Errorf("login at %s returned no auth info", path)
	}
	client.SetToken(resp.Auth.ClientToken)
	return nil
}

func (a *vaultAdapter) dataPath(path string) string {
	if a.config.KVVersion == "v2" {
		return fmt.Sprintf("%s/data/%s", a.config.MountPath, path)
	}
	return fmt.Sprintf("%s/%s", a.config.MountPath, path)
}

// GetSecret reads the "value" key of a KV secret
func (a *vaultAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		a.logger.Debug("Secret retrieved from cache", zap.String("path", path))
		return cached, nil
	}

	start := time.Now()
	secret, err := a.client.Logical().ReadWithContext(ctx, a.dataPath(path))
	if err != nil {
		a.logger.Error("Failed to retrieve secret from Vault", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
	}

	a.logger.Debug("Secret retrieved",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
	)

	data := secret.Data
	version := "1"
	var createdTime string
	if a.config.KVVersion == "v2" {
		inner, ok := data["data"].(map[string]interface{})
		if !ok {
			// KV v2 returns nil data for soft-deleted secrets
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
		}
		data = inner
		if metadata, ok := secret.Data["metadata"].(map[string]interface{}); ok {
			if v, ok := metadata["version"].(json.Number); ok {
				version = v.String()
			}
			if ct, ok := metadata["created_time"].(string); ok {
				createdTime = ct
			}
		}
	}

	value, _ := data["value"].(string)
	if value == "" {
		return nil, fmt.Errorf("secret %s has no value", path)
	}

	result := &ports.Secret{
		Value:     value,
		Version:   version,
		CreatedAt: createdTime,
		Metadata:  map[string]string{},
	}
	for k, v := range data {
		if str, ok := v.(string); ok && k != "value" {
			result.Metadata[k] = str
		}
	}

	a.cache.set(path, result)
	return result, nil
}

// PutSecret writes value and metadata as one KV secret
func (a *vaultAdapter) PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (string, error) {
	defer a.cache.invalidate(path)

	secretData := map[string]interface{}{"value": value}
	for k, v := range metadata {
		secretData[k] = v
	}

	writeData := secretData
	if a.config.KVVersion == "v2" {
		writeData = map[string]interface{}{"data": secretData}
	}

	resp, err := a.client.Logical().WriteWithContext(ctx, a.dataPath(path), writeData)
	if err != nil {
		a.logger.Error("Failed to write secret to Vault", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to write secret: %w", err)
	}

	version := "1"
	if a.config.KVVersion == "v2" && resp != nil && resp.Data != nil {
		if v, ok := resp.Data["version"].(json.Number); ok {
			version = v.String()
		}
	}

	a.logger.Info("Secret written", zap.String("path", path), zap.String("version", version))
	return version, nil
}

// DeleteSecret removes a secret and, on KV v2, all of its versions
func (a *vaultAdapter) DeleteSecret(ctx context.Context, path string) error {
	defer a.cache.invalidate(path)

	fullPath := fmt.Sprintf("%s/%s", a.config.MountPath, path)
	if a.config.KVVersion == "v2" {
		fullPath = fmt.Sprintf("%s/metadata/%s", a.config.MountPath, path)
	}

	if _, err := a.client.Logical().DeleteWithContext(ctx, fullPath); err != nil {
		a.logger.Error("Failed to delete secret from Vault", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	a.logger.Warn("Secret deleted from Vault", zap.String("path", path))
	return nil
}

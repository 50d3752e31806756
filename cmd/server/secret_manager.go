package main

import (
	"context"
	"fmt"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/secrets"
	"github.com/kevin07696/authorizenet-gateway/internal/config"
	"go.uber.org/zap"
)

// initSecretManager builds the secret manager that holds gateway transaction keys.
// Supports:
//   - local: files under LOCAL_SECRETS_DIR (development only)
//   - aws: AWS Secrets Manager in AWS_REGION
//   - vault: HashiCorp Vault KV at VAULT_ADDR
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	sc := cfg.Secrets
	logger = logger.Named("secrets")

	switch sc.Manager {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(sc.AWSRegion)
		awsCfg.Profile = sc.AWSProfile
		awsCfg.Endpoint = sc.AWSEndpoint
		awsCfg.CacheTTL = sc.CacheTTL
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(sc.VaultAddress)
		vaultCfg.AuthMethod = sc.VaultAuthMethod
		vaultCfg.Token = sc.VaultToken
		vaultCfg.RoleID = sc.VaultRoleID
		vaultCfg.SecretID = sc.VaultSecretID
		vaultCfg.K8sRole = sc.VaultK8sRole
		vaultCfg.Namespace = sc.VaultNamespace
		vaultCfg.MountPath = sc.VaultMountPath
		vaultCfg.CacheTTL = sc.CacheTTL
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	case "local":
		if !cfg.Development {
			logger.Warn("Using local file secret manager outside development",
				zap.String("dir", sc.LocalDir),
			)
		}
		return secrets.NewLocalSecretManager(sc.LocalDir, logger), nil

	default:
		return nil, fmt.Errorf("unknown secret manager %q", sc.Manager)
	}
}

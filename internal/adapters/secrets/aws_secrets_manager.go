package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"go.uber.org/zap"
)

// AWSSecretsManagerConfig contains configuration for the AWS Secrets Manager adapter
type AWSSecretsManagerConfig struct {
	Region string

	// Optional: AWS profile name (for local development)
	Profile string

	// Optional: Custom endpoint (for LocalStack testing)
	Endpoint string

	CacheTTL    time.Duration
	EnableCache bool
}

// DefaultAWSSecretsManagerConfig returns default configuration
func DefaultAWSSecretsManagerConfig(region string) *AWSSecretsManagerConfig {
	return &AWSSecretsManagerConfig{
		Region:      region,
		CacheTTL:    5 * time.Minute,
		EnableCache: true,
	}
}

// secretsManagerAPI is the subset of the SDK client the adapter calls
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, in *secretsmanager.PutSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	DeleteSecret(ctx context.Context, in *secretsmanager.DeleteSecretInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.DeleteSecretOutput, error)
}

type awsSecretsManagerAdapter struct {
	client secretsManagerAPI
	logger *zap.Logger
	cache  *secretCache
}

// NewAWSSecretsManagerAdapter creates an adapter using the default AWS credential chain
func NewAWSSecretsManagerAdapter(ctx context.Context, cfg *AWSSecretsManagerConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOptions []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager adapter initialized",
		zap.String("region", cfg.Region),
		zap.Bool("cache_enabled", cfg.EnableCache),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	return newAWSSecretsManagerAdapter(secretsmanager.NewFromConfig(awsConfig, clientOptions...), cfg, logger), nil
}

func newAWSSecretsManagerAdapter(client secretsManagerAPI, cfg *AWSSecretsManagerConfig, logger *zap.Logger) *awsSecretsManagerAdapter {
	return &awsSecretsManagerAdapter{
		client: client,
		logger: logger,
		cache:  newSecretCache(cfg.EnableCache, cfg.CacheTTL),
	}
}

// GetSecret retrieves a secret by name or ARN
func (a *awsSecretsManagerAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		a.logger.Debug("Secret retrieved from cache", zap.String("path", path))
		return cached, nil
	}

	start := time.Now()
	result, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
		}
		a.logger.Error("Failed to retrieve secret", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	a.logger.Debug("Secret retrieved",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
	)

	secret := &ports.Secret{
		Value:    aws.ToString(result.SecretString),
		Version:  aws.ToString(result.VersionId),
		Metadata: map[string]string{},
	}
	if result.CreatedDate != nil {
		secret.CreatedAt = result.CreatedDate.Format(time.RFC3339)
	}
	if result.ARN != nil {
		secret.Metadata["arn"] = *result.ARN
	}

	a.cache.set(path, secret)
	return secret, nil
}

// PutSecret updates a secret, creating it when it does not exist yet
func (a *awsSecretsManagerAdapter) PutSecret(ctx context.Context, path string, value string, metadata map[string]string) (string, error) {
	defer a.cache.invalidate(path)

	result, err := a.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(path),
		SecretString: aws.String(value),
	})
	if err == nil {
		a.logger.Info("Secret updated",
			zap.String("path", path),
			zap.String("version", aws.ToString(result.VersionId)),
		)
		return aws.ToString(result.VersionId), nil
	}

	var notFound *smtypes.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		a.logger.Error("Failed to update secret", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to update secret: %w", err)
	}

	input := &secretsmanager.CreateSecretInput{
		Name:         aws.String(path),
		SecretString: aws.String(value),
		Description:  aws.String("Authorize.net gateway transaction key"),
	}
	for k, v := range metadata {
		input.Tags = append(input.Tags, smtypes.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	created, err := a.client.CreateSecret(ctx, input)
	if err != nil {
		a.logger.Error("Failed to create secret", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("failed to create secret: %w", err)
	}

	a.logger.Info("Secret created",
		zap.String("path", path),
		zap.String("version", aws.ToString(created.VersionId)),
	)
	return aws.ToString(created.VersionId), nil
}

// DeleteSecret schedules a secret for deletion with a 30 day recovery window
func (a *awsSecretsManagerAdapter) DeleteSecret(ctx context.Context, path string) error {
	defer a.cache.invalidate(path)

	_, err := a.client.DeleteSecret(ctx, &secretsmanager.DeleteSecretInput{
		SecretId:             aws.String(path),
		RecoveryWindowInDays: aws.Int64(30),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return fmt.Errorf("%w: %s", ports.ErrSecretNotFound, path)
		}
		a.logger.Error("Failed to delete secret", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to delete secret: %w", err)
	}

	a.logger.Warn("Secret scheduled for deletion", zap.String("path", path))
	return nil
}

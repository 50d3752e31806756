package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/pkg/timeutil"
	"go.uber.org/zap"
)

// localSecretManager implements SecretManagerAdapter on the local filesystem.
// WARNING: This is for development only. Use AWS Secrets Manager or Vault in production.
type localSecretManager struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalSecretManager creates a filesystem secret manager rooted at basePath
func NewLocalSecretManager(basePath string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		basePath: basePath,
		logger:   logger,
	}
}

type localSecretFile struct {
	Value     string            `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
	CreatedAt string            `json:"created_at"`
}

func (m *localSecretManager) resolve(secretPath string) (string, error) {
	clean := filepath.Clean("/" + secretPath)
	if secretPath == "" || strings.Contains(secretPath, "..") {
		return "", fmt.Errorf("invalid secret path %q", secretPath)
	}
	return filepath.Join(m.basePath, clean), nil
}

// GetSecret reads a secret file. Plain text files are returned as-is.
func (m *localSecretManager) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	filePath, err := m.resolve(secretPath)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Reading secret from filesystem", zap.String("path", secretPath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var file localSecretFile
	if err := json.Unmarshal(data, &file); err == nil && file.Value != "" {
		return &ports.Secret{
			Value:     file.Value,
			Version:   "v1",
			Metadata:  file.Tags,
			CreatedAt: file.CreatedAt,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimSpace(string(data)),
		Version: "v1",
	}, nil
}

// PutSecret writes a secret file with its metadata
func (m *localSecretManager) PutSecret(ctx context.Context, secretPath, secretValue string, tags map[string]string) (string, error) {
	filePath, err := m.resolve(secretPath)
	if err != nil {
		return "", err
	}

	m.logger.Info("Storing secret to filesystem", zap.String("path", secretPath))

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(localSecretFile{
		Value:     secretValue,
		Tags:      tags,
		CreatedAt: timeutil.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal secret: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write secret: %w", err)
	}

	return "v1", nil
}

// DeleteSecret removes a secret file
func (m *localSecretManager) DeleteSecret(ctx context.Context, secretPath string) error {
	filePath, err := m.resolve(secretPath)
	if err != nil {
		return err
	}

	m.logger.Info("Deleting secret from filesystem", zap.String("path", secretPath))

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ports.ErrSecretNotFound, secretPath)
		}
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}

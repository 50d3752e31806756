package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/authorizenet")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 50051, cfg.Server.GRPCPort)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "local", cfg.Secrets.Manager)
	assert.Equal(t, 45*time.Second, cfg.AuthorizeNet.Timeout)
	assert.Equal(t, "https://apitest.authorize.net/xml/v1/request.api", cfg.AuthorizeNet.SandboxURL)
	assert.Equal(t, uint32(5), cfg.AuthorizeNet.BreakerMaxFailures)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.True(t, cfg.Development)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_DSN", "file:test.db")
	t.Setenv("SECRET_MANAGER", "vault")
	t.Setenv("VAULT_ADDR", "https://vault.internal:8200")
	t.Setenv("AUTHORIZENET_TIMEOUT", "20")
	t.Setenv("SECRET_CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("HTTP_PORT", "not-a-port")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "file:test.db", cfg.Store.SQLiteDSN)
	assert.Equal(t, "vault", cfg.Secrets.Manager)
	assert.Equal(t, 20*time.Second, cfg.AuthorizeNet.Timeout)
	assert.Equal(t, 90*time.Second, cfg.Secrets.CacheTTL)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 8080, cfg.Server.HTTPPort, "unparsable values fall back to the default")
	assert.False(t, cfg.Development)
}

func TestLoadFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres without url",
			env:     map[string]string{"STORE_DRIVER": "postgres"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"STORE_DRIVER": "mysql"},
			wantErr: "unknown STORE_DRIVER",
		},
		{
			name:    "vault without address",
			env:     map[string]string{"STORE_DRIVER": "sqlite", "SECRET_MANAGER": "vault"},
			wantErr: "VAULT_ADDR",
		},
		{
			name:    "unknown secret manager",
			env:     map[string]string{"STORE_DRIVER": "sqlite", "SECRET_MANAGER": "gcp"},
			wantErr: "unknown SECRET_MANAGER",
		},
		{
			name:    "zero burst",
			env:     map[string]string{"STORE_DRIVER": "sqlite", "RATE_LIMIT_BURST": "0"},
			wantErr: "RATE_LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

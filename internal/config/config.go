package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig
	Store        StoreConfig
	Secrets      SecretsConfig
	AuthorizeNet AuthorizeNetConfig
	RateLimit    RateLimitConfig
	Logger       LoggerConfig
	Development  bool
}

// ServerConfig holds listener ports
type ServerConfig struct {
	HTTPPort    int
	GRPCPort    int // gRPC health and reflection only
	MetricsPort int
	Host        string
}

// StoreConfig selects and configures the storage backend
type StoreConfig struct {
	Driver      string // postgres or sqlite
	DatabaseURL string
	SQLiteDSN   string
	MaxConns    int32
	MinConns    int32
}

// SecretsConfig selects where transaction keys live
type SecretsConfig struct {
	Manager  string // local, aws or vault
	LocalDir string
	CacheTTL time.Duration

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress    string
	VaultAuthMethod string
	VaultToken      string
	VaultRoleID     string
	VaultSecretID   string
	VaultK8sRole    string
	VaultNamespace  string
	VaultMountPath  string
}

// AuthorizeNetConfig holds the remote API settings shared by every gateway
type AuthorizeNetConfig struct {
	SandboxURL         string
	ProductionURL      string
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// RateLimitConfig holds the per-IP limits for the HTTP API
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:    getEnvAsInt("HTTP_PORT", 8080),
			GRPCPort:    getEnvAsInt("GRPC_PORT", 50051),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Store: StoreConfig{
			Driver:      getEnv("STORE_DRIVER", "postgres"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
			SQLiteDSN:   getEnv("SQLITE_DSN", "file:authorizenet.db"),
			MaxConns:    int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:    int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Secrets: SecretsConfig{
			Manager:         getEnv("SECRET_MANAGER", "local"),
			LocalDir:        getEnv("LOCAL_SECRETS_DIR", "./secrets"),
			CacheTTL:        getEnvAsDuration("SECRET_CACHE_TTL", 5*time.Minute),
			AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
			AWSProfile:      getEnv("AWS_PROFILE", ""),
			AWSEndpoint:     getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultAuthMethod: getEnv("VAULT_AUTH_METHOD", "token"),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultRoleID:     getEnv("VAULT_ROLE_ID", ""),
			VaultSecretID:   getEnv("VAULT_SECRET_ID", ""),
			VaultK8sRole:    getEnv("VAULT_K8S_ROLE", ""),
			VaultNamespace:  getEnv("VAULT_NAMESPACE", ""),
			VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
		},
		AuthorizeNet: AuthorizeNetConfig{
			SandboxURL:         getEnv("AUTHORIZENET_SANDBOX_URL", "https://apitest.authorize.net/xml/v1/request.api"),
			ProductionURL:      getEnv("AUTHORIZENET_PRODUCTION_URL", "https://api.authorize.net/xml/v1/request.api"),
			Timeout:            getEnvAsDuration("AUTHORIZENET_TIMEOUT", 45*time.Second),
			BreakerMaxFailures: uint32(getEnvAsInt("AUTHORIZENET_BREAKER_MAX_FAILURES", 5)),
			BreakerOpenTimeout: getEnvAsDuration("AUTHORIZENET_BREAKER_TIMEOUT", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Development: getEnv("ENVIRONMENT", "development") == "development",
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields for the selected backends
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case "sqlite":
		if c.Store.SQLiteDSN == "" {
			return fmt.Errorf("SQLITE_DSN is required when STORE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Secrets.Manager {
	case "local":
	case "aws":
		if c.Secrets.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required when SECRET_MANAGER=aws")
		}
	case "vault":
		if c.Secrets.VaultAddress == "" {
			return fmt.Errorf("VAULT_ADDR is required when SECRET_MANAGER=vault")
		}
	default:
		return fmt.Errorf("unknown SECRET_MANAGER %q", c.Secrets.Manager)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("30s") or a bare number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

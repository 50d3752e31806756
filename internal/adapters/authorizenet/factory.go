package authorizenet

import (
	"context"
	"errors"
	"sync"

	"github.com/kevin07696/authorizenet-gateway/internal/adapters/ports"
	"github.com/kevin07696/authorizenet-gateway/internal/domain"
	"github.com/kevin07696/authorizenet-gateway/pkg/observability"
	"github.com/kevin07696/authorizenet-gateway/pkg/resilience"
	"go.uber.org/zap"
)

// FactoryConfig configures client construction
type FactoryConfig struct {
	SandboxURL     string
	ProductionURL  string
	CircuitBreaker CircuitBreakerConfig
	Timeouts       *resilience.TimeoutConfig // nil leaves calls bounded by the caller's context only
}

// DefaultFactoryConfig points at the public Authorize.net endpoints
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		SandboxURL:     SandboxURL,
		ProductionURL:  ProductionURL,
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Timeouts:       resilience.DefaultTimeoutConfig(),
	}
}

// Factory hands out one client per credentials tuple. Clients share the HTTP
// connection pool and one circuit breaker per endpoint.
type Factory struct {
	httpClient ports.HTTPClient
	logger     *zap.Logger
	breakers   map[string]*CircuitBreaker
	config     FactoryConfig
	mu         sync.Mutex
}

var _ ports.ClientFactory = (*Factory)(nil)

// NewFactory creates a client factory
func NewFactory(config FactoryConfig, httpClient ports.HTTPClient, logger *zap.Logger) *Factory {
	return &Factory{
		httpClient: httpClient,
		logger:     logger,
		config:     config,
		breakers:   make(map[string]*CircuitBreaker),
	}
}

// ClientFor returns a client authenticated with creds against the sandbox or
// production endpoint depending on creds.Test
func (f *Factory) ClientFor(creds domain.Credentials) ports.AuthorizeNetClient {
	endpoint := f.config.ProductionURL
	if creds.Test {
		endpoint = f.config.SandboxURL
	}
	return NewClient(creds, endpoint, f.httpClient, f.breakerFor(endpoint), f.logger.With(
		zap.String("api_login", creds.APILogin),
		zap.Bool("test", creds.Test),
	)).WithTimeouts(f.config.Timeouts)
}

func (f *Factory) breakerFor(endpoint string) *CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[endpoint]; ok {
		return cb
	}

	cb := NewCircuitBreaker(f.config.CircuitBreaker, countsAgainstAPI)
	cb.OnStateChange(func(state CircuitState) {
		observability.SetCircuitBreakerState(endpoint, int(state))
		f.logger.Warn("Authorize.net circuit breaker changed state",
			zap.String("endpoint", endpoint),
			zap.String("state", state.String()),
		)
	})
	f.breakers[endpoint] = cb
	return cb
}

// countsAgainstAPI ignores cancellations by the caller
func countsAgainstAPI(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

package authorizenet

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker
type CircuitState int

const (
	// StateClosed - requests flow normally
	StateClosed CircuitState = iota
	// StateOpen - requests fail immediately without reaching Authorize.net
	StateOpen
	// StateHalfOpen - a probe request is testing whether the API recovered
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when circuit breaker is open
	ErrCircuitOpen = errors.New("authorize.net circuit breaker is open")
	// ErrTooManyRequests is returned when too many requests in half-open state
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// CircuitBreakerConfig configures circuit breaker behavior
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening circuit
	MaxFailures uint32
	// Timeout is how long to wait before transitioning from open to half-open
	Timeout time.Duration
	// MaxRequestsHalfOpen is max concurrent requests allowed in half-open state
	MaxRequestsHalfOpen uint32
}

// DefaultCircuitBreakerConfig returns the production defaults
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxFailures:         5,
		Timeout:             30 * time.Second,
		MaxRequestsHalfOpen: 1,
	}
}

// CircuitBreaker trips on transport failures only. A declined card or a
// gateway error response means the API is up and counts as a success.
type CircuitBreaker struct {
	lastStateChangeTime time.Time
	isFailure           func(error) bool
	onStateChange       func(CircuitState)
	config              CircuitBreakerConfig
	mu                  sync.Mutex
	state               CircuitState
	failures            uint32
	requestsHalfOpen    uint32
}

// NewCircuitBreaker creates a new circuit breaker. isFailure decides which
// errors count against the API; nil counts every error.
func NewCircuitBreaker(config CircuitBreakerConfig, isFailure func(error) bool) *CircuitBreaker {
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		state:               StateClosed,
		lastStateChangeTime: time.Now(),
		config:              config,
		isFailure:           isFailure,
	}
}

// OnStateChange registers a callback fired after every state transition
func (cb *CircuitBreaker) OnStateChange(fn func(CircuitState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Call executes fn if the breaker allows it
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn()
	cb.afterCall(err)

	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.lastStateChangeTime) > cb.config.Timeout {
			cb.setState(StateHalfOpen)
			cb.requestsHalfOpen++
			return nil
		}
		return ErrCircuitOpen

	case StateHalfOpen:
		if cb.requestsHalfOpen >= cb.config.MaxRequestsHalfOpen {
			return ErrTooManyRequests
		}
		cb.requestsHalfOpen++
		return nil

	default:
		return ErrCircuitOpen
	}
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && cb.isFailure(err) {
		cb.failures++
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.config.MaxFailures {
				cb.setState(StateOpen)
			}
		case StateHalfOpen:
			cb.setState(StateOpen)
		}
		return
	}

	switch cb.state {
	case StateHalfOpen:
		cb.setState(StateClosed)
	case StateClosed:
		cb.failures = 0
	}
}

// setState must be called with mu held
func (cb *CircuitBreaker) setState(newState CircuitState) {
	if cb.state == newState {
		return
	}

	cb.state = newState
	cb.lastStateChangeTime = time.Now()
	cb.failures = 0
	cb.requestsHalfOpen = 0

	if cb.onStateChange != nil {
		cb.onStateChange(newState)
	}
}

// State returns the current circuit state
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() uint32 {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

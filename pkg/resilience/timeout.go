package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines the timeout hierarchy, outermost first:
//
//	Batch Handler (5m)
//	  ↓
//	HTTP Handler (90s)
//	  ↓
//	External API (45s - Authorize.net call)
//	  ↓
//	Database (5s)
//
// A lifecycle operation may issue up to four remote calls (customer lookup,
// address sync, duplicate cleanup, the transaction itself) inside one handler.
type TimeoutConfig struct {
	BatchHandler time.Duration
	HTTPHandler  time.Duration
	ExternalAPI  time.Duration
	Database     time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		BatchHandler: 5 * time.Minute,
		HTTPHandler:  90 * time.Second,
		ExternalAPI:  45 * time.Second,
		Database:     5 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		BatchHandler: 10 * time.Second,
		HTTPHandler:  5 * time.Second,
		ExternalAPI:  2 * time.Second,
		Database:     1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// BatchContext creates a context with timeout for batch lifecycle requests
func (tc *TimeoutConfig) BatchContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.BatchHandler)
}

// ExternalAPIContext creates a context for a single Authorize.net call
func (tc *TimeoutConfig) ExternalAPIContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.ExternalAPI)
}

// DatabaseContext creates a context for a storage call
func (tc *TimeoutConfig) DatabaseContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Database)
}

package resilience

import (
	"context"
	"testing"
	"time"
)

func TestDefaultTimeoutConfig(t *testing.T) {
	config := DefaultTimeoutConfig()

	if config.BatchHandler <= config.HTTPHandler {
		t.Errorf("BatchHandler (%v) must be > HTTPHandler (%v)", config.BatchHandler, config.HTTPHandler)
	}

	// A handler must outlive at least one remote call plus the duplicate retry
	if config.HTTPHandler < 2*config.ExternalAPI {
		t.Errorf("HTTPHandler (%v) must be >= 2x ExternalAPI (%v)", config.HTTPHandler, config.ExternalAPI)
	}

	if config.ExternalAPI <= config.Database {
		t.Errorf("ExternalAPI (%v) must be > Database (%v)", config.ExternalAPI, config.Database)
	}
}

func TestTestTimeoutConfig_ShorterThanDefault(t *testing.T) {
	def := DefaultTimeoutConfig()
	test := TestTimeoutConfig()

	if test.HTTPHandler >= def.HTTPHandler {
		t.Errorf("test HTTPHandler (%v) should be shorter than default (%v)", test.HTTPHandler, def.HTTPHandler)
	}
	if test.ExternalAPI >= def.ExternalAPI {
		t.Errorf("test ExternalAPI (%v) should be shorter than default (%v)", test.ExternalAPI, def.ExternalAPI)
	}
}

func TestContexts_HaveDeadlines(t *testing.T) {
	config := TestTimeoutConfig()
	tests := []struct {
		name    string
		make    func(context.Context) (context.Context, context.CancelFunc)
		timeout time.Duration
	}{
		{"handler", config.HandlerContext, config.HTTPHandler},
		{"batch", config.BatchContext, config.BatchHandler},
		{"external_api", config.ExternalAPIContext, config.ExternalAPI},
		{"database", config.DatabaseContext, config.Database},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now()
			ctx, cancel := tt.make(context.Background())
			defer cancel()
			after := time.Now()

			deadline, ok := ctx.Deadline()
			if !ok {
				t.Fatal("expected a deadline")
			}
			if deadline.Before(before.Add(tt.timeout)) || deadline.After(after.Add(tt.timeout)) {
				t.Errorf("deadline %v not within expected timeout %v", deadline.Sub(before), tt.timeout)
			}
		})
	}
}

func TestContexts_RespectParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	ctx, done := DefaultTimeoutConfig().ExternalAPIContext(parent)
	defer done()

	if ctx.Err() == nil {
		t.Error("expected child context to be cancelled with its parent")
	}
}

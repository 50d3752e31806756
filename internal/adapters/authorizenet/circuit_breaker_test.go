package authorizenet

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_DefaultConfig(t *testing.T) {
	config := DefaultCircuitBreakerConfig()

	if config.MaxFailures != 5 {
		t.Errorf("Expected MaxFailures = 5, got %d", config.MaxFailures)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("Expected Timeout = 30s, got %v", config.Timeout)
	}
	if config.MaxRequestsHalfOpen != 1 {
		t.Errorf("Expected MaxRequestsHalfOpen = 1, got %d", config.MaxRequestsHalfOpen)
	}
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Minute, MaxRequestsHalfOpen: 1}, nil)
	failing := errors.New("connection refused")

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return failing }); !errors.Is(err, failing) {
			t.Fatalf("call %d: expected underlying error, got %v", i, err)
		}
	}

	if cb.State() != StateOpen {
		t.Fatalf("Expected state = open, got %v", cb.State())
	}

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while the circuit is open")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Minute, MaxRequestsHalfOpen: 1}, nil)

	_ = cb.Call(func() error { return errors.New("fail") })
	_ = cb.Call(func() error { return errors.New("fail") })
	_ = cb.Call(func() error { return nil })

	if cb.Failures() != 0 {
		t.Errorf("Expected failures reset to 0, got %d", cb.Failures())
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state = closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Millisecond, MaxRequestsHalfOpen: 1}, nil)

	var transitions []CircuitState
	cb.OnStateChange(func(s CircuitState) { transitions = append(transitions, s) })

	_ = cb.Call(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("Expected probe to succeed, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("Expected state = closed after successful probe, got %v", cb.State())
	}

	want := []CircuitState{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("Expected transitions %v, got %v", want, transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d: expected %v, got %v", i, want[i], transitions[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: 10 * time.Millisecond, MaxRequestsHalfOpen: 1}, nil)

	_ = cb.Call(func() error { return errors.New("fail") })
	time.Sleep(20 * time.Millisecond)
	_ = cb.Call(func() error { return errors.New("still failing") })

	if cb.State() != StateOpen {
		t.Errorf("Expected state = open, got %v", cb.State())
	}
}

func TestCircuitBreaker_ClassifierIgnoresCancellation(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Minute, MaxRequestsHalfOpen: 1}, countsAgainstAPI)

	_ = cb.Call(func() error { return context.Canceled })

	if cb.State() != StateClosed {
		t.Errorf("Expected cancellation to leave the circuit closed, got %v", cb.State())
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := map[CircuitState]string{
		StateClosed:      "closed",
		StateOpen:        "open",
		StateHalfOpen:    "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", state, got, want)
		}
	}
}

package resilience

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker() (*CircuitBreaker, *time.Time) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		CoolDown:         10 * time.Second,
	})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker()

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %s before threshold, want CLOSED", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s after threshold, want OPEN", cb.State())
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Allow() = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker()

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %s, want CLOSED after interleaved success", cb.State())
	}
}

func TestCircuitBreakerProbesAfterCoolDown(t *testing.T) {
	cb, now := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	if err := cb.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatal("expected open circuit to reject")
	}

	*now = now.Add(11 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("Allow() after cool-down = %v, want probe admitted", err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN", cb.State())
	}

	// A failed probe slams the circuit shut again.
	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s after failed probe, want OPEN", cb.State())
	}
}

func TestCircuitBreakerClosesAfterSuccessfulProbes(t *testing.T) {
	cb, now := newTestBreaker()

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	*now = now.Add(11 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatal(err)
	}

	cb.RecordSuccess()
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %s after one probe success, want HALF_OPEN", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %s after two probe successes, want CLOSED", cb.State())
	}
}

func TestCircuitBreakerDo(t *testing.T) {
	cb, _ := newTestBreaker()

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		if err := cb.Do(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("Do() = %v, want boom", err)
		}
	}

	calls := 0
	err := cb.Do(func() error { calls++; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Do() on open circuit = %v, want ErrCircuitOpen", err)
	}
	if calls != 0 {
		t.Error("fn must not run while the circuit is open")
	}
}

package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errSynthetic = errors.New("synthetic failure")

func failing() error    { return errSynthetic }
func succeeding() error { return nil }

// TestCircuitBreaker_OpensAfterThreshold verifies consecutive failures open
// the circuit and further calls fail fast with ErrOpen.
func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Cooldown: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Call(ctx, failing); !errors.Is(err, errSynthetic) {
			t.Fatalf("call %d error = %v, want synthetic", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v after threshold failures, want open", cb.State())
	}

	called := false
	err := cb.Call(ctx, func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("open-circuit call error = %v, want ErrOpen", err)
	}
	if called {
		t.Fatal("fn invoked while circuit open")
	}
}

// TestCircuitBreaker_SuccessResetsFailures verifies intermittent successes
// keep the circuit closed.
func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Cooldown: time.Hour})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_ = cb.Call(ctx, failing)
		_ = cb.Call(ctx, failing)
		_ = cb.Call(ctx, succeeding)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenRecovery verifies the cooldown admits a probe and
// enough probe successes close the circuit.
func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, SuccessThreshold: 2, Cooldown: 10 * time.Millisecond})
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(15 * time.Millisecond)

	if err := cb.Call(ctx, succeeding); err != nil {
		t.Fatalf("probe call error: %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v after first probe, want half_open", cb.State())
	}
	if err := cb.Call(ctx, succeeding); err != nil {
		t.Fatalf("second probe error: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after success threshold, want closed", cb.State())
	}
}

// TestCircuitBreaker_HalfOpenFailureReopens verifies a failed probe reopens
// the circuit immediately.
func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Cooldown: 10 * time.Millisecond})
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	time.Sleep(15 * time.Millisecond)
	_ = cb.Call(ctx, failing)

	if cb.State() != StateOpen {
		t.Fatalf("state = %v after failed probe, want open", cb.State())
	}
}

// TestCircuitBreaker_TransitionsObserved verifies the state-change hook fires
// for every transition.
func TestCircuitBreaker_TransitionsObserved(t *testing.T) {
	var transitions []string
	cb := New(Config{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Cooldown:         time.Millisecond,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	time.Sleep(5 * time.Millisecond)
	_ = cb.Call(ctx, succeeding)

	want := []string{"closed>open", "open>half_open", "half_open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

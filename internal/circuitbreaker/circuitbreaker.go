// Package circuitbreaker protects the weather provider from hammering a dead
// upstream during ingestion sweeps: after repeated failures the breaker opens
// and calls fail fast (degrading those cities to the fallback observation)
// until a cooldown passes and a probe succeeds.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without invoking the call while the breaker is open.
var ErrOpen = errors.New("circuit breaker open")

// Config holds breaker parameters. Zero values fall back to defaults.
type Config struct {
	// FailureThreshold consecutive failures open the breaker (default 5).
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it (default 2).
	SuccessThreshold int
	// Cooldown before an open breaker admits a probe (default 30s).
	Cooldown time.Duration
	// OnStateChange, when set, observes transitions (used for metrics).
	OnStateChange func(from, to State)
}

// CircuitBreaker is safe for concurrent use.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           State
	failures        int
	successes       int
	lastFailureTime time.Time
	cfg             Config
}

// New builds a CircuitBreaker from cfg, applying defaults.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &CircuitBreaker{state: StateClosed, cfg: cfg}
}

// Call runs fn when the circuit allows it. While open and within the
// cooldown it returns ErrOpen without calling fn; after the cooldown one
// probe is admitted in half-open state.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if time.Since(cb.lastFailureTime) < cb.cfg.Cooldown {
		return ErrOpen
	}
	cb.transitionLocked(StateHalfOpen)
	cb.successes = 0
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailureTime = time.Now()
		if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
			cb.transitionLocked(StateOpen)
			cb.failures = 0
		}
		return
	}

	cb.successes++
	cb.failures = 0
	if cb.state == StateHalfOpen && cb.successes >= cb.cfg.SuccessThreshold {
		cb.transitionLocked(StateClosed)
		cb.successes = 0
	}
}

// transitionLocked switches state and fires the observer. Caller holds the mutex.
func (cb *CircuitBreaker) transitionLocked(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(from, to)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Package circuitbreaker guards the WhatsApp transport: when sends keep
// failing, the breaker opens and broadcast loops fail fast instead of
// hammering a dead connection until the account gets throttled.
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
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects every request until the cooldown passes.
	StateOpen

	// StateHalfOpen lets a few probe requests through to test recovery.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
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
	// ErrCircuitOpen is returned while the breaker rejects requests.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests is returned when the half-open probe budget is spent.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// CircuitBreaker trips after consecutive failures and recovers through a
// half-open probe phase.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	successThreshold int
	cooldown         time.Duration
	maxProbes        int
	onStateChange    func(name string, from, to State)

	mu           sync.Mutex
	state        State
	consecFails  int
	consecOKs    int
	probesInUse  int
	lastFailedAt time.Time
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many half-open successes close the circuit.
func WithSuccessThreshold(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.successThreshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open before probing.
func WithCooldown(d time.Duration) Option {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.cooldown = d
		}
	}
}

// WithMaxProbes sets the number of concurrent half-open probe requests.
func WithMaxProbes(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.maxProbes = n
		}
	}
}

// WithOnStateChange sets the state change callback.
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(cb *CircuitBreaker) {
		cb.onStateChange = fn
	}
}

// New builds a breaker. Defaults: open after 5 consecutive failures, 30s
// cooldown, 1 probe, close after 2 probe successes.
func New(name string, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 2,
		cooldown:         30 * time.Second,
		maxProbes:        1,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn if the breaker allows it and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.record(err == nil)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// admit decides whether a request may proceed right now.
func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.lastFailedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.setState(StateHalfOpen)
		cb.probesInUse = 1
		return nil

	case StateHalfOpen:
		if cb.probesInUse >= cb.maxProbes {
			return ErrTooManyRequests
		}
		cb.probesInUse++
		return nil

	default:
		return ErrCircuitOpen
	}
}

// record feeds the request outcome back into the state machine.
func (cb *CircuitBreaker) record(ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if ok {
		cb.consecOKs++
		cb.consecFails = 0
		if cb.state == StateHalfOpen && cb.consecOKs >= cb.successThreshold {
			cb.setState(StateClosed)
		}
		return
	}

	cb.consecFails++
	cb.consecOKs = 0
	cb.lastFailedAt = time.Now()

	switch cb.state {
	case StateClosed:
		if cb.consecFails >= cb.failureThreshold {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		// One failed probe is enough evidence.
		cb.setState(StateOpen)
	}
}

// setState transitions and fires the callback. Caller holds the lock.
func (cb *CircuitBreaker) setState(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to
	cb.consecOKs = 0
	cb.consecFails = 0
	cb.probesInUse = 0

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// DeliveryBreaker is tuned for WhatsApp sends: trips before WhatsApp starts
// throttling the account, probes with a couple of test sends.
func DeliveryBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(
		"whatsapp-delivery",
		WithFailureThreshold(5),
		WithSuccessThreshold(2),
		WithCooldown(30*time.Second),
		WithMaxProbes(2),
		WithOnStateChange(onStateChange),
	)
}

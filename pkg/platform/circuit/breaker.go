// Package circuit provides a simple circuit breaker for the ledger submission path.
package circuit

import "sync"

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is healthy and submissions flow normally.
	StateClosed State = iota
	// StateOpen means the circuit has tripped and submissions fail fast.
	StateOpen
)

// Breaker tracks consecutive failures for ledger submissions. When closed,
// submissions flow normally. After FailureThreshold consecutive failures the
// circuit opens and Allow returns false. After SuccessThreshold consecutive
// successes recorded while open (from probe attempts), the circuit closes again.
type Breaker struct {
	mu               sync.Mutex
	state            State
	name             string
	failureCount     int
	successCount     int
	probing          bool
	failureThreshold int
	successThreshold int
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures to open the circuit.
// Default is 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the number of consecutive successes to close the circuit.
// Default is 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// New creates a circuit breaker with the given name and options.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Name returns the circuit breaker's name for logging/metrics.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether an attempt may proceed. While open, every call is
// admitted as a probe so the circuit can observe recovery; callers that want
// strict fail-fast should check State first.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return true
	}
	// One probe at a time while open.
	if b.probing {
		return false
	}
	b.probing = true
	return true
}

// RecordFailure records a failed attempt and returns true if the circuit is
// now open.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	b.failureCount++
	b.successCount = 0

	if b.state == StateOpen {
		return true
	}
	if b.failureCount >= b.failureThreshold {
		b.state = StateOpen
		return true
	}
	return false
}

// RecordSuccess records a successful attempt. While open, enough consecutive
// successes close the circuit again.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if b.state == StateOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
		}
		return
	}
	b.failureCount = 0
}

// Reset resets the circuit breaker to closed state with zero counts.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.probing = false
}

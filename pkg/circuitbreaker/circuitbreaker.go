package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrOpen = errors.New("circuit breaker is open")

// CircuitBreaker opens after more than maxFailures failures inside window and
// lets a single probe through once cooldown has elapsed.
type CircuitBreaker struct {
	maxFailures int
	window      time.Duration
	cooldown    time.Duration

	mu       sync.Mutex
	state    State
	failures []time.Time
	openedAt time.Time
	probing  bool
	now      func() time.Time

	// IsFailure decides which errors count against the breaker. Nil counts all.
	IsFailure func(error) bool
}

func New(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	return NewWithWindow(maxFailures, cooldown, 60*time.Second)
}

func NewWithWindow(maxFailures int, cooldown, window time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures: maxFailures,
		window:      window,
		cooldown:    cooldown,
		state:       StateClosed,
		failures:    make([]time.Time, 0),
		now:         time.Now,
	}
}

// Execute runs fn unless the breaker is open. The lock is not held while fn runs.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.before(); err != nil {
		return err
	}
	err := fn()
	cb.after(err)
	return err
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrOpen
		}
		cb.state = StateHalfOpen
		cb.failures = cb.failures[:0]
		cb.probing = true
		return nil
	case StateHalfOpen:
		if cb.probing {
			return ErrOpen
		}
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) after(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil && (cb.IsFailure == nil || cb.IsFailure(err))
	now := cb.now()

	if cb.state == StateHalfOpen {
		cb.probing = false
		if failed {
			cb.trip(now)
		} else {
			cb.state = StateClosed
			cb.failures = cb.failures[:0]
		}
		return
	}

	if !failed {
		cb.cleanOldFailures(now)
		return
	}

	cb.failures = append(cb.failures, now)
	cb.cleanOldFailures(now)
	if len(cb.failures) > cb.maxFailures {
		cb.trip(now)
	}
}

func (cb *CircuitBreaker) trip(now time.Time) {
	cb.state = StateOpen
	cb.openedAt = now
}

func (cb *CircuitBreaker) cleanOldFailures(now time.Time) {
	cutoff := now.Add(-cb.window)
	valid := cb.failures[:0]
	for _, at := range cb.failures {
		if at.After(cutoff) {
			valid = append(valid, at)
		}
	}
	cb.failures = valid
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

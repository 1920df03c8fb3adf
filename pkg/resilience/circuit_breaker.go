package resilience

import (
	"sync"
	"time"
)

// State is one of closed, open, half-open.
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
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker is a count-based closed/open/half-open state machine.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	sleepWindow      time.Duration
	halfOpenMax      int

	state          State
	failures       int
	openedAt       time.Time
	halfOpenProbes int
}

// NewCircuitBreaker builds a breaker that opens after failureThreshold
// consecutive failures and attempts recovery after sleepWindow,
// allowing halfOpenMax probe calls through while half-open.
func NewCircuitBreaker(failureThreshold int, sleepWindow time.Duration, halfOpenMax int) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if halfOpenMax <= 0 {
		halfOpenMax = 1
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		sleepWindow:      sleepWindow,
		halfOpenMax:      halfOpenMax,
		state:            StateClosed,
	}
}

// CanExecute reports whether a call should be let through, transitioning
// open→half-open once the sleep window has elapsed.
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.openedAt) >= cb.sleepWindow {
			cb.state = StateHalfOpen
			cb.halfOpenProbes = 0
			return true
		}
		return false
	case StateHalfOpen:
		if cb.halfOpenProbes < cb.halfOpenMax {
			cb.halfOpenProbes++
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess closes the circuit and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = StateClosed
}

// RecordFailure increments the failure count, opening the circuit once
// the threshold is reached (or immediately, if a half-open probe fails).
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.trip()
		return
	}

	cb.failures++
	if cb.failures >= cb.failureThreshold {
		cb.trip()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = time.Now()
	cb.failures = 0
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

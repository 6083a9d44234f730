package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreakerConfig is the per-dependency breaker tuning loaded from env.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 15 * time.Second
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = 2
	}
	return c
}

// StateChangeFunc observes breaker transitions. It runs outside the breaker lock.
type StateChangeFunc func(name string, from, to CircuitState)

// CircuitBreaker guards one downstream dependency. A nil *CircuitBreaker
// runs every call.
//
// Closed counts consecutive failures and opens at the threshold. Open
// rejects calls until OpenTimeout passes, then admits up to HalfOpenMaxReq
// probes; all succeeding closes it again, any failing reopens it.
type CircuitBreaker struct {
	name  string
	cfg   CircuitBreakerConfig
	clock func() time.Time

	mu             sync.Mutex
	state          CircuitState
	failures       int
	openUntil      time.Time
	probes         int
	probeSuccesses int
	onChange       StateChangeFunc
}

// NewCircuitBreakerFromConfig returns nil when cfg is disabled.
func NewCircuitBreakerFromConfig(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}
	return &CircuitBreaker{
		name:  name,
		cfg:   cfg.withDefaults(),
		clock: time.Now,
		state: CircuitStateClosed,
	}
}

func (b *CircuitBreaker) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// OnStateChange registers fn for every transition. Passing nil removes it.
func (b *CircuitBreaker) OnStateChange(fn StateChangeFunc) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// State reports the current state; an expired open window reads as half-open.
func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && !b.clock().Before(b.openUntil) {
		return CircuitStateHalfOpen
	}
	return b.state
}

// Execute runs fn when the breaker admits it and records the outcome. Only
// errors for which isFailure returns true count against the breaker; a nil
// isFailure counts every error.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if b == nil {
		return fn()
	}
	if err := b.admit(); err != nil {
		return err
	}

	err := fn()
	b.settle(err != nil && (isFailure == nil || isFailure(err)))
	return err
}

func (b *CircuitBreaker) admit() error {
	var err error
	b.update(func(now time.Time) {
		if b.state == CircuitStateOpen {
			if now.Before(b.openUntil) {
				err = ErrCircuitOpen
				return
			}
			b.enter(CircuitStateHalfOpen, now)
		}
		if b.state == CircuitStateHalfOpen {
			if b.probes >= b.cfg.HalfOpenMaxReq {
				err = ErrCircuitOpen
				return
			}
			b.probes++
		}
	})
	return err
}

func (b *CircuitBreaker) settle(failed bool) {
	b.update(func(now time.Time) {
		switch b.state {
		case CircuitStateClosed:
			if !failed {
				b.failures = 0
				return
			}
			b.failures++
			if b.failures >= b.cfg.FailureThreshold {
				b.enter(CircuitStateOpen, now)
			}
		case CircuitStateHalfOpen:
			b.probes = max(0, b.probes-1)
			if failed {
				b.enter(CircuitStateOpen, now)
				return
			}
			b.probeSuccesses++
			if b.probeSuccesses >= b.cfg.HalfOpenMaxReq && b.probes == 0 {
				b.enter(CircuitStateClosed, now)
			}
		case CircuitStateOpen:
			// A call admitted before the breaker opened failed late.
			if failed {
				b.openUntil = now.Add(b.cfg.OpenTimeout)
			}
		}
	})
}

// enter resets the counters owned by the target state. Callers hold mu.
func (b *CircuitBreaker) enter(state CircuitState, now time.Time) {
	b.state = state
	b.failures = 0
	b.probes = 0
	b.probeSuccesses = 0
	b.openUntil = time.Time{}
	if state == CircuitStateOpen {
		b.openUntil = now.Add(b.cfg.OpenTimeout)
	}
}

// update applies mutate under the lock and reports a transition after unlocking.
func (b *CircuitBreaker) update(mutate func(now time.Time)) {
	b.mu.Lock()
	from := b.state
	mutate(b.clock())
	to, hook := b.state, b.onChange
	b.mu.Unlock()

	if hook != nil && from != to {
		hook(b.name, from, to)
	}
}

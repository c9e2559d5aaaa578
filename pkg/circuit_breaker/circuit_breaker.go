package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type State uint8

const (
	Closed State = iota + 1
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(fn func() error) error
	State() State
	Reset()
}

type Config struct {
	// Window is the number of most recent calls the failure ratio is taken over.
	Window int `envconfig:"CB_WINDOW" default:"10"`
	// FailureRatio opens the breaker once reached within the window.
	FailureRatio float64 `envconfig:"CB_FAILURE_RATIO" default:"0.5"`
	// OpenTimeout is how long the breaker rejects calls before trying again.
	OpenTimeout time.Duration `envconfig:"CB_OPEN_TIMEOUT" default:"30s"`
	// RecoveryCalls successful trial calls in half-open close the breaker.
	RecoveryCalls int `envconfig:"CB_RECOVERY_CALLS" default:"3"`
}

type circuitBreaker struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state    State
	openedAt time.Time
	// failures is a ring buffer over the last cfg.Window calls.
	failures  []bool
	pos       int
	successes int

	// trialInFlight is set while a half-open trial call is in flight.
	trialInFlight bool
}

func New(cfg Config) CircuitBreaker {
	return newBreaker(cfg, time.Now)
}

func newBreaker(cfg Config, now func() time.Time) *circuitBreaker {
	if cfg.Window <= 0 {
		cfg.Window = 1
	}
	return &circuitBreaker{
		cfg:      cfg,
		now:      now,
		state:    Closed,
		failures: make([]bool, cfg.Window),
	}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == Open {
		if cb.now().Sub(cb.openedAt) <= cb.cfg.OpenTimeout {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = HalfOpen
		cb.successes = 0
	}
	trial := cb.state == HalfOpen
	if trial {
		if cb.trialInFlight {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.trialInFlight = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if trial {
		cb.trialInFlight = false
	}

	cb.failures[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % len(cb.failures)

	if cb.state == HalfOpen {
		if err != nil {
			cb.trip()
			return err
		}
		cb.successes++
		if cb.successes >= cb.cfg.RecoveryCalls {
			cb.reset()
		}
		return nil
	}

	failed := 0
	for _, f := range cb.failures {
		if f {
			failed++
		}
	}
	if float64(failed)/float64(len(cb.failures)) >= cb.cfg.FailureRatio {
		cb.trip()
	}
	return err
}

func (cb *circuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successes = 0
	cb.openedAt = cb.now()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.failures {
		cb.failures[i] = false
	}
	cb.pos = 0
	cb.successes = 0
	cb.trialInFlight = false
	cb.state = Closed
}

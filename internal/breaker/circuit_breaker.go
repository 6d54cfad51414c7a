// Package breaker adapts the teacher's MNO connector circuit breaker to a
// per-phase guard over the gammu-json subprocess: after enough consecutive
// subprocess failures in one phase (receive/delete/transmit), that phase is
// skipped for a cool-down window instead of re-spawning a wedged helper
// binary on every tick.
package breaker

import (
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
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

// Config tunes a Breaker's thresholds.
type Config struct {
	FailureThreshold int // consecutive failures before opening
	Timeout          time.Duration
	Logger           *slog.Logger
	Phase            string
}

// Breaker is a minimal closed/open/half-open circuit breaker guarding one
// poll phase's subprocess calls.
type Breaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	lastStateChange time.Time
	cfg             Config
}

// New creates a Breaker, filling unset Config fields with defaults.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Breaker{state: Closed, cfg: cfg, lastStateChange: time.Now()}
}

func (b *Breaker) logTransition(from, to State) {
	if b.cfg.Logger == nil {
		return
	}
	b.cfg.Logger.Info("phase circuit breaker state change",
		slog.String("phase", b.cfg.Phase),
		slog.String("from_state", from.String()),
		slog.String("to_state", to.String()),
		slog.Int("failure_count", b.failureCount),
	)
}

// Allow reports whether the phase may run this tick.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed, HalfOpen:
		return true
	case Open:
		if time.Since(b.lastStateChange) >= b.cfg.Timeout {
			prev := b.state
			b.state = HalfOpen
			b.lastStateChange = time.Now()
			b.logTransition(prev, b.state)
			return true
		}
		return false
	}
	return true
}

// RecordSuccess closes the breaker and resets the failure streak.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Closed {
		prev := b.state
		b.state = Closed
		b.logTransition(prev, b.state)
	}
	b.failureCount = 0
}

// RecordFailure tallies a failure, opening the breaker once the threshold
// is reached (or immediately, from half-open).
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case HalfOpen:
		prev := b.state
		b.state = Open
		b.failureCount = 0
		b.lastStateChange = time.Now()
		b.logTransition(prev, b.state)
	case Closed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			prev := b.state
			b.state = Open
			b.lastStateChange = time.Now()
			b.logTransition(prev, b.state)
		}
	}
}

// State returns the current state for tests/introspection.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aegisgw/smsgateway/internal/breaker"
	"github.com/aegisgw/smsgateway/logging"
)

// Scheduler drives the Core through receive -> delete -> transmit on a
// fixed interval (§4.2), rescheduling from the completion of one tick
// rather than a fixed wall-clock ticker, and guarding each phase with its
// own circuit breaker against a wedged gammu-json binary.
type Scheduler struct {
	Core     *Core
	Interval time.Duration

	receiveBreaker  *breaker.Breaker
	deleteBreaker   *breaker.Breaker
	transmitBreaker *breaker.Breaker

	polling atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
}

// NewScheduler wires a Scheduler around core, one breaker per phase.
func NewScheduler(core *Core, interval time.Duration) *Scheduler {
	return &Scheduler{
		Core:            core,
		Interval:        interval,
		receiveBreaker:  breaker.New(breaker.Config{Logger: core.Logger, Phase: "receive"}),
		deleteBreaker:   breaker.New(breaker.Config{Logger: core.Logger, Phase: "delete"}),
		transmitBreaker: breaker.New(breaker.Config{Logger: core.Logger, Phase: "transmit"}),
	}
}

// IsPolling reports whether the scheduler loop is currently running.
func (s *Scheduler) IsPolling() bool {
	return s.polling.Load()
}

// Start begins polling. A second call while already polling is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.polling.Load() {
		return
	}
	s.polling.Store(true)
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.loop(ctx)
}

// Stop flips is_polling false. The in-flight tick, if any, finishes; no
// further ticks are scheduled. Stop blocks until the loop has exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.polling.Load() {
		s.mu.Unlock()
		return
	}
	s.polling.Store(false)
	stopCh := s.stopCh
	doneCh := s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.doneCh)

	for {
		s.tick(ctx)

		if !s.polling.Load() {
			return
		}

		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(s.Interval):
		}
	}
}

// tick runs the three phases in strict order, isolating each phase's error
// into a global error event so one phase's failure never blocks the next.
func (s *Scheduler) tick(ctx context.Context) {
	tickID := uuid.NewString()
	ctx = logging.WithTickID(ctx, tickID)

	s.runPhase(ctx, s.receiveBreaker, func(ctx context.Context) error {
		_, err := s.Core.RunReceive(ctx)
		return err
	})

	s.runPhase(ctx, s.deleteBreaker, func(ctx context.Context) error {
		_, err := s.Core.RunDelete(ctx)
		return err
	})

	s.runPhase(ctx, s.transmitBreaker, func(ctx context.Context) error {
		_, err := s.Core.RunTransmit(ctx)
		return err
	})
}

var errCircuitOpen = errors.New("circuit open, skipping phase")

func (s *Scheduler) runPhase(ctx context.Context, b *breaker.Breaker, fn func(context.Context) error) {
	if !b.Allow() {
		s.Core.Registry.EmitError(errCircuitOpen, nil)
		return
	}
	if err := fn(ctx); err != nil {
		b.RecordFailure()
		s.Core.Registry.EmitError(err, nil)
		return
	}
	b.RecordSuccess()
}

// Package pipeline implements the three poll-cycle phases (§4.3–§4.5) and
// the scheduler that drives them (§4.2), operating on the shared Core
// state described in spec §3.
package pipeline

import (
	"log/slog"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/aegisgw/smsgateway/internal/dispatch"
	"github.com/aegisgw/smsgateway/internal/store"
	"github.com/aegisgw/smsgateway/internal/subprocess"
	"github.com/aegisgw/smsgateway/message"
)

// Config tunes the pipeline's batch sizes and retry limit. Field meanings
// match the Embedder API options in spec §6.
type Config struct {
	TransmitBatchSize   int
	DeleteBatchSize     int
	MaxTransmitAttempts int
}

// Core holds the queues, indices, and collaborators every phase shares, the
// same role the teacher's sms.Processor plays for its worker loops.
type Core struct {
	mu            sync.Mutex
	InboundQueue  []*message.Message
	OutboundQueue []*message.OutboundItem
	DeletionIndex cmap.ConcurrentMap[string, *message.Message]

	Runner   subprocess.Runner
	Registry *dispatch.Registry
	Default  *store.Memory
	Cfg      Config
	Logger   *slog.Logger
}

// NewCore wires a Core from its collaborators.
func NewCore(runner subprocess.Runner, registry *dispatch.Registry, cfg Config, logger *slog.Logger) *Core {
	if logger == nil {
		logger = slog.Default()
	}
	return &Core{
		DeletionIndex: cmap.New[*message.Message](),
		Runner:        runner,
		Registry:      registry,
		Default:       store.NewMemory(),
		Cfg:           cfg,
		Logger:        logger,
	}
}

// Enqueue appends item to the tail of the outbound queue. Safe to call at
// any time, concurrently with a running Transmit phase (§5).
func (c *Core) Enqueue(item *message.OutboundItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.OutboundQueue = append(c.OutboundQueue, item)
}

// OutboundLen reports the current outbound queue length (tests/introspection).
func (c *Core) OutboundLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.OutboundQueue)
}

// receiveSegmentHandler returns the embedder's handler, or the in-memory
// default's method value when none is registered.
func (c *Core) receiveSegmentHandler() func(seg message.Segment) (bool, error) {
	if h, ok := c.Registry.ReceiveSegment(); ok {
		return func(seg message.Segment) (bool, error) {
			resultCh := make(chan struct {
				err error
			}, 1)
			h(seg, func(err error) { resultCh <- struct{ err error }{err} })
			res := <-resultCh
			return res.err == nil, res.err
		}
	}
	return c.Default.ReceiveSegment
}

// returnSegmentsHandler returns the embedder's handler, or the in-memory
// default's method value when none is registered.
func (c *Core) returnSegmentsHandler() func(id string) ([]message.Segment, error) {
	if h, ok := c.Registry.ReturnSegments(); ok {
		return func(id string) ([]message.Segment, error) {
			type res struct {
				segs []message.Segment
				err  error
			}
			resultCh := make(chan res, 1)
			h(id, func(err error, segs []message.Segment) { resultCh <- res{segs, err} })
			r := <-resultCh
			return r.segs, r.err
		}
	}
	return c.Default.ReturnSegments
}

// releaseSegments dispatches release_segments(id) to the embedder's handler
// if one is registered, falling back to the in-memory default's own
// eviction so the built-in segment_cache never grows unbounded when no
// embedder store is wired, symmetric with receiveSegmentHandler and
// returnSegmentsHandler above.
func (c *Core) releaseSegments(id string) {
	if id == "" {
		return
	}
	if h, ok := c.Registry.ReleaseSegments(); ok {
		h(id)
		return
	}
	_ = c.Default.ReleaseSegments(id)
}

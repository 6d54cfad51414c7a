// Package gateway is the public API of the SMS gateway core: it drives the
// gammu-json helper through a three-phase poll cycle, reassembles
// multi-part messages, and dispatches lifecycle events to handlers the
// embedder registers (§6).
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aegisgw/smsgateway/internal/dispatch"
	"github.com/aegisgw/smsgateway/internal/pipeline"
	"github.com/aegisgw/smsgateway/internal/subprocess"
	"github.com/aegisgw/smsgateway/logging"
	"github.com/aegisgw/smsgateway/message"
)

// Gateway is one instance of the polling core, bound to one modem via one
// gammu-json subprocess path. Create with New; each Gateway owns its own
// queues, indices, and handler table (§5 "global mutable instance state").
type Gateway struct {
	core      *pipeline.Core
	scheduler *pipeline.Scheduler
	logger    *slog.Logger
}

// New constructs a Gateway from opts, filling unset fields with their
// documented defaults. It does not start polling; call Start for that.
func New(opts Options) (*Gateway, error) {
	opts = opts.withDefaults()

	logger := opts.Logger
	if logger == nil {
		handler := logging.NewContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: levelFor(opts.Debug),
		}))
		logger = slog.New(handler)
	}

	env := os.Environ()
	if opts.Prefix != "" {
		env = append(env, "PATH="+opts.Prefix+"/bin"+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	runner := subprocess.NewExecRunner(opts.GammuJSONPath, env)

	registry := dispatch.New()

	core := pipeline.NewCore(runner, registry, pipeline.Config{
		TransmitBatchSize:   opts.TransmitBatchSize,
		DeleteBatchSize:     opts.DeleteBatchSize,
		MaxTransmitAttempts: opts.MaxTransmitAttempts,
	}, logger)

	if opts.Store != nil {
		if err := wireStore(registry, opts.Store); err != nil {
			return nil, err
		}
	}

	return &Gateway{
		core:      core,
		scheduler: pipeline.NewScheduler(core, opts.Interval),
		logger:    logger,
	}, nil
}

func levelFor(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// wireStore bridges an embedder-supplied Store into the three
// segment-persistence handlers, so opts.Store is equivalent to registering
// receive_segment/return_segments/release_segments by hand.
func wireStore(registry *dispatch.Registry, store message.Store) error {
	receiveSegment := message.ReceiveSegmentHandler(func(seg message.Segment, cb func(err error)) {
		_, err := store.ReceiveSegment(seg)
		cb(err)
	})
	if err := registry.Register(message.EventReceiveSegment, receiveSegment); err != nil {
		return err
	}

	returnSegments := message.ReturnSegmentsHandler(func(id string, cb func(err error, segs []message.Segment)) {
		segs, err := store.ReturnSegments(id)
		cb(err, segs)
	})
	if err := registry.Register(message.EventReturnSegments, returnSegments); err != nil {
		return err
	}

	releaseSegments := message.ReleaseSegmentsHandler(func(id string) {
		_ = store.ReleaseSegments(id)
	})
	return registry.Register(message.EventReleaseSegments, releaseSegments)
}

// Start begins polling (§4.2). Calling Start while already polling is a
// no-op.
func (g *Gateway) Start(ctx context.Context) {
	g.scheduler.Start(ctx)
}

// Stop stops polling after the current cycle finishes (§4.2, §5
// cancellation). It blocks until the in-flight tick, if any, has returned.
func (g *Gateway) Stop() {
	g.scheduler.Stop()
}

// IsPolling reports whether the poll loop is currently running.
func (g *Gateway) IsPolling() bool {
	return g.scheduler.IsPolling()
}

// Send enqueues an outbound message for the next Transmit phase (§6). to
// must be non-empty (a blank or whitespace-only to is rejected); content is
// not checked. cb, if non-nil, fires exactly once with the final outcome.
func (g *Gateway) Send(to, content string, cb message.OutboundCallback) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("gateway: Send: to must not be empty")
	}
	g.logger.Debug("queuing outbound message", slog.String("to", to))
	g.core.Enqueue(&message.OutboundItem{To: to, Content: content, Callback: cb})
	return nil
}

// On registers handler for event. event must be one of the six names in
// §4.7 and handler must match that event's documented signature.
func (g *Gateway) On(event string, handler any) error {
	return g.core.Registry.Register(event, handler)
}

// OnMap registers every (event, handler) pair in handlers. It returns the
// first registration error encountered, leaving prior registrations in
// handlers in place.
func (g *Gateway) OnMap(handlers map[string]any) error {
	for event, handler := range handlers {
		if err := g.core.Registry.Register(event, handler); err != nil {
			return err
		}
	}
	return nil
}

// OutboundLen reports the current outbound queue length (introspection/tests).
func (g *Gateway) OutboundLen() int {
	return g.core.OutboundLen()
}

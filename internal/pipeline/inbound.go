package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/aegisgw/smsgateway/internal/reassembly"
	"github.com/aegisgw/smsgateway/logging"
	"github.com/aegisgw/smsgateway/message"
)

// recordOutcome is the per-record result of the concurrent fan-out stage,
// joined back sequentially before any shared-state mutation (§5).
type recordOutcome struct {
	seg          message.Segment
	transformErr error
	shouldDelete bool
	storeErr     error
	peers        []message.Segment
	peersErr     error
}

// RunReceive implements §4.3: retrieve, transform, route, reassemble,
// stage deletions, and deliver completed messages to the embedder.
func (c *Core) RunReceive(ctx context.Context) (int, error) {
	ctx = logging.WithPhase(ctx, "receive")

	raw, err := c.Runner.Run(ctx, []string{"retrieve"})
	if err != nil {
		return 0, err
	}

	records, err := unmarshalRecords(raw)
	if err != nil {
		return 0, &message.SubprocessParse{Cause: err, Args: []string{"retrieve"}}
	}
	if len(records) == 0 {
		return 0, nil
	}

	outcomes := make([]recordOutcome, len(records))
	receiveSeg := c.receiveSegmentHandler()
	returnSegs := c.returnSegmentsHandler()

	g, _ := errgroup.WithContext(ctx)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			seg, terr := transform(rec)
			if terr != nil {
				outcomes[i] = recordOutcome{transformErr: terr}
				return nil
			}
			out := recordOutcome{seg: seg}
			if seg.IsMultipart() {
				shouldDelete, serr := receiveSeg(seg)
				out.shouldDelete = shouldDelete
				out.storeErr = serr
				peers, perr := returnSegs(seg.ID)
				out.peers = peers
				out.peersErr = perr
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait() // per-record errors are captured in outcomes, not propagated

	// Sequential merge: shared-state updates (queues, indices) are
	// serialized here, after the fan-out has fully joined.
	perPollIndex := make(map[int]*message.Message) // location -> composite delivered earlier this poll
	delivered := 0

	for _, out := range outcomes {
		if out.transformErr != nil {
			c.Registry.EmitError(&message.ReceiveError{Message: out.transformErr.Error()}, nil)
			continue
		}
		seg := out.seg

		if !seg.IsMultipart() {
			c.InboundQueue = append(c.InboundQueue, &message.Message{
				From:          seg.From,
				Content:       seg.Content,
				Timestamp:     seg.Timestamp,
				SMSCTimestamp: seg.SMSCTimestamp,
				HasSMSC:       seg.HasSMSC,
				Locations:     []int{seg.Location},
			})
			delivered++
			continue
		}

		if _, covered := perPollIndex[seg.Location]; covered {
			continue
		}

		if out.storeErr != nil {
			c.Registry.EmitError(&message.ReceiveError{Message: fmt.Sprintf("receive_segment: %v", out.storeErr)}, nil)
		}
		if out.peersErr != nil {
			c.Registry.EmitError(&message.ReceiveError{Message: fmt.Sprintf("return_segments: %v", out.peersErr)}, nil)
		}

		if out.shouldDelete {
			locKey := strconv.Itoa(seg.Location)
			c.DeletionIndex.Set(locKey, &message.Message{Locations: []int{seg.Location}})
		}

		composite, complete, rerr := reassembly.Reassemble(seg, out.peers)
		if rerr != nil {
			c.Registry.EmitError(&message.ReceiveError{Message: rerr.Error()}, nil)
			continue
		}
		if !complete {
			continue
		}

		c.InboundQueue = append(c.InboundQueue, composite)
		for _, loc := range composite.Locations {
			perPollIndex[loc] = composite
		}
		delivered++
	}

	c.deliverIncoming(ctx)
	return delivered, nil
}

// deliverIncoming drains InboundQueue, invoking the receive handler for
// each message and scheduling deletions on success (§4.3 "deliver_incoming").
func (c *Core) deliverIncoming(ctx context.Context) {
	queue := c.InboundQueue
	c.InboundQueue = nil

	handler, ok := c.Registry.Receive()
	if !ok {
		if len(queue) > 0 {
			c.Registry.EmitError(&message.HandlerMissing{Event: message.EventReceive}, nil)
		}
		return
	}

	for _, msg := range queue {
		msg := msg
		done := make(chan error, 1)
		handler(msg, func(err error) { done <- err })
		err := <-done
		if err != nil {
			// Refusal: retained for the next poll, no event emitted.
			continue
		}
		for _, loc := range msg.Locations {
			locKey := strconv.Itoa(loc)
			c.DeletionIndex.Set(locKey, msg)
		}
		if msg.IsComposite() {
			c.releaseSegments(msg.ID)
		}
	}
}

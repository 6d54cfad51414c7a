package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/aegisgw/smsgateway/logging"
	"github.com/aegisgw/smsgateway/message"
)

// RunTransmit implements §4.4: batch construction, `send`, per-result
// success/retry/abandon handling, and order-preserving queue rebuild.
func (c *Core) RunTransmit(ctx context.Context) (int, error) {
	ctx = logging.WithPhase(ctx, "transmit")

	c.mu.Lock()
	if len(c.OutboundQueue) == 0 {
		c.mu.Unlock()
		return 0, nil
	}
	batchCap := c.Cfg.TransmitBatchSize - 1
	if batchCap < 1 {
		batchCap = 1
	}
	n := min(batchCap, len(c.OutboundQueue))
	batch := make([]*message.OutboundItem, n)
	copy(batch, c.OutboundQueue[:n])
	c.mu.Unlock()

	args := make([]string, 0, 1+2*len(batch))
	args = append(args, "send")
	for _, item := range batch {
		args = append(args, item.To, item.Content)
	}

	raw, err := c.Runner.Run(ctx, args)
	if err != nil {
		return 0, err
	}
	var results []sendResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return 0, &message.SubprocessParse{Cause: err, Args: args}
	}

	type outcome struct {
		item    *message.OutboundItem
		done    bool // remove from queue (sent or abandoned)
		success bool
		result  string
	}
	outcomes := make([]outcome, len(results))

	g, _ := errgroup.WithContext(ctx)
	for i, res := range results {
		i, res := i, res
		g.Go(func() error {
			idx := res.Index - 1
			if idx < 0 || idx >= len(batch) {
				return nil
			}
			item := batch[idx]
			if res.Result == "success" {
				outcomes[i] = outcome{item: item, done: true, success: true, result: res.Result}
				return nil
			}
			item.TxAttempts++
			limit := c.Cfg.MaxTransmitAttempts
			exhausted := limit != 0 && item.TxAttempts >= limit
			outcomes[i] = outcome{item: item, done: exhausted, success: false, result: res.Result}
			return nil
		})
	}
	_ = g.Wait()

	abandon := make(map[*message.OutboundItem]bool, len(outcomes))
	transmitted := 0
	for _, out := range outcomes {
		if out.item == nil {
			continue
		}
		switch {
		case out.success:
			transmitHandler, ok := c.Registry.Transmit()
			if ok {
				transmitHandler(out.item, out.result)
			}
			if out.item.Callback != nil {
				out.item.Callback(nil, out.item, out.result)
			}
			c.releaseSegments(out.item.ID)
			abandon[out.item] = true
			transmitted++
		case out.done:
			txErr := &message.TransmitError{
				Message: fmt.Sprintf("transmit failed after %d attempts: %s", out.item.TxAttempts, out.result),
			}
			c.Registry.EmitError(txErr, nil)
			if out.item.Callback != nil {
				out.item.Callback(txErr, out.item, out.result)
			}
			abandon[out.item] = true
		default:
			// retained for the next cycle
		}
	}

	c.mu.Lock()
	c.OutboundQueue = slices.DeleteFunc(c.OutboundQueue, func(it *message.OutboundItem) bool {
		return abandon[it]
	})
	c.mu.Unlock()

	return transmitted, nil
}

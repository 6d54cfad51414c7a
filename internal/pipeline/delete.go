package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aegisgw/smsgateway/logging"
	"github.com/aegisgw/smsgateway/message"
)

// RunDelete implements §4.5: drain up to delete_batch_size-1 locations from
// the deletion index and ask gammu-json to remove them from the modem.
func (c *Core) RunDelete(ctx context.Context) (int, error) {
	ctx = logging.WithPhase(ctx, "delete")

	keys := c.DeletionIndex.Keys()
	if len(keys) == 0 {
		return 0, nil
	}

	batchCap := c.Cfg.DeleteBatchSize - 1
	if batchCap < 1 {
		batchCap = 1
	}
	if len(keys) > batchCap {
		keys = keys[:batchCap]
	}

	args := make([]string, 0, 1+len(keys))
	args = append(args, "delete")
	args = append(args, keys...)

	raw, err := c.Runner.Run(ctx, args)
	if err != nil {
		return 0, err
	}
	var resp deleteResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, &message.SubprocessParse{Cause: err, Args: args}
	}

	deleted := 0
	for _, key := range keys {
		verdict, present := resp.Detail[key]
		if !present || verdict != "ok" {
			// Retained for the next poll; no event, this is routine.
			c.Logger.DebugContext(ctx, "location not deleted, retaining",
				slog.String("location", key), slog.String("verdict", verdict))
			continue
		}
		c.DeletionIndex.Remove(key)
		deleted++
	}

	return deleted, nil
}

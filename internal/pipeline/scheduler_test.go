package pipeline

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisgw/smsgateway/message"
)

// countingRunner counts Run calls per argv[0] verb, useful for asserting
// phase ordering/count without depending on real gammu-json.
type countingRunner struct {
	retrieve atomic.Int32
	del      atomic.Int32
	send     atomic.Int32
}

func (c *countingRunner) Run(_ context.Context, args []string) (json.RawMessage, error) {
	switch args[0] {
	case "retrieve":
		c.retrieve.Add(1)
		return json.RawMessage(`[]`), nil
	case "delete":
		c.del.Add(1)
		return json.RawMessage(`{"detail":{}}`), nil
	case "send":
		c.send.Add(1)
		return json.RawMessage(`[]`), nil
	}
	return json.RawMessage(`null`), nil
}

func TestSchedulerRunsAllThreePhasesPerTick(t *testing.T) {
	runner := &countingRunner{}
	core := newTestCore(nil, Config{TransmitBatchSize: 64, DeleteBatchSize: 1024})
	core.Runner = runner
	// Delete and transmit only spawn the helper when they have work, so seed
	// one pending location and one outbound item.
	core.DeletionIndex.Set("1", &message.Message{})
	core.Enqueue(&message.OutboundItem{To: "+1", Content: "x"})
	sched := NewScheduler(core, 20*time.Millisecond)

	sched.tick(context.Background())

	assert.Equal(t, int32(1), runner.retrieve.Load())
	assert.Equal(t, int32(1), runner.del.Load())
	assert.Equal(t, int32(1), runner.send.Load())
}

func TestSchedulerStartStop(t *testing.T) {
	runner := &countingRunner{}
	core := newTestCore(nil, Config{TransmitBatchSize: 64, DeleteBatchSize: 1024})
	core.Runner = runner
	sched := NewScheduler(core, 5*time.Millisecond)

	sched.Start(context.Background())
	assert.True(t, sched.IsPolling())

	require.Eventually(t, func() bool {
		return runner.retrieve.Load() >= 2
	}, time.Second, 5*time.Millisecond, "scheduler must keep rescheduling ticks")

	sched.Stop()
	assert.False(t, sched.IsPolling())

	seenAtStop := runner.retrieve.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seenAtStop, runner.retrieve.Load(), "no tick may run after Stop returns")
}

func TestSchedulerStartTwiceIsNoop(t *testing.T) {
	runner := &countingRunner{}
	core := newTestCore(nil, Config{TransmitBatchSize: 64, DeleteBatchSize: 1024})
	core.Runner = runner
	sched := NewScheduler(core, time.Second)

	sched.Start(context.Background())
	sched.Start(context.Background())
	sched.Stop()
}

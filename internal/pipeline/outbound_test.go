package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisgw/smsgateway/internal/dispatch"
	"github.com/aegisgw/smsgateway/message"
)

// fakeRunner returns a canned response regardless of args, and records the
// args it was last called with for assertions.
type fakeRunner struct {
	response json.RawMessage
	err      error
	lastArgs []string
}

func (f *fakeRunner) Run(_ context.Context, args []string) (json.RawMessage, error) {
	f.lastArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func newTestCore(runner *fakeRunner, cfg Config) *Core {
	return NewCore(runner, dispatch.New(), cfg, nil)
}

func TestRunTransmitSuccessDrainsQueue(t *testing.T) {
	runner := &fakeRunner{response: json.RawMessage(`[{"index":1,"result":"success"}]`)}
	core := newTestCore(runner, Config{TransmitBatchSize: 64, MaxTransmitAttempts: 2})

	var cbErr error
	var cbResult string
	core.Enqueue(&message.OutboundItem{To: "+1", Content: "hi", Callback: func(err error, _ *message.OutboundItem, result string) {
		cbErr = err
		cbResult = result
	}})

	n, err := core.RunTransmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, core.OutboundLen())
	assert.NoError(t, cbErr)
	assert.Equal(t, "success", cbResult)
	assert.Equal(t, []string{"send", "+1", "hi"}, runner.lastArgs)
}

func TestRunTransmitRetriesUnderLimit(t *testing.T) {
	runner := &fakeRunner{response: json.RawMessage(`[{"index":1,"result":"failure"}]`)}
	core := newTestCore(runner, Config{TransmitBatchSize: 64, MaxTransmitAttempts: 2})

	core.Enqueue(&message.OutboundItem{To: "+1", Content: "hi"})

	n, err := core.RunTransmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	require.Equal(t, 1, core.OutboundLen(), "item must survive a failure under the retry limit")
}

func TestRunTransmitAbandonsAtRetryLimit(t *testing.T) {
	runner := &fakeRunner{response: json.RawMessage(`[{"index":1,"result":"failure"}]`)}
	core := newTestCore(runner, Config{TransmitBatchSize: 64, MaxTransmitAttempts: 2})

	var gotErr error
	core.Enqueue(&message.OutboundItem{To: "+1", Content: "hi", TxAttempts: 1, Callback: func(err error, _ *message.OutboundItem, _ string) {
		gotErr = err
	}})

	_, err := core.RunTransmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, core.OutboundLen())
	require.Error(t, gotErr)
	var txErr *message.TransmitError
	assert.ErrorAs(t, gotErr, &txErr)
}

func TestRunTransmitEmptyQueueNoop(t *testing.T) {
	runner := &fakeRunner{}
	core := newTestCore(runner, Config{TransmitBatchSize: 64, MaxTransmitAttempts: 2})

	n, err := core.RunTransmit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Nil(t, runner.lastArgs)
}

package dispatch

import (
	"testing"

	"github.com/aegisgw/smsgateway/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUnknownEvent(t *testing.T) {
	r := New()
	err := r.Register("bogus", message.ReceiveHandler(func(*message.Message, message.Callback) {}))
	require.Error(t, err)
}

func TestRegisterWrongType(t *testing.T) {
	r := New()
	err := r.Register(message.EventReceive, func() {})
	require.Error(t, err)
}

func TestRegisterAndDispatch(t *testing.T) {
	r := New()
	called := false
	require.NoError(t, r.Register(message.EventReceive, message.ReceiveHandler(func(*message.Message, message.Callback) {
		called = true
	})))

	h, ok := r.Receive()
	require.True(t, ok)
	h(&message.Message{}, func(error) {})
	assert.True(t, called)
}

func TestEmitErrorNoopWithoutHandler(t *testing.T) {
	r := New()
	// Must not panic when no error handler is registered.
	r.EmitError(&message.ReceiveError{Message: "x"}, nil)
}

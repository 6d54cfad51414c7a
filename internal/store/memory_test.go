package store

import (
	"testing"

	"github.com/aegisgw/smsgateway/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemory()

	shouldDelete, err := m.ReceiveSegment(message.Segment{ID: "+1-7-2", SegmentNum: 1})
	require.NoError(t, err)
	assert.False(t, shouldDelete)

	_, err = m.ReceiveSegment(message.Segment{ID: "+1-7-2", SegmentNum: 2})
	require.NoError(t, err)

	segs, err := m.ReturnSegments("+1-7-2")
	require.NoError(t, err)
	assert.Len(t, segs, 2)

	require.NoError(t, m.ReleaseSegments("+1-7-2"))

	segs, err = m.ReturnSegments("+1-7-2")
	require.NoError(t, err)
	assert.Empty(t, segs, "ReleaseSegments must evict, not merely mark released")
}

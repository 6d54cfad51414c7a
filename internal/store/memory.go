// Package store provides the built-in in-memory Segment Store used when an
// embedder registers no receive_segment/return_segments handlers.
package store

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/aegisgw/smsgateway/message"
)

// Memory is the default Store: segments are held in a concurrent map keyed
// by composite id, never persisted, and evicted on ReleaseSegments. This
// resolves spec.md §9's open question in favor of eviction rather than
// unbounded growth.
type Memory struct {
	segments cmap.ConcurrentMap[string, []message.Segment]
}

// NewMemory creates an empty in-memory segment store.
func NewMemory() *Memory {
	return &Memory{segments: cmap.New[[]message.Segment]()}
}

// ReceiveSegment appends seg to the cache for its id. The built-in default
// never reports should_delete=true: segments stay on the modem until their
// composite is delivered and the deletion phase schedules them.
func (m *Memory) ReceiveSegment(seg message.Segment) (bool, error) {
	m.segments.Upsert(seg.ID, nil, func(exists bool, prior, _ []message.Segment) []message.Segment {
		if !exists {
			return []message.Segment{seg}
		}
		return append(prior, seg)
	})
	return false, nil
}

// ReturnSegments returns every segment cached under id.
func (m *Memory) ReturnSegments(id string) ([]message.Segment, error) {
	segs, _ := m.segments.Get(id)
	out := make([]message.Segment, len(segs))
	copy(out, segs)
	return out, nil
}

// ReleaseSegments evicts the cache entry for id.
func (m *Memory) ReleaseSegments(id string) error {
	m.segments.Remove(id)
	return nil
}

var _ message.Store = (*Memory)(nil)

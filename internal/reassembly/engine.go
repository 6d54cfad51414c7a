// Package reassembly implements the per-message reassembly algorithm (§4.6):
// given a trigger segment and a set of peer segments, it deduplicates by
// segment number — newest timestamp wins — and materializes a composite
// message once every part is present.
//
// The shape follows a classic pending-fragment reassembler (compare
// kabili207-meshcore-go's Reassembler.HandleFragment): a slot index keyed by
// sequence number, filled from whatever candidates are offered, collapsed
// into one value once complete.
package reassembly

import (
	"github.com/aegisgw/smsgateway/message"
)

// Reassemble attempts to complete the composite trigger belongs to, using
// peers as previously-seen candidates. It returns the composite and true
// when all total_segments parts are present; (nil, false, nil) when more
// parts are still outstanding; and a non-nil error only on a structural
// inconsistency while materializing an otherwise-complete set.
func Reassemble(trigger message.Segment, peers []message.Segment) (*message.Message, bool, error) {
	slots := make(map[int]message.Segment, trigger.TotalSegments)

	insert := func(cand message.Segment) {
		if cand.ID != trigger.ID {
			return
		}
		if cand.SegmentNum < 1 || cand.SegmentNum > trigger.TotalSegments {
			return
		}
		if cand.TotalSegments != trigger.TotalSegments {
			return
		}
		existing, ok := slots[cand.SegmentNum]
		if !ok || !existing.Timestamp.After(cand.Timestamp) {
			// No prior occupant, or the candidate is the same age or newer:
			// newer (or equal) wins the slot. Trigger is inserted last so it
			// wins ties against an equally-timestamped peer.
			slots[cand.SegmentNum] = cand
		}
	}

	for _, p := range peers {
		insert(p)
	}
	insert(trigger)

	if len(slots) != trigger.TotalSegments {
		return nil, false, nil
	}

	return materialize(trigger.TotalSegments, slots)
}

func materialize(total int, slots map[int]message.Segment) (*message.Message, bool, error) {
	first, ok := slots[1]
	if !ok {
		return nil, false, &message.ReassemblyError{Cause: "missing first entry"}
	}

	composite := &message.Message{
		ID:            first.ID,
		From:          first.From,
		Content:       first.Content,
		Timestamp:     first.Timestamp,
		SMSCTimestamp: first.SMSCTimestamp,
		HasSMSC:       first.HasSMSC,
		Locations:     []int{first.Location},
		Parts:         []message.Segment{first},
	}

	for i := 2; i <= total; i++ {
		seg, ok := slots[i]
		if !ok {
			return nil, false, &message.ReassemblyError{Cause: "missing entry"}
		}
		composite.Content += seg.Content
		composite.Parts = append(composite.Parts, seg)
		composite.Locations = append(composite.Locations, seg.Location)
		if seg.Timestamp.After(composite.Timestamp) {
			composite.Timestamp = seg.Timestamp
		}
		if seg.HasSMSC && (!composite.HasSMSC || seg.SMSCTimestamp.After(composite.SMSCTimestamp)) {
			composite.SMSCTimestamp = seg.SMSCTimestamp
			composite.HasSMSC = true
		}
	}

	return composite, true, nil
}

// Package message holds the data model shared between the gateway core and
// the embedder: messages, segments, outbound items, and the Store interface
// an embedder may implement for durable segment persistence.
package message

import "time"

// Segment is one record as returned by `gammu-json retrieve`, plus the
// fields the core derives from it.
type Segment struct {
	Location      int
	From          string
	Content       string
	UDH           int
	SegmentNum    int
	TotalSegments int
	Timestamp     time.Time
	SMSCTimestamp time.Time
	HasSMSC       bool

	// ID is the composite dedup/reassembly key for multi-part segments,
	// "<from>-<udh>-<total_segments>". Empty for single-part records.
	ID string
}

// IsMultipart reports whether this record belongs to a concatenated group.
func (s Segment) IsMultipart() bool { return s.TotalSegments > 1 }

// Message is a fully delivered record: either a single-part segment
// promoted as-is, or a composite assembled from every part of a group.
type Message struct {
	// ID is the composite id this message was reassembled from, or "" for
	// a single-part message.
	ID string

	From          string
	Content       string
	Timestamp     time.Time
	SMSCTimestamp time.Time
	HasSMSC       bool

	// Locations holds every modem storage slot this message occupies: one
	// entry for a single-part message, one per part for a composite.
	Locations []int

	// Parts holds the original segment records a composite was built from.
	// Empty for a single-part message.
	Parts []Segment
}

// IsComposite reports whether this message was reassembled from multiple
// segments.
func (m Message) IsComposite() bool { return m.ID != "" }

// Callback is invoked by the core once a handler-mediated step completes.
// A non-nil error signals refusal/failure for that step.
type Callback func(err error)

// OutboundCallback is the per-message completion callback supplied to
// Send(). It fires exactly once, on success or on final (retry-exhausted)
// failure.
type OutboundCallback func(err error, msg *OutboundItem, result string)

// OutboundItem is a queued outbound message awaiting transmission.
type OutboundItem struct {
	To         string
	Content    string
	TxAttempts int
	Callback   OutboundCallback

	// ID, when non-empty, identifies a composite outbound message whose
	// segment storage should be released via ReleaseSegments on success.
	ID string
}

// Store abstracts persistence for inbound multi-part segments. Embedders
// may implement this to durably persist segments across process restarts;
// the gateway falls back to an in-memory default when no Store-backed
// handlers are registered.
type Store interface {
	// ReceiveSegment durably persists seg. shouldDelete reports whether the
	// segment may now be deleted from the modem (true once persisted).
	ReceiveSegment(seg Segment) (shouldDelete bool, err error)

	// ReturnSegments returns every previously stored segment sharing id.
	ReturnSegments(id string) ([]Segment, error)

	// ReleaseSegments discards any stored parts for id; called once the
	// composite they form has been delivered successfully.
	ReleaseSegments(id string) error
}

// Event names recognized by the handler registry (§4.7). No others are
// legal to register.
const (
	EventReceive         = "receive"
	EventTransmit        = "transmit"
	EventError           = "error"
	EventReceiveSegment  = "receive_segment"
	EventReturnSegments  = "return_segments"
	EventReleaseSegments = "release_segments"
)

// ErrorScope classifies an error event by where it originated.
type ErrorScope string

const (
	ScopeGlobal   ErrorScope = "global"
	ScopeReceive  ErrorScope = "receive"
	ScopeTransmit ErrorScope = "transmit"
)

// ReceiveHandler is invoked once per terminal (single or reassembled)
// message; cb(err) controls whether the core deletes the message's
// locations from the modem.
type ReceiveHandler func(msg *Message, cb Callback)

// TransmitHandler is a fire-and-forget notification that msg has been sent.
type TransmitHandler func(msg *OutboundItem, result string)

// ErrorHandler receives any scoped error; msg is non-nil for receive/transmit
// scoped errors that have an associated message.
type ErrorHandler func(err error, msg *Message)

// ReceiveSegmentHandler durably persists one part; cb(err) signals
// persisted (nil) or not (non-nil).
type ReceiveSegmentHandler func(seg Segment, cb func(err error))

// ReturnSegmentsHandler returns all known segments for id.
type ReturnSegmentsHandler func(id string, cb func(err error, segs []Segment))

// ReleaseSegmentsHandler notifies the embedder it may discard stored parts
// for id.
type ReleaseSegmentsHandler func(id string)

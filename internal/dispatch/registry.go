// Package dispatch holds the handler table (§4.7): registration,
// validation of event names/types, and dispatch helpers the pipelines call
// into. It mirrors the teacher's habit of injecting one narrow interface
// per concern, generalized here into a name-keyed table because §4.7 needs
// several named callback slots on one object instead of one interface per
// collaborator.
package dispatch

import (
	"fmt"
	"sync"

	"github.com/aegisgw/smsgateway/message"
)

// Registry holds the registered event handlers.
type Registry struct {
	mu               sync.RWMutex
	receive          message.ReceiveHandler
	transmit         message.TransmitHandler
	errorHandler     message.ErrorHandler
	receiveSegment   message.ReceiveSegmentHandler
	returnSegments   message.ReturnSegmentsHandler
	releaseSegments  message.ReleaseSegmentsHandler
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register installs handler for the named event. It returns an error for an
// unrecognized event name or a value that does not match the expected
// callback signature.
func (r *Registry) Register(event string, handler any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event {
	case message.EventReceive:
		h, ok := handler.(message.ReceiveHandler)
		if !ok {
			return fmt.Errorf("handler for %q must be message.ReceiveHandler", event)
		}
		r.receive = h
	case message.EventTransmit:
		h, ok := handler.(message.TransmitHandler)
		if !ok {
			return fmt.Errorf("handler for %q must be message.TransmitHandler", event)
		}
		r.transmit = h
	case message.EventError:
		h, ok := handler.(message.ErrorHandler)
		if !ok {
			return fmt.Errorf("handler for %q must be message.ErrorHandler", event)
		}
		r.errorHandler = h
	case message.EventReceiveSegment:
		h, ok := handler.(message.ReceiveSegmentHandler)
		if !ok {
			return fmt.Errorf("handler for %q must be message.ReceiveSegmentHandler", event)
		}
		r.receiveSegment = h
	case message.EventReturnSegments:
		h, ok := handler.(message.ReturnSegmentsHandler)
		if !ok {
			return fmt.Errorf("handler for %q must be message.ReturnSegmentsHandler", event)
		}
		r.returnSegments = h
	case message.EventReleaseSegments:
		h, ok := handler.(message.ReleaseSegmentsHandler)
		if !ok {
			return fmt.Errorf("handler for %q must be message.ReleaseSegmentsHandler", event)
		}
		r.releaseSegments = h
	default:
		return fmt.Errorf("unrecognized event %q", event)
	}
	return nil
}

// Receive returns the registered receive handler, if any.
func (r *Registry) Receive() (message.ReceiveHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.receive, r.receive != nil
}

// Transmit returns the registered transmit handler, if any.
func (r *Registry) Transmit() (message.TransmitHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transmit, r.transmit != nil
}

// Error returns the registered error handler, if any.
func (r *Registry) Error() (message.ErrorHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.errorHandler, r.errorHandler != nil
}

// ReceiveSegment returns the registered receive_segment handler, if any.
func (r *Registry) ReceiveSegment() (message.ReceiveSegmentHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.receiveSegment, r.receiveSegment != nil
}

// ReturnSegments returns the registered return_segments handler, if any.
func (r *Registry) ReturnSegments() (message.ReturnSegmentsHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.returnSegments, r.returnSegments != nil
}

// ReleaseSegments returns the registered release_segments handler, if any.
func (r *Registry) ReleaseSegments() (message.ReleaseSegmentsHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.releaseSegments, r.releaseSegments != nil
}

// EmitError dispatches err (with optional associated msg) to the error
// handler, if one is registered; otherwise it silently no-ops, matching
// §4.7 ("Unhandled events silently no-op except receive ... and
// receive_segment/return_segments").
func (r *Registry) EmitError(err error, msg *message.Message) {
	if h, ok := r.Error(); ok {
		h(err, msg)
	}
}

package message

import "fmt"

// SubprocessExit reports a non-zero gammu-json exit status.
type SubprocessExit struct {
	Code int
	Args []string
}

func (e *SubprocessExit) Error() string {
	return fmt.Sprintf("gammu-json exited %d (args=%v)", e.Code, e.Args)
}

// SubprocessParse reports stdout that did not parse as JSON.
type SubprocessParse struct {
	Cause error
	Args  []string
}

func (e *SubprocessParse) Error() string {
	return fmt.Sprintf("gammu-json output did not parse as JSON (args=%v): %v", e.Args, e.Cause)
}

func (e *SubprocessParse) Unwrap() error { return e.Cause }

// ReceiveError is a per-record failure during transform or reassembly.
// Scope: receive.
type ReceiveError struct {
	Message string
}

func (e *ReceiveError) Error() string { return "receive: " + e.Message }

// TransmitError reports an outbound item that exhausted its retry limit.
// Scope: transmit.
type TransmitError struct {
	Message string
}

func (e *TransmitError) Error() string { return "transmit: " + e.Message }

// ReassemblyError reports a structural inconsistency while materializing a
// composite message.
type ReassemblyError struct {
	Cause string
}

func (e *ReassemblyError) Error() string { return "reassembly: " + e.Cause }

// HandlerMissing reports that the receive event fired with no handler
// registered. Scope: global.
type HandlerMissing struct {
	Event string
}

func (e *HandlerMissing) Error() string { return "no handler registered for event " + e.Event }

// Scope classifies err into one of the three event scopes, following the
// table-plus-default-fallback shape of an errormapper-style translation.
func Scope(err error) ErrorScope {
	switch err.(type) {
	case *ReceiveError:
		return ScopeReceive
	case *TransmitError:
		return ScopeTransmit
	default:
		return ScopeGlobal
	}
}

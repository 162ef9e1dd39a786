package session

import "fmt"

// NetworkError reports an unreachable controller, a dropped connection, or a
// receive timeout. The session is not usable afterwards; callers must build a
// new one, the library never reconnects on its own.
type NetworkError struct {
	Op  string // "connect", "receive", "send"
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("session: network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or out-of-order message from the
// controller. The session is not usable afterwards.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session: protocol violation: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("session: protocol violation: %s", e.Reason)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IncompatibleVersionError reports a handshake version mismatch. Fatal for
// this client/controller pair; there is nothing to retry.
type IncompatibleVersionError struct {
	ServerVersion uint16
	MinSupported  uint16
	MaxSupported  uint16
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("session: server version %d outside supported range [%d, %d]",
		e.ServerVersion, e.MinSupported, e.MaxSupported)
}

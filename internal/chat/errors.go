package chat

import "errors"

var (
	// ErrNotFound is returned when an identity has no registry entry.
	ErrNotFound = errors.New("chat: identity not registered")

	// ErrPeerClosed is returned when writing to a peer that was already closed.
	ErrPeerClosed = errors.New("chat: peer closed")
)

// CloseReason says why a connection left the Active state.
type CloseReason string

const (
	ReasonQuit            CloseReason = "quit"
	ReasonEOF             CloseReason = "eof"
	ReasonTransport       CloseReason = "transport_error"
	ReasonWriteFailed     CloseReason = "write_failed"
	ReasonUnknownIdentity CloseReason = "unknown_identity"
	ReasonShutdown        CloseReason = "shutdown"
)

// Clean reports whether the reason is an orderly end of the session rather
// than a failure.
func (r CloseReason) Clean() bool {
	switch r {
	case ReasonQuit, ReasonEOF, ReasonShutdown:
		return true
	}
	return false
}

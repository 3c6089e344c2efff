package transport

import (
	"errors"
)

var (
	// ErrLineTooLong is returned by ReadLine when a client exceeds the
	// configured line limit. The connection is unusable afterwards.
	ErrLineTooLong = errors.New("transport: line too long")

	// ErrMultiLine is returned by WSConn.ReadLine for a frame that holds more
	// than one line.
	ErrMultiLine = errors.New("transport: frame contains a line break")
)

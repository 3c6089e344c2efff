package transport

import (
	"time"
)

const DefaultMaxLineBytes = 4096

// Options configures transports (shared across TCP/WS where applicable)
type Options struct {
	MaxLineBytes int           // longest accepted inbound line; 0 means DefaultMaxLineBytes
	WriteTimeout time.Duration // per-write deadline; 0 to disable
}

func (o Options) maxLine() int {
	if o.MaxLineBytes <= 0 {
		return DefaultMaxLineBytes
	}
	return o.MaxLineBytes
}

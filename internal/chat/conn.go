package chat

import (
	"net"
)

// Conn is a line-oriented client transport. ReadLine blocks until a full
// line is available and returns it without its delimiter. Implementations
// must make Close safe to call while ReadLine is blocked.
type Conn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() net.Addr
}

// IdentityOf derives a client identity from its remote endpoint: the port
// when the address has one, the whole address otherwise. Ports can repeat
// across hosts and over time, so the identity is only unique in practice.
func IdentityOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	s := addr.String()
	if _, port, err := net.SplitHostPort(s); err == nil && port != "" {
		return port
	}
	return s
}

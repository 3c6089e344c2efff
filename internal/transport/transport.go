package transport

import (
	"context"

	"github.com/hongjun500/linechat/internal/chat"
)

const (
	Tcp       = "tcp"
	WebSocket = "websocket"
)

// ConnHandler runs the chat session for one accepted connection. It must
// return once the connection is finished; chat.Server implements it.
type ConnHandler interface {
	ServeConn(ctx context.Context, conn chat.Conn)
}

// Transport is a listener for one wire protocol. Start blocks until ctx is
// cancelled or the listener fails.
type Transport interface {
	Name() string
	Start(ctx context.Context, addr string, h ConnHandler) error
}

var (
	_ Transport = (*TCPServer)(nil)
	_ Transport = (*WebSocketServer)(nil)
)

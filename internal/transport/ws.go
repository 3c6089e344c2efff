package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hongjun500/linechat/internal/observe"
	"github.com/hongjun500/linechat/pkg/logger"
)

// WSConn carries the line protocol over a WebSocket: one text frame is one
// line. A trailing line ending is dropped; a frame with a line break anywhere
// else is rejected. Binary frames are ignored.
type WSConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	wmu          sync.Mutex
	closeOnce    sync.Once
}

func NewWSConn(c *websocket.Conn, opt Options) *WSConn {
	c.SetReadLimit(int64(opt.maxLine()))
	return &WSConn{conn: c, writeTimeout: opt.WriteTimeout}
}

func (w *WSConn) ReadLine() (string, error) {
	for {
		mt, data, err := w.conn.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				return "", io.EOF
			case errors.Is(err, websocket.ErrReadLimit):
				return "", fmt.Errorf("%w: %v", ErrLineTooLong, err)
			}
			return "", err
		}
		if mt != websocket.TextMessage {
			continue
		}
		line := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
		if strings.ContainsAny(line, "\r\n") {
			return "", ErrMultiLine
		}
		return line, nil
	}
}

func (w *WSConn) WriteLine(line string) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	if w.writeTimeout > 0 {
		_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	return w.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

// Close sends a best-effort close frame, then drops the connection.
func (w *WSConn) Close() error {
	var err error
	w.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = w.conn.Close()
	})
	return err
}

func (w *WSConn) RemoteAddr() net.Addr { return w.conn.RemoteAddr() }

// WebSocketServer accepts line-protocol clients over WebSocket upgrades.
type WebSocketServer struct {
	Options Options
	Path    string // WebSocket endpoint path, defaults to "/ws"
	Logger  *zap.Logger
}

func (ws *WebSocketServer) Name() string {
	return WebSocket
}

func (ws *WebSocketServer) path() string {
	if ws.Path == "" {
		return "/ws"
	}
	return ws.Path
}

// Handler returns the HTTP handler that upgrades requests on Path and runs
// h for each connection. Sessions end when ctx is cancelled.
func (ws *WebSocketServer) Handler(ctx context.Context, h ConnHandler) http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	log := logger.Or(ws.Logger)
	mux := http.NewServeMux()
	mux.HandleFunc(ws.path(), func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied to the client.
			log.Debug("ws_upgrade_error", zap.Error(err))
			return
		}
		observe.IncConnection(WebSocket)
		h.ServeConn(ctx, NewWSConn(conn, ws.Options))
	})
	return mux
}

// Start serves WebSocket clients on addr until ctx is cancelled.
func (ws *WebSocketServer) Start(ctx context.Context, addr string, h ConnHandler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Or(ws.Logger).Info("websocket_listen", zap.String("addr", ln.Addr().String()), zap.String("path", ws.path()))

	server := &http.Server{
		Handler:           ws.Handler(ctx, h),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

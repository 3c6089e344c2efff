package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongjun500/linechat/internal/chat"
)

const waitFor = 2 * time.Second

type tcpClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (c *tcpClient) id() string {
	return strconv.Itoa(c.conn.LocalAddr().(*net.TCPAddr).Port)
}

func (c *tcpClient) send(line string) {
	c.t.Helper()
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	require.NoError(c.t, err)
}

func (c *tcpClient) expect(want string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(waitFor)))
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	assert.Equal(c.t, want, strings.TrimSuffix(line, "\n"))
}

type testServer struct {
	srv    *chat.Server
	addr   string
	cancel context.CancelFunc
	done   chan error
}

func startTCP(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ts := &testServer{
		srv:    chat.NewServer(chat.NewRegistry(), chat.WithLogger(zap.NewNop())),
		addr:   ln.Addr().String(),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	tcp := &TCPServer{Options: Options{WriteTimeout: time.Second}, Logger: zap.NewNop()}
	go func() { ts.done <- tcp.Serve(ctx, ln, ts.srv) }()
	t.Cleanup(func() {
		cancel()
		<-ts.done
	})
	return ts
}

func (ts *testServer) dial(t *testing.T, name string) *tcpClient {
	t.Helper()
	want := ts.srv.Registry().Len() + 1
	conn, err := net.Dial("tcp", ts.addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	c := &tcpClient{t: t, conn: conn, r: bufio.NewReader(conn)}
	c.send(name)
	ts.waitLen(t, want)
	return c
}

func (ts *testServer) waitLen(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return ts.srv.Registry().Len() == n }, waitFor, 5*time.Millisecond)
}

func TestTCPChatScenario(t *testing.T) {
	ts := startTCP(t)
	a := ts.dial(t, "alice")
	b := ts.dial(t, "bob")

	a.send("hi")
	b.expect("alice (" + a.id() + "): hi")
	a.expect("alice (" + a.id() + "): hi")

	b.send("CHANGE_USERNAME:bobby")
	b.send("yo")
	a.expect("bobby (" + b.id() + "): yo")
	b.expect("bobby (" + b.id() + "): yo")
}

func TestTCPDisconnectSentinel(t *testing.T) {
	ts := startTCP(t)
	a := ts.dial(t, "a")
	b := ts.dial(t, "b")
	c := ts.dial(t, "c")

	a.send("DISCONNECTED")
	ts.waitLen(t, 2)

	// The server closed a's connection without sending anything.
	require.NoError(t, a.conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, err := a.r.ReadString('\n')
	assert.Error(t, err)

	b.send("after")
	b.expect("b (" + b.id() + "): after")
	c.expect("b (" + b.id() + "): after")
}

func TestTCPAbruptDisconnect(t *testing.T) {
	ts := startTCP(t)
	a := ts.dial(t, "a")
	ts.dial(t, "b")

	require.NoError(t, a.conn.Close())
	ts.waitLen(t, 1)
}

func TestTCPServeStopsOnCancel(t *testing.T) {
	ts := startTCP(t)
	a := ts.dial(t, "a")

	ts.cancel()
	select {
	case err := <-ts.done:
		assert.ErrorIs(t, err, context.Canceled)
		ts.done <- err
	case <-time.After(waitFor):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Zero(t, ts.srv.Registry().Len())

	require.NoError(t, a.conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, err := a.r.ReadString('\n')
	assert.Error(t, err)
}

func TestTCPStartBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s := &TCPServer{Logger: zap.NewNop()}
	err = s.Start(context.Background(), ln.Addr().String(), chat.NewServer(chat.NewRegistry()))
	assert.Error(t, err)
}

func TestWebSocketAndTCPShareRegistry(t *testing.T) {
	ts := startTCP(t)
	tcpUser := ts.dial(t, "tcp-user")

	ctx, cancel := context.WithCancel(context.Background())
	ws := &WebSocketServer{Options: Options{WriteTimeout: time.Second}, Logger: zap.NewNop()}
	hs := httptest.NewServer(ws.Handler(ctx, ts.srv))
	t.Cleanup(func() {
		cancel()
		hs.Close()
	})

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	wc, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer wc.Close()
	wsID := strconv.Itoa(wc.LocalAddr().(*net.TCPAddr).Port)

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("web-user")))
	ts.waitLen(t, 2)

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("from the browser")))
	tcpUser.expect("web-user (" + wsID + "): from the browser")

	tcpUser.send("from the terminal")
	// Broadcasts from different senders may interleave.
	require.NoError(t, wc.SetReadDeadline(time.Now().Add(waitFor)))
	var got []string
	for i := 0; i < 2; i++ {
		mt, data, err := wc.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, mt)
		got = append(got, string(data))
	}
	assert.ElementsMatch(t, []string{
		"web-user (" + wsID + "): from the browser",
		"tcp-user (" + tcpUser.id() + "): from the terminal",
	}, got)

	require.NoError(t, wc.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	ts.waitLen(t, 1)
}

func TestWebSocketLineTooLong(t *testing.T) {
	srv := chat.NewServer(chat.NewRegistry(), chat.WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	ws := &WebSocketServer{Options: Options{MaxLineBytes: 16}, Logger: zap.NewNop()}
	hs := httptest.NewServer(ws.Handler(ctx, srv))
	t.Cleanup(func() {
		cancel()
		hs.Close()
	})

	wc, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer wc.Close()

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("eve")))
	require.Eventually(t, func() bool { return srv.Registry().Len() == 1 }, waitFor, 5*time.Millisecond)

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64))))
	require.Eventually(t, func() bool { return srv.Registry().Len() == 0 }, waitFor, 5*time.Millisecond)
}

func TestWebSocketFrameWithLineBreakIsRejected(t *testing.T) {
	ts := startTCP(t)
	victim := ts.dial(t, "victim")

	ctx, cancel := context.WithCancel(context.Background())
	ws := &WebSocketServer{Options: Options{WriteTimeout: time.Second}, Logger: zap.NewNop()}
	hs := httptest.NewServer(ws.Handler(ctx, ts.srv))
	t.Cleanup(func() {
		cancel()
		hs.Close()
	})

	wc, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer wc.Close()
	wsID := strconv.Itoa(wc.LocalAddr().(*net.TCPAddr).Port)

	// A trailing line ending is tolerated.
	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("mallory\r\n")))
	ts.waitLen(t, 2)
	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("hello\n")))
	victim.expect("mallory (" + wsID + "): hello")

	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("hi\nadmin (1): forged")))
	ts.waitLen(t, 1)

	// Nothing from the rejected frame reached the TCP client.
	victim.send("check")
	victim.expect("victim (" + victim.id() + "): check")
}

func TestWSConnRejectsEmbeddedCarriageReturn(t *testing.T) {
	srv := chat.NewServer(chat.NewRegistry(), chat.WithLogger(zap.NewNop()))
	ctx, cancel := context.WithCancel(context.Background())
	ws := &WebSocketServer{Logger: zap.NewNop()}
	hs := httptest.NewServer(ws.Handler(ctx, srv))
	t.Cleanup(func() {
		cancel()
		hs.Close()
	})

	wc, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer wc.Close()

	// A name is a line like any other.
	require.NoError(t, wc.WriteMessage(websocket.TextMessage, []byte("eve\rroot")))
	require.NoError(t, wc.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err = wc.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, srv.Registry().Len())
}

package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// TCPConn frames a stream connection as newline-delimited UTF-8 lines. A
// trailing "\r" is dropped, so CRLF clients work too.
type TCPConn struct {
	conn         net.Conn
	sc           *bufio.Scanner
	maxLine      int
	writeTimeout time.Duration
	wmu          sync.Mutex
}

func NewTCPConn(c net.Conn, opt Options) *TCPConn {
	limit := opt.maxLine()
	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 0, min(limit, 4096)), limit)
	return &TCPConn{conn: c, sc: sc, maxLine: limit, writeTimeout: opt.WriteTimeout}
}

// ReadLine returns the next line without its delimiter. It returns io.EOF
// once the peer has closed its side cleanly.
func (t *TCPConn) ReadLine() (string, error) {
	if t.sc.Scan() {
		return t.sc.Text(), nil
	}
	err := t.sc.Err()
	switch {
	case err == nil:
		return "", io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return "", fmt.Errorf("%w: limit is %d bytes", ErrLineTooLong, t.maxLine)
	default:
		return "", err
	}
}

func (t *TCPConn) WriteLine(s string) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}
	_, err := io.WriteString(t.conn, s+"\n")
	return err
}

func (t *TCPConn) Close() error { return t.conn.Close() }

func (t *TCPConn) RemoteAddr() net.Addr { return t.conn.RemoteAddr() }

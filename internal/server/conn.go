package server

import (
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/protocol"
	"github.com/google/uuid"
)

type eventKind int

const (
	eventOpen eventKind = iota
	eventLine
	eventOverflow
	eventClosed
)

type event struct {
	kind eventKind
	conn *conn
	line string
	err  error
}

// connState 是事件循环持有的每连接状态。
type connState struct {
	conn    *conn
	session protocol.Session
}

type conn struct {
	id       uuid.UUID
	netConn  net.Conn
	peerHost string

	outbox   chan []byte
	finishMu sync.Once
	// linger 为真时，关闭前先半关闭写端并丢弃对端未读的输入。
	linger bool
}

// lingerTimeout 限制关闭前丢弃对端输入的时间。
const lingerTimeout = time.Second

func newConn(nc net.Conn) *conn {
	host := nc.RemoteAddr().String()
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return &conn{
		id:       uuid.New(),
		netConn:  nc,
		peerHost: host,
		outbox:   make(chan []byte, outboxSize),
	}
}

// send 非阻塞地排队一条响应。只能由事件循环调用。
func (c *conn) send(b []byte) bool {
	select {
	case c.outbox <- b:
		return true
	default:
		return false
	}
}

// finish 关闭写队列，写协程写完剩余响应后关闭连接。只能由事件循环调用。
func (c *conn) finish() {
	c.finishMu.Do(func() { close(c.outbox) })
}

func (c *conn) writeLoop(log *slog.Logger) {
	defer c.close()
	failed := false
	for b := range c.outbox {
		if failed {
			continue
		}
		if _, err := c.netConn.Write(b); err != nil {
			log.Warn("写响应失败", "conn", c.id, "error", err)
			failed = true
			// 关闭后读协程会收到错误并上报
			c.netConn.Close()
		}
	}
}

func (c *conn) close() {
	if tc, ok := c.netConn.(*net.TCPConn); ok && c.linger {
		_ = tc.CloseWrite()
		_ = tc.SetReadDeadline(time.Now().Add(lingerTimeout))
		_, _ = io.Copy(io.Discard, tc)
	}
	c.netConn.Close()
}

// Package server 是TCP连接复用器：每个连接有独立的读、写协程，
// 所有会话状态由唯一的事件循环协程持有，请求按到达顺序串行分发。
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/SlpAus/hotelier-ranking-backend/internal/protocol"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// outboxSize 是每个连接待写响应的缓冲数。客户端按请求-响应交互，正常情况下不会堆积。
const outboxSize = 32

// SessionEnder 在连接断开时强制登出仍处于登录状态的用户。
type SessionEnder interface {
	Logout(username string) error
}

// Server 是TCP协议服务器。
type Server struct {
	addr       string
	dispatcher *protocol.Dispatcher
	sessions   SessionEnder
	log        *slog.Logger

	events chan event

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New 创建服务器。addr 形如 ":8080"。
func New(addr string, dispatcher *protocol.Dispatcher, sessions SessionEnder) *Server {
	return &Server{
		addr:       addr,
		dispatcher: dispatcher,
		sessions:   sessions,
		log:        slog.With("component", "tcp"),
		events:     make(chan event, 256),
		ready:      make(chan struct{}),
	}
}

// Addr 返回实际监听的地址，在 Serve 开始监听之前阻塞。
func (s *Server) Addr() net.Addr {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr()
}

// Serve 监听并服务，直到 ctx 被取消。退出前所有连接都会被关闭，登录中的用户会被登出。
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("监听 %s 失败: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)
	s.log.Info("TCP服务器正在监听", "address", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		return s.acceptLoop(gctx, ln)
	})
	g.Go(func() error {
		s.reactor(gctx)
		return nil
	})

	err = g.Wait()
	if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		c := newConn(conn)
		if !s.emit(ctx, event{kind: eventOpen, conn: c}) {
			conn.Close()
			return nil
		}
		go s.readLoop(ctx, c)
		go c.writeLoop(s.log)
	}
}

// emit 把事件交给事件循环，事件循环已退出时返回 false。
func (s *Server) emit(ctx context.Context, ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// readLoop 按行切分请求。单行超过上限时报告溢出并停止读取。
func (s *Server) readLoop(ctx context.Context, c *conn) {
	scanner := bufio.NewScanner(c.netConn)
	scanner.Buffer(make([]byte, 4096), protocol.MaxLineBytes+1)

	for scanner.Scan() {
		if !s.emit(ctx, event{kind: eventLine, conn: c, line: scanner.Text()}) {
			return
		}
	}
	err := scanner.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		s.emit(ctx, event{kind: eventOverflow, conn: c})
		return
	}
	s.emit(ctx, event{kind: eventClosed, conn: c, err: err})
}

// reactor 是唯一读写会话表的协程。
func (s *Server) reactor(ctx context.Context) {
	sessions := make(map[uuid.UUID]*connState)

	for {
		select {
		case <-ctx.Done():
			for _, st := range sessions {
				s.closeConn(st, "服务器关闭")
			}
			s.drainPending()
			return

		case ev := <-s.events:
			switch ev.kind {
			case eventOpen:
				sessions[ev.conn.id] = &connState{conn: ev.conn, session: protocol.NewGuestSession(ev.conn.peerHost)}
				connectionsGauge.Inc()
				s.log.Info("接受连接", "conn", ev.conn.id, "peer", ev.conn.netConn.RemoteAddr().String())

			case eventLine:
				st, ok := sessions[ev.conn.id]
				if !ok {
					continue
				}
				resp, next := s.dispatcher.HandleLine(st.session, ev.line)
				st.session = next
				if !st.conn.send(resp.Encode()) {
					s.log.Warn("连接写缓冲已满，断开连接", "conn", st.conn.id)
					delete(sessions, ev.conn.id)
					s.closeConn(st, "写缓冲已满")
				}

			case eventOverflow:
				st, ok := sessions[ev.conn.id]
				if !ok {
					continue
				}
				st.conn.send(protocol.LineTooLong().Encode())
				st.conn.linger = true
				delete(sessions, ev.conn.id)
				s.closeConn(st, "请求过长")

			case eventClosed:
				st, ok := sessions[ev.conn.id]
				if !ok {
					continue
				}
				delete(sessions, ev.conn.id)
				reason := "对端关闭连接"
				if ev.err != nil {
					reason = ev.err.Error()
				}
				s.closeConn(st, reason)
			}
		}
	}
}

// closeConn 登出仍在登录中的用户，然后让写协程把剩余响应写完后关闭连接。
func (s *Server) closeConn(st *connState, reason string) {
	if st.session.IsAuthenticated() {
		if err := s.sessions.Logout(st.session.Identity); err != nil {
			s.log.Warn("断开连接时自动登出失败", "user", st.session.Identity, "error", err)
		} else {
			s.log.Info("断开连接时自动登出", "user", st.session.Identity)
		}
	}
	st.conn.finish()
	connectionsGauge.Dec()
	s.log.Info("连接已关闭", "conn", st.conn.id, "session", st.session.Tag(), "reason", reason)
}

// drainPending 关闭事件循环退出时仍在队列中、尚未登记的新连接。
func (s *Server) drainPending() {
	for {
		select {
		case ev := <-s.events:
			if ev.kind == eventOpen {
				ev.conn.finish()
			}
		default:
			return
		}
	}
}

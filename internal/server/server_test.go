package server

import (
	"bufio"
	"context"
	"math/rand/v2"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/hotel"
	"github.com/SlpAus/hotelier-ranking-backend/internal/protocol"
	"github.com/SlpAus/hotelier-ranking-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr net.Addr) *client {
	t.Helper()
	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &client{conn: conn, r: bufio.NewReader(conn)}
}

// roundTrip 发送一行请求并读取到空行为止的响应。
func (c *client) roundTrip(t *testing.T, line string) string {
	t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
	return c.readResponse(t)
}

func (c *client) readResponse(t *testing.T) string {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var b strings.Builder
	for {
		line, err := c.r.ReadString('\n')
		require.NoError(t, err)
		if line == "\n" {
			return b.String()
		}
		b.WriteString(line)
	}
}

func startServer(t *testing.T) (*Server, *store.Store, context.CancelFunc, <-chan error) {
	t.Helper()
	st := store.New(store.Options{Cooldown: time.Minute})
	st.Import(store.Snapshot{Hotels: hotel.Seed(rand.New(rand.NewPCG(5, 6)))})
	require.NoError(t, st.Register("alice", "pw"))

	srv := New("127.0.0.1:0", protocol.NewDispatcher(st), st)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(cancel)
	return srv, st, cancel, done
}

func TestRequestResponse(t *testing.T) {
	srv, _, _, _ := startServer(t)
	c := dial(t, srv.Addr())

	assert.Equal(t, "SUCCESS OK\nuser:alice\n", c.roundTrip(t, "LOGIN alice pw"))
	assert.Equal(t, "SUCCESS Done\n", c.roundTrip(t, `INSERTREVIEW user:alice "Hotel Bari 3" Bari 4 4 4 4 4`))

	resp := c.roundTrip(t, "SEARCHALL Bari")
	assert.True(t, strings.HasPrefix(resp, "SUCCESS Found\n"))
	assert.Equal(t, 6, strings.Count(resp, "\n"))

	assert.Equal(t, "SUCCESS Done\n", c.roundTrip(t, "LOGOUT user:alice"))
	assert.True(t, strings.HasPrefix(c.roundTrip(t, "NOPE"), "ERROR BadRequest\n"))
}

func TestSessionsArePerConnection(t *testing.T) {
	srv, _, _, _ := startServer(t)
	a := dial(t, srv.Addr())
	b := dial(t, srv.Addr())

	require.Equal(t, "SUCCESS OK\nuser:alice\n", a.roundTrip(t, "LOGIN alice pw"))
	assert.True(t, strings.HasPrefix(b.roundTrip(t, "SHOWMYBADGES user:alice"), "ERROR SessionError\n"))
	assert.True(t, strings.HasPrefix(b.roundTrip(t, "LOGIN alice pw"), "ERROR AlreadyLoggedIn\n"))
}

func TestDisconnectLogsOut(t *testing.T) {
	srv, st, _, _ := startServer(t)
	c := dial(t, srv.Addr())
	require.Equal(t, "SUCCESS OK\nuser:alice\n", c.roundTrip(t, "LOGIN alice pw"))
	require.True(t, st.Users().IsOnline("alice"))

	require.NoError(t, c.conn.Close())
	assert.Eventually(t, func() bool { return !st.Users().IsOnline("alice") }, 2*time.Second, 10*time.Millisecond)

	again := dial(t, srv.Addr())
	assert.Equal(t, "SUCCESS OK\nuser:alice\n", again.roundTrip(t, "LOGIN alice pw"))
}

func TestOversizedLineClosesConnection(t *testing.T) {
	srv, _, _, _ := startServer(t)
	c := dial(t, srv.Addr())

	go func() {
		// 写入可能在服务器关闭连接后失败，忽略错误
		_, _ = c.conn.Write([]byte(strings.Repeat("a", protocol.MaxLineBytes+16) + "\n"))
	}()
	assert.True(t, strings.HasPrefix(c.readResponse(t), "ERROR BadRequest\n"))

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := c.r.ReadByte()
	assert.Error(t, err)
}

func TestShutdownLogsOutAndReturns(t *testing.T) {
	srv, st, cancel, done := startServer(t)
	c := dial(t, srv.Addr())
	require.Equal(t, "SUCCESS OK\nuser:alice\n", c.roundTrip(t, "LOGIN alice pw"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	assert.False(t, st.Users().IsOnline("alice"))
}

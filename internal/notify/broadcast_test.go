package notify

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChange = LeaderChange{City: "Roma", Old: "Hotel Roma 3", New: "Hotel Roma 4"}

func TestRedisBroadcaster(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, "hotelier:leaders")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	b := NewRedisBroadcaster(rdb, "hotelier:leaders")
	require.NoError(t, b.Announce(ctx, testChange))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, testChange.Message(), msg.Payload)
}

func TestMulticastBroadcasterSendsDatagram(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	b, err := NewMulticastBroadcaster(listener.LocalAddr().String())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Announce(context.Background(), testChange))

	buf := make([]byte, 1024)
	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := listener.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, testChange.Message(), string(buf[:n]))
}

type failingBroadcaster struct{ calls int }

func (f *failingBroadcaster) Announce(context.Context, LeaderChange) error {
	f.calls++
	return errors.New("down")
}

func TestFanoutAnnouncesOnEveryTransport(t *testing.T) {
	first, second := &failingBroadcaster{}, &failingBroadcaster{}
	err := Fanout{first, Discard{}, second}.Announce(context.Background(), testChange)
	assert.Error(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)

	assert.NoError(t, Fanout{Discard{}}.Announce(context.Background(), testChange))
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/redis/go-redis/v9"
)

// Broadcaster announces leader changes to whoever is listening. Delivery is
// fire-and-forget: no registration is needed to receive announcements.
type Broadcaster interface {
	Announce(ctx context.Context, lc LeaderChange) error
}

// MulticastBroadcaster sends each announcement as one UDP datagram to a
// multicast group.
type MulticastBroadcaster struct {
	conn *net.UDPConn
}

// NewMulticastBroadcaster dials the group address, e.g. "239.255.32.32:4400".
func NewMulticastBroadcaster(group string) (*MulticastBroadcaster, error) {
	addr, err := net.ResolveUDPAddr("udp", group)
	if err != nil {
		return nil, fmt.Errorf("resolve multicast group %q: %w", group, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial multicast group %q: %w", group, err)
	}
	return &MulticastBroadcaster{conn: conn}, nil
}

func (b *MulticastBroadcaster) Announce(ctx context.Context, lc LeaderChange) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.conn.SetWriteDeadline(deadline)
	}
	_, err := b.conn.Write([]byte(lc.Message()))
	observeBroadcast("multicast", err)
	return err
}

// Close releases the socket.
func (b *MulticastBroadcaster) Close() error {
	return b.conn.Close()
}

// RedisBroadcaster publishes announcements on a Redis pub/sub channel.
type RedisBroadcaster struct {
	rdb     *redis.Client
	channel string
}

// NewRedisBroadcaster publishes on channel using rdb.
func NewRedisBroadcaster(rdb *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb, channel: channel}
}

func (b *RedisBroadcaster) Announce(ctx context.Context, lc LeaderChange) error {
	err := b.rdb.Publish(ctx, b.channel, lc.Message()).Err()
	observeBroadcast("redis", err)
	return err
}

// Fanout announces on every wrapped broadcaster and joins their errors.
type Fanout []Broadcaster

func (f Fanout) Announce(ctx context.Context, lc LeaderChange) error {
	var errs []error
	for _, b := range f {
		if err := b.Announce(ctx, lc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every announcement.
type Discard struct{}

func (Discard) Announce(_ context.Context, lc LeaderChange) error {
	slog.Debug("leader change not broadcast", "city", lc.City)
	return nil
}

func observeBroadcast(transport string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	broadcastsTotal.WithLabelValues(transport, result).Inc()
}

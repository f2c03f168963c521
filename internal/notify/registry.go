package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SlpAus/hotelier-ranking-backend/internal/catalog"
)

// ErrHandleInUse is returned when subscribing with a handle that is already registered.
var ErrHandleInUse = errors.New("subscription handle already registered")

// Sink is the push transport behind a subscriber handle. The registry never
// knows what the transport is, only how to deliver to it. A Sink that also
// implements io.Closer is closed when its subscriber is evicted.
type Sink interface {
	Deliver(ctx context.Context, u Update) error
}

// RankingSource provides the current ordered hotel names of a city.
type RankingSource interface {
	Ranking(city string) []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxFailures sets how many consecutive failed deliveries evict a subscriber.
// Zero or less disables eviction.
func WithMaxFailures(n int) Option {
	return func(r *Registry) { r.maxFailures = n }
}

// WithMailboxSize sets the per-subscriber buffer of pending updates.
func WithMailboxSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.mailboxSize = n
		}
	}
}

// WithDeliveryTimeout bounds a single Deliver call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.deliveryTimeout = d
		}
	}
}

// Registry maps subscriber handles to the cities they follow. Each subscriber
// owns a mailbox drained by its own goroutine, so a slow or dead transport
// never blocks the ranking engine.
type Registry struct {
	source RankingSource

	maxFailures     int
	mailboxSize     int
	deliveryTimeout time.Duration

	mu     sync.RWMutex
	subs   map[string]*subscriber
	byCity map[string]map[string]*subscriber
	closed bool
}

// NewRegistry creates an empty registry reading snapshots from source.
func NewRegistry(source RankingSource, opts ...Option) *Registry {
	r := &Registry{
		source:          source,
		maxFailures:     3,
		mailboxSize:     64,
		deliveryTimeout: 5 * time.Second,
		subs:            make(map[string]*subscriber),
		byCity:          make(map[string]map[string]*subscriber),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type subscriber struct {
	handle   string
	cities   []string
	sink     Sink
	mailbox  chan Update
	done     chan struct{}
	stopOnce sync.Once
	failures atomic.Int32
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Subscribe registers handle for cities and returns the current ranking of
// each city as a baseline. An empty city list registers nothing and returns nil.
func (r *Registry) Subscribe(handle string, cities []string, sink Sink) (map[string][]string, error) {
	if len(cities) == 0 {
		return nil, nil
	}

	canonical := make([]string, 0, len(cities))
	seen := make(map[string]bool, len(cities))
	for _, name := range cities {
		c, _, err := catalog.LookupCity(name)
		if err != nil {
			return nil, err
		}
		if !seen[c.Name] {
			seen[c.Name] = true
			canonical = append(canonical, c.Name)
		}
	}

	// The rankings store precedes the subscriptions store in the lock order,
	// so the baseline is read before registering.
	baseline := make(map[string][]string, len(canonical))
	for _, city := range canonical {
		baseline[city] = r.source.Ranking(city)
	}

	sub := &subscriber{
		handle:  handle,
		cities:  canonical,
		sink:    sink,
		mailbox: make(chan Update, r.mailboxSize),
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, errors.New("subscription registry is closed")
	}
	if _, exists := r.subs[handle]; exists {
		r.mu.Unlock()
		return nil, ErrHandleInUse
	}
	r.subs[handle] = sub
	for _, city := range canonical {
		if r.byCity[city] == nil {
			r.byCity[city] = make(map[string]*subscriber)
		}
		r.byCity[city][handle] = sub
	}
	subscribersGauge.Set(float64(len(r.subs)))
	r.mu.Unlock()

	go r.deliverLoop(sub)
	slog.Info("subscriber registered", "handle", handle, "cities", canonical)
	return baseline, nil
}

// Unsubscribe removes handle. It reports whether the handle was registered.
func (r *Registry) Unsubscribe(handle string) bool {
	r.mu.Lock()
	sub, ok := r.subs[handle]
	if ok {
		r.removeLocked(sub)
	}
	r.mu.Unlock()

	if ok {
		sub.stop()
		slog.Info("subscriber removed", "handle", handle)
	}
	return ok
}

func (r *Registry) removeLocked(sub *subscriber) {
	delete(r.subs, sub.handle)
	for _, city := range sub.cities {
		delete(r.byCity[city], sub.handle)
		if len(r.byCity[city]) == 0 {
			delete(r.byCity, city)
		}
	}
	subscribersGauge.Set(float64(len(r.subs)))
}

// Notify enqueues an update for every subscriber of city without blocking.
// A full mailbox counts as a failed delivery.
func (r *Registry) Notify(city string, hotels []string) {
	u := Update{City: city, Hotels: append([]string(nil), hotels...)}

	r.mu.RLock()
	targets := make([]*subscriber, 0, len(r.byCity[city]))
	for _, sub := range r.byCity[city] {
		targets = append(targets, sub)
	}
	r.mu.RUnlock()

	for _, sub := range targets {
		select {
		case sub.mailbox <- u:
		default:
			deliveriesTotal.WithLabelValues("dropped").Inc()
			r.recordFailure(sub, errors.New("mailbox full"))
		}
	}
}

func (r *Registry) deliverLoop(sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case u := <-sub.mailbox:
			ctx, cancel := context.WithTimeout(context.Background(), r.deliveryTimeout)
			err := sub.sink.Deliver(ctx, u)
			cancel()
			if err != nil {
				deliveriesTotal.WithLabelValues("failed").Inc()
				if r.recordFailure(sub, err) {
					return
				}
				continue
			}
			deliveriesTotal.WithLabelValues("ok").Inc()
			sub.failures.Store(0)
		}
	}
}

// recordFailure logs a failed delivery and evicts the subscriber once it
// reaches maxFailures consecutive failures. It reports whether it evicted.
func (r *Registry) recordFailure(sub *subscriber, err error) bool {
	n := int(sub.failures.Add(1))
	slog.Warn("delivery to subscriber failed", "handle", sub.handle, "consecutive", n, "error", err)
	if r.maxFailures <= 0 || n < r.maxFailures {
		return false
	}

	if !r.Unsubscribe(sub.handle) {
		return true
	}
	evictionsTotal.Inc()
	slog.Warn("subscriber evicted", "handle", sub.handle, "failures", n)
	// Notify may be running on the engine goroutine, and Close can wait on
	// an in-flight write, so the transport is closed asynchronously.
	if c, ok := sub.sink.(io.Closer); ok {
		go func() { _ = c.Close() }()
	}
	return true
}

// Subscribed reports whether handle is registered.
func (r *Registry) Subscribed(handle string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.subs[handle]
	return ok
}

// Count returns the number of registered subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Close stops every subscriber and rejects further subscriptions.
func (r *Registry) Close() {
	r.mu.Lock()
	subs := make([]*subscriber, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.subs = make(map[string]*subscriber)
	r.byCity = make(map[string]map[string]*subscriber)
	r.closed = true
	subscribersGauge.Set(0)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

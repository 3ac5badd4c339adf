// Package redis implements the broker transport adapter on Redis pub/sub.
// PUBLISH/PSUBSCRIBE carry the topic bus; retained messages are emulated with
// a key-value side store replayed to new subscribers; connection loss is
// detected by a background ping loop.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fittrack/presence-system/internal/core/domain"
	"github.com/fittrack/presence-system/internal/core/ports"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultPingInterval   = 5 * time.Second
	defaultRetainedTTL    = 15 * time.Minute
)

// Options captures the settings for the Redis-backed broker.
type Options struct {
	Addr           string
	DB             int
	ConnectTimeout time.Duration
	PingInterval   time.Duration
	RetainedTTL    time.Duration
}

func (o *Options) applyDefaults() {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.RetainedTTL <= 0 {
		o.RetainedTTL = defaultRetainedTTL
	}
}

type subscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// Broker implements ports.Broker over a single Redis connection pool. It
// carries no business state: topics in, payloads out.
type Broker struct {
	opts Options
	log  zerolog.Logger

	mu        sync.Mutex
	client    *redis.Client
	retained  *RetainedStore
	subs      map[string]*subscription
	connected bool
	lostFn    func(error)
	pingStop  context.CancelFunc
}

func NewBroker(opts Options, log zerolog.Logger) *Broker {
	opts.applyDefaults()
	return &Broker{
		opts: opts,
		log:  log.With().Str("component", "broker").Logger(),
		subs: make(map[string]*subscription),
	}
}

// Connect initialises the Redis client, validates connectivity with a ping,
// and starts the liveness ping loop. clientID is set as the connection name
// so concurrent sessions stay distinguishable on the broker side.
func (b *Broker) Connect(ctx context.Context, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connected {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:       b.opts.Addr,
		DB:         b.opts.DB,
		ClientName: clientID,
	})

	pingCtx, cancel := context.WithTimeout(ctx, b.opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("broker connect: %w", err)
	}

	b.client = client
	b.retained = NewRetainedStore(client, b.opts.RetainedTTL)
	b.connected = true

	pingLoopCtx, stop := context.WithCancel(context.Background())
	b.pingStop = stop
	go b.pingLoop(pingLoopCtx, client)

	b.log.Info().Str("addr", b.opts.Addr).Str("client_id", clientID).Msg("broker connected")
	return nil
}

// Disconnect tears down subscriptions, the ping loop, and the client.
func (b *Broker) Disconnect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.teardownLocked()
}

func (b *Broker) teardownLocked() error {
	if !b.connected {
		return nil
	}
	b.connected = false

	if b.pingStop != nil {
		b.pingStop()
		b.pingStop = nil
	}
	for filter, sub := range b.subs {
		sub.cancel()
		_ = sub.pubsub.Close()
		delete(b.subs, filter)
	}

	err := b.client.Close()
	b.client = nil
	b.retained = nil
	if err != nil {
		return fmt.Errorf("broker disconnect: %w", err)
	}
	return nil
}

// Publish sends payload on topic. With retained set, the payload also
// replaces the topic's retained message so late subscribers still see it.
// Fire and forget: a nil error only means Redis accepted the commands.
func (b *Broker) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	b.mu.Lock()
	client, store, connected := b.client, b.retained, b.connected
	b.mu.Unlock()

	if !connected {
		return domain.ErrNotConnected
	}

	if retained {
		if err := store.Set(ctx, topic, payload); err != nil {
			// Retained write failure degrades replay for future subscribers
			// but the live publish can still go out.
			b.log.Warn().Err(err).Str("topic", topic).Msg("retained store write failed")
		}
	}

	if err := client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers h for every topic matching the single-level-wildcard
// filter. Retained messages matching the filter are replayed to h before live
// traffic. One subscription per filter; subscribing twice replaces nothing
// and returns an error.
func (b *Broker) Subscribe(ctx context.Context, filter string, h ports.MessageHandler) error {
	b.mu.Lock()
	client, store, connected := b.client, b.retained, b.connected
	if !connected {
		b.mu.Unlock()
		return domain.ErrNotConnected
	}
	if _, exists := b.subs[filter]; exists {
		b.mu.Unlock()
		return fmt.Errorf("subscribe: filter %q already active", filter)
	}

	pubsub := client.PSubscribe(ctx, patternFromFilter(filter))
	readCtx, cancel := context.WithCancel(context.Background())
	b.subs[filter] = &subscription{pubsub: pubsub, cancel: cancel}
	b.mu.Unlock()

	// Replay retained state first so a new subscriber immediately sees every
	// peer's last known position.
	replayed, err := store.List(ctx, filter)
	if err != nil {
		b.log.Warn().Err(err).Str("filter", filter).Msg("retained replay failed")
	}
	for _, msg := range replayed {
		h(msg.Topic, msg.Payload)
	}

	go b.readLoop(readCtx, filter, pubsub, h)

	b.log.Info().Str("filter", filter).Int("replayed", len(replayed)).Msg("subscribed")
	return nil
}

// Unsubscribe drops the subscription for filter.
func (b *Broker) Unsubscribe(ctx context.Context, filter string) error {
	b.mu.Lock()
	sub, ok := b.subs[filter]
	if ok {
		delete(b.subs, filter)
	}
	b.mu.Unlock()

	if !ok {
		return nil
	}
	sub.cancel()
	if err := sub.pubsub.Close(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", filter, err)
	}
	return nil
}

// Connected reports transport liveness as last observed by the ping loop.
func (b *Broker) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

// NotifyConnectionLost registers the connection-lost callback.
func (b *Broker) NotifyConnectionLost(fn func(error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lostFn = fn
}

// readLoop delivers matching messages to h until the subscription is
// cancelled. Redis glob patterns are wider than single-level wildcards, so
// every delivered channel is re-checked against the original filter.
func (b *Broker) readLoop(ctx context.Context, filter string, pubsub *redis.PubSub, h ports.MessageHandler) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if !matchFilter(filter, msg.Channel) {
				continue
			}
			h(msg.Channel, []byte(msg.Payload))
		}
	}
}

// pingLoop watches transport liveness and fires the connection-lost callback
// once when the broker stops answering.
func (b *Broker) pingLoop(ctx context.Context, client *redis.Client) {
	ticker := time.NewTicker(b.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, b.opts.ConnectTimeout)
			err := client.Ping(pingCtx).Err()
			cancel()
			if err == nil {
				continue
			}

			b.mu.Lock()
			fn := b.lostFn
			_ = b.teardownLocked()
			b.mu.Unlock()

			b.log.Warn().Err(err).Msg("broker ping failed, connection considered lost")
			if fn != nil {
				fn(err)
			}
			return
		}
	}
}

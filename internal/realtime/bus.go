package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus publishes events to a Redis channel and forwards everything it
// receives on that channel to the local Relay, so rooms span instances.
type RedisBus struct {
	log     *slog.Logger
	rdb     *redis.Client
	channel string
	relay   *Relay

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisBus wires a bus over an existing client. The client is shared and
// not closed by the bus.
func NewRedisBus(rdb *redis.Client, channel string, relay *Relay, log *slog.Logger) *RedisBus {
	return &RedisBus{
		log:     log.With("component", "relay_bus", "channel", channel),
		rdb:     rdb,
		channel: channel,
		relay:   relay,
	}
}

func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal relay event: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Start subscribes and runs the forwarder until ctx is done or Close is
// called. It returns once the subscription is confirmed.
func (b *RedisBus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return fmt.Errorf("relay bus already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	b.cancel = cancel
	b.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(m.Payload), &evt); err != nil {
					b.log.Warn("bad relay payload", "error", err)
					continue
				}
				b.relay.Broadcast(evt)
			}
		}
	}(b.done)

	b.log.Info("relay bus forwarder started")
	return nil
}

// Close stops the forwarder and waits for it to exit.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

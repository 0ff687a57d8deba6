package broadcast

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-storefront/internal/logger"
)

// RedisRelay mirrors bus signals across storefront instances through a
// Redis pub/sub channel, so a login or cart change handled by one instance
// reaches views served by another.
type RedisRelay struct {
	bus     *Bus
	rdb     *redis.Client
	channel string
	origin  string
}

// NewRedisRelay attaches a relay to bus.  Locally published signals are
// forwarded from this point on; call Run to receive remote ones.
func NewRedisRelay(bus *Bus, rdb *redis.Client, channel string) *RedisRelay {
	if channel == "" {
		channel = "storefront:signals"
	}
	r := &RedisRelay{bus: bus, rdb: rdb, channel: channel, origin: uuid.NewString()}
	bus.Tap(r.forward)
	return r
}

// Origin identifies this instance on the channel.
func (r *RedisRelay) Origin() string { return r.origin }

func (r *RedisRelay) forward(ctx context.Context, s Signal) {
	if s.Origin != "" && s.Origin != r.origin {
		return
	}
	s.Origin = r.origin
	b, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := r.rdb.Publish(context.WithoutCancel(ctx), r.channel, b).Err(); err != nil {
		logger.From(ctx).Warn("relay: publish failed", "topic", s.Topic, "err", err)
	}
}

// Run receives signals from other instances and delivers them locally
// until ctx is cancelled.  ready, when non-nil, is closed once the
// subscription is active.
func (r *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	ps := r.rdb.Subscribe(ctx, r.channel)
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}
	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var s Signal
			if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
				logger.From(ctx).Warn("relay: bad payload", "err", err)
				continue
			}
			if s.Origin == r.origin {
				continue
			}
			r.bus.Deliver(ctx, s)
		}
	}
}

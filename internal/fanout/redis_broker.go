package fanout

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisBroker implements Broker over a single redis.Client, adapted
// from rishavpaul-system-design's rate-limiter (gateway/ratelimiter/
// token_bucket.go), which holds Redis state for a different purpose
// (token-bucket counters); here the same client type backs pub/sub
// channels instead, per spec §9 "cross-process broadcast replaces the
// source's per-process socket set with a broker-backed fan-out".
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, topic, payload).Err()
}

// Subscribe starts a goroutine relaying messages on topic to handler
// until ctx is cancelled. Matches Broker's fire-and-forget contract;
// callers that need the subscription's lifecycle should cancel ctx.
func (b *RedisBroker) Subscribe(ctx context.Context, topic string, handler func(payload []byte)) {
	sub := b.client.Subscribe(ctx, topic)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
}

// Healthy reports whether the underlying Redis connection is reachable,
// mirroring the teacher's TokenBucket.IsHealthy.
func (b *RedisBroker) Healthy(ctx context.Context) bool {
	if err := b.client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("fanout: redis broker unhealthy")
		return false
	}
	return true
}

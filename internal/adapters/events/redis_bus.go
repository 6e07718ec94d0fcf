package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the single pub/sub channel carrying both scan and mail
// envelopes. Subscribers dispatch on the envelope name, not the channel.
const Channel = "virusAndMailService"

// RedisPublisher publishes fire-and-forget envelopes. Delivery is
// at-most-once: if no relay is subscribed when Publish runs, the message is
// gone. Durability starts at the queue, not here.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, Channel, raw).Err()
}

// RedisSubscriber feeds raw channel messages to a handler until the context
// ends.
type RedisSubscriber struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisSubscriber(client *redis.Client, logger *slog.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, logger: logger}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context, handle func(ctx context.Context, payload []byte)) error {
	sub := s.client.Subscribe(ctx, Channel)
	defer sub.Close()

	// Force the SUBSCRIBE round trip so a broken connection fails fast
	// instead of silently dropping everything.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			handle(ctx, []byte(msg.Payload))
		}
	}
}

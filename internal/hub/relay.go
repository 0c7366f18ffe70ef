package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the Redis channel notifications are relayed on.
const DefaultChannel = "complaints:notifications"

// RedisRelay relays notifications over Redis Pub/Sub.
type RedisRelay struct {
	Client  *redis.Client
	Channel string
	log     *logrus.Entry
}

var _ Relay = (*RedisRelay)(nil)

func NewRedisRelay(client *redis.Client, logger *logrus.Logger) *RedisRelay {
	return &RedisRelay{Client: client, Channel: DefaultChannel, log: logging.Component(logger, "hub-relay")}
}

func (r *RedisRelay) Publish(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return r.Client.Publish(ctx, r.Channel, payload).Err()
}

func (r *RedisRelay) Subscribe(ctx context.Context) (<-chan models.Notification, error) {
	pubsub := r.Client.Subscribe(ctx, r.Channel)
	// Receive waits for the subscription confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", r.Channel, err)
	}

	out := make(chan models.Notification)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var n models.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					r.log.WithError(err).Warn("Skipping malformed relay message")
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

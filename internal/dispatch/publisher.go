package dispatch

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes commands over Redis pub/sub.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// LogPublisher is the degraded-mode publisher used when no broker is
// configured: it records the command in the log so operators can see
// dropped starts, and reports success so clients keep a uniform API.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p *LogPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("no broker configured, start command dropped",
		slog.String("channel", channel),
		slog.String("payload", string(payload)),
	)
	return nil
}

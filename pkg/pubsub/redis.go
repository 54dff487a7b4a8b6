package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/psuflow/psuflow-api/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher fans JSON messages out on a single Redis channel.
type RedisPublisher struct {
	client  redisPublisher
	channel string
}

// NewRedisPublisher builds a publisher bound to channel.
func NewRedisPublisher(client redisPublisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Channel returns the channel messages are published to.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish encodes payload as JSON and returns the number of subscribers reached.
func (p *RedisPublisher) Publish(ctx context.Context, payload interface{}) (int64, error) {
	if p == nil || p.client == nil {
		return 0, fmt.Errorf("redis publisher not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode message: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, body).Result()
	if err != nil {
		return 0, fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return receivers, nil
}

// Package redis publishes change events to a Redis stream, for
// deployments that have Redis but no Kafka.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr   string
	Stream string
	// MaxLen caps the stream, approximately. Zero leaves it unbounded.
	MaxLen int64
}

type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewPublisher(cfg Config) *Publisher {
	return &Publisher{
		client: redis.NewClient(&redis.Options{
			Addr:        cfg.Addr,
			DialTimeout: 2 * time.Second,
		}),
		stream: cfg.Stream,
		maxLen: cfg.MaxLen,
	}
}

func (p *Publisher) Publish(ctx context.Context, key, value []byte) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: p.maxLen > 0,
		Values: map[string]any{
			"version": string(key),
			"event":   string(value),
		},
	}).Err()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

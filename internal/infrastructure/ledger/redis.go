package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsHarvester/internal/ports"
)

// DefaultRedisKey names the set holding processed titles.
const DefaultRedisKey = "newsharvester:processed_titles"

const redisPingTimeout = 5 * time.Second

// ErrEmptyRedisAddress is returned when the redis backend has no address.
var ErrEmptyRedisAddress = errors.New("redis address is required")

// RedisLedger keeps processed titles in a Redis set.
type RedisLedger struct {
	client *redis.Client
	key    string
}

var _ ports.Ledger = (*RedisLedger)(nil)

// NewRedisLedger wraps an existing client.
func NewRedisLedger(client *redis.Client, key string) *RedisLedger {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisLedger{client: client, key: key}
}

// DialRedis connects and pings the server before handing back a client.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// HasBeenProcessed checks set membership.
func (l *RedisLedger) HasBeenProcessed(ctx context.Context, title string) (bool, error) {
	ok, err := l.client.SIsMember(ctx, l.key, title).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return ok, nil
}

// MarkProcessed adds title to the set.
func (l *RedisLedger) MarkProcessed(ctx context.Context, title string) error {
	if err := l.client.SAdd(ctx, l.key, title).Err(); err != nil {
		return fmt.Errorf("redis sadd: %w", err)
	}
	return nil
}

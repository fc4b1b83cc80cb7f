package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
)

const keyPrefix = "dedup:"

// RedisIndex backs the fingerprint set with Redis so several ingest processes
// can share one dedup history. SET NX gives the same atomic
// check-and-insert the in-memory index gets from its mutex.
type RedisIndex struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIndex connects to addr and verifies the connection. A zero ttl
// keeps entries forever.
func NewRedisIndex(ctx context.Context, addr, password string, ttl time.Duration) (*RedisIndex, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisIndex{client: client, ttl: ttl}, nil
}

func (i *RedisIndex) key(fp []byte) string {
	return keyPrefix + fingerprint.Hex(fp)
}

func (i *RedisIndex) Contains(ctx context.Context, fp []byte) (bool, error) {
	n, err := i.client.Exists(ctx, i.key(fp)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (i *RedisIndex) TryMark(ctx context.Context, fp []byte) (bool, error) {
	ok, err := i.client.SetNX(ctx, i.key(fp), "1", i.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (i *RedisIndex) Unmark(ctx context.Context, fp []byte) error {
	if err := i.client.Del(ctx, i.key(fp)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (i *RedisIndex) Close() error {
	return i.client.Close()
}

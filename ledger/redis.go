package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ruteri/ra-quote-explorer/interfaces"
)

// incrementScript creates the counter and its expiry in one step, so that
// concurrent first writers can neither lose an increment nor leave the key
// without a TTL.
var incrementScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLedger implements interfaces.Ledger on top of Redis.
type RedisLedger struct {
	client *redis.Client
	log    *slog.Logger
}

var _ interfaces.Ledger = (*RedisLedger)(nil)

func NewRedisLedger(client *redis.Client, log *slog.Logger) *RedisLedger {
	return &RedisLedger{
		client: client,
		log:    log,
	}
}

// NewRedisLedgerFromURL connects to the Redis instance at url
// (redis://[user:password@]host:port/db or rediss:// for TLS).
func NewRedisLedgerFromURL(url string, log *slog.Logger) (*RedisLedger, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return NewRedisLedger(redis.NewClient(opts), log), nil
}

func (l *RedisLedger) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (l *RedisLedger) SetWithExpiry(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := l.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (l *RedisLedger) IncrementWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := incrementScript.Run(ctx, l.client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("redis increment %s: %w", key, err)
	}

	l.log.Debug("Incremented ledger counter", "key", key, "count", count)
	return count, nil
}

func (l *RedisLedger) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis pttl %s: %w", key, err)
	}
	return ttl, nil
}

func (l *RedisLedger) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}

package interfaces

import (
	"context"
	"time"
)

// Ledger is the shared expiring key-value store backing abuse counters and
// block records. Every operation is atomic at the single-key level.
type Ledger interface {
	// Get returns the value stored under key. found is false when the key
	// does not exist or has expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// SetWithExpiry stores value under key, replacing any previous value,
	// and expires it after ttl.
	SetWithExpiry(ctx context.Context, key string, value string, ttl time.Duration) error

	// IncrementWithExpiry increments the integer counter under key and returns
	// the new count. When the increment creates the key, its expiry is set to
	// window in the same atomic step, so a counter never exists without a TTL.
	IncrementWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error)

	// TTL returns the remaining lifetime of key. The result is <= 0 when the
	// key does not exist or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}

package ledger

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ruteri/ra-quote-explorer/interfaces"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryLedger is an in-process interfaces.Ledger. State is lost on restart,
// so it is only suitable for tests and local development.
type MemoryLedger struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

var _ interfaces.Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// WithClock replaces the time source used for expiry.
func (l *MemoryLedger) WithClock(now func() time.Time) *MemoryLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// lookup must be called with mu held.
func (l *MemoryLedger) lookup(key string) (memoryEntry, bool) {
	entry, ok := l.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !l.now().Before(entry.expiresAt) {
		delete(l.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (l *MemoryLedger) Get(_ context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.lookup(key)
	if !ok {
		return "", false, nil
	}
	return entry.value, true, nil
}

func (l *MemoryLedger) SetWithExpiry(_ context.Context, key string, value string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = l.now().Add(ttl)
	}
	l.entries[key] = entry
	return nil
}

func (l *MemoryLedger) IncrementWithExpiry(_ context.Context, key string, window time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.lookup(key)
	var count int64
	if ok {
		current, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %s is not an integer: %w", key, err)
		}
		count = current
	}

	count++
	entry.value = strconv.FormatInt(count, 10)
	if count == 1 && window > 0 {
		entry.expiresAt = l.now().Add(window)
	}
	l.entries[key] = entry
	return count, nil
}

func (l *MemoryLedger) TTL(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.lookup(key)
	if !ok {
		return -2, nil
	}
	if entry.expiresAt.IsZero() {
		return -1, nil
	}
	return entry.expiresAt.Sub(l.now()), nil
}

func (l *MemoryLedger) Ping(context.Context) error {
	return nil
}

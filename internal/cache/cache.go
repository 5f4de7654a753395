package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"fundpulse/internal/config"
)

// Cache stores serialized payloads under string keys with a per-call TTL.
// TTL tiering is a caller policy; the cache itself is TTL-agnostic.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

const (
	// sweepLimit bounds how many stale entries one Set may evict.
	sweepLimit = 10
	// sweepFactor: entries older than sweepFactor times the default TTL
	// are fair game for the housekeeping sweep. Staleness correctness is
	// enforced by Get, not by the sweep.
	sweepFactor = 5

	defaultTTL = 60 * time.Second
)

type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	def   time.Duration
}

type memItem struct {
	val      []byte
	inserted time.Time
	ttl      time.Duration
}

// New returns a Redis-backed cache when cfg.RedisURL is set and reachable,
// otherwise the process-local expiring memory cache.
func New(cfg config.Config) Cache {
	if cfg.RedisURL == "" {
		return NewMemory()
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return NewMemory()
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return NewMemory()
	}
	return &Redis{client: client}
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), def: defaultTTL}
}

// Get returns the cached value while its age is below the TTL it was
// stored with. An expired entry is removed and reported absent.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if it.ttl > 0 && time.Since(it.inserted) >= it.ttl {
		delete(m.items, key)
		return nil, false
	}
	return it.val, true
}

// Set unconditionally replaces the entry, then sweeps at most sweepLimit
// long-dead entries as amortized housekeeping.
func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memItem{val: val, inserted: time.Now(), ttl: ttl}

	cutoff := time.Now().Add(-sweepFactor * m.def)
	evicted := 0
	for k, it := range m.items {
		if k == key {
			continue
		}
		if it.inserted.Before(cutoff) {
			delete(m.items, k)
			evicted++
			if evicted >= sweepLimit {
				break
			}
		}
	}
	return nil
}

// Len reports the current number of entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type Redis struct {
	client *redis.Client
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

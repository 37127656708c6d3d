package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/linklytics/linklytics/internal/app/model"
	infraprom "github.com/linklytics/linklytics/internal/infra/prometheus"
	"github.com/redis/go-redis/v9"
)

// ErrMiss signals that the short code has no cached projection. A miss is
// always a valid answer; the store stays authoritative.
var ErrMiss = errors.New("cache: miss")

const keyPrefix = "link:"

// LinkCache is the best-effort accelerator for identity-projection lookups.
type LinkCache interface {
	Get(ctx context.Context, code string) (*model.CachedLink, error)
	Set(ctx context.Context, entry *model.CachedLink) error
	// MightContain answers the negative-lookup filter. False means the code
	// was never allocated here; true means nothing.
	MightContain(code string) bool
	// Remember adds a freshly allocated code to the filter.
	Remember(code string)
	// Warm seeds the filter from the store's known codes at startup.
	Warm(codes []string)
}

type redisLinkCache struct {
	rdb *redis.Client
	ttl time.Duration

	mu     sync.RWMutex
	filter *bloom.BloomFilter

	bloomCapacity uint
	bloomFPRate   float64
}

// Option tweaks cache construction.
type Option func(*redisLinkCache)

// WithBloom sizes the negative-lookup filter.
func WithBloom(capacity uint, fpRate float64) Option {
	return func(c *redisLinkCache) {
		if capacity > 0 {
			c.bloomCapacity = capacity
		}
		if fpRate > 0 && fpRate < 1 {
			c.bloomFPRate = fpRate
		}
	}
}

// NewRedisLinkCache builds a redis-backed LinkCache with the given projection TTL.
func NewRedisLinkCache(rdb *redis.Client, ttl time.Duration, opts ...Option) LinkCache {
	c := &redisLinkCache{
		rdb:           rdb,
		ttl:           ttl,
		bloomCapacity: 1_000_000,
		bloomFPRate:   0.01,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisLinkCache) Get(ctx context.Context, code string) (*model.CachedLink, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			infraprom.CacheOpsTotal.WithLabelValues("miss").Inc()
			return nil, ErrMiss
		}
		infraprom.CacheOpsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("cache: get %q: %w", code, err)
	}

	var entry model.CachedLink
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt entry is indistinguishable from a miss for callers.
		infraprom.CacheOpsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("cache: decode %q: %w", code, err)
	}

	infraprom.CacheOpsTotal.WithLabelValues("hit").Inc()
	return &entry, nil
}

func (c *redisLinkCache) Set(ctx context.Context, entry *model.CachedLink) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", entry.ShortCode, err)
	}

	// Entries are immutable projections, so concurrent writers of the same
	// key always write the same value; SET needs no coordination.
	if err := c.rdb.Set(ctx, keyPrefix+entry.ShortCode, raw, c.ttl).Err(); err != nil {
		infraprom.CacheOpsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("cache: set %q: %w", entry.ShortCode, err)
	}

	infraprom.CacheOpsTotal.WithLabelValues("fill").Inc()
	return nil
}

func (c *redisLinkCache) MightContain(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filter == nil {
		return true
	}
	return c.filter.TestString(code)
}

func (c *redisLinkCache) Remember(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.filter != nil {
		c.filter.AddString(code)
	}
}

func (c *redisLinkCache) Warm(codes []string) {
	capacity := c.bloomCapacity
	if n := uint(len(codes)) * 2; n > capacity {
		capacity = n
	}

	filter := bloom.NewWithEstimates(capacity, c.bloomFPRate)
	for _, code := range codes {
		filter.AddString(code)
	}

	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
}

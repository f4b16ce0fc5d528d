package autosave

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/c0deZ3R0/go-autosave-kit/logging"
)

// CacheConfig controls the duplicate-suppression layer wrapped around a
// transport.
type CacheConfig struct {
	// TTL is how long a successful save of an identical payload suppresses
	// a repeat send. Zero disables expiry.
	TTL time.Duration

	// MaxEntries bounds the number of remembered fingerprints; the least
	// recently used entry is evicted first. Zero means 256.
	MaxEntries int
}

type cacheEntry struct {
	hash   uint64
	result *SaveResult
	at     time.Time
}

type cachingTransport struct {
	inner  Transport
	cfg    CacheConfig
	clock  Clock
	logger *logging.Logger

	mu      sync.Mutex
	order   *list.List
	entries map[uint64]*list.Element
}

// WithCache wraps a transport so that re-saving a payload identical to a
// recently successful one is answered from memory instead of hitting the
// wire. Only successful results are remembered; failures always pass
// through so retries are never suppressed.
func WithCache(inner Transport, cfg CacheConfig) Transport {
	return newCachingTransport(inner, cfg, NewRealClock(), logging.Default())
}

func newCachingTransport(inner Transport, cfg CacheConfig, clock Clock, logger *logging.Logger) Transport {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	if clock == nil {
		clock = NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &cachingTransport{
		inner:   inner,
		cfg:     cfg,
		clock:   clock,
		logger:  logger.WithComponent("cache"),
		order:   list.New(),
		entries: make(map[uint64]*list.Element),
	}
}

func (c *cachingTransport) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	hash, err := hashstructure.Hash(payload, hashstructure.FormatV2, nil)
	if err != nil {
		// Unhashable payloads just skip the cache.
		c.logger.Debug("payload not hashable, bypassing cache", "error", err)
		return c.inner.Save(ctx, payload, sc)
	}

	if result, ok := c.lookup(hash); ok {
		c.logger.Debug("identical payload already saved, skipping transport", "hash", hash)
		return result, nil
	}

	result, err := c.inner.Save(ctx, payload, sc)
	if err == nil && result != nil && result.OK {
		c.remember(hash, result)
	}
	return result, err
}

func (c *cachingTransport) lookup(hash uint64) (*SaveResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.cfg.TTL > 0 && c.clock.Now().Sub(entry.at) > c.cfg.TTL {
		c.order.Remove(el)
		delete(c.entries, hash)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.result, true
}

func (c *cachingTransport) remember(hash uint64, result *SaveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[hash]; ok {
		el.Value.(*cacheEntry).result = result
		el.Value.(*cacheEntry).at = c.clock.Now()
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{hash: hash, result: result, at: c.clock.Now()})
	c.entries[hash] = el

	for c.order.Len() > c.cfg.MaxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).hash)
	}
}

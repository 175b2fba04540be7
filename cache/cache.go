package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hicd.com/records/logger"
	"hicd.com/records/utils"
)

const (
	DefaultTTL           = 10 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

type Options struct {
	DefaultTTL    time.Duration
	SweepInterval time.Duration
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// flight is one in-progress computation. Waiters block on done; value and
// err are set before done is closed.
type flight struct {
	done  chan struct{}
	value interface{}
	err   error
}

// Cache is an in-memory TTL cache with single-flight computation: concurrent
// requests for an absent key share one producer run. Expired entries are
// dropped lazily on access; the background sweeper only reclaims memory for
// keys nobody asks for anymore.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	pending map[string]*flight

	// generations detect invalidation racing an in-flight producer: a
	// result is stored only if the key's generation is unchanged since the
	// flight took off.
	keyGen   map[string]uint64
	clearGen uint64

	hits      uint64
	misses    uint64
	evictions uint64

	defaultTTL time.Duration
	sweepStop  chan struct{}
	closeOnce  sync.Once
	log        zerolog.Logger
}

func New(opts Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	c := &Cache{
		entries:    make(map[string]entry),
		pending:    make(map[string]*flight),
		keyGen:     make(map[string]uint64),
		defaultTTL: opts.DefaultTTL,
		sweepStop:  make(chan struct{}),
		log:        logger.NewLogger("QueryCache"),
	}

	if opts.SweepInterval > 0 {
		go c.sweepLoop(opts.SweepInterval)
	}
	return c
}

// Key builds the canonical cache key: queryType:id plus sorted k=v pairs.
func Key(queryType, id string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(queryType)
	b.WriteString(":")
	b.WriteString(id)

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(":")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(params[k])
		}
	}
	return b.String()
}

// Get returns the live value under key. An expired entry is removed on the
// spot and reported as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache) getLocked(key string) (interface{}, bool) {
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key. A non-positive ttl means the default.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl)
}

func (c *Cache) setLocked(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// GetOrCompute returns the cached value or runs producer to fill it. Only
// one producer runs per key at a time; latecomers block until it finishes
// and share its outcome. A failed producer is delivered to every waiter and
// nothing is cached. The producer runs to completion even when a waiter
// gives up; that waiter alone gets its context error.
func (c *Cache) GetOrCompute(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if v, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}

	if f, ok := c.pending[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.value, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	c.pending[key] = f
	gen := c.keyGen[key]
	clearGen := c.clearGen
	c.mu.Unlock()

	value, err := runProducer(ctx, producer)

	c.mu.Lock()
	f.value, f.err = value, err
	if err == nil && c.keyGen[key] == gen && c.clearGen == clearGen {
		c.setLocked(key, value, ttl)
	}
	delete(c.pending, key)
	c.mu.Unlock()
	close(f.done)

	if err != nil {
		c.log.Debug().Str("key", key).Err(err).Msg("Producer failed, result not cached")
	}
	return value, err
}

// runProducer shields waiters from a panicking producer: the panic becomes
// an error so the flight's done channel still closes.
func runProducer(ctx context.Context, producer func(context.Context) (interface{}, error)) (value interface{}, err error) {
	defer utils.RecoverWithError(&err)
	value, err = producer(ctx)
	return value, err
}

// Invalidate removes one key. Returns true when a live entry was dropped.
func (c *Cache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keyGen[key]++
	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
		c.evictions++
	}
	return ok
}

// InvalidatePatient removes every key bound to the record id, whatever the
// query type.
func (c *Cache) InvalidatePatient(recordID string) int {
	return c.invalidateMatching(func(key string) bool {
		return strings.Contains(key, ":"+recordID)
	})
}

// InvalidateType removes every key of one query type.
func (c *Cache) InvalidateType(queryType string) int {
	prefix := queryType + ":"
	return c.invalidateMatching(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})
}

func (c *Cache) invalidateMatching(match func(string) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if match(key) {
			delete(c.entries, key)
			c.keyGen[key]++
			c.evictions++
			removed++
		}
	}
	for key := range c.pending {
		if match(key) {
			c.keyGen[key]++
		}
	}
	return removed
}

// Clear drops everything. In-flight producers finish but their results are
// discarded.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictions += uint64(len(c.entries))
	c.entries = make(map[string]entry)
	c.clearGen++
}

// CleanExpired sweeps expired entries out now and returns how many went.
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			c.evictions++
			removed++
		}
	}
	return removed
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := c.CleanExpired(); n > 0 {
				c.log.Debug().Int("removed", n).Msg("Sweeper removed expired entries")
			}
		case <-c.sweepStop:
			return
		}
	}
}

// Close stops the background sweeper. The cache stays usable.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.sweepStop)
	})
}

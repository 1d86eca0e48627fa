package cache

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheDuration is how long a snapshot stays fresh when no duration is configured.
const DefaultCacheDuration = 60 * time.Second

// Option configures a Collection.
type Option func(*options)

type options struct {
	ttl           time.Duration
	now           func() time.Time
	retryAttempts int
	retryBackoff  time.Duration
}

func defaultOptions() options {
	return options{
		ttl:           DefaultCacheDuration,
		now:           time.Now,
		retryAttempts: 1,
	}
}

// WithCacheDuration sets how long a fetched snapshot is served without asking the provider.
func WithCacheDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRetry allows up to attempts fetches per read when the provider is unavailable,
// waiting wait before the second attempt and doubling it after each failure.
// Writes are never retried.
func WithRetry(attempts int, wait time.Duration) Option {
	return func(o *options) {
		if attempts >= 1 {
			o.retryAttempts = attempts
		}
		if wait >= 0 {
			o.retryBackoff = wait
		}
	}
}

// snapshot is the cached copy of a collection as of fetchedAt.
// limit is the limit it was fetched with; 0 means the whole collection.
type snapshot[T any] struct {
	items     []T
	fetchedAt time.Time
	limit     int
}

// complete reports whether the snapshot holds the whole collection.
func (s *snapshot[T]) complete() bool {
	return s.limit <= 0 || len(s.items) < s.limit
}

func (s *snapshot[T]) covers(limit int) bool {
	return s.complete() || (limit > 0 && limit <= len(s.items))
}

// EntryInfo describes the cache entry of one collection.
type EntryInfo struct {
	Name      string     `json:"name"`
	Cached    bool       `json:"cached"`
	Size      int        `json:"size"`
	Complete  bool       `json:"complete"`
	Fresh     bool       `json:"fresh"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
	Hits      int64      `json:"hits"`
	Misses    int64      `json:"misses"`
	Fetches   int64      `json:"fetches"`
	Failures  int64      `json:"failures"`
}

// Collection is a read-through cache in front of one remote collection.
//
// Reads are served from the snapshot while it is fresh. Misses for the same limit
// share a single provider call. Successful writes drop the snapshot, and a fetch
// that started before a write is never stored.
type Collection[T repository.Item] struct {
	name     string
	provider repository.Provider[T]
	opts     options

	mu         sync.RWMutex
	entry      *snapshot[T]
	generation uint64

	flights singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	fetches  atomic.Int64
	failures atomic.Int64
}

// NewCollection creates an empty cache for the named collection.
// A nil provider makes every operation fail with repository.ErrConfigurationMissing.
func NewCollection[T repository.Item](name string, provider repository.Provider[T], opts ...Option) *Collection[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Collection[T]{name: name, provider: provider, opts: o}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Get returns the collection in provider order, truncated to limit items when limit > 0.
//
// It never fails. When the provider cannot be reached a forced read returns an empty
// slice; a lazy read falls back to the previous snapshot if there is one.
func (c *Collection[T]) Get(ctx context.Context, limit int, forceRefresh bool) []T {
	if limit < 0 {
		limit = 0
	}
	log := logger.WithCollection("cache", c.name)

	if !forceRefresh {
		if items, ok := c.lookup(limit, true); ok {
			c.hits.Add(1)
			log.Tracef("cache hit (limit %d)", limit)
			return items
		}
	}
	c.misses.Add(1)

	items, err := c.load(ctx, limit)
	if err == nil {
		return prefix(items, limit)
	}

	if forceRefresh {
		log.Warnf("forced refresh failed, returning empty result: %v", err)
		return []T{}
	}
	if stale, ok := c.lookup(limit, false); ok {
		log.Warnf("refresh failed, serving stale snapshot: %v", err)
		return stale
	}
	log.Warnf("fetch failed, returning empty result: %v", err)
	return []T{}
}

// Add inserts item through the provider and invalidates the snapshot on success.
func (c *Collection[T]) Add(ctx context.Context, item T) Result {
	if c.provider == nil {
		return Failed(fmt.Errorf("add to %s: %w", c.name, repository.ErrConfigurationMissing))
	}
	if err := c.provider.Insert(ctx, item); err != nil {
		logger.WithCollection("cache", c.name).Errorf("add failed: %v", err)
		return Failed(err)
	}
	c.Invalidate()
	logger.WithCollection("cache", c.name).Debugf("added %s, snapshot invalidated", item.ItemID())
	return Succeeded(item.ItemID())
}

// Delete removes id through the provider and invalidates the snapshot on success.
func (c *Collection[T]) Delete(ctx context.Context, id string) Result {
	if c.provider == nil {
		return Failed(fmt.Errorf("delete from %s: %w", c.name, repository.ErrConfigurationMissing))
	}
	if err := c.provider.Delete(ctx, id); err != nil {
		logger.WithCollection("cache", c.name).Errorf("delete %s failed: %v", id, err)
		return Failed(err)
	}
	c.Invalidate()
	logger.WithCollection("cache", c.name).Debugf("deleted %s, snapshot invalidated", id)
	return Succeeded(id)
}

// Increment bumps the counter of id (likes, downloads) and invalidates the snapshot on success.
// Providers without a counter fail with repository.ErrConfigurationMissing.
func (c *Collection[T]) Increment(ctx context.Context, id string) Result {
	counter, ok := c.provider.(repository.Incrementer)
	if !ok {
		return Failed(fmt.Errorf("increment %s: %w", c.name, repository.ErrConfigurationMissing))
	}
	if err := counter.Increment(ctx, id); err != nil {
		logger.WithCollection("cache", c.name).Warnf("increment %s failed: %v", id, err)
		return Failed(err)
	}
	c.Invalidate()
	return Succeeded(id)
}

// Invalidate drops the snapshot so the next read goes to the provider.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
	c.generation++
}

// Count asks the provider for the exact size of the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	if c.provider == nil {
		return 0, fmt.Errorf("count %s: %w", c.name, repository.ErrConfigurationMissing)
	}
	n, err := c.provider.Count(ctx)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Warm refreshes the whole collection unless a fresh complete snapshot exists.
// A failure leaves the current snapshot in place.
func (c *Collection[T]) Warm(ctx context.Context) error {
	if _, ok := c.lookup(0, true); ok {
		return nil
	}
	if _, err := c.load(ctx, 0); err != nil {
		return err
	}
	return nil
}

// Info reports the state of the cache entry.
func (c *Collection[T]) Info() EntryInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info := EntryInfo{
		Name:     c.name,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
		Failures: c.failures.Load(),
	}
	if c.entry != nil {
		fetchedAt := c.entry.fetchedAt
		info.Cached = true
		info.Size = len(c.entry.items)
		info.Complete = c.entry.complete()
		info.Fresh = c.isFresh(c.entry)
		info.FetchedAt = &fetchedAt
	}
	return info
}

// lookup returns a prefix copy of the snapshot if it can answer a read for limit.
func (c *Collection[T]) lookup(limit int, requireFresh bool) ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.entry
	if e == nil || !e.covers(limit) {
		return nil, false
	}
	if requireFresh && !c.isFresh(e) {
		return nil, false
	}
	return prefix(e.items, limit), true
}

func (c *Collection[T]) isFresh(e *snapshot[T]) bool {
	return c.opts.now().Sub(e.fetchedAt) < c.opts.ttl
}

// load fetches through the provider, joining an in-flight fetch for the same
// generation and limit. The shared fetch is detached from ctx; ctx only bounds the wait.
func (c *Collection[T]) load(ctx context.Context, limit int) ([]T, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("fetch %s: %w", c.name, repository.ErrConfigurationMissing)
	}

	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()

	key := strconv.FormatUint(gen, 10) + ":" + strconv.Itoa(limit)
	ch := c.flights.DoChan(key, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), gen, limit)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.WithCollection("cache", c.name).Tracef("joined in-flight fetch (limit %d)", limit)
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch %s: %w: %v", c.name, repository.ErrRemoteUnavailable, ctx.Err())
	}
}

func (c *Collection[T]) fetch(ctx context.Context, gen uint64, limit int) ([]T, error) {
	log := logger.WithCollection("cache", c.name)
	c.fetches.Add(1)
	log.Debugf("fetching from provider (limit %d)", limit)

	items, err := c.fetchWithRetry(ctx, limit)
	if err != nil {
		c.failures.Add(1)
		return nil, err
	}
	if items == nil {
		items = []T{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		log.Debug("collection changed during fetch, result not cached")
		return items, nil
	}
	c.entry = &snapshot[T]{items: slices.Clone(items), fetchedAt: c.opts.now(), limit: limit}
	return items, nil
}

func (c *Collection[T]) fetchWithRetry(ctx context.Context, limit int) ([]T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.retryBackoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	retries := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.opts.retryAttempts-1)), ctx)

	attempt := func() ([]T, error) {
		items, err := c.provider.Fetch(ctx, limit)
		if err != nil && !repository.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return items, err
	}
	notify := func(err error, wait time.Duration) {
		logger.WithCollection("cache", c.name).Debugf("fetch failed, retrying in %v: %v", wait, err)
	}
	return backoff.RetryNotifyWithData(attempt, retries, notify)
}

// prefix copies the first limit items (all of them when limit <= 0).
func prefix[T any](items []T, limit int) []T {
	n := len(items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}

package catalog

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultStaleAfter  = 5 * time.Minute
	DefaultMaxAttempts = 3
	DefaultRetryBase   = time.Second
	maxRetryDelay      = 30 * time.Second
)

// Fetcher is the single-shot catalog source, normally *Client.
type Fetcher interface {
	FetchCatalog(ctx context.Context, q skips.Query) (skips.Catalog, error)
}

// SharedStore is an optional second cache level shared between replicas.
type SharedStore interface {
	Load(ctx context.Context, q skips.Query) (c skips.Catalog, fetchedAt time.Time, ok bool, err error)
	Save(ctx context.Context, q skips.Query, c skips.Catalog, fetchedAt time.Time, ttl time.Duration) error
	Delete(ctx context.Context, q skips.Query) error
}

type Options struct {
	StaleAfter  time.Duration // default 5m
	MaxAttempts int           // total attempts per load, default 3
	RetryBase   time.Duration // first backoff, doubled per attempt

	// Backoff overrides the exponential delay before attempt n+1.
	Backoff func(attempt int) time.Duration
	Shared  SharedStore
	Now     func() time.Time
}

type entry struct {
	catalog   skips.Catalog
	fetchedAt time.Time
}

// Cache wraps a Fetcher with a staleness window, bounded retry and
// coalescing of concurrent loads for the same query.
type Cache struct {
	fetcher Fetcher
	opts    Options

	mu      sync.Mutex
	entries map[string]entry
	gens    map[string]uint64

	flights singleflight.Group
}

func NewCache(f Fetcher, opts Options) *Cache {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = DefaultRetryBase
	}
	if opts.Backoff == nil {
		base := opts.RetryBase
		opts.Backoff = func(attempt int) time.Duration {
			d := base << (attempt - 1)
			if d <= 0 || d > maxRetryDelay {
				return maxRetryDelay
			}
			return d
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		fetcher: f,
		opts:    opts,
		entries: map[string]entry{},
		gens:    map[string]uint64{},
	}
}

// GetCatalog serves a fresh cached catalog or loads it, blocking until the
// load (including retries) finishes or ctx ends.
func (c *Cache) GetCatalog(ctx context.Context, q skips.Query) (skips.Catalog, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if cat, ok := c.fresh(q); ok {
		return cat, nil
	}
	return c.load(ctx, q, false)
}

// Refresh re-fetches from the remote endpoint regardless of staleness. If
// a load for the key is already running, Refresh waits for that one.
func (c *Cache) Refresh(ctx context.Context, q skips.Query) (skips.Catalog, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return c.load(ctx, q, true)
}

// Invalidate drops the cached entry so the next GetCatalog fetches again.
// A load already in flight still answers its callers but is not stored.
func (c *Cache) Invalidate(ctx context.Context, q skips.Query) error {
	key := q.Key()
	c.mu.Lock()
	delete(c.entries, key)
	c.gens[key]++
	c.mu.Unlock()
	c.flights.Forget(key)

	if c.opts.Shared != nil {
		if err := c.opts.Shared.Delete(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) fresh(q skips.Query) (skips.Catalog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[q.Key()]
	if !ok || !c.isFresh(e.fetchedAt) {
		return nil, false
	}
	return e.catalog, true
}

func (c *Cache) isFresh(fetchedAt time.Time) bool {
	return c.opts.Now().Before(fetchedAt.Add(c.opts.StaleAfter))
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

func (c *Cache) store(key string, gen uint64, cat skips.Catalog, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key] != gen {
		return
	}
	c.entries[key] = entry{catalog: cat, fetchedAt: at}
}

// load runs at most one flight per key. A caller arriving while a flight
// is running joins it whatever its own force flag; force only decides how
// a new flight starts.
func (c *Cache) load(ctx context.Context, q skips.Query, force bool) (skips.Catalog, error) {
	key := q.Key()
	ch := c.flights.DoChan(key, func() (any, error) {
		// the flight outlives any single caller
		fctx := context.WithoutCancel(ctx)
		gen := c.generation(key)

		if !force {
			if cat, at, ok := c.loadShared(fctx, q); ok {
				c.store(key, gen, cat, at)
				return cat, nil
			}
		}
		cat, err := c.fetchWithRetry(fctx, q)
		if err != nil {
			return nil, err
		}
		now := c.opts.Now()
		c.store(key, gen, cat, now)
		c.saveShared(fctx, q, cat, now)
		return cat, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(skips.Catalog), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fetchWithRetry(ctx context.Context, q skips.Query) (skips.Catalog, error) {
	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		cat, err := c.fetcher.FetchCatalog(ctx, q)
		if err == nil {
			return cat, nil
		}
		lastErr = err

		var inv *skips.InvariantError
		if errors.As(err, &inv) || attempt == c.opts.MaxAttempts {
			break
		}
		delay := c.opts.Backoff(attempt)
		log.Printf("catalog %s: attempt %d/%d failed: %v (retry in %s)", q.Key(), attempt, c.opts.MaxAttempts, err, delay)
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

func (c *Cache) loadShared(ctx context.Context, q skips.Query) (skips.Catalog, time.Time, bool) {
	if c.opts.Shared == nil {
		return nil, time.Time{}, false
	}
	cat, at, ok, err := c.opts.Shared.Load(ctx, q)
	if err != nil {
		log.Printf("catalog %s: shared cache read: %v", q.Key(), err)
		return nil, time.Time{}, false
	}
	if !ok || len(cat) == 0 || !c.isFresh(at) {
		return nil, time.Time{}, false
	}
	return cat, at, true
}

func (c *Cache) saveShared(ctx context.Context, q skips.Query, cat skips.Catalog, at time.Time) {
	if c.opts.Shared == nil {
		return
	}
	if err := c.opts.Shared.Save(ctx, q, cat, at, c.opts.StaleAfter); err != nil {
		log.Printf("catalog %s: shared cache write: %v", q.Key(), err)
	}
}

package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-skip-selector/internal/skips"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	calls atomic.Int32
	fn    func(n int) (skips.Catalog, error)
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context, q skips.Query) (skips.Catalog, error) {
	n := int(f.calls.Add(1))
	return f.fn(n)
}

func okCatalog() skips.Catalog {
	return skips.Catalog{{ID: 1, Size: 4}, {ID: 2, Size: 6}}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func noBackoff(int) time.Duration { return 0 }

func newTestCache(f Fetcher, clk *clock, opts Options) *Cache {
	opts.Now = clk.Now
	if opts.Backoff == nil {
		opts.Backoff = noBackoff
	}
	return NewCache(f, opts)
}

func TestCacheServesFreshWithoutRefetch(t *testing.T) {
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return okCatalog(), nil }}
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	c := newTestCache(f, clk, Options{})
	ctx := context.Background()

	_, err := c.GetCatalog(ctx, lowestoft)
	require.NoError(t, err)
	clk.Advance(4 * time.Minute)
	_, err = c.GetCatalog(ctx, lowestoft)
	require.NoError(t, err)
	require.Equal(t, int32(1), f.calls.Load())

	clk.Advance(2 * time.Minute)
	_, err = c.GetCatalog(ctx, lowestoft)
	require.NoError(t, err)
	require.Equal(t, int32(2), f.calls.Load())
}

func TestCacheKeysAreIndependent(t *testing.T) {
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return okCatalog(), nil }}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})
	ctx := context.Background()

	_, _ = c.GetCatalog(ctx, lowestoft)
	_, _ = c.GetCatalog(ctx, skips.Query{Postcode: "LS1", Area: "Leeds"})
	_, _ = c.GetCatalog(ctx, lowestoft)
	require.Equal(t, int32(2), f.calls.Load())
}

func TestCacheRetriesUpToBound(t *testing.T) {
	boom := &skips.TransportError{StatusCode: 503, StatusText: "Service Unavailable"}
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return nil, boom }}
	c := newTestCache(f, &clock{now: time.Now()}, Options{MaxAttempts: 4})

	_, err := c.GetCatalog(context.Background(), lowestoft)
	require.ErrorIs(t, err, boom)
	require.Equal(t, int32(4), f.calls.Load())
}

func TestCacheDefaultBoundIsThree(t *testing.T) {
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return nil, &skips.EmptyCatalogError{} }}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})

	_, err := c.GetCatalog(context.Background(), lowestoft)
	var ee *skips.EmptyCatalogError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, int32(3), f.calls.Load())
}

func TestCacheRetryRecovers(t *testing.T) {
	f := &fakeFetcher{fn: func(n int) (skips.Catalog, error) {
		if n < 3 {
			return nil, &skips.NetworkError{Err: errors.New("connection reset")}
		}
		return okCatalog(), nil
	}}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})

	cat, err := c.GetCatalog(context.Background(), lowestoft)
	require.NoError(t, err)
	require.Len(t, cat, 2)
	require.Equal(t, int32(3), f.calls.Load())
}

func TestCacheFailureIsNotCached(t *testing.T) {
	fail := true
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) {
		if fail {
			return nil, errors.New("down")
		}
		return okCatalog(), nil
	}}
	c := newTestCache(f, &clock{now: time.Now()}, Options{MaxAttempts: 1})

	_, err := c.GetCatalog(context.Background(), lowestoft)
	require.Error(t, err)
	fail = false
	_, err = c.GetCatalog(context.Background(), lowestoft)
	require.NoError(t, err)
	require.Equal(t, int32(2), f.calls.Load())
}

func TestCacheCoalescesConcurrentLoads(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) {
		<-release
		return okCatalog(), nil
	}}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetCatalog(context.Background(), lowestoft)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), f.calls.Load())
}

func TestCacheGetJoinsRunningRefresh(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) {
		entered <- struct{}{}
		<-release
		return okCatalog(), nil
	}}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})
	ctx := context.Background()

	refreshed := make(chan error, 1)
	go func() {
		_, err := c.Refresh(ctx, lowestoft)
		refreshed <- err
	}()
	<-entered

	got := make(chan error, 1)
	go func() {
		_, err := c.GetCatalog(ctx, lowestoft)
		got <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-refreshed)
	require.NoError(t, <-got)
	require.Equal(t, int32(1), f.calls.Load())
}

func TestCacheRefreshJoinsRunningGet(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) {
		entered <- struct{}{}
		<-release
		return okCatalog(), nil
	}}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})
	ctx := context.Background()

	got := make(chan error, 1)
	go func() {
		_, err := c.GetCatalog(ctx, lowestoft)
		got <- err
	}()
	<-entered

	refreshed := make(chan error, 1)
	go func() {
		_, err := c.Refresh(ctx, lowestoft)
		refreshed <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-got)
	require.NoError(t, <-refreshed)
	require.Equal(t, int32(1), f.calls.Load())
}

func TestCacheCallerCancelDoesNotAbortFlight(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) {
		<-release
		return okCatalog(), nil
	}}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetCatalog(ctx, lowestoft)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		_, ok := c.fresh(lowestoft)
		return ok
	}, time.Second, time.Millisecond)
	_, err := c.GetCatalog(context.Background(), lowestoft)
	require.NoError(t, err)
	require.Equal(t, int32(1), f.calls.Load())
}

func TestCacheRefreshIgnoresStaleness(t *testing.T) {
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return okCatalog(), nil }}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})
	ctx := context.Background()

	_, _ = c.GetCatalog(ctx, lowestoft)
	_, err := c.Refresh(ctx, lowestoft)
	require.NoError(t, err)
	require.Equal(t, int32(2), f.calls.Load())

	// refreshed value is cached again
	_, _ = c.GetCatalog(ctx, lowestoft)
	require.Equal(t, int32(2), f.calls.Load())
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	f := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return okCatalog(), nil }}
	c := newTestCache(f, &clock{now: time.Now()}, Options{})
	ctx := context.Background()

	_, _ = c.GetCatalog(ctx, lowestoft)
	require.NoError(t, c.Invalidate(ctx, lowestoft))
	_, _ = c.GetCatalog(ctx, lowestoft)
	require.Equal(t, int32(2), f.calls.Load())
}

type memShared struct {
	mu   sync.Mutex
	recs map[string]entry
	dels int
}

func (m *memShared) Load(_ context.Context, q skips.Query) (skips.Catalog, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.recs[q.Key()]
	return e.catalog, e.fetchedAt, ok, nil
}

func (m *memShared) Save(_ context.Context, q skips.Query, c skips.Catalog, at time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[q.Key()] = entry{catalog: c, fetchedAt: at}
	return nil
}

func (m *memShared) Delete(_ context.Context, q skips.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, q.Key())
	m.dels++
	return nil
}

func TestCacheSharedLevel(t *testing.T) {
	shared := &memShared{recs: map[string]entry{}}
	clk := &clock{now: time.Now()}
	f1 := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return okCatalog(), nil }}
	f2 := &fakeFetcher{fn: func(int) (skips.Catalog, error) { return okCatalog(), nil }}
	a := newTestCache(f1, clk, Options{Shared: shared})
	b := newTestCache(f2, clk, Options{Shared: shared})
	ctx := context.Background()

	_, err := a.GetCatalog(ctx, lowestoft)
	require.NoError(t, err)
	cat, err := b.GetCatalog(ctx, lowestoft)
	require.NoError(t, err)
	require.Len(t, cat, 2)
	require.Equal(t, int32(1), f1.calls.Load())
	require.Equal(t, int32(0), f2.calls.Load())

	// stale shared record is ignored
	clk.Advance(6 * time.Minute)
	_, err = b.GetCatalog(ctx, lowestoft)
	require.NoError(t, err)
	require.Equal(t, int32(1), f2.calls.Load())

	// refresh never reads the shared level
	_, err = a.Refresh(ctx, lowestoft)
	require.NoError(t, err)
	require.Equal(t, int32(2), f1.calls.Load())

	require.NoError(t, a.Invalidate(ctx, lowestoft))
	require.Equal(t, 1, shared.dels)
}

func TestDefaultBackoff(t *testing.T) {
	c := NewCache(&fakeFetcher{}, Options{RetryBase: time.Second})
	require.Equal(t, time.Second, c.opts.Backoff(1))
	require.Equal(t, 2*time.Second, c.opts.Backoff(2))
	require.Equal(t, 4*time.Second, c.opts.Backoff(3))
	require.Equal(t, 30*time.Second, c.opts.Backoff(10))
	require.Equal(t, 30*time.Second, c.opts.Backoff(80))
}

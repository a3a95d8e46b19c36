package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/pkg/event"
)

type page struct {
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

func newTestCache(t *testing.T) (*Cache, *Memory) {
	t.Helper()
	m := NewMemory(time.Minute)
	t.Cleanup(func() { _ = m.Close() })
	return New(m, event.NewBus(), time.Minute), m
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "products:page:2", ProductsPage(2))
	assert.Equal(t, "variants:17", Variants(17))
	assert.Equal(t, "stock-reports:2024-01-01::all", StockReports("2024-01-01", "", "all"))
}

func TestRememberCallsLoaderOnce(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (page, error) {
		calls++
		return page{Count: 1, Results: []string{"Tee"}}, nil
	}

	first, err := Remember(ctx, c, ProductsPage(1), load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, ProductsPage(1), load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	c, m := newTestCache(t)
	boom := errors.New("boom")

	_, err := Remember(context.Background(), c, Variants(3), func(context.Context) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Size())
}

func TestCachedValueIsACopy(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	orig := page{Results: []string{"a"}}
	require.NoError(t, c.Set(ctx, "k", orig))
	orig.Results[0] = "mutated"

	var got page
	require.True(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "a", got.Results[0])
}

func TestInvalidateNotifiesSubscribers(t *testing.T) {
	c, m := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, ProductsPage(1), page{}))
	require.NoError(t, c.Set(ctx, ProductsPage(2), page{}))
	require.NoError(t, c.Set(ctx, Variants(5), page{}))

	var got []Invalidation
	stop := c.Subscribe(func(inv Invalidation) { got = append(got, inv) })
	defer stop()

	require.NoError(t, c.InvalidatePrefix(ctx, ProductsPrefix))
	require.NoError(t, c.Invalidate(ctx, Variants(5)))

	assert.Equal(t, []Invalidation{
		{Key: ProductsPrefix, Prefix: true},
		{Key: "variants:5"},
	}, got)
	assert.Equal(t, 0, m.Size())
}

func TestInvalidatePrefixWithNothingCachedStillNotifies(t *testing.T) {
	c, _ := newTestCache(t)
	calls := 0
	c.Subscribe(func(Invalidation) { calls++ })

	require.NoError(t, c.InvalidatePrefix(context.Background(), StockReportsPrefix))
	assert.Equal(t, 1, calls)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(time.Minute)
	defer m.Close()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", 1, 0))
	var v int
	ok, err := m.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = m.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadOutdatedByInvalidationIsNotCached(t *testing.T) {
	for name, invalidate := range map[string]func(c *Cache) error{
		"key":    func(c *Cache) error { return c.Invalidate(context.Background(), Variants(1)) },
		"prefix": func(c *Cache) error { return c.InvalidatePrefix(context.Background(), VariantsPrefix) },
	} {
		t.Run(name, func(t *testing.T) {
			c, m := newTestCache(t)
			ctx := context.Background()
			started, release := make(chan struct{}), make(chan struct{})
			done := make(chan []int)

			go func() {
				v, _ := Remember(ctx, c, Variants(1), func(context.Context) ([]int, error) {
					close(started)
					<-release
					return []int{10}, nil
				})
				done <- v
			}()

			<-started
			require.NoError(t, invalidate(c))
			close(release)
			assert.Equal(t, []int{10}, <-done)
			assert.Equal(t, 0, m.Size())

			fresh, err := Remember(ctx, c, Variants(1), func(context.Context) ([]int, error) { return []int{9}, nil })
			require.NoError(t, err)
			assert.Equal(t, []int{9}, fresh)
		})
	}
}

func TestUnrelatedInvalidationKeepsLoad(t *testing.T) {
	c, m := newTestCache(t)
	ctx := context.Background()

	_, err := Remember(ctx, c, Variants(1), func(ctx context.Context) ([]int, error) {
		require.NoError(t, c.InvalidatePrefix(ctx, ProductsPrefix))
		require.NoError(t, c.Invalidate(ctx, Variants(2)))
		return []int{4}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Size())
}

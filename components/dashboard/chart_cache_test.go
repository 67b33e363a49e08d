package dashboard

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute)
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	first, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	second, err := cache.GetOrRender("key", render)
	require.NoError(t, err)

	assert.Equal(t, "html", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestChartCacheExpires(t *testing.T) {
	cache := NewChartCache(5 * time.Millisecond)
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = cache.GetOrRender("key", render)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	time.Sleep(20 * time.Millisecond)
	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheDoesNotStoreErrors(t *testing.T) {
	cache := NewChartCache(time.Minute)
	boom := errors.New("boom")
	_, err := cache.GetOrRender("key", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Len())
}

func TestChartCacheCollapsesConcurrentMisses(t *testing.T) {
	cache := NewChartCache(time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})
	render := func() (string, error) {
		calls.Add(1)
		<-release
		return "html", nil
	}

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			html, err := cache.GetOrRender("key", render)
			assert.NoError(t, err)
			assert.Equal(t, "html", html)
		}()
	}
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(4))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestChartCacheDisabled(t *testing.T) {
	cache := NewChartCache(0)
	calls := 0
	for range 2 {
		_, err := cache.GetOrRender("key", func() (string, error) {
			calls++
			return "x", nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, cache.Len())
}

func TestConfigHashIsStable(t *testing.T) {
	a := configHash(TimeSeriesQuery{Fields: []string{"temperature"}, TimeRange: TimeRangeLast24h})
	b := configHash(TimeSeriesQuery{Fields: []string{"temperature"}, TimeRange: TimeRangeLast24h})
	c := configHash(TimeSeriesQuery{Fields: []string{"humidity"}, TimeRange: TimeRangeLast24h})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "empty", configHash(nil))
}

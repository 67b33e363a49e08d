package viewstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
	periods []time.Duration
}

func (f *tickerFactory) New(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	f.periods = append(f.periods, d)
	return t
}

func (f *tickerFactory) last() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

func (f *tickerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func kpiWidget(id string, behavior dashboard.Behavior) dashboard.Widget {
	return dashboard.Widget{ID: id, Type: dashboard.WidgetKPI, Config: dashboard.KPIConfig{DeviceID: "D1", FieldName: "temp"}, Behavior: behavior}
}

type scriptedFetch struct {
	calls   atomic.Int32
	mu      sync.Mutex
	results []fetchResult
}

type fetchResult struct {
	data dashboard.WidgetData
	err  error
}

func (s *scriptedFetch) push(data dashboard.WidgetData, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, fetchResult{data: data, err: err})
}

func (s *scriptedFetch) Fetch(context.Context, dashboard.Widget) (dashboard.WidgetData, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return dashboard.WidgetData{"value": 1}, nil
	}
	next := s.results[0]
	s.results = s.results[1:]
	return next.data, next.err
}

type networkError struct{}

func (networkError) Error() string { return "connection refused" }
func (networkError) Kind() string  { return string(dashboard.KindNetwork) }

func TestControllerLifecycle(t *testing.T) {
	fetch := &scriptedFetch{}
	fetch.push(dashboard.WidgetData{"value": 21}, nil)

	var mu sync.Mutex
	var seen []dashboard.WidgetStatus
	c := New(Options{
		Widget: kpiWidget("k1", dashboard.Behavior{}),
		Fetch:  fetch.Fetch,
		OnChange: func(s Snapshot) {
			mu.Lock()
			seen = append(seen, s.Status)
			mu.Unlock()
		},
	})
	assert.Equal(t, dashboard.StatusIdle, c.Snapshot().Status)

	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dashboard.StatusSuccess, snap.Status)
	assert.Equal(t, 21, snap.Data["value"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []dashboard.WidgetStatus{dashboard.StatusLoading, dashboard.StatusSuccess}, seen)
}

func TestControllerEmptyIsNotAnError(t *testing.T) {
	fetch := &scriptedFetch{}
	fetch.push(dashboard.EmptyData(nil, "No data"), nil)
	c := New(Options{Widget: kpiWidget("k1", dashboard.Behavior{}), Fetch: fetch.Fetch})
	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dashboard.StatusEmpty, snap.Status)
	assert.Empty(t, snap.Error)
}

func TestControllerStaleWhileRevalidate(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	fetch := func(ctx context.Context, _ dashboard.Widget) (dashboard.WidgetData, error) {
		n := calls.Add(1)
		if n == 1 {
			return dashboard.WidgetData{"value": 1}, nil
		}
		started <- struct{}{}
		<-release
		return dashboard.WidgetData{"value": 2}, nil
	}
	c := New(Options{Widget: kpiWidget("k1", dashboard.Behavior{}), Fetch: fetch})
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	done := make(chan Snapshot, 1)
	go func() {
		snap, _ := c.Refresh(context.Background())
		done <- snap
	}()
	<-started
	during := c.Snapshot()
	assert.Equal(t, dashboard.StatusLoading, during.Status)
	assert.True(t, during.Refreshing)
	assert.Equal(t, 1, during.Data["value"])

	close(release)
	final := <-done
	assert.Equal(t, dashboard.StatusSuccess, final.Status)
	assert.Equal(t, 2, final.Data["value"])
	assert.False(t, final.Refreshing)
}

func TestControllerErrorKeepsLastGoodHidden(t *testing.T) {
	fetch := &scriptedFetch{}
	fetch.push(dashboard.WidgetData{"value": 5}, nil)
	fetch.push(nil, networkError{})
	fetch.push(dashboard.WidgetData{"value": 6}, nil)
	c := New(Options{Widget: kpiWidget("k1", dashboard.Behavior{}), Fetch: fetch.Fetch})

	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	failed, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dashboard.StatusError, failed.Status)
	assert.Nil(t, failed.Data)
	assert.Equal(t, dashboard.KindNetwork, failed.ErrorKind)
	assert.True(t, failed.Retryable)
	assert.Equal(t, 5, c.LastGood()["value"])

	retried, err := c.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dashboard.StatusSuccess, retried.Status)
	assert.Equal(t, 6, retried.Data["value"])
}

func TestControllerConfigurationErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	fetch := func(context.Context, dashboard.Widget) (dashboard.WidgetData, error) {
		calls.Add(1)
		return nil, &dashboard.ConfigurationError{WidgetType: dashboard.WidgetKPI, Field: "fieldName", Message: "please select a field"}
	}
	c := New(Options{Widget: kpiWidget("k1", dashboard.Behavior{}), Fetch: fetch})

	snap, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dashboard.StatusError, snap.Status)
	assert.Equal(t, "please select a field", snap.Error)
	assert.False(t, snap.Retryable)

	_, _ = c.Retry(context.Background())
	_, _ = c.Refresh(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, c.Reconfigure(kpiWidget("k1", dashboard.Behavior{})))
	assert.Equal(t, dashboard.StatusIdle, c.Snapshot().Status)
	_, _ = c.Refresh(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestControllerCoalescesConcurrentRefreshes(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(context.Context, dashboard.Widget) (dashboard.WidgetData, error) {
		calls.Add(1)
		<-release
		return dashboard.WidgetData{"value": 1}, nil
	}
	c := New(Options{Widget: kpiWidget("k1", dashboard.Behavior{}), Fetch: fetch})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Refresh(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestControllerDiscardsFetchAfterReconfigure(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	fetch := func(ctx context.Context, w dashboard.Widget) (dashboard.WidgetData, error) {
		if w.ID == "old" {
			started <- struct{}{}
			<-release
			return dashboard.WidgetData{"from": "old"}, nil
		}
		return dashboard.WidgetData{"from": "new"}, nil
	}
	c := New(Options{Widget: kpiWidget("old", dashboard.Behavior{}), Fetch: fetch})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Refresh(context.Background())
	}()
	<-started
	require.NoError(t, c.Reconfigure(kpiWidget("new", dashboard.Behavior{})))
	close(release)
	<-done

	snap := c.Snapshot()
	assert.Equal(t, "new", snap.WidgetID)
	assert.Equal(t, dashboard.StatusIdle, snap.Status)
	assert.Nil(t, snap.Data)

	fresh, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", fresh.Data["from"])
}

func TestControllerCloseCancelsInFlightFetch(t *testing.T) {
	started := make(chan struct{}, 1)
	fetch := func(ctx context.Context, _ dashboard.Widget) (dashboard.WidgetData, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c := New(Options{Widget: kpiWidget("k1", dashboard.Behavior{}), Fetch: fetch})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Refresh(context.Background())
	}()
	<-started
	require.NoError(t, c.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch was not cancelled by Close")
	}
	assert.NotEqual(t, dashboard.StatusError, c.Snapshot().Status)

	_, err := c.Refresh(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
	assert.NoError(t, c.Close())
}

func TestControllerAutoRefreshTicker(t *testing.T) {
	factory := &tickerFactory{}
	fetch := &scriptedFetch{}
	refreshed := make(chan struct{}, 4)
	c := New(Options{
		Widget:    kpiWidget("k1", dashboard.Behavior{AutoRefresh: true, RefreshInterval: dashboard.Refresh30s}),
		Fetch:     fetch.Fetch,
		NewTicker: factory.New,
		OnChange: func(s Snapshot) {
			if s.Status == dashboard.StatusSuccess {
				refreshed <- struct{}{}
			}
		},
	})
	_, err := c.Start(context.Background())
	require.NoError(t, err)
	<-refreshed
	require.Equal(t, 1, factory.count())
	assert.Equal(t, 30*time.Second, factory.periods[0])
	assert.True(t, c.Ticking())

	factory.last().ch <- time.Now()
	select {
	case <-refreshed:
	case <-time.After(time.Second):
		t.Fatal("tick did not trigger a refresh")
	}
	assert.Equal(t, int32(2), fetch.calls.Load())

	first := factory.last()
	require.NoError(t, c.Reconfigure(kpiWidget("k1", dashboard.Behavior{AutoRefresh: true, RefreshInterval: dashboard.Refresh1m})))
	assert.True(t, first.stopped.Load())
	require.Equal(t, 2, factory.count())
	assert.Equal(t, time.Minute, factory.periods[1])

	require.NoError(t, c.Reconfigure(kpiWidget("k1", dashboard.Behavior{AutoRefresh: false, RefreshInterval: dashboard.Refresh1m})))
	assert.True(t, factory.last().stopped.Load())
	assert.False(t, c.Ticking())

	require.NoError(t, c.Close())
}

func TestControllerNoTickerForNever(t *testing.T) {
	factory := &tickerFactory{}
	c := New(Options{
		Widget:    kpiWidget("k1", dashboard.Behavior{AutoRefresh: true, RefreshInterval: dashboard.RefreshNever}),
		Fetch:     (&scriptedFetch{}).Fetch,
		NewTicker: factory.New,
	})
	_, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, factory.count())
	assert.False(t, c.Ticking())
}

func TestControllerCloseStopsTicker(t *testing.T) {
	factory := &tickerFactory{}
	c := New(Options{
		Widget:    kpiWidget("k1", dashboard.Behavior{AutoRefresh: true, RefreshInterval: dashboard.Refresh10s}),
		Fetch:     (&scriptedFetch{}).Fetch,
		NewTicker: factory.New,
	})
	_, err := c.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.True(t, factory.last().stopped.Load())
	assert.False(t, c.Ticking())
}

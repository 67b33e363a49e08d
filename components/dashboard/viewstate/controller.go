// Package viewstate drives the render lifecycle of a single widget:
// idle, loading, then success, empty or error, with optional auto-refresh.
package viewstate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("viewstate: controller closed")

// FetchFunc loads data for widget. Viewer and drill-through parameters travel on ctx.
type FetchFunc func(ctx context.Context, widget dashboard.Widget) (dashboard.WidgetData, error)

// Snapshot is the render state of a widget at a point in time.
type Snapshot struct {
	WidgetID string                 `json:"widgetId"`
	Status   dashboard.WidgetStatus `json:"status"`
	// Data is what the widget displays. It stays populated while a refresh
	// is in flight and is nil on error.
	Data dashboard.WidgetData `json:"data,omitempty"`
	// Refreshing marks a loading state that still shows the previous data.
	Refreshing bool                `json:"refreshing,omitempty"`
	Error      string              `json:"error,omitempty"`
	ErrorKind  dashboard.ErrorKind `json:"errorKind,omitempty"`
	Retryable  bool                `json:"retryable,omitempty"`
	UpdatedAt  time.Time           `json:"updatedAt,omitempty"`
}

// Ticker is the subset of time.Ticker the controller needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

// Options configures a Controller.
type Options struct {
	Widget dashboard.Widget
	Fetch  FetchFunc
	// Context is the base context for ticker-driven refreshes. It should carry
	// the viewer and any drill-through parameters.
	Context   context.Context
	Logger    *slog.Logger
	Now       func() time.Time
	NewTicker func(time.Duration) Ticker
	// OnChange observes every state transition, outside the controller lock.
	OnChange func(Snapshot)
}

// Controller owns one widget's fetch lifecycle.
type Controller struct {
	opts   Options
	flight singleflight.Group

	mu         sync.Mutex
	widget     dashboard.Widget
	state      Snapshot
	lastGood   dashboard.WidgetData
	generation uint64
	cancel     context.CancelFunc
	ticker     Ticker
	stopTick   chan struct{}
	started    bool
	closed     bool
}

// New builds a controller in the idle state.
func New(opts Options) *Controller {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewTicker == nil {
		opts.NewTicker = newRealTicker
	}
	if opts.Fetch == nil {
		opts.Fetch = func(context.Context, dashboard.Widget) (dashboard.WidgetData, error) {
			return nil, errors.New("viewstate: no fetch function configured")
		}
	}
	return &Controller{
		opts:   opts,
		widget: opts.Widget,
		state:  Snapshot{WidgetID: opts.Widget.ID, Status: dashboard.StatusIdle},
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start performs the first load and, when the widget auto-refreshes, starts
// the polling ticker.
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if !c.started {
		c.started = true
		c.startTickerLocked()
	}
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh fetches fresh data. Concurrent calls share one fetch. A widget in a
// configuration error state is not fetched until it is reconfigured.
func (c *Controller) Refresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	if c.terminalLocked() {
		snap := c.state
		c.mu.Unlock()
		return snap, nil
	}
	gen := c.generation
	c.mu.Unlock()

	v, _, _ := c.flight.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return c.run(ctx, gen), nil
	})
	return v.(Snapshot), nil
}

// Retry re-runs the fetch after a transient error. Configuration errors are
// not retried.
func (c *Controller) Retry(ctx context.Context) (Snapshot, error) {
	return c.Refresh(ctx)
}

// Reconfigure swaps the widget definition. Any in-flight fetch is abandoned
// and its result discarded. The ticker is rebuilt when auto-refresh, the
// interval or the widget id change.
func (c *Controller) Reconfigure(widget dashboard.Widget) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.widget
	c.widget = widget
	c.invalidateLocked()

	resetTimer := prev.ID != widget.ID ||
		prev.Behavior.AutoRefresh != widget.Behavior.AutoRefresh ||
		prev.Behavior.RefreshInterval != widget.Behavior.RefreshInterval
	if prev.ID != widget.ID {
		c.lastGood = nil
	}
	c.state = Snapshot{WidgetID: widget.ID, Status: dashboard.StatusIdle}
	if resetTimer {
		c.stopTickerLocked()
		if c.started {
			c.startTickerLocked()
		}
	}
	snap := c.state
	c.mu.Unlock()

	c.opts.Logger.Debug("viewstate: widget reconfigured", "widget_id", widget.ID, "timer_reset", resetTimer)
	c.emit(snap)
	return nil
}

// Close stops the ticker and discards any in-flight fetch.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.invalidateLocked()
	c.stopTickerLocked()
	return nil
}

// Ticking reports whether an auto-refresh ticker is active.
func (c *Controller) Ticking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticker != nil
}

func (c *Controller) run(ctx context.Context, gen uint64) Snapshot {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		snap := c.state
		c.mu.Unlock()
		return snap
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	widget := c.widget
	keep := c.state.Status == dashboard.StatusSuccess || c.state.Status == dashboard.StatusEmpty
	c.state.Status = dashboard.StatusLoading
	if !keep {
		c.state.Data = nil
	}
	c.state.Refreshing = c.state.Data != nil
	loading := c.state
	c.mu.Unlock()
	c.emit(loading)

	data, err := c.opts.Fetch(fetchCtx, widget)
	cancel()

	c.mu.Lock()
	if c.closed || gen != c.generation {
		snap := c.state
		c.mu.Unlock()
		c.opts.Logger.Debug("viewstate: discarded stale fetch", "widget_id", widget.ID)
		return snap
	}
	c.cancel = nil
	c.applyLocked(data, err)
	snap := c.state
	c.mu.Unlock()

	if err != nil {
		c.opts.Logger.Warn("viewstate: widget fetch failed", "widget_id", widget.ID, "kind", string(snap.ErrorKind), "error", err)
	}
	c.emit(snap)
	return snap
}

func (c *Controller) applyLocked(data dashboard.WidgetData, err error) {
	next := Snapshot{
		WidgetID:  c.widget.ID,
		Status:    dashboard.StatusOf(data, err),
		UpdatedAt: c.opts.Now(),
	}
	if err != nil {
		kind := dashboard.ClassifyError(err)
		next.Error = dashboard.ErrorMessage(err)
		next.ErrorKind = kind
		next.Retryable = kind.Retryable()
	} else {
		next.Data = data
		c.lastGood = data
	}
	c.state = next
}

// LastGood returns the most recent successful payload, kept across errors.
func (c *Controller) LastGood() dashboard.WidgetData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastGood
}

func (c *Controller) terminalLocked() bool {
	return c.state.Status == dashboard.StatusError && c.state.ErrorKind == dashboard.KindConfiguration
}

func (c *Controller) invalidateLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) startTickerLocked() {
	interval := c.widget.Behavior.PollInterval()
	if interval <= 0 || c.closed {
		return
	}
	ticker := c.opts.NewTicker(interval)
	stop := make(chan struct{})
	c.ticker = ticker
	c.stopTick = stop
	base := c.opts.Context
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-base.Done():
				return
			case <-ticker.C():
				if _, err := c.Refresh(base); errors.Is(err, ErrClosed) {
					return
				}
			}
		}
	}()
}

func (c *Controller) stopTickerLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	close(c.stopTick)
	c.ticker = nil
	c.stopTick = nil
}

func (c *Controller) emit(snap Snapshot) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(snap)
	}
}

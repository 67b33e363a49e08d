package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/viewstate"
)

type watchCmd struct {
	Dashboard string `arg:"" help:"Dashboard id."`
	Widget    string `arg:"" help:"Widget id."`
	Interval  string `help:"Override the widget refresh interval (10s, 30s, 1m, 5m, 10m or 30m)."`
	Once      bool   `help:"Print the first snapshot and exit."`
}

func (cmd *watchCmd) Run(g *Globals, ctx context.Context) error {
	cfg, logger, err := g.load("watch")
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	return a.watch(ctx, g.viewer(cfg), cmd, os.Stdout)
}

// watch drives a viewstate controller for one widget and prints every
// transition as a JSON line until ctx is cancelled. Widgets without
// auto-refresh print their first load and return.
func (a *app) watch(ctx context.Context, viewer dashboard.ViewerContext, cmd *watchCmd, out io.Writer) error {
	board, err := a.service.GetDashboard(ctx, cmd.Dashboard)
	if err != nil {
		return err
	}
	widget, ok := board.Widget(cmd.Widget)
	if !ok {
		return fmt.Errorf("%w: %s", dashboard.ErrWidgetNotFound, cmd.Widget)
	}
	if cmd.Interval != "" {
		interval := dashboard.RefreshInterval(cmd.Interval)
		if interval.Duration() <= 0 {
			return fmt.Errorf("sensorctl: unsupported refresh interval %q", cmd.Interval)
		}
		widget.Behavior.AutoRefresh = true
		widget.Behavior.RefreshInterval = interval
	}

	enc := json.NewEncoder(out)
	snaps := make(chan viewstate.Snapshot, 8)
	ctx = dashboard.WithViewer(ctx, viewer)
	ctrl := viewstate.New(viewstate.Options{
		Widget:  widget,
		Context: ctx,
		Logger:  a.logger,
		Fetch: func(ctx context.Context, w dashboard.Widget) (dashboard.WidgetData, error) {
			return a.service.FetchWidgetData(ctx, viewer, board.ID, w)
		},
		OnChange: func(s viewstate.Snapshot) {
			select {
			case snaps <- s:
			default:
			}
		},
	})
	defer ctrl.Close()

	first, err := ctrl.Start(ctx)
	if err != nil {
		return err
	}
	if cmd.Once || !ctrl.Ticking() {
		return enc.Encode(first)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-snaps:
			if s.Status == dashboard.StatusLoading && !s.Refreshing {
				continue
			}
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
	}
}

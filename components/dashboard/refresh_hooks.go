package dashboard

import (
	"context"
	"errors"
	"log/slog"
)

// RefreshHooks fans a widget event out to several hooks. Every hook runs even
// when an earlier one fails.
type RefreshHooks []RefreshHook

// WidgetUpdated implements RefreshHook.
func (hooks RefreshHooks) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	var errs []error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook.WidgetUpdated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoggingHook logs every widget event at info level.
type LoggingHook struct {
	Logger *slog.Logger
}

// WidgetUpdated implements RefreshHook.
func (h LoggingHook) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if h.Logger == nil {
		return nil
	}
	h.Logger.InfoContext(ctx, "widget event",
		"dashboard_id", event.DashboardID,
		"widget_id", event.WidgetID,
		"reason", event.Reason,
	)
	return nil
}

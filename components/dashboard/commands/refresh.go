package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// RefreshWidgetInput emits a refresh notification for a widget.
type RefreshWidgetInput struct {
	DashboardID string `json:"dashboardId"`
	WidgetID    string `json:"widgetId,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type refreshNotifier interface {
	NotifyWidgetUpdated(ctx context.Context, event dashboard.WidgetEvent) error
}

// RefreshWidgetCommand triggers refresh hooks so subscribed viewers re-fetch.
type RefreshWidgetCommand struct {
	service   refreshNotifier
	telemetry Telemetry
}

// NewRefreshWidgetCommand creates the command.
func NewRefreshWidgetCommand(service refreshNotifier, telemetry Telemetry) *RefreshWidgetCommand {
	return &RefreshWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshWidgetInput] = (*RefreshWidgetCommand)(nil)

// Execute notifies the dashboard service's refresh hooks.
func (c *RefreshWidgetCommand) Execute(ctx context.Context, msg RefreshWidgetInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if msg.DashboardID == "" {
		return errors.New("refresh command requires dashboard id")
	}
	reason := msg.Reason
	if reason == "" {
		reason = "refresh"
	}
	if err := c.service.NotifyWidgetUpdated(ctx, dashboard.WidgetEvent{
		DashboardID: msg.DashboardID,
		WidgetID:    msg.WidgetID,
		Reason:      reason,
	}); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.widget.refresh", map[string]any{
		"dashboard_id": msg.DashboardID,
		"widget_id":    msg.WidgetID,
	})
	return nil
}

package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// AddWidgetInput wraps dashboard.AddWidgetRequest with the viewer issuing it.
// When Result is set it receives the created widget.
type AddWidgetInput struct {
	Request dashboard.AddWidgetRequest `json:"request"`
	Viewer  dashboard.ViewerContext    `json:"viewer"`
	Result  *dashboard.Widget          `json:"-"`
}

type addWidgetService interface {
	AddWidget(ctx context.Context, req dashboard.AddWidgetRequest) (dashboard.Widget, error)
}

// AddWidgetCommand wraps Service.AddWidget so transports can add widgets
// without linking directly against the service.
type AddWidgetCommand struct {
	service   addWidgetService
	telemetry Telemetry
}

// NewAddWidgetCommand creates a command instance.
func NewAddWidgetCommand(service addWidgetService, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute delegates to the dashboard service.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.service == nil {
		return errors.New("add widget command requires service")
	}
	if msg.Request.DashboardID == "" {
		return errors.New("add widget command requires dashboard id")
	}
	widget, err := c.service.AddWidget(withViewer(ctx, msg.Viewer), msg.Request)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = widget
	}
	c.telemetry.Record(ctx, "dashboard.widget.add", map[string]any{
		"dashboard_id": msg.Request.DashboardID,
		"widget_id":    widget.ID,
		"type":         string(widget.Type),
	})
	return nil
}

// UpdateWidgetConfigInput carries a partial config update for one widget.
type UpdateWidgetConfigInput struct {
	DashboardID string                  `json:"dashboardId"`
	WidgetID    string                  `json:"widgetId"`
	Patch       map[string]any          `json:"patch"`
	Viewer      dashboard.ViewerContext `json:"viewer"`
	Result      *dashboard.Widget       `json:"-"`
}

type updateWidgetService interface {
	UpdateWidgetConfig(ctx context.Context, dashboardID, widgetID string, patch map[string]any) (dashboard.Widget, error)
}

// UpdateWidgetConfigCommand wraps Service.UpdateWidgetConfig.
type UpdateWidgetConfigCommand struct {
	service   updateWidgetService
	telemetry Telemetry
}

// NewUpdateWidgetConfigCommand creates the command.
func NewUpdateWidgetConfigCommand(service updateWidgetService, telemetry Telemetry) *UpdateWidgetConfigCommand {
	return &UpdateWidgetConfigCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateWidgetConfigInput] = (*UpdateWidgetConfigCommand)(nil)

// Execute merges the patch onto the widget config.
func (c *UpdateWidgetConfigCommand) Execute(ctx context.Context, msg UpdateWidgetConfigInput) error {
	if c.service == nil {
		return errors.New("update command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("update command requires widget id")
	}
	if len(msg.Patch) == 0 {
		return errors.New("update command requires a config patch")
	}
	widget, err := c.service.UpdateWidgetConfig(withViewer(ctx, msg.Viewer), msg.DashboardID, msg.WidgetID, msg.Patch)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = widget
	}
	c.telemetry.Record(ctx, "dashboard.widget.update", map[string]any{
		"dashboard_id": msg.DashboardID,
		"widget_id":    msg.WidgetID,
	})
	return nil
}

func withViewer(ctx context.Context, viewer dashboard.ViewerContext) context.Context {
	if viewer.UserID == "" && viewer.TenantID == "" {
		return ctx
	}
	return dashboard.WithViewer(ctx, viewer)
}

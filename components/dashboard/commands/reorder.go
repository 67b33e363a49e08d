package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// ReorderWidgetsInput contains the reorder payload.
type ReorderWidgetsInput struct {
	DashboardID string                  `json:"dashboardId"`
	WidgetIDs   []string                `json:"widgetIds"`
	Viewer      dashboard.ViewerContext `json:"viewer"`
}

type reorderService interface {
	ReorderWidgets(ctx context.Context, dashboardID string, widgetIDs []string) error
}

// ReorderWidgetsCommand wraps Service.ReorderWidgets.
type ReorderWidgetsCommand struct {
	service   reorderService
	telemetry Telemetry
}

// NewReorderWidgetsCommand builds the command.
func NewReorderWidgetsCommand(service reorderService, telemetry Telemetry) *ReorderWidgetsCommand {
	return &ReorderWidgetsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReorderWidgetsInput] = (*ReorderWidgetsCommand)(nil)

// Execute applies the new ordering.
func (c *ReorderWidgetsCommand) Execute(ctx context.Context, msg ReorderWidgetsInput) error {
	if c.service == nil {
		return errors.New("reorder command requires service")
	}
	if len(msg.WidgetIDs) == 0 {
		return errors.New("reorder command requires widget ids")
	}
	if err := c.service.ReorderWidgets(withViewer(ctx, msg.Viewer), msg.DashboardID, msg.WidgetIDs); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.widget.reorder", map[string]any{
		"dashboard_id": msg.DashboardID,
		"count":        len(msg.WidgetIDs),
	})
	return nil
}

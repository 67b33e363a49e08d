package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// SaveDashboardInput creates (empty id) or updates a dashboard document.
type SaveDashboardInput struct {
	Dashboard dashboard.Dashboard     `json:"dashboard"`
	Viewer    dashboard.ViewerContext `json:"viewer"`
	Result    *dashboard.Dashboard    `json:"-"`
}

// DashboardIDInput addresses one dashboard.
type DashboardIDInput struct {
	DashboardID string                  `json:"dashboardId"`
	Viewer      dashboard.ViewerContext `json:"viewer"`
	Result      *dashboard.Dashboard    `json:"-"`
}

// DuplicateDashboardInput copies a dashboard under a new name.
type DuplicateDashboardInput struct {
	DashboardID string                  `json:"dashboardId"`
	Name        string                  `json:"name"`
	Viewer      dashboard.ViewerContext `json:"viewer"`
	Result      *dashboard.Dashboard    `json:"-"`
}

type dashboardService interface {
	SaveDashboard(ctx context.Context, d dashboard.Dashboard) (dashboard.Dashboard, error)
	DeleteDashboard(ctx context.Context, id string) error
	PublishDashboard(ctx context.Context, id string) (dashboard.Dashboard, error)
	DuplicateDashboard(ctx context.Context, id, name string) (dashboard.Dashboard, error)
}

// SaveDashboardCommand wraps Service.SaveDashboard. Errors are returned to
// the caller untouched so transports can surface them.
type SaveDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewSaveDashboardCommand creates the command.
func NewSaveDashboardCommand(service dashboardService, telemetry Telemetry) *SaveDashboardCommand {
	return &SaveDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveDashboardInput] = (*SaveDashboardCommand)(nil)

// Execute validates and persists the dashboard.
func (c *SaveDashboardCommand) Execute(ctx context.Context, msg SaveDashboardInput) error {
	if c.service == nil {
		return errors.New("save dashboard command requires service")
	}
	saved, err := c.service.SaveDashboard(withViewer(ctx, msg.Viewer), msg.Dashboard)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = saved
	}
	c.telemetry.Record(ctx, "dashboard.save", map[string]any{
		"dashboard_id": saved.ID,
		"created":      msg.Dashboard.ID == "",
	})
	return nil
}

// DeleteDashboardCommand wraps Service.DeleteDashboard.
type DeleteDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewDeleteDashboardCommand creates the command.
func NewDeleteDashboardCommand(service dashboardService, telemetry Telemetry) *DeleteDashboardCommand {
	return &DeleteDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DashboardIDInput] = (*DeleteDashboardCommand)(nil)

// Execute removes the dashboard.
func (c *DeleteDashboardCommand) Execute(ctx context.Context, msg DashboardIDInput) error {
	if c.service == nil {
		return errors.New("delete dashboard command requires service")
	}
	if err := c.service.DeleteDashboard(withViewer(ctx, msg.Viewer), msg.DashboardID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.delete", map[string]any{"dashboard_id": msg.DashboardID})
	return nil
}

// PublishDashboardCommand wraps Service.PublishDashboard.
type PublishDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewPublishDashboardCommand creates the command.
func NewPublishDashboardCommand(service dashboardService, telemetry Telemetry) *PublishDashboardCommand {
	return &PublishDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DashboardIDInput] = (*PublishDashboardCommand)(nil)

// Execute publishes the current version.
func (c *PublishDashboardCommand) Execute(ctx context.Context, msg DashboardIDInput) error {
	if c.service == nil {
		return errors.New("publish dashboard command requires service")
	}
	published, err := c.service.PublishDashboard(withViewer(ctx, msg.Viewer), msg.DashboardID)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = published
	}
	c.telemetry.Record(ctx, "dashboard.publish", map[string]any{
		"dashboard_id": msg.DashboardID,
		"version":      published.Version,
	})
	return nil
}

// DuplicateDashboardCommand wraps Service.DuplicateDashboard.
type DuplicateDashboardCommand struct {
	service   dashboardService
	telemetry Telemetry
}

// NewDuplicateDashboardCommand creates the command.
func NewDuplicateDashboardCommand(service dashboardService, telemetry Telemetry) *DuplicateDashboardCommand {
	return &DuplicateDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DuplicateDashboardInput] = (*DuplicateDashboardCommand)(nil)

// Execute copies the dashboard.
func (c *DuplicateDashboardCommand) Execute(ctx context.Context, msg DuplicateDashboardInput) error {
	if c.service == nil {
		return errors.New("duplicate dashboard command requires service")
	}
	copied, err := c.service.DuplicateDashboard(withViewer(ctx, msg.Viewer), msg.DashboardID, msg.Name)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = copied
	}
	c.telemetry.Record(ctx, "dashboard.duplicate", map[string]any{
		"source_id":    msg.DashboardID,
		"dashboard_id": copied.ID,
	})
	return nil
}

package sensormine

import (
	"context"
	"fmt"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// Store adapts Dashboard.API to dashboard.DashboardStore.
type Store struct{ api *DashboardAPI }

var _ dashboard.DashboardStore = (*Store)(nil)

// NewStore wraps the dashboard client.
func NewStore(c *Client) *Store { return &Store{api: c.Dashboards} }

func (s *Store) ListDashboards(ctx context.Context, filter dashboard.DashboardFilter) ([]dashboard.Dashboard, error) {
	return s.api.List(ctx, filter)
}

func (s *Store) GetDashboard(ctx context.Context, id string) (dashboard.Dashboard, error) {
	d, err := s.api.Get(ctx, id)
	return d, notFound(err, dashboard.ErrDashboardNotFound)
}

func (s *Store) CreateDashboard(ctx context.Context, d dashboard.Dashboard) (dashboard.Dashboard, error) {
	return s.api.Create(ctx, d)
}

func (s *Store) UpdateDashboard(ctx context.Context, d dashboard.Dashboard) (dashboard.Dashboard, error) {
	out, err := s.api.Update(ctx, d)
	return out, notFound(err, dashboard.ErrDashboardNotFound)
}

func (s *Store) DeleteDashboard(ctx context.Context, id string) error {
	return notFound(s.api.Delete(ctx, id), dashboard.ErrDashboardNotFound)
}

func (s *Store) PublishDashboard(ctx context.Context, id string) (dashboard.Dashboard, error) {
	d, err := s.api.Publish(ctx, id)
	return d, notFound(err, dashboard.ErrDashboardNotFound)
}

func (s *Store) DuplicateDashboard(ctx context.Context, id, name string) (dashboard.Dashboard, error) {
	d, err := s.api.Duplicate(ctx, id, name)
	return d, notFound(err, dashboard.ErrDashboardNotFound)
}

// notFound tags 404s with sentinel so errors.Is works across the boundary.
func notFound(err, sentinel error) error {
	if err != nil && IsNotFound(err) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

// Directory adapts Device.API, DigitalTwin.API and Alerts.API to the lookup
// interfaces used by widget providers and selectors.
type Directory struct {
	devices *DeviceAPI
	twin    *DigitalTwinAPI
	alerts  *AlertsAPI
}

var (
	_ dashboard.DeviceDirectory = (*Directory)(nil)
	_ dashboard.AssetDirectory  = (*Directory)(nil)
	_ dashboard.AlertSource     = (*Directory)(nil)
)

// NewDirectory wraps the lookup clients.
func NewDirectory(c *Client) *Directory {
	return &Directory{devices: c.Devices, twin: c.DigitalTwin, alerts: c.Alerts}
}

func (d *Directory) Device(ctx context.Context, id string) (dashboard.Device, error) {
	return d.devices.Get(ctx, id)
}

func (d *Directory) ListDevices(ctx context.Context, filter dashboard.DeviceFilter) ([]dashboard.Device, error) {
	page, err := d.devices.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (d *Directory) DeviceType(ctx context.Context, id string) (dashboard.DeviceType, error) {
	return d.devices.DeviceType(ctx, id)
}

func (d *Directory) ListDeviceTypes(ctx context.Context, search string) ([]dashboard.DeviceType, error) {
	return d.devices.DeviceTypes(ctx, search)
}

func (d *Directory) DeviceTypeFields(ctx context.Context, deviceTypeID string) ([]dashboard.FieldMapping, error) {
	return d.devices.Fields(ctx, deviceTypeID)
}

func (d *Directory) RootAssets(ctx context.Context) ([]dashboard.Asset, error) {
	return d.twin.Roots(ctx)
}

func (d *Directory) Asset(ctx context.Context, id string) (dashboard.Asset, error) {
	return d.twin.Get(ctx, id)
}

func (d *Directory) AssetChildren(ctx context.Context, parentID string) ([]dashboard.Asset, error) {
	return d.twin.Children(ctx, parentID)
}

func (d *Directory) AlertInstance(ctx context.Context, id string) (dashboard.AlertInstance, error) {
	return d.alerts.Instance(ctx, id)
}

func (d *Directory) ListAlertInstances(ctx context.Context, filter dashboard.AlertFilter) ([]dashboard.AlertInstance, error) {
	return d.alerts.Instances(ctx, filter)
}

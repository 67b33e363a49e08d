package sensormine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

var mockNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return mockNow }

func TestMockDashboardLifecycle(t *testing.T) {
	m := NewMock(fixedClock)
	ctx := dashboard.WithViewer(context.Background(), dashboard.ViewerContext{UserID: "u-1"})

	parent, err := m.CreateDashboard(ctx, dashboard.Dashboard{Name: "Plant"})
	require.NoError(t, err)
	require.NotEmpty(t, parent.ID)

	child, err := m.CreateDashboard(ctx, dashboard.Dashboard{Name: "Line 1", ParentDashboardID: parent.ID, DisplayOrder: 1})
	require.NoError(t, err)

	got, err := m.GetDashboard(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, got.SubPages, 1)
	assert.Equal(t, child.ID, got.SubPages[0].ID)

	top, err := m.ListDashboards(ctx, dashboard.DashboardFilter{})
	require.NoError(t, err)
	assert.Len(t, top, 1, "sub pages are hidden from the top-level listing")

	published, err := m.PublishDashboard(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, published.Version)
	versions, err := m.Versions(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "u-1", versions[0].CreatedBy)

	copied, err := m.DuplicateDashboard(ctx, parent.ID, "Plant copy")
	require.NoError(t, err)
	assert.NotEqual(t, parent.ID, copied.ID)
	assert.False(t, copied.IsPublished)
	assert.Empty(t, copied.SubPages)

	require.NoError(t, m.DeleteDashboard(ctx, parent.ID))
	_, err = m.GetDashboard(ctx, child.ID)
	assert.ErrorIs(t, err, dashboard.ErrDashboardNotFound)
}

func TestMockReturnsCopies(t *testing.T) {
	m := NewMock(fixedClock)
	d, err := m.CreateDashboard(context.Background(), dashboard.Dashboard{Name: "Plant", Tags: []string{"a"}})
	require.NoError(t, err)
	d.Tags[0] = "mutated"

	stored, err := m.GetDashboard(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, stored.Tags)
}

func TestDemoMockKPI(t *testing.T) {
	m := NewMock(fixedClock)
	m.SetReading("D9", "temperature", 23.5, 20, "°C")
	m.AddDevice(dashboard.Device{ID: "D9", Name: "Probe"})

	res, err := m.KPI(context.Background(), dashboard.KPIQuery{DeviceIDs: []string{"D9"}, Field: "temperature", Aggregation: dashboard.AggregationAvg})
	require.NoError(t, err)
	require.NotNil(t, res.CurrentValue)
	assert.Equal(t, 23.5, *res.CurrentValue)
	assert.Equal(t, 20.0, *res.PreviousValue)

	empty, err := m.KPI(context.Background(), dashboard.KPIQuery{DeviceIDs: []string{"missing"}, Field: "temperature"})
	require.NoError(t, err)
	assert.Nil(t, empty.CurrentValue)
}

func TestDemoMockAssetsCountDevicesInSubtree(t *testing.T) {
	m := NewDemoMock(fixedClock)
	ctx := context.Background()

	roots, err := m.RootAssets(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, 4, roots[0].DeviceCount)

	lines, err := m.AssetChildren(ctx, "bldg-a")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Line 1", lines[0].Name)
	assert.Equal(t, 2, lines[0].DeviceCount)

	for _, line := range lines {
		parent, err := m.Asset(ctx, line.ParentID)
		require.NoError(t, err)
		assert.NoError(t, line.ValidatePath(&parent))
	}
}

func TestDemoMockDeviceListPages(t *testing.T) {
	m := NewDemoMock(fixedClock)
	res, err := m.DeviceList(context.Background(), dashboard.DeviceListQuery{DeviceTypeID: "env-sensor", Page: 2, PageSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalCount)
	require.Len(t, res.Devices, 1)
	assert.Equal(t, "Packing Hall", res.Devices[0].Name)

	statuses := map[string]dashboard.DeviceStatus{}
	all, err := m.ListDevices(context.Background(), dashboard.DeviceFilter{})
	require.NoError(t, err)
	for _, d := range all {
		statuses[d.ID] = dashboard.ClassifyDeviceStatus(d.LastSeenAt, mockNow)
	}
	assert.Equal(t, dashboard.StatusOnline, statuses["dev-1"])
	assert.Equal(t, dashboard.StatusWarning, statuses["dev-2"])
	assert.Equal(t, dashboard.StatusOffline, statuses["dev-3"])
	assert.Equal(t, dashboard.StatusOffline, statuses["dev-4"])
}

func TestDemoMockTimeSeriesEndsAtCurrentValue(t *testing.T) {
	m := NewDemoMock(fixedClock)
	res, err := m.TimeSeries(context.Background(), dashboard.TimeSeriesQuery{DeviceIDs: []string{"dev-1"}, Fields: []string{"temperature"}, Interval: "1h"})
	require.NoError(t, err)
	require.Len(t, res.Series, 1)
	points := res.Series[0].Points
	require.Len(t, points, mockSeriesPoints)
	assert.Equal(t, 23.5, points[len(points)-1].Value)
	assert.Equal(t, mockNow, points[len(points)-1].Timestamp)
	assert.True(t, points[0].Timestamp.Before(points[1].Timestamp))
}

func TestMockNotFoundIsClassified(t *testing.T) {
	m := NewMock(fixedClock)
	_, err := m.Device(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, dashboard.KindNotFound, dashboard.ClassifyError(err))
}

func TestMockAlerts(t *testing.T) {
	m := NewDemoMock(fixedClock)
	alerts, err := m.ListAlertInstances(context.Background(), dashboard.AlertFilter{DeviceID: "dev-1", Status: "active"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Severity)
}

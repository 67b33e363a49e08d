package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/pkg/config"
	"github.com/goliatone/go-sensormine/pkg/goadmin"
)

func newDemoApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Defaults()
	cfg.Demo = true
	cfg.TenantID = "tenant-demo"
	a, err := newApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	return a
}

func saveTemplate(t *testing.T, a *app, name string) dashboard.Dashboard {
	t.Helper()
	for _, tpl := range dashboard.DefaultTemplates() {
		if tpl.Name == name {
			saved, err := a.service.SaveDashboard(context.Background(), tpl)
			require.NoError(t, err)
			return saved
		}
	}
	t.Fatalf("no template named %q", name)
	return dashboard.Dashboard{}
}

var demoViewer = dashboard.ViewerContext{UserID: "u1", TenantID: "tenant-demo"}

func TestSeedIsIdempotent(t *testing.T) {
	a := newDemoApp(t)
	ctx := context.Background()
	require.NoError(t, a.seed(ctx))
	first, err := a.service.ListDashboards(ctx, dashboard.DashboardFilter{TemplatesOnly: true})
	require.NoError(t, err)
	require.NoError(t, a.seed(ctx))
	second, err := a.service.ListDashboards(ctx, dashboard.DashboardFilter{TemplatesOnly: true})
	require.NoError(t, err)
	assert.Len(t, first, len(dashboard.DefaultTemplates()))
	assert.Len(t, second, len(first))
}

func TestRenderJSON(t *testing.T) {
	a := newDemoApp(t)
	board := saveTemplate(t, a, "Environment Monitoring")

	var buf bytes.Buffer
	params := dashboard.ParameterContext{ParameterID: "dev-1", ParameterType: dashboard.ParameterDeviceID}
	require.NoError(t, a.render(context.Background(), demoViewer, board.ID, params, "json", &buf))

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("render output is not JSON: %v\n%s", err, buf.String())
	}
	assert.Equal(t, "Environment Monitoring", out["dashboard"].(map[string]any)["name"])
	assert.Len(t, out["widgets"], len(board.Widgets))
	assert.Equal(t, "dev-1", out["parameters"].(map[string]any)["parameterId"])
}

func TestRenderHTML(t *testing.T) {
	a := newDemoApp(t)
	board := saveTemplate(t, a, "Device Overview")

	var buf bytes.Buffer
	require.NoError(t, a.render(context.Background(), demoViewer, board.ID, dashboard.ParameterContext{}, "html", &buf))
	assert.Contains(t, buf.String(), "Device Overview")
	assert.Contains(t, buf.String(), board.ID)
}

func TestRenderMissingDashboard(t *testing.T) {
	a := newDemoApp(t)
	err := a.render(context.Background(), demoViewer, "missing", dashboard.ParameterContext{}, "json", io.Discard)
	assert.ErrorIs(t, err, dashboard.ErrDashboardNotFound)
}

func TestPrintTreeExpandsLevels(t *testing.T) {
	a := newDemoApp(t)
	var buf bytes.Buffer
	require.NoError(t, printTree(context.Background(), &buf, a.trees.For("tenant-demo"), "", 0))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "North Plant (site-1) [Site]"), lines[0])
	assert.Contains(t, buf.String(), "\n  Building A (bldg-a) [Building]")
	assert.Contains(t, buf.String(), "\n    Line 1 (line-1) [Line]")
}

func TestAssetLineAppendsDeviceCount(t *testing.T) {
	a := dashboard.Asset{ID: "line-1", Name: "Line 1", AssetType: dashboard.AssetLine}
	assert.Equal(t, "Line 1 (line-1) [Line]", assetLine(a))
	a.DeviceCount = 4
	assert.Equal(t, "Line 1 (line-1) [Line] devices=4", assetLine(a))
}

func TestPrintTreeHonoursDepth(t *testing.T) {
	a := newDemoApp(t)
	var buf bytes.Buffer
	require.NoError(t, printTree(context.Background(), &buf, a.trees.For("tenant-demo"), "", 1))
	assert.NotContains(t, buf.String(), "Building A")
}

func TestListDevices(t *testing.T) {
	a := newDemoApp(t)
	ctx := dashboard.WithViewer(context.Background(), demoViewer)

	var devices bytes.Buffer
	require.NoError(t, a.listDevices(ctx, &devices, &devicesCmd{Search: "boiler", Limit: 10}))
	assert.Contains(t, devices.String(), "dev-1")
	assert.NotContains(t, devices.String(), "dev-2")

	var fields bytes.Buffer
	require.NoError(t, a.listDevices(ctx, &fields, &devicesCmd{Fields: "dev-1"}))
	assert.Contains(t, fields.String(), "temperature")
	assert.Contains(t, fields.String(), "Temperature")
}

func TestWatchOncePrintsSnapshot(t *testing.T) {
	a := newDemoApp(t)
	board := saveTemplate(t, a, "Environment Monitoring")

	var buf bytes.Buffer
	err := a.watch(context.Background(), demoViewer, &watchCmd{
		Dashboard: board.ID,
		Widget:    "avg-temperature",
		Once:      true,
	}, &buf)
	require.NoError(t, err)

	var snap map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &snap))
	assert.Equal(t, "avg-temperature", snap["widgetId"])
	assert.NotEqual(t, string(dashboard.StatusLoading), snap["status"])
}

func TestWatchRejectsUnknownWidgetAndInterval(t *testing.T) {
	a := newDemoApp(t)
	board := saveTemplate(t, a, "Environment Monitoring")
	ctx := context.Background()

	err := a.watch(ctx, demoViewer, &watchCmd{Dashboard: board.ID, Widget: "nope"}, io.Discard)
	assert.ErrorIs(t, err, dashboard.ErrWidgetNotFound)

	err = a.watch(ctx, demoViewer, &watchCmd{Dashboard: board.ID, Widget: "avg-temperature", Interval: "7s"}, io.Discard)
	assert.Error(t, err)
}

func TestInspectCADEditClick(t *testing.T) {
	a := newDemoApp(t)
	ctx := dashboard.WithViewer(context.Background(), demoViewer)
	board, err := a.service.SaveDashboard(ctx, dashboard.Dashboard{
		Name: "Pump",
		Widgets: []dashboard.Widget{{
			ID:    "cad-1",
			Type:  dashboard.WidgetCAD3DViewer,
			Title: "Pump",
			Config: dashboard.CAD3DViewerConfig{
				ModelURL: "https://models.example.com/pump.stl",
				SensorMappings: []dashboard.SensorElementMapping{{
					ElementID:   "impeller",
					ElementName: "Impeller",
					SourceType:  dashboard.SensorSourceDevice,
					DeviceID:    "dev-1",
					Fields:      []dashboard.SensorFieldBinding{{FieldName: "temperature"}},
				}},
			},
		}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.inspectCAD(ctx, &cadCmd{
		Dashboard: board.ID,
		Widget:    "cad-1",
		Mesh:      []string{"housing"},
		Click:     "impeller",
		Edit:      true,
	}, &buf))

	var report struct {
		Mapped int               `json:"mapped"`
		Colors map[string]string `json:"colors"`
		Click  struct {
			Edit struct {
				ElementID string         `json:"elementId"`
				Existing  map[string]any `json:"existing"`
			} `json:"edit"`
		} `json:"click"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, 1, report.Mapped)
	assert.Equal(t, "impeller", report.Click.Edit.ElementID)
	assert.NotNil(t, report.Click.Edit.Existing)
	assert.Contains(t, report.Colors, "housing")
	assert.Contains(t, report.Colors, "impeller")
}

func TestMuxRouterServesNavigationAndPages(t *testing.T) {
	a := newDemoApp(t)
	board := saveTemplate(t, a, "Device Overview")
	ctx := context.Background()
	_, err := a.service.SaveDashboard(ctx, dashboard.Dashboard{Name: "Plant Floor"})
	require.NoError(t, err)

	menu, err := a.navigation(ctx)
	require.NoError(t, err)
	renderer, err := dashboard.NewTemplateRenderer()
	require.NoError(t, err)
	r := a.muxRouter(dashboard.NewController(dashboard.ControllerOptions{Service: a.service, Renderer: renderer}), menu)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sensormine/api/navigation", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var items []goadmin.MenuItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "Plant Floor", items[1].Label)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sensormine/dashboards/"+board.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Device Overview")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sensormine/dashboards/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListWidgetsIncludesManifestComponents(t *testing.T) {
	a := newDemoApp(t)
	a.cfg.Manifests = []string{"../../docs/manifests/weather-station.yaml"}

	var buf bytes.Buffer
	require.NoError(t, a.listWidgets(&buf, false))
	assert.Contains(t, buf.String(), string(dashboard.WidgetKPI))
	assert.Contains(t, buf.String(), "built-in")

	buf.Reset()
	require.NoError(t, a.listWidgets(&buf, true))
	assert.Contains(t, buf.String(), "weather.wind-rose")
	assert.Contains(t, buf.String(), "examples/weather.NewWindRoseProvider")
	assert.NotContains(t, buf.String(), string(dashboard.WidgetKPI)+" ")
}

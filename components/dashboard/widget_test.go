package dashboard

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWidgetTypeNormalizesSpellings(t *testing.T) {
	cases := map[string]WidgetType{
		"kpi":               WidgetKPI,
		"KPI":               WidgetKPI,
		"timeSeries":        WidgetTimeSeries,
		"time_series":       WidgetTimeSeries,
		"time-series":       WidgetTimeSeries,
		"deviceList":        WidgetDeviceList,
		"digital_twin_tree": WidgetDigitalTwinTree,
		"chart":             WidgetTimeSeries,
		"cad-3d-viewer":     WidgetCAD3DViewer,
	}
	for raw, want := range cases {
		got, err := ParseWidgetType(raw)
		require.NoErrorf(t, err, "parse %q", raw)
		assert.Equalf(t, want, got, "parse %q", raw)
	}
}

func TestParseWidgetTypeRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "pie", "heatmap"} {
		_, err := ParseWidgetType(raw)
		assert.ErrorIsf(t, err, ErrUnknownWidgetType, "parse %q", raw)
	}
}

func TestWidgetJSONDispatchesOnType(t *testing.T) {
	payload := []byte(`{
		"id": "w1",
		"type": "timeSeries",
		"title": "Flow",
		"config": {"deviceIds": ["D1"], "fieldName": "flow", "chartType": "bar"},
		"behavior": {"autoRefresh": true, "refreshInterval": "30s"}
	}`)
	var widget Widget
	require.NoError(t, json.Unmarshal(payload, &widget))
	assert.Equal(t, WidgetTimeSeries, widget.Type)
	cfg, ok := widget.Config.(TimeSeriesConfig)
	require.True(t, ok, "expected TimeSeriesConfig, got %T", widget.Config)
	assert.Equal(t, "bar", cfg.ChartType)
	assert.Equal(t, []string{"D1"}, cfg.DeviceIDs)
	assert.Equal(t, int64(30000), widget.Behavior.PollInterval().Milliseconds())

	encoded, err := json.Marshal(widget)
	require.NoError(t, err)
	var again Widget
	require.NoError(t, json.Unmarshal(encoded, &again))
	assert.Equal(t, widget, again)
}

func TestWidgetJSONRejectsUnknownType(t *testing.T) {
	var widget Widget
	err := json.Unmarshal([]byte(`{"id":"w1","type":"sparkline","config":{}}`), &widget)
	assert.True(t, errors.Is(err, ErrUnknownWidgetType), "got %v", err)
}

func TestRefreshIntervalDurations(t *testing.T) {
	assert.Equal(t, "10s", Refresh10s.Duration().String())
	assert.Equal(t, "30m0s", Refresh30m.Duration().String())
	assert.Zero(t, RefreshNever.Duration())
	assert.Zero(t, RefreshInterval("2h").Duration())
	assert.Zero(t, Behavior{AutoRefresh: false, RefreshInterval: Refresh1m}.PollInterval())
}

func TestDefaultConfigsApplyDocumentedDefaults(t *testing.T) {
	kpi := KPIConfig{}.WithDefaults().(KPIConfig)
	assert.Equal(t, AggregationAvg, kpi.Aggregation)
	assert.Equal(t, TimeRangeLast24h, kpi.TimeRange)
	assert.Equal(t, 1, *kpi.DecimalPlaces)
	assert.Equal(t, ThresholdAbove, kpi.ThresholdDirection)

	gauge := GaugeConfig{}.WithDefaults().(GaugeConfig)
	assert.Equal(t, 0.0, *gauge.Min)
	assert.Equal(t, 100.0, *gauge.Max)
	assert.Equal(t, AggregationLast, gauge.Aggregation)

	ts := TimeSeriesConfig{}.WithDefaults().(TimeSeriesConfig)
	assert.Equal(t, "line", ts.ChartType)
	assert.Equal(t, "1h", ts.Interval)

	m := MapConfig{}.WithDefaults().(MapConfig)
	assert.Equal(t, 10, *m.Zoom)
	assert.True(t, *m.ShowStatus)

	list := DeviceListConfig{}.WithDefaults().(DeviceListConfig)
	assert.Equal(t, 10, *list.PageSize)
	assert.Equal(t, "name", list.SortBy)

	video := VideoPlayerConfig{}.WithDefaults().(VideoPlayerConfig)
	assert.False(t, video.Autoplay)
	assert.True(t, *video.Muted)
	assert.True(t, *video.Controls)

	cad := CAD3DViewerConfig{}.WithDefaults().(CAD3DViewerConfig)
	assert.Equal(t, "#cccccc", cad.DefaultColor)
	assert.Equal(t, "#4caf50", cad.ActiveColor)
	assert.Equal(t, "#ff9800", cad.HighlightColor)
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := KPIConfig{Aggregation: AggregationMax, DecimalPlaces: intPtr(0), ShowTrend: boolPtr(false)}.WithDefaults().(KPIConfig)
	assert.Equal(t, AggregationMax, cfg.Aggregation)
	assert.Equal(t, 0, *cfg.DecimalPlaces)
	assert.False(t, *cfg.ShowTrend)
}

func TestNewWidgetUsesDefaultConfig(t *testing.T) {
	widget, err := NewWidget("w1", WidgetGauge, "Load")
	require.NoError(t, err)
	require.NoError(t, widget.Validate())
	_, ok := widget.Config.(GaugeConfig)
	assert.True(t, ok)
}

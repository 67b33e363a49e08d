package sensormine

import (
	"context"
	"net/http"
	"time"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// QueryAPI wraps the Query.API widget data endpoints. It satisfies
// dashboard.QueryClient.
type QueryAPI struct{ c *Client }

var _ dashboard.QueryClient = (*QueryAPI)(nil)

// HistoricalQuery requests raw readings between two instants.
type HistoricalQuery struct {
	DeviceIDs []string  `json:"deviceIds"`
	Fields    []string  `json:"fields"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Limit     int       `json:"limit,omitempty"`
}

// CategoricalQuery groups readings of one field by value.
type CategoricalQuery struct {
	DeviceIDs    []string `json:"deviceIds,omitempty"`
	DeviceTypeID string   `json:"deviceTypeId,omitempty"`
	Field        string   `json:"field"`
	TimeRange    string   `json:"timeRange"`
	Limit        int      `json:"limit,omitempty"`
}

// Category is one bucket of a categorical breakdown.
type Category struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// CategoricalResult is the categorical endpoint payload.
type CategoricalResult struct {
	Categories []Category `json:"categories"`
}

// AssetTelemetryQuery aggregates telemetry of every device under an asset.
type AssetTelemetryQuery struct {
	Fields             []string `json:"fields"`
	TimeRange          string   `json:"timeRange"`
	Aggregation        string   `json:"aggregation"`
	IncludeDescendants bool     `json:"includeDescendants"`
}

const widgetDataPath = "/api/widgetdata"

func (a *QueryAPI) post(ctx context.Context, endpoint string, body, out any) error {
	return a.c.send(ctx, ServiceQuery, http.MethodPost, widgetDataPath+"/"+endpoint, body, out)
}

// KPI implements dashboard.QueryClient.
func (a *QueryAPI) KPI(ctx context.Context, query dashboard.KPIQuery) (dashboard.KPIResult, error) {
	var out dashboard.KPIResult
	err := a.post(ctx, "kpi", query, &out)
	return out, err
}

// TimeSeries implements dashboard.QueryClient.
func (a *QueryAPI) TimeSeries(ctx context.Context, query dashboard.TimeSeriesQuery) (dashboard.TimeSeriesResult, error) {
	var out dashboard.TimeSeriesResult
	err := a.post(ctx, "timeseries", query, &out)
	return out, err
}

// Realtime implements dashboard.QueryClient.
func (a *QueryAPI) Realtime(ctx context.Context, query dashboard.RealtimeQuery) (dashboard.RealtimeResult, error) {
	var out dashboard.RealtimeResult
	err := a.post(ctx, "realtime", query, &out)
	return out, err
}

// DeviceList implements dashboard.QueryClient.
func (a *QueryAPI) DeviceList(ctx context.Context, query dashboard.DeviceListQuery) (dashboard.DeviceListResult, error) {
	var out dashboard.DeviceListResult
	err := a.post(ctx, "device-list", query, &out)
	return out, err
}

// Aggregated implements dashboard.QueryClient.
func (a *QueryAPI) Aggregated(ctx context.Context, query dashboard.AggregatedQuery) (dashboard.AggregatedResult, error) {
	var out dashboard.AggregatedResult
	err := a.post(ctx, "aggregated", query, &out)
	return out, err
}

// Historical returns raw readings as series.
func (a *QueryAPI) Historical(ctx context.Context, query HistoricalQuery) (dashboard.TimeSeriesResult, error) {
	var out dashboard.TimeSeriesResult
	err := a.post(ctx, "historical", query, &out)
	return out, err
}

// Categorical returns a value breakdown of one field.
func (a *QueryAPI) Categorical(ctx context.Context, query CategoricalQuery) (CategoricalResult, error) {
	var out CategoricalResult
	err := a.post(ctx, "categorical", query, &out)
	return out, err
}

// AssetTelemetry aggregates readings across the devices of an asset.
func (a *QueryAPI) AssetTelemetry(ctx context.Context, assetID string, query AssetTelemetryQuery) (dashboard.AggregatedResult, error) {
	var out dashboard.AggregatedResult
	if err := requireID("asset", assetID); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceQuery, http.MethodPost, "/api/AssetTelemetry/"+escape(assetID)+"/aggregated", query, &out)
	return out, err
}

package dashboard

import (
	"context"
	"fmt"
)

// TimeSeriesProvider fetches bucketed series and renders chart HTML.
type TimeSeriesProvider struct {
	query  QueryClient
	charts *ChartRenderer
}

// NewTimeSeriesProvider builds the time-series chart provider. charts may be nil
// to skip HTML rendering.
func NewTimeSeriesProvider(query QueryClient, charts *ChartRenderer) *TimeSeriesProvider {
	return &TimeSeriesProvider{query: query, charts: charts}
}

// Fetch validates the config and queries the timeseries endpoint. Only deviceId
// drill-through parameters are honored.
func (p *TimeSeriesProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[TimeSeriesConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(TimeSeriesConfig)
	fields := cfg.Fields()
	if len(fields) == 0 {
		return nil, configurationError(WidgetTimeSeries, "fieldName", "please select at least one field to chart")
	}
	sourceType := cfg.SourceType
	if sourceType == SourceAsset {
		sourceType = SourceDevice
	}
	source, err := resolveSource(ctx, sourceSpec{
		widgetType:   WidgetTimeSeries,
		sourceType:   sourceType,
		deviceID:     cfg.DeviceID,
		deviceIDs:    append(append([]string(nil), cfg.DeviceIDs...), meta.Widget.DataSource.DeviceIDs...),
		deviceTypeID: cfg.DeviceTypeID,
		useParameter: cfg.UseSubDashboardParameter,
	})
	if err != nil {
		return nil, err
	}
	if p.query == nil {
		return nil, errMissingQuery
	}
	query := TimeSeriesQuery{
		DeviceIDs:    source.DeviceIDs,
		DeviceTypeID: source.DeviceTypeID,
		Fields:       fields,
		TimeRange:    cfg.TimeRange,
		Aggregation:  cfg.Aggregation,
		Interval:     cfg.Interval,
	}
	result, err := p.query.TimeSeries(ctx, query)
	if err != nil {
		return nil, err
	}
	data := WidgetData{
		"chartType": cfg.ChartType,
		"fields":    fields,
		"deviceIds": source.DeviceIDs,
		"timeRange": cfg.TimeRange,
		"interval":  cfg.Interval,
	}
	if result.Empty() {
		return EmptyData(data, "No data points in the selected time range"), nil
	}
	data["series"] = result.Series
	if p.charts != nil {
		key := fmt.Sprintf("timeseries:%s:%s:%s", meta.Widget.ID, configHash(query), configHash(result))
		html, err := p.charts.TimeSeries(key, cfg.ChartType, result.Series, ChartOptions{
			Title:      meta.Widget.Title,
			YAxisLabel: cfg.YAxisLabel,
			ShowLegend: boolValue(cfg.ShowLegend, true),
			Theme:      cfg.Theme,
		})
		if err != nil {
			return nil, err
		}
		data["chart_html"] = html
	}
	return data, nil
}

package dashboard

import (
	"context"
	"fmt"
)

// GaugeProvider renders a value against a min/max range.
type GaugeProvider struct {
	query  QueryClient
	charts *ChartRenderer
}

// NewGaugeProvider builds the gauge provider. charts may be nil.
func NewGaugeProvider(query QueryClient, charts *ChartRenderer) *GaugeProvider {
	return &GaugeProvider{query: query, charts: charts}
}

// Fetch validates the config, reads the latest aggregate, and computes the gauge fill.
func (p *GaugeProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[GaugeConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(GaugeConfig)
	if cfg.FieldName == "" {
		return nil, configurationError(WidgetGauge, "fieldName", "please select a field to display")
	}
	min, max := *cfg.Min, *cfg.Max
	if max <= min {
		return nil, configurationError(WidgetGauge, "max", "please set a maximum greater than the minimum")
	}
	source, err := resolveSource(ctx, sourceSpec{
		widgetType:   WidgetGauge,
		sourceType:   cfg.SourceType,
		deviceID:     cfg.DeviceID,
		deviceTypeID: cfg.DeviceTypeID,
		assetID:      cfg.AssetID,
		useParameter: cfg.UseSubDashboardParameter,
	})
	if err != nil {
		return nil, err
	}
	if p.query == nil {
		return nil, errMissingQuery
	}
	result, err := p.query.KPI(ctx, KPIQuery{
		DeviceIDs:    source.DeviceIDs,
		DeviceTypeID: source.DeviceTypeID,
		AssetID:      source.AssetID,
		Field:        cfg.FieldName,
		Aggregation:  cfg.Aggregation,
		TimeRange:    cfg.TimeRange,
	})
	if err != nil {
		return nil, err
	}
	label := fieldLabel(cfg.FieldName, cfg.FieldFriendlyName)
	if result.CurrentValue == nil {
		return EmptyData(WidgetData{"label": label, "min": min, "max": max}, "No data for the selected time range"), nil
	}
	value := *result.CurrentValue
	unit := cfg.Unit
	if unit == "" {
		unit = result.Unit
	}
	level := ClassifyThreshold(value, cfg.WarningThreshold, cfg.CriticalThreshold, cfg.ThresholdDirection)
	data := WidgetData{
		"label":          label,
		"value":          value,
		"formattedValue": FormatValue(value, intValue(cfg.DecimalPlaces, defaultKPIDecimals)),
		"unit":           unit,
		"min":            min,
		"max":            max,
		"percent":        GaugePercent(value, min, max),
		"level":          level.String(),
		"style":          cfg.Style,
	}
	if cfg.RenderChart && p.charts != nil {
		key := fmt.Sprintf("gauge:%s:%s:%v", meta.Widget.ID, configHash(cfg), value)
		html, err := p.charts.Gauge(key, meta.Widget.Title, label, value, min, max)
		if err != nil {
			return nil, err
		}
		data["chart_html"] = html
	}
	return data, nil
}

// GaugePercent is the position of value within [min, max], clamped to 0..100.
func GaugePercent(value, min, max float64) float64 {
	if max <= min {
		return 0
	}
	pct := (value - min) / (max - min) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

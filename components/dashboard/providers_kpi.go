package dashboard

import (
	"context"
	"math"
)

// KPIProvider renders a single aggregated value with threshold and trend.
type KPIProvider struct {
	query QueryClient
}

// NewKPIProvider builds the KPI card provider.
func NewKPIProvider(query QueryClient) *KPIProvider {
	return &KPIProvider{query: query}
}

// Fetch validates the config, queries the KPI endpoint, and formats the card.
func (p *KPIProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[KPIConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(KPIConfig)
	if cfg.FieldName == "" {
		return nil, configurationError(WidgetKPI, "fieldName", "please select a field to display")
	}
	source, err := resolveSource(ctx, sourceSpec{
		widgetType:   WidgetKPI,
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
		return EmptyData(WidgetData{"label": label}, "No data for the selected time range"), nil
	}
	return kpiData(cfg, label, result), nil
}

func kpiData(cfg KPIConfig, label string, result KPIResult) WidgetData {
	value := *result.CurrentValue
	decimals := intValue(cfg.DecimalPlaces, defaultKPIDecimals)
	unit := cfg.Unit
	if unit == "" {
		unit = result.Unit
	}
	level := ClassifyThreshold(value, cfg.WarningThreshold, cfg.CriticalThreshold, cfg.ThresholdDirection)
	data := WidgetData{
		"label":          label,
		"value":          value,
		"formattedValue": FormatValue(value, decimals),
		"unit":           unit,
		"prefix":         cfg.Prefix,
		"level":          level.String(),
		"aggregation":    cfg.Aggregation,
		"timeRange":      cfg.TimeRange,
		"showTrend":      boolValue(cfg.ShowTrend, true),
	}
	if !result.Timestamp.IsZero() {
		data["timestamp"] = result.Timestamp
	}
	trend := ComputeTrend(value, result.PreviousValue)
	data["trend"] = string(trend.Trend)
	if trend.HasPercent {
		data["change"] = FormatValue(math.Abs(trend.Change), decimals)
		data["changePercent"] = trend.FormatPercent()
	}
	if result.PreviousValue != nil {
		data["previousValue"] = *result.PreviousValue
	}
	return data
}

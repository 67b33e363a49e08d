package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// DefaultTemplates returns the starter dashboard templates offered when a
// tenant has no dashboards yet.
func DefaultTemplates() []Dashboard {
	kpi := func(id, title, field, unit string) Widget {
		return Widget{ID: id, Type: WidgetKPI, Title: title, Config: KPIConfig{
			SourceType:    SourceDeviceType,
			FieldName:     field,
			Unit:          unit,
			Aggregation:   AggregationAvg,
			TimeRange:     TimeRangeLast24h,
			ShowTrend:     boolPtr(true),
			DecimalPlaces: intPtr(1),
		}, Behavior: Behavior{AutoRefresh: true, RefreshInterval: Refresh1m}}
	}
	return []Dashboard{
		{
			Name:        "Device Overview",
			Description: "Fleet status, locations and recent telemetry",
			IsTemplate:  true,
			Tags:        []string{"devices", "starter"},
			Widgets: []Widget{
				{ID: "device-map", Type: WidgetMap, Title: "Device Locations", Config: MapConfig{}.WithDefaults(),
					Behavior: Behavior{AutoRefresh: true, RefreshInterval: Refresh30s}},
				{ID: "device-list", Type: WidgetDeviceList, Title: "Devices", Config: DeviceListConfig{}.WithDefaults(),
					Behavior: Behavior{AutoRefresh: true, RefreshInterval: Refresh1m}},
			},
		},
		{
			Name:        "Environment Monitoring",
			Description: "Temperature and humidity KPIs with 24h trends",
			IsTemplate:  true,
			Tags:        []string{"telemetry", "starter"},
			Widgets: []Widget{
				kpi("avg-temperature", "Average Temperature", "temperature", "°C"),
				kpi("avg-humidity", "Average Humidity", "humidity", "%"),
				{ID: "temperature-trend", Type: WidgetTimeSeries, Title: "Temperature (24h)", Config: TimeSeriesConfig{
					SourceType: SourceDeviceType,
					FieldName:  "temperature",
				}.WithDefaults()},
			},
		},
	}
}

// SeedTemplates saves every default template when the store holds no templates.
func SeedTemplates(ctx context.Context, service *Service) error {
	if service == nil {
		return errors.New("dashboard: service is required to seed templates")
	}
	existing, err := service.ListDashboards(ctx, DashboardFilter{TemplatesOnly: true})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	var seedErr error
	for _, tpl := range DefaultTemplates() {
		if _, err := service.SaveDashboard(ctx, tpl); err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("seed template %s: %w", tpl.Name, err))
		}
	}
	return seedErr
}

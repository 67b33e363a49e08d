package dashboard

import (
	"context"
	"fmt"
	"time"
)

// ProviderSources bundles the remote collaborators the built-in providers read from.
type ProviderSources struct {
	Query   QueryClient
	Devices DeviceDirectory
	Assets  AssetDirectory
	Charts  *ChartRenderer
	Now     func() time.Time
}

func (s ProviderSources) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultProviders builds a provider for every built-in data-driven widget type.
// The CAD popup provider lives in the cad package and is registered separately.
func DefaultProviders(sources ProviderSources) map[WidgetType]Provider {
	if sources.Charts == nil {
		sources.Charts = NewChartRenderer()
	}
	return map[WidgetType]Provider{
		WidgetKPI:             NewKPIProvider(sources.Query),
		WidgetGauge:           NewGaugeProvider(sources.Query, sources.Charts),
		WidgetTimeSeries:      NewTimeSeriesProvider(sources.Query, sources.Charts),
		WidgetMap:             NewMapProvider(sources.Query, sources.now),
		WidgetDeviceList:      NewDeviceListProvider(sources.Query, sources.now),
		WidgetVideoPlayer:     NewVideoProvider(),
		WidgetCustom:          customProvider,
		WidgetDataTable:       NewDataTableProvider(sources.Query),
		WidgetDigitalTwinTree: NewAssetTreeProvider(sources.Assets),
	}
}

// RegisterProviders binds DefaultProviders onto reg, skipping types that already have one.
func RegisterProviders(reg ProviderRegistry, sources ProviderSources) error {
	for widgetType, provider := range DefaultProviders(sources) {
		code := string(widgetType)
		if _, ok := reg.Provider(code); ok {
			continue
		}
		if err := reg.RegisterProvider(code, provider); err != nil {
			return fmt.Errorf("dashboard: register provider %s: %w", code, err)
		}
	}
	return nil
}

var customProvider = ProviderFunc(func(_ context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[CustomConfig](meta)
	if err != nil {
		return nil, err
	}
	if cfg.Component == "" {
		return nil, configurationError(WidgetCustom, "component", "please select a custom widget component")
	}
	return WidgetData{
		"component":  cfg.Component,
		"properties": cfg.Properties,
	}, nil
})

// configAs extracts the typed config variant, accepting pointer variants too.
func configAs[T WidgetConfig](meta WidgetContext) (T, error) {
	var zero T
	cfg := meta.Config
	if cfg == nil {
		cfg = meta.Widget.ResolvedConfig()
	}
	if cfg == nil {
		return zero, fmt.Errorf("%w: widget %s has no config", ErrConfigTypeMismatch, meta.Widget.ID)
	}
	if typed, ok := derefConfig(cfg).(T); ok {
		return typed, nil
	}
	return zero, fmt.Errorf("%w: widget %s holds %s config", ErrConfigTypeMismatch, meta.Widget.ID, cfg.WidgetType())
}

// sourceSelection is the validated device/type/asset selection for a query.
type sourceSelection struct {
	DeviceIDs    []string
	DeviceTypeID string
	AssetID      string
}

type sourceSpec struct {
	widgetType   WidgetType
	sourceType   SourceType
	deviceID     string
	deviceIDs    []string
	deviceTypeID string
	assetID      string
	useParameter bool
}

// resolveSource validates that the selected source type has an id and applies
// drill-through substitution.
func resolveSource(ctx context.Context, spec sourceSpec) (sourceSelection, error) {
	switch spec.sourceType {
	case SourceDeviceType:
		if spec.deviceTypeID == "" {
			return sourceSelection{}, configurationError(spec.widgetType, "deviceTypeId", "please select a device type")
		}
		return sourceSelection{DeviceTypeID: spec.deviceTypeID}, nil
	case SourceAsset:
		assetID := ResolveAssetID(ctx, spec.assetID, spec.useParameter)
		if assetID == "" {
			return sourceSelection{}, configurationError(spec.widgetType, "assetId", "please select an asset")
		}
		return sourceSelection{AssetID: assetID}, nil
	default:
		if params := ParameterContextFrom(ctx); spec.useParameter && params.IsSubDashboard() && params.ParameterType == ParameterDeviceID {
			return sourceSelection{DeviceIDs: []string{params.ParameterID}}, nil
		}
		ids := compactIDs(append([]string{spec.deviceID}, spec.deviceIDs...))
		if len(ids) == 0 {
			return sourceSelection{}, configurationError(spec.widgetType, "deviceId", "please select a device")
		}
		return sourceSelection{DeviceIDs: ids}, nil
	}
}

func compactIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func fieldLabel(name, friendly string) string {
	if friendly != "" {
		return friendly
	}
	return name
}

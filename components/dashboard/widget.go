package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ettle/strcase"
)

// WidgetType is the closed set of widget kinds a dashboard can hold.
type WidgetType string

const (
	WidgetKPI             WidgetType = "kpi"
	WidgetGauge           WidgetType = "gauge"
	WidgetTimeSeries      WidgetType = "time-series"
	WidgetMap             WidgetType = "map"
	WidgetDeviceList      WidgetType = "device-list"
	WidgetVideoPlayer     WidgetType = "video-player"
	WidgetCustom          WidgetType = "custom"
	WidgetCAD3DViewer     WidgetType = "cad-3d-viewer"
	WidgetDataTable       WidgetType = "data-table"
	WidgetDigitalTwinTree WidgetType = "digital-twin-tree"
)

var (
	// ErrUnknownWidgetType is returned when a widget type is outside the closed set.
	ErrUnknownWidgetType = errors.New("dashboard: unknown widget type")
	// ErrConfigTypeMismatch is returned when a widget holds a config for another type.
	ErrConfigTypeMismatch = errors.New("dashboard: widget config does not match widget type")
)

var widgetTypes = []WidgetType{
	WidgetKPI,
	WidgetGauge,
	WidgetTimeSeries,
	WidgetMap,
	WidgetDeviceList,
	WidgetVideoPlayer,
	WidgetCustom,
	WidgetCAD3DViewer,
	WidgetDataTable,
	WidgetDigitalTwinTree,
}

// aliases the frontend has historically emitted for the same kinds.
var widgetTypeAliases = map[string]WidgetType{
	"chart":        WidgetTimeSeries,
	"timeseries":   WidgetTimeSeries,
	"cad-viewer":   WidgetCAD3DViewer,
	"cad3d-viewer": WidgetCAD3DViewer,
	"cad-3d":       WidgetCAD3DViewer,
	"video":        WidgetVideoPlayer,
	"table":        WidgetDataTable,
	"asset-tree":   WidgetDigitalTwinTree,
}

// WidgetTypes lists every supported widget type.
func WidgetTypes() []WidgetType {
	return append([]WidgetType(nil), widgetTypes...)
}

// ParseWidgetType normalizes camel/snake spellings into the kebab-case tag.
func ParseWidgetType(raw string) (WidgetType, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownWidgetType)
	}
	direct := strings.ToLower(strings.ReplaceAll(value, "_", "-"))
	if t, ok := lookupWidgetType(direct); ok {
		return t, nil
	}
	normalized := strings.ReplaceAll(strcase.ToKebab(value), "3-d", "3d")
	if t, ok := lookupWidgetType(normalized); ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWidgetType, raw)
}

func lookupWidgetType(candidate string) (WidgetType, bool) {
	for _, t := range widgetTypes {
		if string(t) == candidate {
			return t, true
		}
	}
	alias, ok := widgetTypeAliases[candidate]
	return alias, ok
}

// Valid reports whether t belongs to the closed set.
func (t WidgetType) Valid() bool {
	for _, candidate := range widgetTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts any spelling ParseWidgetType understands.
func (t *WidgetType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dashboard: decode widget type: %w", err)
	}
	parsed, err := ParseWidgetType(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RefreshInterval enumerates the auto-refresh cadences exposed to designers.
type RefreshInterval string

const (
	Refresh10s   RefreshInterval = "10s"
	Refresh30s   RefreshInterval = "30s"
	Refresh1m    RefreshInterval = "1m"
	Refresh5m    RefreshInterval = "5m"
	Refresh10m   RefreshInterval = "10m"
	Refresh30m   RefreshInterval = "30m"
	RefreshNever RefreshInterval = "never"
)

var refreshDurations = map[RefreshInterval]time.Duration{
	Refresh10s: 10 * time.Second,
	Refresh30s: 30 * time.Second,
	Refresh1m:  time.Minute,
	Refresh5m:  5 * time.Minute,
	Refresh10m: 10 * time.Minute,
	Refresh30m: 30 * time.Minute,
}

// Duration returns the polling period, or 0 for never/unknown values.
func (r RefreshInterval) Duration() time.Duration {
	return refreshDurations[r]
}

// SourceType selects where a widget reads telemetry from.
type SourceType string

const (
	SourceDevice     SourceType = "device"
	SourceDeviceType SourceType = "deviceType"
	SourceAsset      SourceType = "asset"
)

// ParameterType is the scalar a drill-through passes to a child dashboard.
type ParameterType string

const (
	ParameterDeviceID ParameterType = "deviceId"
	ParameterAssetID  ParameterType = "assetId"
)

// SubDashboardConfig links a clickable row/marker/mesh to a child dashboard.
type SubDashboardConfig struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	ParameterType ParameterType `json:"parameterType"`
	DashboardID   string        `json:"dashboardId"`
}

// DrillDown holds the child dashboards reachable from a widget.
type DrillDown struct {
	Enabled       bool                 `json:"enabled,omitempty"`
	SubDashboards []SubDashboardConfig `json:"subDashboards,omitempty"`
}

// Behavior holds cross-cutting interaction settings.
type Behavior struct {
	AutoRefresh     bool            `json:"autoRefresh,omitempty"`
	RefreshInterval RefreshInterval `json:"refreshInterval,omitempty"`
	DrillDown       DrillDown       `json:"drillDown,omitempty"`
}

// PollInterval returns the effective auto-refresh period (0 disables polling).
func (b Behavior) PollInterval() time.Duration {
	if !b.AutoRefresh {
		return 0
	}
	return b.RefreshInterval.Duration()
}

// DataSource holds cross-cutting source selection.
type DataSource struct {
	DeviceTypeID  string   `json:"deviceTypeId,omitempty"`
	DeviceIDs     []string `json:"deviceIds,omitempty"`
	AssetID       string   `json:"assetId,omitempty"`
	FieldMappings []string `json:"fieldMappings,omitempty"`
}

// Widget is a single dashboard tile. Config always matches Type.
type Widget struct {
	ID         string       `json:"id"`
	Type       WidgetType   `json:"type"`
	Title      string       `json:"title"`
	Config     WidgetConfig `json:"config"`
	DataSource DataSource   `json:"dataSource"`
	Behavior   Behavior     `json:"behavior"`
}

type widgetWire struct {
	ID         string          `json:"id"`
	Type       WidgetType      `json:"type"`
	Title      string          `json:"title"`
	Config     json.RawMessage `json:"config"`
	DataSource DataSource      `json:"dataSource"`
	Behavior   Behavior        `json:"behavior"`
}

// UnmarshalJSON decodes the config variant selected by the widget type.
func (w *Widget) UnmarshalJSON(data []byte) error {
	var wire widgetWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("dashboard: decode widget: %w", err)
	}
	cfg, err := DecodeConfigJSON(wire.Type, wire.Config)
	if err != nil {
		return fmt.Errorf("dashboard: decode widget %s: %w", wire.ID, err)
	}
	*w = Widget{
		ID:         wire.ID,
		Type:       wire.Type,
		Title:      wire.Title,
		Config:     cfg,
		DataSource: wire.DataSource,
		Behavior:   wire.Behavior,
	}
	return nil
}

// Validate enforces the type/config invariant.
func (w Widget) Validate() error {
	if !w.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownWidgetType, w.Type)
	}
	if w.Config == nil {
		return fmt.Errorf("dashboard: widget %s has no config", w.ID)
	}
	if w.Config.WidgetType() != w.Type {
		return fmt.Errorf("%w: widget %s is %s but holds %s config", ErrConfigTypeMismatch, w.ID, w.Type, w.Config.WidgetType())
	}
	return nil
}

// ResolvedConfig returns the config with documented defaults applied.
func (w Widget) ResolvedConfig() WidgetConfig {
	if w.Config == nil {
		if cfg, err := DefaultConfig(w.Type); err == nil {
			return cfg
		}
		return nil
	}
	return w.Config.WithDefaults()
}

// NewWidget builds a widget with the default config for its type.
func NewWidget(id string, widgetType WidgetType, title string) (Widget, error) {
	cfg, err := DefaultConfig(widgetType)
	if err != nil {
		return Widget{}, err
	}
	return Widget{
		ID:     id,
		Type:   widgetType,
		Title:  title,
		Config: cfg,
		Behavior: Behavior{
			RefreshInterval: RefreshNever,
		},
	}, nil
}

// DecodeConfigJSON decodes raw JSON into the variant for widgetType.
// A null or empty payload yields the zero variant; defaults apply on resolve.
func DecodeConfigJSON(widgetType WidgetType, raw json.RawMessage) (WidgetConfig, error) {
	cfg, err := emptyConfig(widgetType)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return derefConfig(cfg), nil
	}
	if err := json.Unmarshal(trimmed, cfg); err != nil {
		return nil, fmt.Errorf("dashboard: decode %s config: %w", widgetType, err)
	}
	return derefConfig(cfg), nil
}

// DecodeConfigMap decodes a loosely typed config map into the variant for widgetType.
func DecodeConfigMap(widgetType WidgetType, values map[string]any) (WidgetConfig, error) {
	if values == nil {
		return DecodeConfigJSON(widgetType, nil)
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("dashboard: encode %s config: %w", widgetType, err)
	}
	return DecodeConfigJSON(widgetType, raw)
}

// ConfigMap renders a config variant as a JSON-shaped map.
func ConfigMap(cfg WidgetConfig) (map[string]any, error) {
	if cfg == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("dashboard: encode %s config: %w", cfg.WidgetType(), err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("dashboard: normalize %s config: %w", cfg.WidgetType(), err)
	}
	return out, nil
}

// emptyConfig returns a pointer to a zero config variant for decoding.
func emptyConfig(widgetType WidgetType) (WidgetConfig, error) {
	switch widgetType {
	case WidgetKPI:
		return &KPIConfig{}, nil
	case WidgetGauge:
		return &GaugeConfig{}, nil
	case WidgetTimeSeries:
		return &TimeSeriesConfig{}, nil
	case WidgetMap:
		return &MapConfig{}, nil
	case WidgetDeviceList:
		return &DeviceListConfig{}, nil
	case WidgetVideoPlayer:
		return &VideoPlayerConfig{}, nil
	case WidgetCustom:
		return &CustomConfig{}, nil
	case WidgetCAD3DViewer:
		return &CAD3DViewerConfig{}, nil
	case WidgetDataTable:
		return &DataTableConfig{}, nil
	case WidgetDigitalTwinTree:
		return &DigitalTwinTreeConfig{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWidgetType, widgetType)
	}
}

func derefConfig(cfg WidgetConfig) WidgetConfig {
	switch c := cfg.(type) {
	case *KPIConfig:
		return *c
	case *GaugeConfig:
		return *c
	case *TimeSeriesConfig:
		return *c
	case *MapConfig:
		return *c
	case *DeviceListConfig:
		return *c
	case *VideoPlayerConfig:
		return *c
	case *CustomConfig:
		return *c
	case *CAD3DViewerConfig:
		return *c
	case *DataTableConfig:
		return *c
	case *DigitalTwinTreeConfig:
		return *c
	default:
		return cfg
	}
}

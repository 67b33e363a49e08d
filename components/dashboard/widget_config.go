package dashboard

// WidgetConfig is the tagged union of per-type widget configurations.
// Implementations are limited to the variants declared in this package.
type WidgetConfig interface {
	WidgetType() WidgetType
	// WithDefaults returns a copy where absent keys resolve to documented defaults.
	WithDefaults() WidgetConfig
	isWidgetConfig()
}

// Aggregation names supported by the query service.
const (
	AggregationAvg   = "avg"
	AggregationSum   = "sum"
	AggregationMin   = "min"
	AggregationMax   = "max"
	AggregationCount = "count"
	AggregationLast  = "last"
)

// Time range presets supported by the query service.
const (
	TimeRangeLastHour  = "last-1h"
	TimeRangeLast6h    = "last-6h"
	TimeRangeLast24h   = "last-24h"
	TimeRangeLast7d    = "last-7d"
	TimeRangeLast30d   = "last-30d"
	defaultKPIDecimals = 1
)

// Vec3 is a point in the CAD scene.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// KPIConfig configures a single-value KPI card.
type KPIConfig struct {
	SourceType               SourceType         `json:"sourceType,omitempty"`
	DeviceID                 string             `json:"deviceId,omitempty"`
	DeviceTypeID             string             `json:"deviceTypeId,omitempty"`
	AssetID                  string             `json:"assetId,omitempty"`
	FieldName                string             `json:"fieldName,omitempty"`
	FieldFriendlyName        string             `json:"fieldFriendlyName,omitempty"`
	Aggregation              string             `json:"aggregation,omitempty"`
	TimeRange                string             `json:"timeRange,omitempty"`
	DecimalPlaces            *int               `json:"decimalPlaces,omitempty"`
	Unit                     string             `json:"unit,omitempty"`
	Prefix                   string             `json:"prefix,omitempty"`
	WarningThreshold         *float64           `json:"warningThreshold,omitempty"`
	CriticalThreshold        *float64           `json:"criticalThreshold,omitempty"`
	ThresholdDirection       ThresholdDirection `json:"thresholdDirection,omitempty"`
	ShowTrend                *bool              `json:"showTrend,omitempty"`
	UseSubDashboardParameter bool               `json:"useSubDashboardParameter,omitempty"`
}

func (KPIConfig) WidgetType() WidgetType { return WidgetKPI }
func (KPIConfig) isWidgetConfig()        {}

func (c KPIConfig) WithDefaults() WidgetConfig {
	if c.SourceType == "" {
		c.SourceType = SourceDevice
	}
	c.Aggregation = stringOr(c.Aggregation, AggregationAvg)
	c.TimeRange = stringOr(c.TimeRange, TimeRangeLast24h)
	if c.DecimalPlaces == nil {
		c.DecimalPlaces = intPtr(defaultKPIDecimals)
	}
	if c.ThresholdDirection == "" {
		c.ThresholdDirection = ThresholdAbove
	}
	if c.ShowTrend == nil {
		c.ShowTrend = boolPtr(true)
	}
	return c
}

// GaugeConfig configures a radial or linear gauge.
type GaugeConfig struct {
	SourceType               SourceType         `json:"sourceType,omitempty"`
	DeviceID                 string             `json:"deviceId,omitempty"`
	DeviceTypeID             string             `json:"deviceTypeId,omitempty"`
	AssetID                  string             `json:"assetId,omitempty"`
	FieldName                string             `json:"fieldName,omitempty"`
	FieldFriendlyName        string             `json:"fieldFriendlyName,omitempty"`
	Aggregation              string             `json:"aggregation,omitempty"`
	TimeRange                string             `json:"timeRange,omitempty"`
	Min                      *float64           `json:"min,omitempty"`
	Max                      *float64           `json:"max,omitempty"`
	DecimalPlaces            *int               `json:"decimalPlaces,omitempty"`
	Unit                     string             `json:"unit,omitempty"`
	Style                    string             `json:"style,omitempty"`
	WarningThreshold         *float64           `json:"warningThreshold,omitempty"`
	CriticalThreshold        *float64           `json:"criticalThreshold,omitempty"`
	ThresholdDirection       ThresholdDirection `json:"thresholdDirection,omitempty"`
	RenderChart              bool               `json:"renderChart,omitempty"`
	UseSubDashboardParameter bool               `json:"useSubDashboardParameter,omitempty"`
}

func (GaugeConfig) WidgetType() WidgetType { return WidgetGauge }
func (GaugeConfig) isWidgetConfig()        {}

func (c GaugeConfig) WithDefaults() WidgetConfig {
	if c.SourceType == "" {
		c.SourceType = SourceDevice
	}
	c.Aggregation = stringOr(c.Aggregation, AggregationLast)
	c.TimeRange = stringOr(c.TimeRange, TimeRangeLastHour)
	if c.Min == nil {
		c.Min = floatPtr(0)
	}
	if c.Max == nil {
		c.Max = floatPtr(100)
	}
	if c.DecimalPlaces == nil {
		c.DecimalPlaces = intPtr(defaultKPIDecimals)
	}
	c.Style = stringOr(c.Style, "radial")
	if c.ThresholdDirection == "" {
		c.ThresholdDirection = ThresholdAbove
	}
	return c
}

// TimeSeriesConfig configures a time-series chart.
type TimeSeriesConfig struct {
	SourceType               SourceType `json:"sourceType,omitempty"`
	DeviceID                 string     `json:"deviceId,omitempty"`
	DeviceIDs                []string   `json:"deviceIds,omitempty"`
	DeviceTypeID             string     `json:"deviceTypeId,omitempty"`
	FieldName                string     `json:"fieldName,omitempty"`
	FieldFriendlyName        string     `json:"fieldFriendlyName,omitempty"`
	AdditionalFields         []string   `json:"additionalFields,omitempty"`
	ChartType                string     `json:"chartType,omitempty"`
	TimeRange                string     `json:"timeRange,omitempty"`
	Aggregation              string     `json:"aggregation,omitempty"`
	Interval                 string     `json:"interval,omitempty"`
	YAxisLabel               string     `json:"yAxisLabel,omitempty"`
	ShowLegend               *bool      `json:"showLegend,omitempty"`
	Theme                    string     `json:"theme,omitempty"`
	UseSubDashboardParameter bool       `json:"useSubDashboardParameter,omitempty"`
}

func (TimeSeriesConfig) WidgetType() WidgetType { return WidgetTimeSeries }
func (TimeSeriesConfig) isWidgetConfig()        {}

func (c TimeSeriesConfig) WithDefaults() WidgetConfig {
	if c.SourceType == "" {
		c.SourceType = SourceDevice
	}
	c.ChartType = stringOr(c.ChartType, "line")
	c.TimeRange = stringOr(c.TimeRange, TimeRangeLast24h)
	c.Aggregation = stringOr(c.Aggregation, AggregationAvg)
	c.Interval = stringOr(c.Interval, "1h")
	if c.ShowLegend == nil {
		c.ShowLegend = boolPtr(true)
	}
	return c
}

// Fields returns the primary field followed by any additional fields.
func (c TimeSeriesConfig) Fields() []string {
	fields := make([]string, 0, 1+len(c.AdditionalFields))
	if c.FieldName != "" {
		fields = append(fields, c.FieldName)
	}
	for _, f := range c.AdditionalFields {
		if f != "" && f != c.FieldName {
			fields = append(fields, f)
		}
	}
	return fields
}

// MapConfig configures the device map.
type MapConfig struct {
	DeviceTypeID             string   `json:"deviceTypeId,omitempty"`
	DeviceIDs                []string `json:"deviceIds,omitempty"`
	AssetID                  string   `json:"assetId,omitempty"`
	CenterLat                *float64 `json:"centerLat,omitempty"`
	CenterLng                *float64 `json:"centerLng,omitempty"`
	Zoom                     *int     `json:"zoom,omitempty"`
	ShowStatus               *bool    `json:"showStatus,omitempty"`
	ClusterMarkers           bool     `json:"clusterMarkers,omitempty"`
	UseSubDashboardParameter bool     `json:"useSubDashboardParameter,omitempty"`
}

func (MapConfig) WidgetType() WidgetType { return WidgetMap }
func (MapConfig) isWidgetConfig()        {}

func (c MapConfig) WithDefaults() WidgetConfig {
	if c.Zoom == nil {
		c.Zoom = intPtr(10)
	}
	if c.ShowStatus == nil {
		c.ShowStatus = boolPtr(true)
	}
	return c
}

// DeviceListConfig configures a paginated device table.
type DeviceListConfig struct {
	DeviceTypeID             string   `json:"deviceTypeId,omitempty"`
	AssetID                  string   `json:"assetId,omitempty"`
	Columns                  []string `json:"columns,omitempty"`
	PageSize                 *int     `json:"pageSize,omitempty"`
	SortBy                   string   `json:"sortBy,omitempty"`
	SortDirection            string   `json:"sortDirection,omitempty"`
	Search                   string   `json:"search,omitempty"`
	ShowStatus               *bool    `json:"showStatus,omitempty"`
	UseSubDashboardParameter bool     `json:"useSubDashboardParameter,omitempty"`
}

func (DeviceListConfig) WidgetType() WidgetType { return WidgetDeviceList }
func (DeviceListConfig) isWidgetConfig()        {}

func (c DeviceListConfig) WithDefaults() WidgetConfig {
	if len(c.Columns) == 0 {
		c.Columns = []string{"name", "deviceType", "status", "lastSeenAt"}
	}
	if c.PageSize == nil {
		c.PageSize = intPtr(10)
	}
	c.SortBy = stringOr(c.SortBy, "name")
	c.SortDirection = stringOr(c.SortDirection, "asc")
	if c.ShowStatus == nil {
		c.ShowStatus = boolPtr(true)
	}
	return c
}

// VideoPlayerConfig configures a camera/video tile.
type VideoPlayerConfig struct {
	SourceURL  string `json:"sourceUrl,omitempty"`
	SourceType string `json:"sourceType,omitempty"`
	DeviceID   string `json:"deviceId,omitempty"`
	PosterURL  string `json:"posterUrl,omitempty"`
	Autoplay   bool   `json:"autoplay,omitempty"`
	Muted      *bool  `json:"muted,omitempty"`
	Controls   *bool  `json:"controls,omitempty"`
	Loop       bool   `json:"loop,omitempty"`
}

func (VideoPlayerConfig) WidgetType() WidgetType { return WidgetVideoPlayer }
func (VideoPlayerConfig) isWidgetConfig()        {}

func (c VideoPlayerConfig) WithDefaults() WidgetConfig {
	c.SourceType = stringOr(c.SourceType, "hls")
	if c.Muted == nil {
		c.Muted = boolPtr(true)
	}
	if c.Controls == nil {
		c.Controls = boolPtr(true)
	}
	return c
}

// CustomConfig configures a manifest-registered widget.
type CustomConfig struct {
	Component  string         `json:"component,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

func (CustomConfig) WidgetType() WidgetType { return WidgetCustom }
func (CustomConfig) isWidgetConfig()        {}

func (c CustomConfig) WithDefaults() WidgetConfig {
	if c.Properties == nil {
		c.Properties = map[string]any{}
	}
	return c
}

// SensorSourceType selects what a CAD mesh is bound to.
type SensorSourceType string

const (
	SensorSourceDevice SensorSourceType = "device"
	SensorSourceAlert  SensorSourceType = "alert"
)

// SensorFieldBinding selects a telemetry field shown in the CAD popup.
type SensorFieldBinding struct {
	FieldName  string `json:"fieldName"`
	ChartType  string `json:"chartType,omitempty"`
	TimePeriod string `json:"timePeriod,omitempty"`
}

// SensorElementMapping binds a named mesh to a device or alert.
type SensorElementMapping struct {
	ElementID   string               `json:"elementId"`
	ElementName string               `json:"elementName,omitempty"`
	SourceType  SensorSourceType     `json:"sourceType"`
	DeviceID    string               `json:"deviceId,omitempty"`
	AlertID     string               `json:"alertId,omitempty"`
	Fields      []SensorFieldBinding `json:"fields,omitempty"`
}

// FieldNames lists the bound telemetry fields.
func (m SensorElementMapping) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.FieldName != "" {
			names = append(names, f.FieldName)
		}
	}
	return names
}

// CAD3DViewerConfig configures the CAD model viewer.
type CAD3DViewerConfig struct {
	ModelURL       string                 `json:"modelUrl,omitempty"`
	ModelFormat    string                 `json:"modelFormat,omitempty"`
	SensorMappings []SensorElementMapping `json:"sensorMappings,omitempty"`
	DefaultColor   string                 `json:"defaultColor,omitempty"`
	ActiveColor    string                 `json:"activeColor,omitempty"`
	HighlightColor string                 `json:"highlightColor,omitempty"`
	CameraPosition *Vec3                  `json:"cameraPosition,omitempty"`
	AutoRotate     bool                   `json:"autoRotate,omitempty"`
	ShowGrid       *bool                  `json:"showGrid,omitempty"`
}

func (CAD3DViewerConfig) WidgetType() WidgetType { return WidgetCAD3DViewer }
func (CAD3DViewerConfig) isWidgetConfig()        {}

func (c CAD3DViewerConfig) WithDefaults() WidgetConfig {
	c.ModelFormat = stringOr(c.ModelFormat, "stl")
	c.DefaultColor = stringOr(c.DefaultColor, "#cccccc")
	c.ActiveColor = stringOr(c.ActiveColor, "#4caf50")
	c.HighlightColor = stringOr(c.HighlightColor, "#ff9800")
	if c.ShowGrid == nil {
		c.ShowGrid = boolPtr(true)
	}
	return c
}

// Mapping returns the sensor mapping for a mesh id.
func (c CAD3DViewerConfig) Mapping(elementID string) (SensorElementMapping, bool) {
	for _, m := range c.SensorMappings {
		if m.ElementID == elementID {
			return m, true
		}
	}
	return SensorElementMapping{}, false
}

// DataTableConfig configures a tabular telemetry view.
type DataTableConfig struct {
	SourceType               SourceType `json:"sourceType,omitempty"`
	DeviceIDs                []string   `json:"deviceIds,omitempty"`
	DeviceTypeID             string     `json:"deviceTypeId,omitempty"`
	AssetID                  string     `json:"assetId,omitempty"`
	Fields                   []string   `json:"fields,omitempty"`
	TimeRange                string     `json:"timeRange,omitempty"`
	Aggregation              string     `json:"aggregation,omitempty"`
	Interval                 string     `json:"interval,omitempty"`
	PageSize                 *int       `json:"pageSize,omitempty"`
	UseSubDashboardParameter bool       `json:"useSubDashboardParameter,omitempty"`
}

func (DataTableConfig) WidgetType() WidgetType { return WidgetDataTable }
func (DataTableConfig) isWidgetConfig()        {}

func (c DataTableConfig) WithDefaults() WidgetConfig {
	if c.SourceType == "" {
		c.SourceType = SourceDevice
	}
	c.TimeRange = stringOr(c.TimeRange, TimeRangeLast24h)
	c.Aggregation = stringOr(c.Aggregation, AggregationAvg)
	c.Interval = stringOr(c.Interval, "1h")
	if c.PageSize == nil {
		c.PageSize = intPtr(25)
	}
	return c
}

// DigitalTwinTreeConfig configures an asset hierarchy browser.
type DigitalTwinTreeConfig struct {
	RootAssetID              string `json:"rootAssetId,omitempty"`
	MaxDepth                 *int   `json:"maxDepth,omitempty"`
	ShowDeviceCount          *bool  `json:"showDeviceCount,omitempty"`
	UseSubDashboardParameter bool   `json:"useSubDashboardParameter,omitempty"`
}

func (DigitalTwinTreeConfig) WidgetType() WidgetType { return WidgetDigitalTwinTree }
func (DigitalTwinTreeConfig) isWidgetConfig()        {}

func (c DigitalTwinTreeConfig) WithDefaults() WidgetConfig {
	if c.MaxDepth == nil {
		c.MaxDepth = intPtr(3)
	}
	if c.ShowDeviceCount == nil {
		c.ShowDeviceCount = boolPtr(true)
	}
	return c
}

// DefaultConfig returns the defaulted config variant for widgetType.
func DefaultConfig(widgetType WidgetType) (WidgetConfig, error) {
	cfg, err := emptyConfig(widgetType)
	if err != nil {
		return nil, err
	}
	return derefConfig(cfg).WithDefaults(), nil
}

func stringOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func intValue(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func boolValue(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

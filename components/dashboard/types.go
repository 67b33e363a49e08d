package dashboard

import (
	"context"
	"time"
)

// DashboardStore persists dashboard documents (Dashboard.API or in-memory).
// Implementations ensure thread safety.
type DashboardStore interface {
	ListDashboards(ctx context.Context, filter DashboardFilter) ([]Dashboard, error)
	GetDashboard(ctx context.Context, id string) (Dashboard, error)
	CreateDashboard(ctx context.Context, d Dashboard) (Dashboard, error)
	UpdateDashboard(ctx context.Context, d Dashboard) (Dashboard, error)
	DeleteDashboard(ctx context.Context, id string) error
	PublishDashboard(ctx context.Context, id string) (Dashboard, error)
	DuplicateDashboard(ctx context.Context, id, name string) (Dashboard, error)
}

// QueryClient reads telemetry for widgets (Query.API widgetdata endpoints).
type QueryClient interface {
	KPI(ctx context.Context, query KPIQuery) (KPIResult, error)
	TimeSeries(ctx context.Context, query TimeSeriesQuery) (TimeSeriesResult, error)
	Realtime(ctx context.Context, query RealtimeQuery) (RealtimeResult, error)
	DeviceList(ctx context.Context, query DeviceListQuery) (DeviceListResult, error)
	Aggregated(ctx context.Context, query AggregatedQuery) (AggregatedResult, error)
}

// DeviceDirectory resolves devices, device types, and their field schemas.
type DeviceDirectory interface {
	Device(ctx context.Context, id string) (Device, error)
	ListDevices(ctx context.Context, filter DeviceFilter) ([]Device, error)
	DeviceType(ctx context.Context, id string) (DeviceType, error)
	ListDeviceTypes(ctx context.Context, search string) ([]DeviceType, error)
	DeviceTypeFields(ctx context.Context, deviceTypeID string) ([]FieldMapping, error)
}

// AssetDirectory walks the digital twin hierarchy.
type AssetDirectory interface {
	RootAssets(ctx context.Context) ([]Asset, error)
	Asset(ctx context.Context, id string) (Asset, error)
	AssetChildren(ctx context.Context, parentID string) ([]Asset, error)
}

// AlertSource fetches fired alerts.
type AlertSource interface {
	AlertInstance(ctx context.Context, id string) (AlertInstance, error)
	ListAlertInstances(ctx context.Context, filter AlertFilter) ([]AlertInstance, error)
}

// PreferenceStore returns per-viewer overrides.
type PreferenceStore interface {
	Preferences(ctx context.Context, viewer ViewerContext) (Preferences, error)
	SavePreferences(ctx context.Context, viewer ViewerContext, prefs Preferences) error
}

// ProviderRegistry stores widget definitions/providers discoverable via hooks or manifests.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook notifies transports (REST/WebSocket) about widget changes.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// WidgetDefinition describes a widget kind and the JSON schema of its config.
type WidgetDefinition struct {
	Code        string         `json:"code" yaml:"code"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Category    string         `json:"category,omitempty" yaml:"category,omitempty"`
}

// ViewerContext captures the active user, tenant, and locale.
type ViewerContext struct {
	UserID   string   `json:"userId"`
	TenantID string   `json:"tenantId"`
	Roles    []string `json:"roles,omitempty"`
	Locale   string   `json:"locale,omitempty"`
}

// DashboardFilter narrows ListDashboards.
type DashboardFilter struct {
	Search          string
	Tags            []string
	TemplatesOnly   bool
	ParentID        string
	IncludeSubPages bool
}

// DeviceFilter narrows ListDevices.
type DeviceFilter struct {
	DeviceTypeID string
	AssetID      string
	Search       string
	Page         int
	PageSize     int
}

// AlertFilter narrows ListAlertInstances.
type AlertFilter struct {
	DeviceID string
	Status   string
	Severity string
	Limit    int
}

// KPIQuery requests the current and previous aggregate of one field.
type KPIQuery struct {
	DeviceIDs    []string `json:"deviceIds,omitempty"`
	DeviceTypeID string   `json:"deviceTypeId,omitempty"`
	AssetID      string   `json:"assetId,omitempty"`
	Field        string   `json:"field"`
	Aggregation  string   `json:"aggregation"`
	TimeRange    string   `json:"timeRange"`
}

// KPIResult is the KPI endpoint payload.
type KPIResult struct {
	CurrentValue  *float64  `json:"currentValue"`
	PreviousValue *float64  `json:"previousValue"`
	Unit          string    `json:"unit,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"`
}

// TimeSeriesQuery requests bucketed series.
type TimeSeriesQuery struct {
	DeviceIDs    []string `json:"deviceIds,omitempty"`
	DeviceTypeID string   `json:"deviceTypeId,omitempty"`
	Fields       []string `json:"fields"`
	TimeRange    string   `json:"timeRange"`
	Aggregation  string   `json:"aggregation"`
	Interval     string   `json:"interval"`
}

// DataPoint is one bucket of a series.
type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries is one device/field line.
type TimeSeries struct {
	DeviceID   string      `json:"deviceId"`
	DeviceName string      `json:"deviceName,omitempty"`
	Field      string      `json:"field"`
	Unit       string      `json:"unit,omitempty"`
	Points     []DataPoint `json:"points"`
}

// TimeSeriesResult is the timeseries endpoint payload.
type TimeSeriesResult struct {
	Series []TimeSeries `json:"series"`
}

// Empty reports whether no series carries a point.
func (r TimeSeriesResult) Empty() bool {
	for _, s := range r.Series {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// RealtimeQuery requests the latest value per device/field.
type RealtimeQuery struct {
	DeviceIDs []string `json:"deviceIds"`
	Fields    []string `json:"fields,omitempty"`
}

// RealtimeValue is the latest reading of one field.
type RealtimeValue struct {
	DeviceID  string    `json:"deviceId"`
	Field     string    `json:"field"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RealtimeResult is the realtime endpoint payload.
type RealtimeResult struct {
	Values []RealtimeValue `json:"values"`
}

// DeviceListQuery requests a page of devices with status.
type DeviceListQuery struct {
	DeviceIDs     []string `json:"deviceIds,omitempty"`
	DeviceTypeID  string   `json:"deviceTypeId,omitempty"`
	AssetID       string   `json:"assetId,omitempty"`
	Search        string   `json:"search,omitempty"`
	Page          int      `json:"page"`
	PageSize      int      `json:"pageSize"`
	SortBy        string   `json:"sortBy,omitempty"`
	SortDirection string   `json:"sortDirection,omitempty"`
}

// DeviceListResult is the device-list endpoint payload.
type DeviceListResult struct {
	Devices    []Device `json:"devices"`
	TotalCount int      `json:"totalCount"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
}

// AggregatedQuery requests one aggregate per device and field.
type AggregatedQuery struct {
	DeviceIDs    []string `json:"deviceIds,omitempty"`
	DeviceTypeID string   `json:"deviceTypeId,omitempty"`
	AssetID      string   `json:"assetId,omitempty"`
	Fields       []string `json:"fields"`
	TimeRange    string   `json:"timeRange"`
	Aggregation  string   `json:"aggregation"`
	Interval     string   `json:"interval,omitempty"`
}

// AggregatedRow is one device row of aggregated values.
type AggregatedRow struct {
	DeviceID   string             `json:"deviceId"`
	DeviceName string             `json:"deviceName,omitempty"`
	Values     map[string]float64 `json:"values"`
	Timestamp  time.Time          `json:"timestamp,omitempty"`
}

// AggregatedResult is the aggregated endpoint payload.
type AggregatedResult struct {
	Rows []AggregatedRow `json:"rows"`
}

// WidgetEvent describes changes that transports might care about.
type WidgetEvent struct {
	DashboardID string    `json:"dashboardId"`
	WidgetID    string    `json:"widgetId,omitempty"`
	Widget      *Widget   `json:"widget,omitempty"`
	Reason      string    `json:"reason"`
	At          time.Time `json:"at"`
}

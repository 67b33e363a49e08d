package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// GridColumns is the width of the dashboard layout grid.
const GridColumns = 12

// Dashboard is the persisted document: layout plus embedded widgets.
type Dashboard struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	Layout            []LayoutItem `json:"layout"`
	Widgets           []Widget     `json:"widgets"`
	IsTemplate        bool         `json:"isTemplate"`
	Tags              []string     `json:"tags,omitempty"`
	ParentDashboardID string       `json:"parentDashboardId,omitempty"`
	SubPages          []SubPage    `json:"subPages,omitempty"`
	DisplayOrder      int          `json:"displayOrder,omitempty"`
	Version           int          `json:"version,omitempty"`
	IsPublished       bool         `json:"isPublished,omitempty"`
	CreatedAt         time.Time    `json:"createdAt,omitempty"`
	UpdatedAt         time.Time    `json:"updatedAt,omitempty"`
}

// LayoutItem places a widget on the grid. I is the widget id.
type LayoutItem struct {
	I    string `json:"i"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	W    int    `json:"w"`
	H    int    `json:"h"`
	MinW int    `json:"minW,omitempty"`
	MinH int    `json:"minH,omitempty"`
}

// SubPage is a lightweight reference to a child dashboard.
type SubPage struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"displayOrder"`
}

// DashboardVersion is one entry in a dashboard's publish history.
type DashboardVersion struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Comment   string    `json:"comment,omitempty"`
}

// Widget returns the widget with the given id.
func (d Dashboard) Widget(id string) (Widget, bool) {
	for _, w := range d.Widgets {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// IsSubPage reports whether the dashboard hangs under a parent.
func (d Dashboard) IsSubPage() bool {
	return d.ParentDashboardID != ""
}

// Validate checks every widget and that layout entries point at known widgets.
func (d Dashboard) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("dashboard: name is required")
	}
	var errs []error
	seen := make(map[string]struct{}, len(d.Widgets))
	for _, w := range d.Widgets {
		if w.ID == "" {
			errs = append(errs, errors.New("dashboard: widget id is required"))
			continue
		}
		if _, dup := seen[w.ID]; dup {
			errs = append(errs, fmt.Errorf("dashboard: duplicate widget id %s", w.ID))
			continue
		}
		seen[w.ID] = struct{}{}
		if err := w.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, item := range d.Layout {
		if _, ok := seen[item.I]; !ok {
			errs = append(errs, fmt.Errorf("dashboard: layout references unknown widget %s", item.I))
		}
	}
	return errors.Join(errs...)
}

// NormalizeLayout clamps grid geometry and appends a slot for widgets missing from the layout.
func (d *Dashboard) NormalizeLayout() {
	placed := make(map[string]struct{}, len(d.Layout))
	nextY := 0
	for i := range d.Layout {
		d.Layout[i] = clampLayoutItem(d.Layout[i])
		placed[d.Layout[i].I] = struct{}{}
		if bottom := d.Layout[i].Y + d.Layout[i].H; bottom > nextY {
			nextY = bottom
		}
	}
	for _, widget := range d.Widgets {
		if _, ok := placed[widget.ID]; ok {
			continue
		}
		width, height := defaultWidgetSize(widget.Type)
		d.Layout = append(d.Layout, LayoutItem{I: widget.ID, X: 0, Y: nextY, W: width, H: height})
		nextY += height
	}
}

func clampLayoutItem(item LayoutItem) LayoutItem {
	if item.W <= 0 || item.W > GridColumns {
		item.W = GridColumns
	}
	if item.MinW > GridColumns {
		item.MinW = GridColumns
	}
	if item.MinW > 0 && item.W < item.MinW {
		item.W = item.MinW
	}
	if item.X < 0 {
		item.X = 0
	}
	if item.X+item.W > GridColumns {
		item.X = GridColumns - item.W
	}
	if item.Y < 0 {
		item.Y = 0
	}
	if item.H <= 0 {
		item.H = 1
	}
	if item.MinH > 0 && item.H < item.MinH {
		item.H = item.MinH
	}
	return item
}

func defaultWidgetSize(t WidgetType) (int, int) {
	switch t {
	case WidgetKPI, WidgetGauge:
		return 3, 2
	case WidgetTimeSeries, WidgetDataTable, WidgetDeviceList:
		return 6, 4
	case WidgetMap, WidgetCAD3DViewer:
		return 6, 6
	default:
		return 4, 3
	}
}

// AssetType enumerates the digital twin hierarchy levels.
type AssetType int

const (
	AssetSite AssetType = iota
	AssetBuilding
	AssetFloor
	AssetArea
	AssetZone
	AssetLine
	AssetEquipment
	AssetMachine
	AssetComponent
	AssetSensor
)

var assetTypeNames = [...]string{
	"Site", "Building", "Floor", "Area", "Zone",
	"Line", "Equipment", "Machine", "Component", "Sensor",
}

func (t AssetType) String() string {
	if t < 0 || int(t) >= len(assetTypeNames) {
		return fmt.Sprintf("AssetType(%d)", int(t))
	}
	return assetTypeNames[t]
}

// Valid reports whether t is one of the ten known levels.
func (t AssetType) Valid() bool {
	return t >= AssetSite && t <= AssetSensor
}

// Asset is a read-only projection of a digital twin node.
type Asset struct {
	ID          string    `json:"id"`
	ParentID    string    `json:"parentId,omitempty"`
	Name        string    `json:"name"`
	AssetType   AssetType `json:"assetType"`
	Path        string    `json:"path"`
	Level       int       `json:"level"`
	DeviceCount int       `json:"deviceCount"`
}

// PathSegments splits the materialized path.
func (a Asset) PathSegments() []string {
	if a.Path == "" {
		return nil
	}
	return strings.Split(a.Path, ".")
}

// ValidatePath checks the dot-delimited path against the parent and the level.
// parent is nil for root assets.
func (a Asset) ValidatePath(parent *Asset) error {
	segments := a.PathSegments()
	if len(segments) == 0 {
		return fmt.Errorf("dashboard: asset %s has empty path", a.ID)
	}
	if segments[len(segments)-1] != a.ID {
		return fmt.Errorf("dashboard: asset %s path %q does not end with its id", a.ID, a.Path)
	}
	if a.Level != len(segments)-1 {
		return fmt.Errorf("dashboard: asset %s level %d does not match path depth %d", a.ID, a.Level, len(segments)-1)
	}
	if parent == nil {
		if a.ParentID != "" || len(segments) != 1 {
			return fmt.Errorf("dashboard: asset %s is not a root but no parent was supplied", a.ID)
		}
		return nil
	}
	if a.ParentID != parent.ID {
		return fmt.Errorf("dashboard: asset %s parent %s does not match %s", a.ID, a.ParentID, parent.ID)
	}
	if want := parent.Path + "." + a.ID; a.Path != want {
		return fmt.Errorf("dashboard: asset %s path %q should be %q", a.ID, a.Path, want)
	}
	return nil
}

// FieldMapping describes a telemetry field of a device type.
type FieldMapping struct {
	FieldName    string `json:"fieldName"`
	FriendlyName string `json:"friendlyName"`
	DataType     string `json:"dataType"`
	Unit         string `json:"unit,omitempty"`
	IsQueryable  bool   `json:"isQueryable"`
	IsVisible    bool   `json:"isVisible"`
	DisplayOrder *int   `json:"displayOrder,omitempty"`
}

// Label prefers the friendly name.
func (f FieldMapping) Label() string {
	if f.FriendlyName != "" {
		return f.FriendlyName
	}
	return f.FieldName
}

// fieldMappingLess orders fields with a display order first (ascending), then
// the rest alphabetically by label, breaking ties by field name.
func fieldMappingLess(a, b FieldMapping) bool {
	switch {
	case a.DisplayOrder != nil && b.DisplayOrder != nil:
		if *a.DisplayOrder != *b.DisplayOrder {
			return *a.DisplayOrder < *b.DisplayOrder
		}
	case a.DisplayOrder != nil:
		return true
	case b.DisplayOrder != nil:
		return false
	}
	al, bl := strings.ToLower(a.Label()), strings.ToLower(b.Label())
	if al != bl {
		return al < bl
	}
	return a.FieldName < b.FieldName
}

// SortFieldMappings sorts in place using the deterministic field ordering.
func SortFieldMappings(fields []FieldMapping) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fieldMappingLess(fields[i], fields[j])
	})
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Device is a read-only projection of a registered device.
type Device struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	DeviceTypeID   string            `json:"deviceTypeId"`
	DeviceTypeName string            `json:"deviceTypeName,omitempty"`
	AssetID        string            `json:"assetId,omitempty"`
	SerialNumber   string            `json:"serialNumber,omitempty"`
	Status         string            `json:"status,omitempty"`
	LastSeenAt     *time.Time        `json:"lastSeenAt,omitempty"`
	Location       *GeoPoint         `json:"location,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// DeviceType is a read-only projection of a device type and its schema.
type DeviceType struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Protocol    string         `json:"protocol,omitempty"`
	Fields      []FieldMapping `json:"fields,omitempty"`
	Version     int            `json:"version,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

// AlertInstance is a fired alert rule.
type AlertInstance struct {
	ID          string     `json:"id"`
	RuleID      string     `json:"ruleId"`
	RuleName    string     `json:"ruleName,omitempty"`
	DeviceID    string     `json:"deviceId,omitempty"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	Message     string     `json:"message,omitempty"`
	FieldName   string     `json:"fieldName,omitempty"`
	Value       *float64   `json:"value,omitempty"`
	TriggeredAt time.Time  `json:"triggeredAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

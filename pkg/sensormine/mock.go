package sensormine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// Mock is an in-memory stand-in for every Sensormine service. It backs demos
// and tests that do not need HTTP.
type Mock struct {
	*dashboard.InMemoryPreferenceStore

	mu          sync.RWMutex
	now         func() time.Time
	dashboards  map[string]dashboard.Dashboard
	versions    map[string][]dashboard.DashboardVersion
	devices     map[string]dashboard.Device
	deviceTypes map[string]dashboard.DeviceType
	assets      map[string]dashboard.Asset
	alerts      map[string]dashboard.AlertInstance
	readings    map[string]map[string]reading
}

type reading struct {
	current  float64
	previous float64
	unit     string
}

var (
	_ dashboard.DashboardStore  = (*Mock)(nil)
	_ dashboard.QueryClient     = (*Mock)(nil)
	_ dashboard.DeviceDirectory = (*Mock)(nil)
	_ dashboard.AssetDirectory  = (*Mock)(nil)
	_ dashboard.AlertSource     = (*Mock)(nil)
	_ dashboard.PreferenceStore = (*Mock)(nil)
)

// NewMock returns an empty mock. A nil now uses time.Now.
func NewMock(now func() time.Time) *Mock {
	if now == nil {
		now = time.Now
	}
	return &Mock{
		InMemoryPreferenceStore: dashboard.NewInMemoryPreferenceStore(),
		now:                     now,
		dashboards:              map[string]dashboard.Dashboard{},
		versions:                map[string][]dashboard.DashboardVersion{},
		devices:                 map[string]dashboard.Device{},
		deviceTypes:             map[string]dashboard.DeviceType{},
		assets:                  map[string]dashboard.Asset{},
		alerts:                  map[string]dashboard.AlertInstance{},
		readings:                map[string]map[string]reading{},
	}
}

// NewDemoMock returns a mock seeded with a small plant: one site, a building,
// two lines and four environment sensors in different connectivity states.
func NewDemoMock(now func() time.Time) *Mock {
	m := NewMock(now)
	at := m.now()
	ago := func(d time.Duration) *time.Time {
		t := at.Add(-d)
		return &t
	}
	order := func(i int) *int { return &i }

	m.AddDeviceType(dashboard.DeviceType{ID: "env-sensor", Name: "Environment Sensor", Protocol: "mqtt", Fields: []dashboard.FieldMapping{
		{FieldName: "temperature", FriendlyName: "Temperature", DataType: "number", Unit: "°C", IsQueryable: true, IsVisible: true, DisplayOrder: order(1)},
		{FieldName: "humidity", FriendlyName: "Humidity", DataType: "number", Unit: "%", IsQueryable: true, IsVisible: true, DisplayOrder: order(2)},
		{FieldName: "battery", FriendlyName: "Battery", DataType: "number", Unit: "%", IsQueryable: true, IsVisible: false},
		{FieldName: "firmware", FriendlyName: "Firmware", DataType: "string", IsQueryable: false, IsVisible: true},
	}})

	m.AddAsset(dashboard.Asset{ID: "site-1", Name: "North Plant", AssetType: dashboard.AssetSite, Path: "site-1"})
	m.AddAsset(dashboard.Asset{ID: "bldg-a", ParentID: "site-1", Name: "Building A", AssetType: dashboard.AssetBuilding, Path: "site-1.bldg-a", Level: 1})
	m.AddAsset(dashboard.Asset{ID: "line-1", ParentID: "bldg-a", Name: "Line 1", AssetType: dashboard.AssetLine, Path: "site-1.bldg-a.line-1", Level: 2})
	m.AddAsset(dashboard.Asset{ID: "line-2", ParentID: "bldg-a", Name: "Line 2", AssetType: dashboard.AssetLine, Path: "site-1.bldg-a.line-2", Level: 2})

	seed := []struct {
		id, name, asset string
		lastSeen        *time.Time
		lat, lng        float64
		temp, humidity  float64
	}{
		{"dev-1", "Boiler Room", "line-1", ago(time.Minute), 52.5200, 13.4050, 23.5, 41},
		{"dev-2", "Cold Store", "line-1", ago(12 * time.Minute), 52.5210, 13.4070, 4.2, 63},
		{"dev-3", "Packing Hall", "line-2", ago(3 * time.Hour), 52.5190, 13.4020, 19.8, 48},
		{"dev-4", "Loading Dock", "line-2", nil, 52.5180, 13.4090, 15.1, 55},
	}
	for _, s := range seed {
		m.AddDevice(dashboard.Device{
			ID:             s.id,
			Name:           s.name,
			DeviceTypeID:   "env-sensor",
			DeviceTypeName: "Environment Sensor",
			AssetID:        s.asset,
			SerialNumber:   "SN-" + strings.ToUpper(s.id),
			LastSeenAt:     s.lastSeen,
			Location:       &dashboard.GeoPoint{Latitude: s.lat, Longitude: s.lng},
		})
		m.SetReading(s.id, "temperature", s.temp, s.temp*0.92, "°C")
		m.SetReading(s.id, "humidity", s.humidity, s.humidity, "%")
	}

	v := 31.2
	m.AddAlert(dashboard.AlertInstance{ID: "alert-1", RuleID: "rule-hot", RuleName: "High temperature", DeviceID: "dev-1",
		Severity: "critical", Status: "active", Message: "Temperature above 30°C", FieldName: "temperature", Value: &v, TriggeredAt: at.Add(-20 * time.Minute)})
	return m
}

// AddDevice stores or replaces a device.
func (m *Mock) AddDevice(d dashboard.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[d.ID] = d
}

// AddDeviceType stores or replaces a device type.
func (m *Mock) AddDeviceType(t dashboard.DeviceType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deviceTypes[t.ID] = t
}

// AddAsset stores or replaces an asset. Device counts are derived on read.
func (m *Mock) AddAsset(a dashboard.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[a.ID] = a
}

// AddAlert stores or replaces an alert instance.
func (m *Mock) AddAlert(a dashboard.AlertInstance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.ID] = a
}

// SetReading sets the latest and previous-period value of a device field.
func (m *Mock) SetReading(deviceID, field string, current, previous float64, unit string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readings[deviceID] == nil {
		m.readings[deviceID] = map[string]reading{}
	}
	m.readings[deviceID][field] = reading{current: current, previous: previous, unit: unit}
}

func cloneDashboard(d dashboard.Dashboard) dashboard.Dashboard {
	raw, err := json.Marshal(d)
	if err != nil {
		return d
	}
	var out dashboard.Dashboard
	if err := json.Unmarshal(raw, &out); err != nil {
		return d
	}
	return out
}

func (m *Mock) ListDashboards(_ context.Context, filter dashboard.DashboardFilter) ([]dashboard.Dashboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search := strings.ToLower(filter.Search)
	out := make([]dashboard.Dashboard, 0, len(m.dashboards))
	for _, d := range m.dashboards {
		if filter.TemplatesOnly && !d.IsTemplate {
			continue
		}
		if filter.ParentID != "" && d.ParentDashboardID != filter.ParentID {
			continue
		}
		if filter.ParentID == "" && !filter.IncludeSubPages && d.IsSubPage() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) {
			continue
		}
		if !hasTags(d.Tags, filter.Tags) {
			continue
		}
		out = append(out, cloneDashboard(d))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func hasTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *Mock) GetDashboard(_ context.Context, id string) (dashboard.Dashboard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.dashboards[id]
	if !ok {
		return dashboard.Dashboard{}, dashboard.ErrDashboardNotFound
	}
	return cloneDashboard(d), nil
}

func (m *Mock) CreateDashboard(_ context.Context, d dashboard.Dashboard) (dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if _, exists := m.dashboards[d.ID]; exists {
		return dashboard.Dashboard{}, fmt.Errorf("sensormine: dashboard %s already exists", d.ID)
	}
	at := m.now()
	d.CreatedAt, d.UpdatedAt = at, at
	m.dashboards[d.ID] = cloneDashboard(d)
	m.linkSubPageLocked(d)
	return cloneDashboard(d), nil
}

func (m *Mock) linkSubPageLocked(d dashboard.Dashboard) {
	if d.ParentDashboardID == "" {
		return
	}
	parent, ok := m.dashboards[d.ParentDashboardID]
	if !ok {
		return
	}
	for _, sp := range parent.SubPages {
		if sp.ID == d.ID {
			return
		}
	}
	parent.SubPages = append(parent.SubPages, dashboard.SubPage{ID: d.ID, Name: d.Name, DisplayOrder: d.DisplayOrder})
	m.dashboards[parent.ID] = parent
}

func (m *Mock) UpdateDashboard(_ context.Context, d dashboard.Dashboard) (dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.dashboards[d.ID]
	if !ok {
		return dashboard.Dashboard{}, dashboard.ErrDashboardNotFound
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = m.now()
	d.Version = existing.Version
	d.IsPublished = existing.IsPublished
	m.dashboards[d.ID] = cloneDashboard(d)
	return cloneDashboard(d), nil
}

func (m *Mock) DeleteDashboard(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dashboards[id]
	if !ok {
		return dashboard.ErrDashboardNotFound
	}
	delete(m.dashboards, id)
	delete(m.versions, id)
	for _, sp := range d.SubPages {
		delete(m.dashboards, sp.ID)
	}
	if parent, ok := m.dashboards[d.ParentDashboardID]; ok {
		kept := parent.SubPages[:0]
		for _, sp := range parent.SubPages {
			if sp.ID != id {
				kept = append(kept, sp)
			}
		}
		parent.SubPages = kept
		m.dashboards[parent.ID] = parent
	}
	return nil
}

func (m *Mock) PublishDashboard(ctx context.Context, id string) (dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dashboards[id]
	if !ok {
		return dashboard.Dashboard{}, dashboard.ErrDashboardNotFound
	}
	d.Version++
	d.IsPublished = true
	d.UpdatedAt = m.now()
	m.dashboards[id] = d
	viewer, _ := dashboard.ViewerFrom(ctx)
	m.versions[id] = append(m.versions[id], dashboard.DashboardVersion{Version: d.Version, CreatedAt: d.UpdatedAt, CreatedBy: viewer.UserID})
	return cloneDashboard(d), nil
}

// Versions returns the publish history of a dashboard.
func (m *Mock) Versions(_ context.Context, id string) ([]dashboard.DashboardVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.dashboards[id]; !ok {
		return nil, dashboard.ErrDashboardNotFound
	}
	return append([]dashboard.DashboardVersion(nil), m.versions[id]...), nil
}

func (m *Mock) DuplicateDashboard(_ context.Context, id, name string) (dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.dashboards[id]
	if !ok {
		return dashboard.Dashboard{}, dashboard.ErrDashboardNotFound
	}
	d := cloneDashboard(src)
	d.ID = uuid.NewString()
	d.Name = name
	d.IsTemplate = false
	d.IsPublished = false
	d.Version = 0
	d.SubPages = nil
	d.ParentDashboardID = ""
	at := m.now()
	d.CreatedAt, d.UpdatedAt = at, at
	m.dashboards[d.ID] = d
	return cloneDashboard(d), nil
}

// selectDevices returns devices matching the explicit ids, or failing that
// the device type and asset subtree, sorted by name.
func (m *Mock) selectDevices(ids []string, deviceTypeID, assetID string) []dashboard.Device {
	var out []dashboard.Device
	if len(ids) > 0 {
		for _, id := range ids {
			if d, ok := m.devices[id]; ok {
				out = append(out, d)
			}
		}
	} else {
		prefix := ""
		if a, ok := m.assets[assetID]; ok {
			prefix = a.Path
		}
		for _, d := range m.devices {
			if deviceTypeID != "" && d.DeviceTypeID != deviceTypeID {
				continue
			}
			if assetID != "" && !m.underLocked(d.AssetID, prefix) {
				continue
			}
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Mock) underLocked(assetID, prefix string) bool {
	a, ok := m.assets[assetID]
	if !ok || prefix == "" {
		return false
	}
	return a.Path == prefix || strings.HasPrefix(a.Path, prefix+".")
}

func aggregate(values []float64, aggregation string) float64 {
	if len(values) == 0 {
		return 0
	}
	switch aggregation {
	case dashboard.AggregationSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum
	case dashboard.AggregationMin:
		minV := values[0]
		for _, v := range values[1:] {
			minV = math.Min(minV, v)
		}
		return minV
	case dashboard.AggregationMax:
		maxV := values[0]
		for _, v := range values[1:] {
			maxV = math.Max(maxV, v)
		}
		return maxV
	case "count":
		return float64(len(values))
	default:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
}

func (m *Mock) KPI(_ context.Context, q dashboard.KPIQuery) (dashboard.KPIResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var current, previous []float64
	unit := ""
	for _, d := range m.selectDevices(q.DeviceIDs, q.DeviceTypeID, q.AssetID) {
		r, ok := m.readings[d.ID][q.Field]
		if !ok {
			continue
		}
		current = append(current, r.current)
		previous = append(previous, r.previous)
		unit = r.unit
	}
	if len(current) == 0 {
		return dashboard.KPIResult{}, nil
	}
	cur := aggregate(current, q.Aggregation)
	prev := aggregate(previous, q.Aggregation)
	return dashboard.KPIResult{CurrentValue: &cur, PreviousValue: &prev, Unit: unit, Timestamp: m.now()}, nil
}

// mockSeriesPoints is the number of buckets generated per series.
const mockSeriesPoints = 24

func (m *Mock) TimeSeries(_ context.Context, q dashboard.TimeSeriesQuery) (dashboard.TimeSeriesResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	step := time.Hour
	if d, err := time.ParseDuration(q.Interval); err == nil && d > 0 {
		step = d
	}
	end := m.now().Truncate(step)
	var out dashboard.TimeSeriesResult
	for _, d := range m.selectDevices(q.DeviceIDs, q.DeviceTypeID, "") {
		for _, field := range q.Fields {
			r, ok := m.readings[d.ID][field]
			if !ok {
				continue
			}
			points := make([]dashboard.DataPoint, mockSeriesPoints)
			for i := range mockSeriesPoints {
				// deterministic wave between the previous and current value
				frac := float64(i) / float64(mockSeriesPoints-1)
				wave := math.Sin(float64(i)/3) * 0.5
				points[i] = dashboard.DataPoint{
					Timestamp: end.Add(-time.Duration(mockSeriesPoints-1-i) * step),
					Value:     math.Round((r.previous+(r.current-r.previous)*frac+wave)*100) / 100,
				}
			}
			points[mockSeriesPoints-1].Value = r.current
			out.Series = append(out.Series, dashboard.TimeSeries{DeviceID: d.ID, DeviceName: d.Name, Field: field, Unit: r.unit, Points: points})
		}
	}
	return out, nil
}

func (m *Mock) Realtime(_ context.Context, q dashboard.RealtimeQuery) (dashboard.RealtimeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out dashboard.RealtimeResult
	at := m.now()
	for _, id := range q.DeviceIDs {
		fields := q.Fields
		if len(fields) == 0 {
			for f := range m.readings[id] {
				fields = append(fields, f)
			}
			sort.Strings(fields)
		}
		for _, f := range fields {
			if r, ok := m.readings[id][f]; ok {
				out.Values = append(out.Values, dashboard.RealtimeValue{DeviceID: id, Field: f, Value: r.current, Unit: r.unit, Timestamp: at})
			}
		}
	}
	return out, nil
}

func (m *Mock) DeviceList(_ context.Context, q dashboard.DeviceListQuery) (dashboard.DeviceListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.selectDevices(q.DeviceIDs, q.DeviceTypeID, q.AssetID)
	if q.Search != "" {
		search := strings.ToLower(q.Search)
		filtered := all[:0]
		for _, d := range all {
			if strings.Contains(strings.ToLower(d.Name), search) {
				filtered = append(filtered, d)
			}
		}
		all = filtered
	}
	if q.SortDirection == "desc" {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	start := min((page-1)*size, len(all))
	end := min(start+size, len(all))
	return dashboard.DeviceListResult{Devices: all[start:end], TotalCount: len(all), Page: page, PageSize: size}, nil
}

func (m *Mock) Aggregated(_ context.Context, q dashboard.AggregatedQuery) (dashboard.AggregatedResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out dashboard.AggregatedResult
	at := m.now()
	for _, d := range m.selectDevices(q.DeviceIDs, q.DeviceTypeID, q.AssetID) {
		values := map[string]float64{}
		for _, f := range q.Fields {
			if r, ok := m.readings[d.ID][f]; ok {
				values[f] = r.current
			}
		}
		if len(values) == 0 {
			continue
		}
		out.Rows = append(out.Rows, dashboard.AggregatedRow{DeviceID: d.ID, DeviceName: d.Name, Values: values, Timestamp: at})
	}
	return out, nil
}

func (m *Mock) Device(_ context.Context, id string) (dashboard.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return dashboard.Device{}, mockNotFound(ServiceDevice, "device", id)
	}
	return d, nil
}

func (m *Mock) ListDevices(_ context.Context, filter dashboard.DeviceFilter) ([]dashboard.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.selectDevices(nil, filter.DeviceTypeID, filter.AssetID)
	if filter.Search == "" {
		return all, nil
	}
	search := strings.ToLower(filter.Search)
	out := all[:0]
	for _, d := range all {
		if strings.Contains(strings.ToLower(d.Name), search) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Mock) DeviceType(_ context.Context, id string) (dashboard.DeviceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.deviceTypes[id]
	if !ok {
		return dashboard.DeviceType{}, mockNotFound(ServiceDevice, "device type", id)
	}
	return t, nil
}

func (m *Mock) ListDeviceTypes(_ context.Context, search string) ([]dashboard.DeviceType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search = strings.ToLower(search)
	var out []dashboard.DeviceType
	for _, t := range m.deviceTypes {
		if search == "" || strings.Contains(strings.ToLower(t.Name), search) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Mock) DeviceTypeFields(ctx context.Context, deviceTypeID string) ([]dashboard.FieldMapping, error) {
	t, err := m.DeviceType(ctx, deviceTypeID)
	if err != nil {
		return nil, err
	}
	return append([]dashboard.FieldMapping(nil), t.Fields...), nil
}

func (m *Mock) withDeviceCountLocked(a dashboard.Asset) dashboard.Asset {
	count := 0
	for _, d := range m.devices {
		if m.underLocked(d.AssetID, a.Path) {
			count++
		}
	}
	a.DeviceCount = count
	return a
}

func (m *Mock) RootAssets(_ context.Context) ([]dashboard.Asset, error) {
	return m.childrenOf(""), nil
}

func (m *Mock) Asset(_ context.Context, id string) (dashboard.Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return dashboard.Asset{}, mockNotFound(ServiceDigitalTwin, "asset", id)
	}
	return m.withDeviceCountLocked(a), nil
}

func (m *Mock) AssetChildren(_ context.Context, parentID string) ([]dashboard.Asset, error) {
	return m.childrenOf(parentID), nil
}

func (m *Mock) childrenOf(parentID string) []dashboard.Asset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []dashboard.Asset{}
	for _, a := range m.assets {
		if a.ParentID == parentID {
			out = append(out, m.withDeviceCountLocked(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Mock) AlertInstance(_ context.Context, id string) (dashboard.AlertInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return dashboard.AlertInstance{}, mockNotFound(ServiceAlerts, "alert instance", id)
	}
	return a, nil
}

func (m *Mock) ListAlertInstances(_ context.Context, filter dashboard.AlertFilter) ([]dashboard.AlertInstance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []dashboard.AlertInstance
	for _, a := range m.alerts {
		if filter.DeviceID != "" && a.DeviceID != filter.DeviceID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggeredAt.After(out[j].TriggeredAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func mockNotFound(service, kind, id string) error {
	return &Error{Service: service, Method: "GET", Path: kind + "/" + id, Status: 404, Class: dashboard.KindNotFound, Message: kind + " not found"}
}

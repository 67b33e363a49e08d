package dashboard

import (
	"context"
	"time"
)

// MapProvider places devices with a location on the map, coloring each by status.
type MapProvider struct {
	query QueryClient
	now   func() time.Time
}

// NewMapProvider builds the map provider. now defaults to time.Now.
func NewMapProvider(query QueryClient, now func() time.Time) *MapProvider {
	if now == nil {
		now = time.Now
	}
	return &MapProvider{query: query, now: now}
}

const mapPageSize = 500

// Fetch lists devices in scope and classifies their status at call time.
func (p *MapProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[MapConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(MapConfig)
	if p.query == nil {
		return nil, errMissingQuery
	}
	deviceIDs := compactIDs(append(append([]string(nil), cfg.DeviceIDs...), meta.Widget.DataSource.DeviceIDs...))
	if id := ResolveDeviceID(ctx, "", cfg.UseSubDashboardParameter); id != "" {
		deviceIDs = []string{id}
	}
	result, err := p.query.DeviceList(ctx, DeviceListQuery{
		DeviceIDs:    deviceIDs,
		DeviceTypeID: stringOr(cfg.DeviceTypeID, meta.Widget.DataSource.DeviceTypeID),
		AssetID:      ResolveAssetID(ctx, stringOr(cfg.AssetID, meta.Widget.DataSource.AssetID), cfg.UseSubDashboardParameter),
		Page:         1,
		PageSize:     mapPageSize,
	})
	if err != nil {
		return nil, err
	}
	now := p.now()
	showStatus := boolValue(cfg.ShowStatus, true)
	markers := make([]map[string]any, 0, len(result.Devices))
	counts := map[DeviceStatus]int{}
	for _, device := range result.Devices {
		if device.Location == nil {
			continue
		}
		status := ClassifyDeviceStatus(device.LastSeenAt, now)
		counts[status]++
		marker := map[string]any{
			"id":        device.ID,
			"name":      device.Name,
			"latitude":  device.Location.Latitude,
			"longitude": device.Location.Longitude,
			"lastSeen":  LastSeenText(device.LastSeenAt, now),
		}
		if showStatus {
			marker["status"] = string(status)
			marker["color"] = status.Color()
			marker["badge"] = status.Label()
		}
		if links := DrillDownLinks(meta.Widget.Behavior, ParameterDeviceID, device.ID, device.Name); len(links) > 0 {
			marker["drillDown"] = links
		}
		markers = append(markers, marker)
	}
	data := WidgetData{
		"zoom":           intValue(cfg.Zoom, 10),
		"clusterMarkers": cfg.ClusterMarkers,
		"showStatus":     showStatus,
	}
	if cfg.CenterLat != nil && cfg.CenterLng != nil {
		data["center"] = GeoPoint{Latitude: *cfg.CenterLat, Longitude: *cfg.CenterLng}
	} else if center, ok := markerCenter(markers); ok {
		data["center"] = center
	}
	if len(markers) == 0 {
		return EmptyData(data, "No devices with a location"), nil
	}
	data["markers"] = markers
	data["statusCounts"] = map[string]int{
		string(StatusOnline):  counts[StatusOnline],
		string(StatusWarning): counts[StatusWarning],
		string(StatusOffline): counts[StatusOffline],
	}
	return data, nil
}

func markerCenter(markers []map[string]any) (GeoPoint, bool) {
	if len(markers) == 0 {
		return GeoPoint{}, false
	}
	var lat, lng float64
	for _, m := range markers {
		lat += m["latitude"].(float64)
		lng += m["longitude"].(float64)
	}
	n := float64(len(markers))
	return GeoPoint{Latitude: lat / n, Longitude: lng / n}, true
}

// DeviceListProvider renders a paginated device table with status badges.
type DeviceListProvider struct {
	query QueryClient
	now   func() time.Time
}

// NewDeviceListProvider builds the device list provider.
func NewDeviceListProvider(query QueryClient, now func() time.Time) *DeviceListProvider {
	if now == nil {
		now = time.Now
	}
	return &DeviceListProvider{query: query, now: now}
}

type pageKey struct{}

// WithPage scopes a 1-based page number to list widgets rendered under ctx.
func WithPage(ctx context.Context, page int) context.Context {
	return context.WithValue(ctx, pageKey{}, page)
}

func pageFrom(ctx context.Context) int {
	if page, ok := ctx.Value(pageKey{}).(int); ok && page > 0 {
		return page
	}
	return 1
}

// Fetch lists one page of devices.
func (p *DeviceListProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[DeviceListConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(DeviceListConfig)
	if p.query == nil {
		return nil, errMissingQuery
	}
	pageSize := intValue(cfg.PageSize, 10)
	page := pageFrom(ctx)
	result, err := p.query.DeviceList(ctx, DeviceListQuery{
		DeviceIDs:     meta.Widget.DataSource.DeviceIDs,
		DeviceTypeID:  stringOr(cfg.DeviceTypeID, meta.Widget.DataSource.DeviceTypeID),
		AssetID:       ResolveAssetID(ctx, stringOr(cfg.AssetID, meta.Widget.DataSource.AssetID), cfg.UseSubDashboardParameter),
		Search:        cfg.Search,
		Page:          page,
		PageSize:      pageSize,
		SortBy:        cfg.SortBy,
		SortDirection: cfg.SortDirection,
	})
	if err != nil {
		return nil, err
	}
	now := p.now()
	rows := make([]map[string]any, 0, len(result.Devices))
	for _, device := range result.Devices {
		status := ClassifyDeviceStatus(device.LastSeenAt, now)
		row := map[string]any{
			"id":         device.ID,
			"name":       device.Name,
			"deviceType": stringOr(device.DeviceTypeName, device.DeviceTypeID),
			"lastSeenAt": device.LastSeenAt,
			"lastSeen":   LastSeenText(device.LastSeenAt, now),
		}
		if boolValue(cfg.ShowStatus, true) {
			row["status"] = string(status)
			row["badge"] = status.Label()
			row["color"] = status.Color()
		}
		if links := DrillDownLinks(meta.Widget.Behavior, ParameterDeviceID, device.ID, device.Name); len(links) > 0 {
			row["drillDown"] = links
		}
		rows = append(rows, row)
	}
	total := result.TotalCount
	if total < len(rows) {
		total = len(rows)
	}
	data := WidgetData{
		"columns":    cfg.Columns,
		"page":       page,
		"pageSize":   pageSize,
		"totalCount": total,
		"pageCount":  pageCount(total, pageSize),
		"sortBy":     cfg.SortBy,
	}
	if len(rows) == 0 {
		return EmptyData(data, "No devices found"), nil
	}
	data["rows"] = rows
	return data, nil
}

func pageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

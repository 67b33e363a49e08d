package sensormine

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// DeviceAPI wraps Device.API.
type DeviceAPI struct{ c *Client }

// DevicePage is one page of the device listing.
type DevicePage struct {
	Items      []dashboard.Device `json:"items"`
	TotalCount int                `json:"totalCount"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
}

// RegisterDeviceRequest registers a single device.
type RegisterDeviceRequest struct {
	Name         string              `json:"name"`
	DeviceTypeID string              `json:"deviceTypeId"`
	SerialNumber string              `json:"serialNumber,omitempty"`
	AssetID      string              `json:"assetId,omitempty"`
	Location     *dashboard.GeoPoint `json:"location,omitempty"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
}

// BulkItemResult is the outcome of one device in a bulk registration.
type BulkItemResult struct {
	Index    int    `json:"index"`
	DeviceID string `json:"deviceId,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BulkRegisterResult reports per-item outcomes. A partial failure is not an
// error for the batch.
type BulkRegisterResult struct {
	SuccessCount int              `json:"successCount"`
	FailureCount int              `json:"failureCount"`
	Results      []BulkItemResult `json:"results"`
}

// Failed returns the items that were rejected.
func (r BulkRegisterResult) Failed() []BulkItemResult {
	var out []BulkItemResult
	for _, item := range r.Results {
		if !item.Success {
			out = append(out, item)
		}
	}
	return out
}

// DeviceTypeVersion is one revision of a device type schema.
type DeviceTypeVersion struct {
	Version   int                      `json:"version"`
	CreatedAt time.Time                `json:"createdAt"`
	CreatedBy string                   `json:"createdBy,omitempty"`
	Fields    []dashboard.FieldMapping `json:"fields,omitempty"`
}

// DeviceTypeUsage counts what depends on a device type.
type DeviceTypeUsage struct {
	DeviceCount    int `json:"deviceCount"`
	DashboardCount int `json:"dashboardCount"`
	AlertRuleCount int `json:"alertRuleCount"`
}

// ValidateUpdateResult reports whether a schema change is safe.
type ValidateUpdateResult struct {
	IsValid         bool     `json:"isValid"`
	BreakingChanges []string `json:"breakingChanges,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	AffectedDevices int      `json:"affectedDevices"`
}

const (
	devicePath     = "/api/Device"
	deviceTypePath = "/api/DeviceType"
)

// List returns a page of devices.
func (a *DeviceAPI) List(ctx context.Context, filter dashboard.DeviceFilter) (DevicePage, error) {
	q := url.Values{}
	if filter.DeviceTypeID != "" {
		q.Set("deviceTypeId", filter.DeviceTypeID)
	}
	if filter.AssetID != "" {
		q.Set("assetId", filter.AssetID)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(filter.PageSize))
	}
	var out DevicePage
	err := a.c.get(ctx, ServiceDevice, devicePath, q, &out)
	return out, err
}

// Get loads one device.
func (a *DeviceAPI) Get(ctx context.Context, id string) (dashboard.Device, error) {
	var out dashboard.Device
	if err := requireID("device", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDevice, devicePath+"/"+escape(id), nil, &out)
	return out, err
}

// Register creates a device.
func (a *DeviceAPI) Register(ctx context.Context, req RegisterDeviceRequest) (dashboard.Device, error) {
	var out dashboard.Device
	err := a.c.send(ctx, ServiceDevice, http.MethodPost, devicePath, req, &out)
	return out, err
}

// BulkRegister creates many devices in one call.
func (a *DeviceAPI) BulkRegister(ctx context.Context, reqs []RegisterDeviceRequest) (BulkRegisterResult, error) {
	var out BulkRegisterResult
	body := map[string]any{"devices": reqs}
	err := a.c.send(ctx, ServiceDevice, http.MethodPost, devicePath+"/bulk", body, &out)
	return out, err
}

// Update overwrites a device.
func (a *DeviceAPI) Update(ctx context.Context, d dashboard.Device) (dashboard.Device, error) {
	var out dashboard.Device
	if err := requireID("device", d.ID); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceDevice, http.MethodPut, devicePath+"/"+escape(d.ID), d, &out)
	return out, err
}

// Delete removes a device.
func (a *DeviceAPI) Delete(ctx context.Context, id string) error {
	if err := requireID("device", id); err != nil {
		return err
	}
	return a.c.send(ctx, ServiceDevice, http.MethodDelete, devicePath+"/"+escape(id), nil, nil)
}

// DeviceTypes lists device types matching search.
func (a *DeviceAPI) DeviceTypes(ctx context.Context, search string) ([]dashboard.DeviceType, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	var out []dashboard.DeviceType
	err := a.c.get(ctx, ServiceDevice, deviceTypePath, q, &out)
	return out, err
}

// DeviceType loads one device type.
func (a *DeviceAPI) DeviceType(ctx context.Context, id string) (dashboard.DeviceType, error) {
	var out dashboard.DeviceType
	if err := requireID("device type", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDevice, deviceTypePath+"/"+escape(id), nil, &out)
	return out, err
}

// CreateDeviceType stores a new device type.
func (a *DeviceAPI) CreateDeviceType(ctx context.Context, t dashboard.DeviceType) (dashboard.DeviceType, error) {
	var out dashboard.DeviceType
	err := a.c.send(ctx, ServiceDevice, http.MethodPost, deviceTypePath, t, &out)
	return out, err
}

// UpdateDeviceType overwrites a device type, creating a new version.
func (a *DeviceAPI) UpdateDeviceType(ctx context.Context, t dashboard.DeviceType) (dashboard.DeviceType, error) {
	var out dashboard.DeviceType
	if err := requireID("device type", t.ID); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceDevice, http.MethodPut, deviceTypePath+"/"+escape(t.ID), t, &out)
	return out, err
}

// DeleteDeviceType removes a device type.
func (a *DeviceAPI) DeleteDeviceType(ctx context.Context, id string) error {
	if err := requireID("device type", id); err != nil {
		return err
	}
	return a.c.send(ctx, ServiceDevice, http.MethodDelete, deviceTypePath+"/"+escape(id), nil, nil)
}

// Fields returns the telemetry schema of a device type.
func (a *DeviceAPI) Fields(ctx context.Context, deviceTypeID string) ([]dashboard.FieldMapping, error) {
	var out []dashboard.FieldMapping
	if err := requireID("device type", deviceTypeID); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDevice, deviceTypePath+"/"+escape(deviceTypeID)+"/fields", nil, &out)
	return out, err
}

// Versions lists the schema history of a device type.
func (a *DeviceAPI) Versions(ctx context.Context, deviceTypeID string) ([]DeviceTypeVersion, error) {
	var out []DeviceTypeVersion
	if err := requireID("device type", deviceTypeID); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDevice, deviceTypePath+"/"+escape(deviceTypeID)+"/versions", nil, &out)
	return out, err
}

// Rollback restores an earlier schema version.
func (a *DeviceAPI) Rollback(ctx context.Context, deviceTypeID string, version int) (dashboard.DeviceType, error) {
	var out dashboard.DeviceType
	if err := requireID("device type", deviceTypeID); err != nil {
		return out, err
	}
	body := map[string]int{"version": version}
	err := a.c.send(ctx, ServiceDevice, http.MethodPost, deviceTypePath+"/"+escape(deviceTypeID)+"/rollback", body, &out)
	return out, err
}

// Usage reports dependants of a device type.
func (a *DeviceAPI) Usage(ctx context.Context, deviceTypeID string) (DeviceTypeUsage, error) {
	var out DeviceTypeUsage
	if err := requireID("device type", deviceTypeID); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDevice, deviceTypePath+"/"+escape(deviceTypeID)+"/usage", nil, &out)
	return out, err
}

// AuditLogs returns the change log of a device type.
func (a *DeviceAPI) AuditLogs(ctx context.Context, deviceTypeID string) ([]AuditEntry, error) {
	var out []AuditEntry
	if err := requireID("device type", deviceTypeID); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDevice, deviceTypePath+"/"+escape(deviceTypeID)+"/audit-logs", nil, &out)
	return out, err
}

// ValidateUpdate dry-runs a schema change.
func (a *DeviceAPI) ValidateUpdate(ctx context.Context, t dashboard.DeviceType) (ValidateUpdateResult, error) {
	var out ValidateUpdateResult
	if err := requireID("device type", t.ID); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceDevice, http.MethodPost, deviceTypePath+"/"+escape(t.ID)+"/validate-update", t, &out)
	return out, err
}

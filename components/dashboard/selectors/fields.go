package selectors

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// FieldMappingSelector filters and orders a device type's field mappings.
type FieldMappingSelector struct {
	QueryableOnly bool
	VisibleOnly   bool
}

// DefaultFieldMappingSelector keeps queryable fields only.
func DefaultFieldMappingSelector() FieldMappingSelector {
	return FieldMappingSelector{QueryableOnly: true}
}

// Apply returns the filtered fields in display order. The input is not modified.
func (s FieldMappingSelector) Apply(fields []dashboard.FieldMapping) []dashboard.FieldMapping {
	out := make([]dashboard.FieldMapping, 0, len(fields))
	for _, f := range fields {
		if s.QueryableOnly && !f.IsQueryable {
			continue
		}
		if s.VisibleOnly && !f.IsVisible {
			continue
		}
		out = append(out, f)
	}
	dashboard.SortFieldMappings(out)
	return out
}

// Options renders fields as picker entries labelled by friendly name.
func (s FieldMappingSelector) Options(fields []dashboard.FieldMapping) []Option {
	applied := s.Apply(fields)
	out := make([]Option, 0, len(applied))
	for _, f := range applied {
		out = append(out, Option{Value: f.FieldName, Label: f.Label(), Description: f.Unit})
	}
	return out
}

// DeviceFieldSelector lists the fields of a device by way of its device type.
type DeviceFieldSelector struct {
	dir    dashboard.DeviceDirectory
	fields FieldMappingSelector
	limit  int
}

// NewDeviceFieldSelector builds a selector using the queryable-only rules.
func NewDeviceFieldSelector(dir dashboard.DeviceDirectory) *DeviceFieldSelector {
	return &DeviceFieldSelector{dir: dir, fields: DefaultFieldMappingSelector(), limit: 4}
}

// WithRules overrides the field filter.
func (s *DeviceFieldSelector) WithRules(rules FieldMappingSelector) *DeviceFieldSelector {
	s.fields = rules
	return s
}

// Fields resolves the device and returns its type's fields.
func (s *DeviceFieldSelector) Fields(ctx context.Context, deviceID string) ([]dashboard.FieldMapping, error) {
	if s.dir == nil {
		return nil, errNoDirectory
	}
	if deviceID == "" {
		return nil, errors.New("selectors: device id is required")
	}
	device, err := s.dir.Device(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.DeviceTypeID == "" {
		return nil, nil
	}
	fields, err := s.dir.DeviceTypeFields(ctx, device.DeviceTypeID)
	if err != nil {
		return nil, err
	}
	return s.fields.Apply(fields), nil
}

// FieldsForDevices looks up several devices in parallel. The first failure
// cancels the remaining lookups.
func (s *DeviceFieldSelector) FieldsForDevices(ctx context.Context, deviceIDs []string) (map[string][]dashboard.FieldMapping, error) {
	out := make(map[string][]dashboard.FieldMapping, len(deviceIDs))
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.limit)
	for _, id := range deviceIDs {
		group.Go(func() error {
			fields, err := s.Fields(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = fields
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

package selectors

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// DefaultNameTTL is how long resolved display names are kept.
const DefaultNameTTL = 5 * time.Minute

// Option is one entry of a picker.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

var errNoDirectory = errors.New("selectors: device directory not configured")

// DeviceSelector lists devices and resolves device ids to names.
type DeviceSelector struct {
	dir   dashboard.DeviceDirectory
	names *cache.Cache
}

// NewDeviceSelector builds a selector. ttl <= 0 uses DefaultNameTTL.
func NewDeviceSelector(dir dashboard.DeviceDirectory, ttl time.Duration) *DeviceSelector {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	return &DeviceSelector{dir: dir, names: cache.New(ttl, 2*ttl)}
}

// Options lists devices matching filter. Search is matched case-insensitively
// against the device name.
func (s *DeviceSelector) Options(ctx context.Context, filter dashboard.DeviceFilter) ([]Option, error) {
	if s.dir == nil {
		return nil, errNoDirectory
	}
	search := filter.Search
	devices, err := s.dir.ListDevices(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Option, 0, len(devices))
	for _, d := range devices {
		if !matches(d.Name, search) {
			continue
		}
		s.names.SetDefault(d.ID, d.Name)
		out = append(out, Option{Value: d.ID, Label: d.Name, Description: d.DeviceTypeName})
	}
	sortOptions(out)
	return out, nil
}

// DisplayName resolves id to the device name, using the cache when possible.
func (s *DeviceSelector) DisplayName(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	if name, ok := s.names.Get(id); ok {
		return name.(string), nil
	}
	if s.dir == nil {
		return "", errNoDirectory
	}
	device, err := s.dir.Device(ctx, id)
	if err != nil {
		return "", err
	}
	name := device.Name
	if name == "" {
		name = id
	}
	s.names.SetDefault(id, name)
	return name, nil
}

// DeviceTypeSelector lists device types and resolves their names.
type DeviceTypeSelector struct {
	dir   dashboard.DeviceDirectory
	names *cache.Cache
}

// NewDeviceTypeSelector builds a selector. ttl <= 0 uses DefaultNameTTL.
func NewDeviceTypeSelector(dir dashboard.DeviceDirectory, ttl time.Duration) *DeviceTypeSelector {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	return &DeviceTypeSelector{dir: dir, names: cache.New(ttl, 2*ttl)}
}

// Options lists device types whose name contains search.
func (s *DeviceTypeSelector) Options(ctx context.Context, search string) ([]Option, error) {
	if s.dir == nil {
		return nil, errNoDirectory
	}
	types, err := s.dir.ListDeviceTypes(ctx, search)
	if err != nil {
		return nil, err
	}
	out := make([]Option, 0, len(types))
	for _, dt := range types {
		if !matches(dt.Name, search) {
			continue
		}
		s.names.SetDefault(dt.ID, dt.Name)
		out = append(out, Option{Value: dt.ID, Label: dt.Name, Description: dt.Description})
	}
	sortOptions(out)
	return out, nil
}

// DisplayName resolves a device type id to its name.
func (s *DeviceTypeSelector) DisplayName(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	if name, ok := s.names.Get(id); ok {
		return name.(string), nil
	}
	if s.dir == nil {
		return "", errNoDirectory
	}
	dt, err := s.dir.DeviceType(ctx, id)
	if err != nil {
		return "", err
	}
	name := dt.Name
	if name == "" {
		name = id
	}
	s.names.SetDefault(id, name)
	return name, nil
}

func matches(name, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(search))
}

func sortOptions(opts []Option) {
	sort.SliceStable(opts, func(i, j int) bool {
		a, b := strings.ToLower(opts[i].Label), strings.ToLower(opts[j].Label)
		if a != b {
			return a < b
		}
		return opts[i].Value < opts[j].Value
	})
}

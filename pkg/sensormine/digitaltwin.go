package sensormine

import (
	"context"
	"net/http"
	"net/url"
	"time"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// DigitalTwinAPI wraps DigitalTwin.API.
type DigitalTwinAPI struct{ c *Client }

// AssetNode is an asset with its loaded subtree.
type AssetNode struct {
	dashboard.Asset
	Children []AssetNode `json:"children,omitempty"`
}

// Walk visits n and its descendants depth first until fn returns false.
func (n AssetNode) Walk(fn func(AssetNode) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// PathName is one ancestor segment with its display name.
type PathName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AssetState is the latest computed state of an asset.
type AssetState struct {
	AssetID   string         `json:"assetId"`
	State     map[string]any `json:"state"`
	Status    string         `json:"status,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// DeviceMapping binds a device field to an asset property.
type DeviceMapping struct {
	ID          string `json:"id,omitempty"`
	AssetID     string `json:"assetId"`
	DeviceID    string `json:"deviceId"`
	FieldName   string `json:"fieldName,omitempty"`
	PropertyKey string `json:"propertyKey,omitempty"`
}

const (
	assetsPath   = "/api/assets"
	mappingsPath = "/api/mappings"
)

func assetPath(id, rest string) string {
	return assetsPath + "/" + escape(id) + rest
}

// Roots lists top-level assets.
func (a *DigitalTwinAPI) Roots(ctx context.Context) ([]dashboard.Asset, error) {
	var out []dashboard.Asset
	err := a.c.get(ctx, ServiceDigitalTwin, assetsPath+"/roots", nil, &out)
	return out, err
}

// Tree returns the full hierarchy, or the subtree under rootID when set.
func (a *DigitalTwinAPI) Tree(ctx context.Context, rootID string) ([]AssetNode, error) {
	q := url.Values{}
	if rootID != "" {
		q.Set("rootId", rootID)
	}
	var out []AssetNode
	err := a.c.get(ctx, ServiceDigitalTwin, assetsPath+"/tree", q, &out)
	return out, err
}

// Get loads one asset.
func (a *DigitalTwinAPI) Get(ctx context.Context, id string) (dashboard.Asset, error) {
	var out dashboard.Asset
	if err := requireID("asset", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDigitalTwin, assetPath(id, ""), nil, &out)
	return out, err
}

// Children lists the direct children of id.
func (a *DigitalTwinAPI) Children(ctx context.Context, id string) ([]dashboard.Asset, error) {
	return a.assets(ctx, id, "/children")
}

// Descendants lists every asset below id.
func (a *DigitalTwinAPI) Descendants(ctx context.Context, id string) ([]dashboard.Asset, error) {
	return a.assets(ctx, id, "/descendants")
}

// Ancestors lists the assets from the root down to the parent of id.
func (a *DigitalTwinAPI) Ancestors(ctx context.Context, id string) ([]dashboard.Asset, error) {
	return a.assets(ctx, id, "/ancestors")
}

func (a *DigitalTwinAPI) assets(ctx context.Context, id, rest string) ([]dashboard.Asset, error) {
	var out []dashboard.Asset
	if err := requireID("asset", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDigitalTwin, assetPath(id, rest), nil, &out)
	return out, err
}

// PathNames resolves the display names along the materialized path of id.
func (a *DigitalTwinAPI) PathNames(ctx context.Context, id string) ([]PathName, error) {
	var out []PathName
	if err := requireID("asset", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDigitalTwin, assetPath(id, "/path-names"), nil, &out)
	return out, err
}

// DeviceCount counts devices attached to id and, optionally, its subtree.
func (a *DigitalTwinAPI) DeviceCount(ctx context.Context, id string, recursive bool) (int, error) {
	if err := requireID("asset", id); err != nil {
		return 0, err
	}
	q := url.Values{}
	if recursive {
		q.Set("includeDescendants", "true")
	}
	var out struct {
		Count int `json:"count"`
	}
	err := a.c.get(ctx, ServiceDigitalTwin, assetPath(id, "/device-count"), q, &out)
	return out.Count, err
}

// State returns the computed state of one asset.
func (a *DigitalTwinAPI) State(ctx context.Context, id string) (AssetState, error) {
	var out AssetState
	if err := requireID("asset", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDigitalTwin, assetPath(id, "/state"), nil, &out)
	return out, err
}

// BulkStates returns the state of several assets keyed by asset id.
func (a *DigitalTwinAPI) BulkStates(ctx context.Context, ids []string) (map[string]AssetState, error) {
	var states []AssetState
	body := map[string][]string{"assetIds": ids}
	if err := a.c.send(ctx, ServiceDigitalTwin, http.MethodPost, assetsPath+"/states/bulk", body, &states); err != nil {
		return nil, err
	}
	out := make(map[string]AssetState, len(states))
	for _, s := range states {
		out[s.AssetID] = s
	}
	return out, nil
}

// Mappings lists device mappings, filtered by asset or device when set.
func (a *DigitalTwinAPI) Mappings(ctx context.Context, assetID, deviceID string) ([]DeviceMapping, error) {
	q := url.Values{}
	if assetID != "" {
		q.Set("assetId", assetID)
	}
	if deviceID != "" {
		q.Set("deviceId", deviceID)
	}
	var out []DeviceMapping
	err := a.c.get(ctx, ServiceDigitalTwin, mappingsPath, q, &out)
	return out, err
}

// CreateMapping binds a device to an asset.
func (a *DigitalTwinAPI) CreateMapping(ctx context.Context, m DeviceMapping) (DeviceMapping, error) {
	var out DeviceMapping
	err := a.c.send(ctx, ServiceDigitalTwin, http.MethodPost, mappingsPath, m, &out)
	return out, err
}

// DeleteMapping removes a binding.
func (a *DigitalTwinAPI) DeleteMapping(ctx context.Context, id string) error {
	if err := requireID("mapping", id); err != nil {
		return err
	}
	return a.c.send(ctx, ServiceDigitalTwin, http.MethodDelete, mappingsPath+"/"+escape(id), nil, nil)
}

package dashboard

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ParameterContext is the scalar handed to a drill-through child dashboard.
type ParameterContext struct {
	ParameterID   string        `json:"parameterId,omitempty"`
	ParameterType ParameterType `json:"parameterType,omitempty"`
	ParameterName string        `json:"parameterName,omitempty"`
}

// IsSubDashboard is true only when both id and type are present.
func (p ParameterContext) IsSubDashboard() bool {
	return p.ParameterID != "" && p.ParameterType != ""
}

type parameterContextKey struct{}

// WithParameterContext scopes params to a single dashboard render.
func WithParameterContext(ctx context.Context, params ParameterContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, parameterContextKey{}, params)
}

// ParameterContextFrom returns the scoped params, or the zero value at top level.
func ParameterContextFrom(ctx context.Context) ParameterContext {
	if ctx == nil {
		return ParameterContext{}
	}
	if params, ok := ctx.Value(parameterContextKey{}).(ParameterContext); ok {
		return params
	}
	return ParameterContext{}
}

// ResolveDeviceID substitutes the drill-through device when the widget opted in.
func ResolveDeviceID(ctx context.Context, configured string, useParameter bool) string {
	return resolveParameter(ctx, configured, useParameter, ParameterDeviceID)
}

// ResolveAssetID substitutes the drill-through asset when the widget opted in.
func ResolveAssetID(ctx context.Context, configured string, useParameter bool) string {
	return resolveParameter(ctx, configured, useParameter, ParameterAssetID)
}

func resolveParameter(ctx context.Context, configured string, useParameter bool, want ParameterType) string {
	if !useParameter {
		return configured
	}
	params := ParameterContextFrom(ctx)
	if !params.IsSubDashboard() || params.ParameterType != want {
		return configured
	}
	return params.ParameterID
}

// ParseParameterContext reads the drill-through query parameters.
func ParseParameterContext(values url.Values) ParameterContext {
	params := ParameterContext{
		ParameterID:   strings.TrimSpace(values.Get("parameterId")),
		ParameterName: strings.TrimSpace(values.Get("parameterName")),
	}
	switch ParameterType(strings.TrimSpace(values.Get("parameterType"))) {
	case ParameterDeviceID:
		params.ParameterType = ParameterDeviceID
	case ParameterAssetID:
		params.ParameterType = ParameterAssetID
	}
	return params
}

// DrillDownLink is the navigation target for a clicked row, marker, or mesh.
type DrillDownLink struct {
	DashboardID string           `json:"dashboardId"`
	Name        string           `json:"name"`
	Params      ParameterContext `json:"params"`
	URL         string           `json:"url"`
}

// BuildDrillDownLink builds the child dashboard URL carrying id as the parameter.
func BuildDrillDownLink(cfg SubDashboardConfig, id, name string) (DrillDownLink, error) {
	if cfg.DashboardID == "" {
		return DrillDownLink{}, errors.New("dashboard: sub-dashboard target is required")
	}
	if id == "" {
		return DrillDownLink{}, errors.New("dashboard: drill-down parameter id is required")
	}
	if cfg.ParameterType != ParameterDeviceID && cfg.ParameterType != ParameterAssetID {
		return DrillDownLink{}, errors.New("dashboard: drill-down parameter type must be deviceId or assetId")
	}
	params := ParameterContext{
		ParameterID:   id,
		ParameterType: cfg.ParameterType,
		ParameterName: name,
	}
	query := url.Values{}
	query.Set("parameterId", id)
	query.Set("parameterType", string(cfg.ParameterType))
	if name != "" {
		query.Set("parameterName", name)
	}
	return DrillDownLink{
		DashboardID: cfg.DashboardID,
		Name:        cfg.Name,
		Params:      params,
		URL:         "/dashboards/" + url.PathEscape(cfg.DashboardID) + "?" + query.Encode(),
	}, nil
}

// DrillDownLinks builds a link for every configured sub-dashboard accepting paramType.
func DrillDownLinks(behavior Behavior, paramType ParameterType, id, name string) []DrillDownLink {
	if !behavior.DrillDown.Enabled && len(behavior.DrillDown.SubDashboards) == 0 {
		return nil
	}
	var links []DrillDownLink
	for _, sub := range behavior.DrillDown.SubDashboards {
		if sub.ParameterType != paramType {
			continue
		}
		link, err := BuildDrillDownLink(sub, id, name)
		if err != nil {
			continue
		}
		links = append(links, link)
	}
	return links
}

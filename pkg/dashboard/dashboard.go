// Package dashboard is the public entry point for embedding the Sensormine
// dashboard service in another application.
package dashboard

import (
	"context"

	core "github.com/goliatone/go-sensormine/components/dashboard"
)

type (
	// Service resolves, edits and refreshes dashboards.
	Service = core.Service
	// Options wires the service collaborators.
	Options = core.Options
	// Dashboard is a stored dashboard definition.
	Dashboard = core.Dashboard
	// DashboardFilter narrows ListDashboards.
	DashboardFilter = core.DashboardFilter
	// ViewerContext identifies who a dashboard is resolved for.
	ViewerContext = core.ViewerContext
	// ParameterContext carries drill-through parameters.
	ParameterContext = core.ParameterContext
)

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// WithViewer attaches viewer to ctx.
func WithViewer(ctx context.Context, viewer ViewerContext) context.Context {
	return core.WithViewer(ctx, viewer)
}

// WithParameterContext attaches drill-through parameters to ctx.
func WithParameterContext(ctx context.Context, params ParameterContext) context.Context {
	return core.WithParameterContext(ctx, params)
}

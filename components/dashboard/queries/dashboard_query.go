package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// DashboardInput identifies a dashboard render for a viewer. Parameters carry
// the drill-through context when the dashboard is opened as a sub-dashboard.
type DashboardInput struct {
	Viewer      dashboard.ViewerContext    `json:"viewer"`
	DashboardID string                     `json:"dashboardId"`
	Parameters  dashboard.ParameterContext `json:"parameters"`
}

type dashboardResolver interface {
	ResolveDashboard(ctx context.Context, viewer dashboard.ViewerContext, dashboardID string) (dashboard.ResolvedDashboard, error)
}

// DashboardQuery executes read-only dashboard resolution.
type DashboardQuery struct {
	service dashboardResolver
}

// NewDashboardQuery builds the query.
func NewDashboardQuery(service dashboardResolver) *DashboardQuery {
	return &DashboardQuery{service: service}
}

var _ gocommand.Querier[DashboardInput, dashboard.ResolvedDashboard] = (*DashboardQuery)(nil)

// Query resolves every widget of the dashboard for the viewer.
func (q *DashboardQuery) Query(ctx context.Context, input DashboardInput) (dashboard.ResolvedDashboard, error) {
	if q.service == nil {
		return dashboard.ResolvedDashboard{}, errors.New("dashboard query requires service")
	}
	ctx = dashboard.WithParameterContext(ctx, input.Parameters)
	return q.service.ResolveDashboard(ctx, input.Viewer, input.DashboardID)
}

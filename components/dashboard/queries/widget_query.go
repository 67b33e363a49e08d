package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// WidgetInput identifies one widget of a dashboard for a viewer.
type WidgetInput struct {
	Viewer      dashboard.ViewerContext    `json:"viewer"`
	DashboardID string                     `json:"dashboardId"`
	WidgetID    string                     `json:"widgetId"`
	Parameters  dashboard.ParameterContext `json:"parameters"`
}

type widgetFetcher interface {
	FetchWidget(ctx context.Context, viewer dashboard.ViewerContext, dashboardID, widgetID string) (dashboard.ResolvedWidget, error)
}

// WidgetQuery fetches the data of a single widget, the call behind manual
// retry and interval refresh.
type WidgetQuery struct {
	service widgetFetcher
}

// NewWidgetQuery builds the query.
func NewWidgetQuery(service widgetFetcher) *WidgetQuery {
	return &WidgetQuery{service: service}
}

var _ gocommand.Querier[WidgetInput, dashboard.ResolvedWidget] = (*WidgetQuery)(nil)

// Query resolves an individual widget for the viewer.
func (q *WidgetQuery) Query(ctx context.Context, input WidgetInput) (dashboard.ResolvedWidget, error) {
	if q.service == nil {
		return dashboard.ResolvedWidget{}, errors.New("widget query requires service")
	}
	if input.WidgetID == "" {
		return dashboard.ResolvedWidget{}, errors.New("widget query requires widget id")
	}
	ctx = dashboard.WithParameterContext(ctx, input.Parameters)
	return q.service.FetchWidget(ctx, input.Viewer, input.DashboardID, input.WidgetID)
}

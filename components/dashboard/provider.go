package dashboard

import "context"

// Provider fetches data required to render a widget.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the metadata needed by providers. Config has
// defaults applied; drill-through params travel on the context.
type WidgetContext struct {
	DashboardID string
	Widget      Widget
	Config      WidgetConfig
	Viewer      ViewerContext
}

// WidgetData is the payload passed to templates and JSON clients.
type WidgetData map[string]any

const emptyKey = "empty"

// EmptyData flags data as a successful fetch with nothing to show.
func EmptyData(data WidgetData, message string) WidgetData {
	if data == nil {
		data = WidgetData{}
	}
	data[emptyKey] = true
	if message != "" {
		data["emptyMessage"] = message
	}
	return data
}

// IsEmpty reports whether the payload was flagged by EmptyData.
func (d WidgetData) IsEmpty() bool {
	v, _ := d[emptyKey].(bool)
	return v
}

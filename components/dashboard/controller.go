package dashboard

import (
	"context"
	"errors"
	"io"
)

// DashboardResolver is the subset of Service the controller needs.
type DashboardResolver interface {
	ResolveDashboard(ctx context.Context, viewer ViewerContext, dashboardID string) (ResolvedDashboard, error)
}

// ControllerOptions configures the HTML/JSON controller.
type ControllerOptions struct {
	Service  DashboardResolver
	Renderer Renderer
	Template string
}

// Controller turns resolved dashboards into template payloads.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = "dashboard.html"
	}
	return &Controller{opts: opts}
}

// LayoutPayload resolves the dashboard and shapes it for templates and JSON clients.
func (c *Controller) LayoutPayload(ctx context.Context, viewer ViewerContext, dashboardID string) (map[string]any, error) {
	if c.opts.Service == nil {
		return nil, errors.New("dashboard: controller requires a service")
	}
	resolved, err := c.opts.Service.ResolveDashboard(ctx, viewer, dashboardID)
	if err != nil {
		return nil, err
	}
	return dashboardPayload(resolved), nil
}

// RenderTemplate renders the dashboard page into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, dashboardID string, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: controller requires a renderer")
	}
	payload, err := c.LayoutPayload(ctx, viewer, dashboardID)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, payload, out)
	return err
}

func dashboardPayload(resolved ResolvedDashboard) map[string]any {
	widgets := make([]map[string]any, 0, len(resolved.Widgets))
	for _, rw := range resolved.Widgets {
		widgets = append(widgets, widgetPayload(rw))
	}
	d := resolved.Dashboard
	return map[string]any{
		"dashboard": map[string]any{
			"id":          d.ID,
			"name":        d.Name,
			"description": d.Description,
			"tags":        d.Tags,
			"isTemplate":  d.IsTemplate,
			"subPages":    d.SubPages,
			"version":     d.Version,
		},
		"widgets":        widgets,
		"parameters":     resolved.Parameters,
		"isSubDashboard": resolved.Parameters.IsSubDashboard(),
		"resolvedAt":     resolved.ResolvedAt,
		"columns":        GridColumns,
	}
}

func widgetPayload(rw ResolvedWidget) map[string]any {
	payload := map[string]any{
		"id":        rw.Widget.ID,
		"type":      string(rw.Widget.Type),
		"title":     rw.Widget.Title,
		"template":  "widgets/" + string(rw.Widget.Type) + ".html",
		"layout":    rw.Layout,
		"status":    string(rw.Status),
		"data":      rw.Data,
		"config":    rw.Widget.ResolvedConfig(),
		"refreshMs": rw.Widget.Behavior.PollInterval().Milliseconds(),
	}
	if rw.Status == StatusEmpty && rw.Data != nil {
		payload["emptyMessage"] = rw.Data["emptyMessage"]
	}
	if rw.Status == StatusError {
		payload["error"] = rw.Error
		payload["errorKind"] = string(rw.ErrorKind)
		payload["retryable"] = rw.Retryable
	}
	return payload
}

package sensormine

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// DashboardAPI wraps Dashboard.API.
type DashboardAPI struct{ c *Client }

// ShareRequest grants other users or roles access to a dashboard.
type ShareRequest struct {
	UserIDs    []string `json:"userIds,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Permission string   `json:"permission"`
}

// AuditEntry is one recorded change to a dashboard.
type AuditEntry struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId"`
	Timestamp time.Time      `json:"timestamp"`
	Changes   map[string]any `json:"changes,omitempty"`
}

// CreateSubPageRequest adds a child dashboard under a parent.
type CreateSubPageRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"displayOrder"`
}

const dashboardsPath = "/api/Dashboards"

func dashboardPath(id string, rest ...string) string {
	p := dashboardsPath + "/" + escape(id)
	if len(rest) > 0 {
		p += "/" + strings.Join(rest, "/")
	}
	return p
}

// List returns dashboards visible to the caller.
func (a *DashboardAPI) List(ctx context.Context, filter dashboard.DashboardFilter) ([]dashboard.Dashboard, error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	for _, tag := range filter.Tags {
		q.Add("tags", tag)
	}
	if filter.ParentID != "" {
		q.Set("parentId", filter.ParentID)
	}
	if filter.IncludeSubPages {
		q.Set("includeSubPages", "true")
	}
	path := dashboardsPath
	if filter.TemplatesOnly {
		path += "/templates"
	}
	var out []dashboard.Dashboard
	err := a.c.get(ctx, ServiceDashboard, path, q, &out)
	return out, err
}

// Get loads a dashboard with its widgets.
func (a *DashboardAPI) Get(ctx context.Context, id string) (dashboard.Dashboard, error) {
	var out dashboard.Dashboard
	if err := requireID("dashboard", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDashboard, dashboardPath(id), nil, &out)
	return out, err
}

// Create stores a new dashboard and returns it with its assigned id.
func (a *DashboardAPI) Create(ctx context.Context, d dashboard.Dashboard) (dashboard.Dashboard, error) {
	var out dashboard.Dashboard
	err := a.c.send(ctx, ServiceDashboard, http.MethodPost, dashboardsPath, d, &out)
	return out, err
}

// Update overwrites the whole dashboard document.
func (a *DashboardAPI) Update(ctx context.Context, d dashboard.Dashboard) (dashboard.Dashboard, error) {
	var out dashboard.Dashboard
	if err := requireID("dashboard", d.ID); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceDashboard, http.MethodPut, dashboardPath(d.ID), d, &out)
	if err == nil && out.ID == "" {
		out = d
	}
	return out, err
}

// Delete removes a dashboard.
func (a *DashboardAPI) Delete(ctx context.Context, id string) error {
	if err := requireID("dashboard", id); err != nil {
		return err
	}
	return a.c.send(ctx, ServiceDashboard, http.MethodDelete, dashboardPath(id), nil, nil)
}

// Publish snapshots the current document as a new version.
func (a *DashboardAPI) Publish(ctx context.Context, id string) (dashboard.Dashboard, error) {
	var out dashboard.Dashboard
	if err := requireID("dashboard", id); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceDashboard, http.MethodPost, dashboardPath(id, "publish"), nil, &out)
	return out, err
}

// Versions lists the publish history.
func (a *DashboardAPI) Versions(ctx context.Context, id string) ([]dashboard.DashboardVersion, error) {
	var out []dashboard.DashboardVersion
	if err := requireID("dashboard", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDashboard, dashboardPath(id, "versions"), nil, &out)
	return out, err
}

// Revert restores a published version.
func (a *DashboardAPI) Revert(ctx context.Context, id string, version int) (dashboard.Dashboard, error) {
	var out dashboard.Dashboard
	if err := requireID("dashboard", id); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceDashboard, http.MethodPost, dashboardPath(id, "revert", strconv.Itoa(version)), nil, &out)
	return out, err
}

// Share grants access to a dashboard.
func (a *DashboardAPI) Share(ctx context.Context, id string, req ShareRequest) error {
	if err := requireID("dashboard", id); err != nil {
		return err
	}
	return a.c.send(ctx, ServiceDashboard, http.MethodPost, dashboardPath(id, "share"), req, nil)
}

// Templates lists dashboards flagged as templates.
func (a *DashboardAPI) Templates(ctx context.Context) ([]dashboard.Dashboard, error) {
	return a.List(ctx, dashboard.DashboardFilter{TemplatesOnly: true})
}

// Duplicate copies a dashboard under a new name.
func (a *DashboardAPI) Duplicate(ctx context.Context, id, name string) (dashboard.Dashboard, error) {
	var out dashboard.Dashboard
	if err := requireID("dashboard", id); err != nil {
		return out, err
	}
	body := map[string]string{"name": name}
	err := a.c.send(ctx, ServiceDashboard, http.MethodPost, dashboardPath(id, "duplicate"), body, &out)
	return out, err
}

// SubPages lists the child dashboards of id in display order.
func (a *DashboardAPI) SubPages(ctx context.Context, id string) ([]dashboard.Dashboard, error) {
	var out []dashboard.Dashboard
	if err := requireID("dashboard", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDashboard, dashboardPath(id, "subpages"), nil, &out)
	return out, err
}

// CreateSubPage adds a child dashboard.
func (a *DashboardAPI) CreateSubPage(ctx context.Context, parentID string, req CreateSubPageRequest) (dashboard.Dashboard, error) {
	var out dashboard.Dashboard
	if err := requireID("dashboard", parentID); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceDashboard, http.MethodPost, dashboardPath(parentID, "subpages"), req, &out)
	return out, err
}

// ReorderSubPages sets the display order of child dashboards.
func (a *DashboardAPI) ReorderSubPages(ctx context.Context, parentID string, order []string) error {
	if err := requireID("dashboard", parentID); err != nil {
		return err
	}
	body := map[string][]string{"subPageIds": order}
	return a.c.send(ctx, ServiceDashboard, http.MethodPut, dashboardPath(parentID, "subpages", "reorder"), body, nil)
}

// Audit returns the change log of a dashboard.
func (a *DashboardAPI) Audit(ctx context.Context, id string) ([]AuditEntry, error) {
	var out []AuditEntry
	if err := requireID("dashboard", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceDashboard, dashboardPath(id, "audit"), nil, &out)
	return out, err
}

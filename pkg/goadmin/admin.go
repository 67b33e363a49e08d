// Package goadmin seeds navigation entries for Sensormine dashboards into an
// admin shell.
package goadmin

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"

	dashboardpkg "github.com/goliatone/go-sensormine/pkg/dashboard"
)

// MenuBuilder ensures dashboard entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures dashboard link metadata.
type MenuItem struct {
	Label    string `json:"label"`
	Route    string `json:"route"`
	Icon     string `json:"icon,omitempty"`
	Position int    `json:"position"`
}

// DashboardLister is the part of the dashboard service the admin needs.
type DashboardLister interface {
	ListDashboards(ctx context.Context, filter dashboardpkg.DashboardFilter) ([]dashboardpkg.Dashboard, error)
}

// Config wires the dashboard service into an admin shell.
type Config struct {
	EnableDashboard bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Service         DashboardLister
	// BasePath prefixes dashboard routes, e.g. /sensormine.
	BasePath string
	// DefaultMenuItem links to the dashboard list.
	DefaultMenuItem MenuItem
	// PublishedOnly skips drafts.
	PublishedOnly bool
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed dashboard menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableDashboard && cfg.Service == nil {
		return nil, errors.New("goadmin: dashboard service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/sensormine"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Dashboards"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = path.Join(cfg.BasePath, "dashboards")
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "gauge"
	}
	return &Admin{cfg: cfg}, nil
}

// Bootstrap seeds the dashboard list entry plus one entry per top-level
// dashboard. Templates and sub-pages are not linked.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableDashboard || a.cfg.MenuBuilder == nil {
		return nil
	}
	if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem); err != nil {
		return err
	}
	boards, err := a.cfg.Service.ListDashboards(ctx, dashboardpkg.DashboardFilter{})
	if err != nil {
		return fmt.Errorf("goadmin: list dashboards: %w", err)
	}
	position := a.cfg.DefaultMenuItem.Position
	var errs []error
	for _, d := range boards {
		if d.IsTemplate || d.IsSubPage() || (a.cfg.PublishedOnly && !d.IsPublished) {
			continue
		}
		position++
		item := MenuItem{
			Label:    d.Name,
			Route:    path.Join(a.cfg.BasePath, "dashboards", d.ID),
			Position: position,
		}
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			errs = append(errs, fmt.Errorf("goadmin: menu item %s: %w", d.ID, err))
		}
	}
	return errors.Join(errs...)
}

// MemoryMenu is a MenuBuilder that keeps items in memory, keyed by route.
type MemoryMenu struct {
	mu    sync.RWMutex
	menus map[string]map[string]MenuItem
}

// NewMemoryMenu builds an empty menu store.
func NewMemoryMenu() *MemoryMenu {
	return &MemoryMenu{menus: map[string]map[string]MenuItem{}}
}

// EnsureMenuItem adds or replaces the item with the same route.
func (m *MemoryMenu) EnsureMenuItem(_ context.Context, menuCode string, item MenuItem) error {
	if item.Route == "" {
		return errors.New("goadmin: menu item route is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.menus[menuCode] == nil {
		m.menus[menuCode] = map[string]MenuItem{}
	}
	m.menus[menuCode][item.Route] = item
	return nil
}

// Items lists a menu ordered by position, then label.
func (m *MemoryMenu) Items(menuCode string) []MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MenuItem, 0, len(m.menus[menuCode]))
	for _, item := range m.menus[menuCode] {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Label < out[j].Label
	})
	return out
}

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultResolveConcurrency = 8

var (
	errMissingDashboardID = errors.New("dashboard: dashboard id is required")
	errMissingWidgetID    = errors.New("dashboard: widget id is required")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap the Sensormine clients for fakes.
type Options struct {
	Store           DashboardStore
	Query           QueryClient
	Devices         DeviceDirectory
	Assets          AssetDirectory
	Alerts          AlertSource
	PreferenceStore PreferenceStore
	Providers       ProviderRegistry
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Logger          *slog.Logger
	Charts          *ChartRenderer
	Now             func() time.Time
	// FetchTimeout bounds each widget fetch during resolution. Zero disables it.
	FetchTimeout time.Duration
	// Concurrency caps parallel widget fetches per dashboard.
	Concurrency int
}

// Service orchestrates dashboards, widget configuration and data binding.
type Service struct {
	opts Options
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultResolveConcurrency
	}
	if err := RegisterProviders(opts.Providers, ProviderSources{
		Query:   opts.Query,
		Devices: opts.Devices,
		Assets:  opts.Assets,
		Charts:  opts.Charts,
		Now:     opts.Now,
	}); err != nil {
		opts.Logger.Warn("dashboard: built-in providers not fully registered", "error", err)
	}
	return &Service{opts: opts}
}

// Registry exposes the provider registry so extensions can register providers.
func (s *Service) Registry() ProviderRegistry { return s.opts.Providers }

// Definitions lists every registered widget definition.
func (s *Service) Definitions() []WidgetDefinition { return s.opts.Providers.Definitions() }

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) store() (DashboardStore, error) {
	if s.opts.Store == nil {
		return nil, errMissingStore
	}
	return s.opts.Store, nil
}

// ListDashboards returns dashboards matching filter.
func (s *Service) ListDashboards(ctx context.Context, filter DashboardFilter) ([]Dashboard, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.ListDashboards(ctx, filter)
}

// GetDashboard loads a single dashboard document.
func (s *Service) GetDashboard(ctx context.Context, id string) (Dashboard, error) {
	store, err := s.store()
	if err != nil {
		return Dashboard{}, err
	}
	if id == "" {
		return Dashboard{}, errMissingDashboardID
	}
	return store.GetDashboard(ctx, id)
}

// SaveDashboard validates every widget and creates or updates the document.
// Widgets without an id receive a new one.
func (s *Service) SaveDashboard(ctx context.Context, d Dashboard) (Dashboard, error) {
	store, err := s.store()
	if err != nil {
		return Dashboard{}, err
	}
	if strings.TrimSpace(d.Name) == "" {
		return Dashboard{}, errors.New("dashboard: name is required")
	}
	var errs []error
	for i := range d.Widgets {
		if d.Widgets[i].ID == "" {
			d.Widgets[i].ID = uuid.NewString()
		}
		if err := ValidateWidget(s.opts.ConfigValidator, s.opts.Providers, d.Widgets[i]); err != nil {
			errs = append(errs, fmt.Errorf("widget %s: %w", d.Widgets[i].ID, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Dashboard{}, err
	}
	d.NormalizeLayout()
	if err := d.Validate(); err != nil {
		return Dashboard{}, err
	}
	reason := "update"
	var saved Dashboard
	if d.ID == "" {
		reason = "create"
		saved, err = store.CreateDashboard(ctx, d)
	} else {
		saved, err = store.UpdateDashboard(ctx, d)
	}
	if err != nil {
		return Dashboard{}, err
	}
	if err := s.notify(ctx, WidgetEvent{DashboardID: saved.ID, Reason: "dashboard." + reason}); err != nil {
		return saved, err
	}
	s.recordTelemetry(ctx, "dashboard.save", map[string]any{
		"dashboard_id": saved.ID,
		"reason":       reason,
		"widgets":      len(saved.Widgets),
	})
	return saved, nil
}

// DeleteDashboard removes a dashboard.
func (s *Service) DeleteDashboard(ctx context.Context, id string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	if id == "" {
		return errMissingDashboardID
	}
	if err := store.DeleteDashboard(ctx, id); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.delete", map[string]any{"dashboard_id": id})
	return s.notify(ctx, WidgetEvent{DashboardID: id, Reason: "dashboard.delete"})
}

// PublishDashboard publishes the current version.
func (s *Service) PublishDashboard(ctx context.Context, id string) (Dashboard, error) {
	store, err := s.store()
	if err != nil {
		return Dashboard{}, err
	}
	if id == "" {
		return Dashboard{}, errMissingDashboardID
	}
	published, err := store.PublishDashboard(ctx, id)
	if err != nil {
		return Dashboard{}, err
	}
	s.recordTelemetry(ctx, "dashboard.publish", map[string]any{
		"dashboard_id": id,
		"version":      published.Version,
	})
	return published, s.notify(ctx, WidgetEvent{DashboardID: id, Reason: "dashboard.publish"})
}

// DuplicateDashboard copies a dashboard (or template) under a new name.
func (s *Service) DuplicateDashboard(ctx context.Context, id, name string) (Dashboard, error) {
	store, err := s.store()
	if err != nil {
		return Dashboard{}, err
	}
	if id == "" {
		return Dashboard{}, errMissingDashboardID
	}
	if strings.TrimSpace(name) == "" {
		return Dashboard{}, errors.New("dashboard: duplicate name is required")
	}
	copied, err := store.DuplicateDashboard(ctx, id, name)
	if err != nil {
		return Dashboard{}, err
	}
	s.recordTelemetry(ctx, "dashboard.duplicate", map[string]any{
		"source_id":    id,
		"dashboard_id": copied.ID,
	})
	return copied, nil
}

// AddWidgetRequest captures the data required to add a widget to a dashboard.
type AddWidgetRequest struct {
	DashboardID string         `json:"dashboardId"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Config      map[string]any `json:"config,omitempty"`
	DataSource  DataSource     `json:"dataSource"`
	Behavior    Behavior       `json:"behavior"`
	Layout      *LayoutItem    `json:"layout,omitempty"`
}

// AddWidget creates a widget with a new id and appends it to the dashboard.
func (s *Service) AddWidget(ctx context.Context, req AddWidgetRequest) (Widget, error) {
	widgetType, err := ParseWidgetType(req.Type)
	if err != nil {
		return Widget{}, err
	}
	cfg, err := DecodeConfigMap(widgetType, req.Config)
	if err != nil {
		return Widget{}, err
	}
	widget := Widget{
		ID:         uuid.NewString(),
		Type:       widgetType,
		Title:      req.Title,
		Config:     cfg,
		DataSource: req.DataSource,
		Behavior:   req.Behavior,
	}
	if err := ValidateWidget(s.opts.ConfigValidator, s.opts.Providers, widget); err != nil {
		return Widget{}, err
	}
	_, err = s.mutate(ctx, req.DashboardID, func(d *Dashboard) error {
		d.Widgets = append(d.Widgets, widget)
		if req.Layout != nil {
			item := *req.Layout
			item.I = widget.ID
			d.Layout = append(d.Layout, item)
		}
		return nil
	})
	if err != nil {
		return Widget{}, err
	}
	if err := s.notify(ctx, WidgetEvent{DashboardID: req.DashboardID, WidgetID: widget.ID, Widget: &widget, Reason: "add"}); err != nil {
		return widget, err
	}
	s.recordTelemetry(ctx, "dashboard.widget.add", map[string]any{
		"dashboard_id": req.DashboardID,
		"widget_id":    widget.ID,
		"type":         string(widgetType),
	})
	return widget, nil
}

// UpdateWidgetConfig merges patch onto the widget config and persists it.
func (s *Service) UpdateWidgetConfig(ctx context.Context, dashboardID, widgetID string, patch map[string]any) (Widget, error) {
	if widgetID == "" {
		return Widget{}, errMissingWidgetID
	}
	var updated Widget
	_, err := s.mutate(ctx, dashboardID, func(d *Dashboard) error {
		idx := widgetIndex(d.Widgets, widgetID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
		}
		next, err := ApplyConfigUpdate(d.Widgets[idx], patch)
		if err != nil {
			return err
		}
		if err := ValidateWidget(s.opts.ConfigValidator, s.opts.Providers, next); err != nil {
			return err
		}
		d.Widgets[idx] = next
		updated = next
		return nil
	})
	if err != nil {
		return Widget{}, err
	}
	if err := s.notify(ctx, WidgetEvent{DashboardID: dashboardID, WidgetID: widgetID, Widget: &updated, Reason: "config"}); err != nil {
		return updated, err
	}
	s.recordTelemetry(ctx, "dashboard.widget.update", map[string]any{
		"dashboard_id": dashboardID,
		"widget_id":    widgetID,
		"keys":         len(patch),
	})
	return updated, nil
}

// RemoveWidget deletes the widget and its layout slot.
func (s *Service) RemoveWidget(ctx context.Context, dashboardID, widgetID string) error {
	if widgetID == "" {
		return errMissingWidgetID
	}
	_, err := s.mutate(ctx, dashboardID, func(d *Dashboard) error {
		idx := widgetIndex(d.Widgets, widgetID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
		}
		d.Widgets = append(d.Widgets[:idx], d.Widgets[idx+1:]...)
		layout := d.Layout[:0]
		for _, item := range d.Layout {
			if item.I != widgetID {
				layout = append(layout, item)
			}
		}
		d.Layout = layout
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.notify(ctx, WidgetEvent{DashboardID: dashboardID, WidgetID: widgetID, Reason: "delete"}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.remove", map[string]any{
		"dashboard_id": dashboardID,
		"widget_id":    widgetID,
	})
	return nil
}

// ReorderWidgets changes widget ordering and reflows the layout grid.
func (s *Service) ReorderWidgets(ctx context.Context, dashboardID string, widgetIDs []string) error {
	_, err := s.mutate(ctx, dashboardID, func(d *Dashboard) error {
		for _, id := range widgetIDs {
			if widgetIndex(d.Widgets, id) < 0 {
				return fmt.Errorf("%w: %s", ErrWidgetNotFound, id)
			}
		}
		d.Widgets = applyOrderOverride(d.Widgets, widgetIDs)
		d.Layout = reorderLayout(d.Layout, widgetIDs)
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.notify(ctx, WidgetEvent{DashboardID: dashboardID, Reason: "reorder"}); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.reorder", map[string]any{
		"dashboard_id": dashboardID,
		"count":        len(widgetIDs),
	})
	return nil
}

func (s *Service) mutate(ctx context.Context, dashboardID string, fn func(*Dashboard) error) (Dashboard, error) {
	store, err := s.store()
	if err != nil {
		return Dashboard{}, err
	}
	if dashboardID == "" {
		return Dashboard{}, errMissingDashboardID
	}
	current, err := store.GetDashboard(ctx, dashboardID)
	if err != nil {
		return Dashboard{}, err
	}
	if err := fn(&current); err != nil {
		return Dashboard{}, err
	}
	current.NormalizeLayout()
	if err := current.Validate(); err != nil {
		return Dashboard{}, err
	}
	return store.UpdateDashboard(ctx, current)
}

func widgetIndex(widgets []Widget, id string) int {
	for i, w := range widgets {
		if w.ID == id {
			return i
		}
	}
	return -1
}

// ResolvedWidget is one widget with the outcome of its data fetch.
type ResolvedWidget struct {
	Widget    Widget       `json:"widget"`
	Layout    LayoutItem   `json:"layout"`
	Status    WidgetStatus `json:"status"`
	Data      WidgetData   `json:"data,omitempty"`
	Error     string       `json:"error,omitempty"`
	ErrorKind ErrorKind    `json:"errorKind,omitempty"`
	Retryable bool         `json:"retryable,omitempty"`
}

// ResolvedDashboard is a dashboard rendered for one viewer.
type ResolvedDashboard struct {
	Dashboard  Dashboard        `json:"dashboard"`
	Widgets    []ResolvedWidget `json:"widgets"`
	Parameters ParameterContext `json:"parameters"`
	ResolvedAt time.Time        `json:"resolvedAt"`
}

// ResolveDashboard loads the dashboard, applies viewer preferences and fetches
// every widget in parallel. Widget failures are captured per widget so one
// broken tile never fails the render. Drill-through parameters are read from
// ctx (see WithParameterContext).
func (s *Service) ResolveDashboard(ctx context.Context, viewer ViewerContext, dashboardID string) (ResolvedDashboard, error) {
	d, err := s.GetDashboard(ctx, dashboardID)
	if err != nil {
		return ResolvedDashboard{}, err
	}
	prefs, err := s.opts.PreferenceStore.Preferences(ctx, viewer)
	if err != nil {
		s.opts.Logger.Warn("dashboard: preferences unavailable", "viewer", viewer.UserID, "error", err)
		prefs = emptyPreferences()
	}
	prefs.Normalize()
	widgets := applyHiddenFilter(applyOrderOverride(d.Widgets, prefs.WidgetOrder[d.ID]), prefs.HiddenWidgets)
	layout := make(map[string]LayoutItem, len(d.Layout))
	for _, item := range d.Layout {
		layout[item.I] = item
	}

	ctx = WithViewer(ctx, viewer)
	resolved := make([]ResolvedWidget, len(widgets))
	var group errgroup.Group
	group.SetLimit(s.opts.Concurrency)
	for i, widget := range widgets {
		group.Go(func() error {
			resolved[i] = s.resolveWidget(ctx, viewer, d.ID, widget)
			resolved[i].Layout = layout[widget.ID]
			return nil
		})
	}
	_ = group.Wait()

	failures := 0
	for _, rw := range resolved {
		if rw.Status == StatusError {
			failures++
		}
	}
	s.recordTelemetry(ctx, "dashboard.resolve", map[string]any{
		"dashboard_id": d.ID,
		"viewer":       viewer.UserID,
		"widgets":      len(resolved),
		"failures":     failures,
	})
	return ResolvedDashboard{
		Dashboard:  d,
		Widgets:    resolved,
		Parameters: ParameterContextFrom(ctx),
		ResolvedAt: s.opts.Now(),
	}, nil
}

// FetchWidget resolves a single widget of a dashboard.
func (s *Service) FetchWidget(ctx context.Context, viewer ViewerContext, dashboardID, widgetID string) (ResolvedWidget, error) {
	d, err := s.GetDashboard(ctx, dashboardID)
	if err != nil {
		return ResolvedWidget{}, err
	}
	widget, ok := d.Widget(widgetID)
	if !ok {
		return ResolvedWidget{}, fmt.Errorf("%w: %s", ErrWidgetNotFound, widgetID)
	}
	rw := s.resolveWidget(WithViewer(ctx, viewer), viewer, d.ID, widget)
	for _, item := range d.Layout {
		if item.I == widgetID {
			rw.Layout = item
		}
	}
	return rw, nil
}

func (s *Service) resolveWidget(ctx context.Context, viewer ViewerContext, dashboardID string, widget Widget) ResolvedWidget {
	rw := ResolvedWidget{Widget: widget}
	data, err := s.FetchWidgetData(ctx, viewer, dashboardID, widget)
	if errors.Is(err, errNoProvider) {
		rw.Status = StatusIdle
		return rw
	}
	rw.Status = StatusOf(data, err)
	rw.Data = data
	if err != nil {
		kind := ClassifyError(err)
		rw.Data = nil
		rw.Error = ErrorMessage(err)
		rw.ErrorKind = kind
		rw.Retryable = kind.Retryable()
		s.recordTelemetry(ctx, "dashboard.widget.provider_error", map[string]any{
			"dashboard_id": dashboardID,
			"widget_id":    widget.ID,
			"type":         string(widget.Type),
			"kind":         string(kind),
			"error":        err.Error(),
		})
	}
	return rw
}

var errNoProvider = errors.New("dashboard: no provider registered")

// FetchWidgetData runs the widget's provider with defaults applied. It is the
// fetch function behind view-state controllers.
func (s *Service) FetchWidgetData(ctx context.Context, viewer ViewerContext, dashboardID string, widget Widget) (WidgetData, error) {
	provider, ok := s.opts.Providers.Provider(string(widget.Type))
	if !ok || provider == nil {
		return nil, fmt.Errorf("%w for %s", errNoProvider, widget.Type)
	}
	if err := widget.Validate(); err != nil {
		return nil, err
	}
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}
	return provider.Fetch(ctx, WidgetContext{
		DashboardID: dashboardID,
		Widget:      widget,
		Config:      widget.ResolvedConfig(),
		Viewer:      viewer,
	})
}

// NotifyWidgetUpdated exposes refresh hook invocation for commands/transports.
func (s *Service) NotifyWidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if err := s.notify(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.event", map[string]any{
		"dashboard_id": event.DashboardID,
		"widget_id":    event.WidgetID,
		"reason":       event.Reason,
	})
	return nil
}

func (s *Service) notify(ctx context.Context, event WidgetEvent) error {
	if event.At.IsZero() {
		event.At = s.opts.Now()
	}
	return s.opts.RefreshHook.WidgetUpdated(ctx, event)
}

// Preferences returns the viewer's stored overrides.
func (s *Service) Preferences(ctx context.Context, viewer ViewerContext) (Preferences, error) {
	prefs, err := s.opts.PreferenceStore.Preferences(ctx, viewer)
	if err != nil {
		return Preferences{}, err
	}
	prefs.Normalize()
	return prefs, nil
}

// SavePreferences persists per-viewer overrides.
func (s *Service) SavePreferences(ctx context.Context, viewer ViewerContext, prefs Preferences) error {
	if viewer.UserID == "" {
		return errors.New("dashboard: viewer context missing user id")
	}
	prefs.Normalize()
	if err := s.opts.PreferenceStore.SavePreferences(ctx, viewer, prefs); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.preferences.save", map[string]any{"viewer": viewer.UserID})
	return nil
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error {
	return nil
}

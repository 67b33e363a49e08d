package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/commands"
	"github.com/goliatone/go-sensormine/components/dashboard/httpapi"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) dashboard.ViewerContext

// Config wires go-router with the dashboard controller, command executor and
// refresh broadcaster.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            httpapi.Executor
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
// Paths carrying a dashboard use the :id param, widget paths add :widgetId.
type RouteConfig struct {
	HTML        string
	Layout      string
	Dashboards  string
	Dashboard   string
	Publish     string
	Duplicate   string
	Widgets     string
	WidgetID    string
	Reorder     string
	Refresh     string
	Preferences string
	WebSocket   string
}

// routeTarget is the part of router.Router[T] used for registration.
type routeTarget interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo
}

// requestContext is the part of router.Context the handlers read and write.
type requestContext interface {
	Context() context.Context
	Param(name string, defaultValue ...string) string
	Query(name string, defaultValue ...string) string
	Header(key string) string
	Body() []byte
	Locals(key any, value ...any) any
	JSON(code int, v any) error
	Send(b []byte) error
	SetHeader(key, value string) router.Context
}

// Register mounts dashboard routes (HTML, JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	base := cfg.BasePath
	if base == "" {
		base = "/sensormine"
	}
	mount(cfg.Router.Group(base), cfg.handlers(), defaultRouteConfig(cfg.Routes))
	return nil
}

func (cfg Config[T]) handlers() *handlers {
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	return &handlers{
		controller: cfg.Controller,
		api:        cfg.API,
		broadcast:  cfg.Broadcast,
		viewer: func(ctx requestContext) dashboard.ViewerContext {
			if rc, ok := ctx.(router.Context); ok {
				return resolver(rc)
			}
			return viewerFromContext(ctx)
		},
	}
}

func mount(r routeTarget, h *handlers, routes RouteConfig) {
	r.Get(routes.HTML, wrap(h.page))
	r.Get(routes.Layout, wrap(h.layout))

	if h.api != nil {
		r.Post(routes.Dashboards, wrap(h.saveDashboard))
		r.Put(routes.Dashboard, wrap(h.saveDashboard))
		r.Delete(routes.Dashboard, wrap(h.deleteDashboard))
		r.Post(routes.Publish, wrap(h.publishDashboard))
		r.Post(routes.Duplicate, wrap(h.duplicateDashboard))
		r.Post(routes.Widgets, wrap(h.addWidget))
		r.Post(routes.Reorder, wrap(h.reorderWidgets))
		r.Patch(routes.WidgetID, wrap(h.updateWidget))
		r.Delete(routes.WidgetID, wrap(h.removeWidget))
		r.Post(routes.Refresh, wrap(h.refreshWidget))
		r.Post(routes.Preferences, wrap(h.savePreferences))
	}

	if h.broadcast != nil {
		r.WebSocket(routes.WebSocket, router.DefaultWebSocketConfig(), h.stream)
	}
}

func wrap(fn func(requestContext) error) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		return fn(ctx)
	})
}

type handlers struct {
	controller *dashboard.Controller
	api        httpapi.Executor
	broadcast  *dashboard.BroadcastHook
	viewer     func(requestContext) dashboard.ViewerContext
}

// scoped carries drill-through parameters from the query string onto the
// request context so widget bindings can resolve against them.
func (h *handlers) scoped(ctx requestContext) context.Context {
	values := url.Values{}
	for _, key := range []string{"parameterId", "parameterType", "parameterName"} {
		if v := ctx.Query(key); v != "" {
			values.Set(key, v)
		}
	}
	return dashboard.WithParameterContext(ctx.Context(), dashboard.ParseParameterContext(values))
}

func (h *handlers) page(ctx requestContext) error {
	var buf bytes.Buffer
	if err := h.controller.RenderTemplate(h.scoped(ctx), h.viewer(ctx), ctx.Param("id"), &buf); err != nil {
		return respondError(ctx, err)
	}
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.Send(buf.Bytes())
}

func (h *handlers) layout(ctx requestContext) error {
	payload, err := h.controller.LayoutPayload(h.scoped(ctx), h.viewer(ctx), ctx.Param("id"))
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (h *handlers) saveDashboard(ctx requestContext) error {
	var payload dashboard.Dashboard
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return badRequest(ctx, err)
	}
	status := http.StatusCreated
	if id := ctx.Param("id"); id != "" {
		payload.ID = id
		status = http.StatusOK
	}
	var saved dashboard.Dashboard
	input := commands.SaveDashboardInput{Dashboard: payload, Viewer: h.viewer(ctx), Result: &saved}
	if err := h.api.SaveDashboard(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(status, saved)
}

func (h *handlers) deleteDashboard(ctx requestContext) error {
	input := commands.DashboardIDInput{DashboardID: ctx.Param("id"), Viewer: h.viewer(ctx)}
	if err := h.api.DeleteDashboard(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusNoContent, map[string]string{"status": "deleted"})
}

func (h *handlers) publishDashboard(ctx requestContext) error {
	var published dashboard.Dashboard
	input := commands.DashboardIDInput{DashboardID: ctx.Param("id"), Viewer: h.viewer(ctx), Result: &published}
	if err := h.api.PublishDashboard(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, published)
}

func (h *handlers) duplicateDashboard(ctx requestContext) error {
	var payload struct {
		Name string `json:"name"`
	}
	if body := ctx.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			return badRequest(ctx, err)
		}
	}
	var copied dashboard.Dashboard
	input := commands.DuplicateDashboardInput{
		DashboardID: ctx.Param("id"),
		Name:        payload.Name,
		Viewer:      h.viewer(ctx),
		Result:      &copied,
	}
	if err := h.api.DuplicateDashboard(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, copied)
}

func (h *handlers) addWidget(ctx requestContext) error {
	var payload dashboard.AddWidgetRequest
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return badRequest(ctx, err)
	}
	payload.DashboardID = ctx.Param("id")
	var created dashboard.Widget
	input := commands.AddWidgetInput{Request: payload, Viewer: h.viewer(ctx), Result: &created}
	if err := h.api.AddWidget(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, created)
}

func (h *handlers) updateWidget(ctx requestContext) error {
	var patch map[string]any
	if err := json.Unmarshal(ctx.Body(), &patch); err != nil {
		return badRequest(ctx, err)
	}
	var updated dashboard.Widget
	input := commands.UpdateWidgetConfigInput{
		DashboardID: ctx.Param("id"),
		WidgetID:    ctx.Param("widgetId"),
		Patch:       patch,
		Viewer:      h.viewer(ctx),
		Result:      &updated,
	}
	if err := h.api.UpdateWidget(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, updated)
}

func (h *handlers) removeWidget(ctx requestContext) error {
	widgetID := ctx.Param("widgetId")
	if widgetID == "" {
		return badRequest(ctx, errors.New("widget id is required"))
	}
	input := commands.RemoveWidgetInput{DashboardID: ctx.Param("id"), WidgetID: widgetID, Viewer: h.viewer(ctx)}
	if err := h.api.RemoveWidget(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusNoContent, map[string]string{"status": "removed"})
}

func (h *handlers) reorderWidgets(ctx requestContext) error {
	var payload commands.ReorderWidgetsInput
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return badRequest(ctx, err)
	}
	payload.DashboardID = ctx.Param("id")
	payload.Viewer = h.viewer(ctx)
	if err := h.api.Reorder(ctx.Context(), payload); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *handlers) refreshWidget(ctx requestContext) error {
	input := commands.RefreshWidgetInput{DashboardID: ctx.Param("id"), WidgetID: ctx.Param("widgetId")}
	if err := h.api.Refresh(ctx.Context(), input); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *handlers) savePreferences(ctx requestContext) error {
	var payload commands.SavePreferencesInput
	if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
		return badRequest(ctx, err)
	}
	payload.Viewer = h.viewer(ctx)
	if err := h.api.Preferences(ctx.Context(), payload); err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
}

// stream pushes widget events for a single dashboard until the socket closes.
func (h *handlers) stream(ws router.WebSocketContext) error {
	events, cancel := h.broadcast.Subscribe(ws.Param("id"))
	defer cancel()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(event); err != nil {
				return err
			}
		case <-ws.Context().Done():
			return ws.Close()
		}
	}
}

func defaultViewerResolver(ctx router.Context) dashboard.ViewerContext {
	return viewerFromContext(ctx)
}

// viewerFromContext prefers auth middleware locals and falls back to the
// X-User-Id/X-Tenant-Id headers.
func viewerFromContext(ctx requestContext) dashboard.ViewerContext {
	var viewer dashboard.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if v, ok := ctx.Locals("tenant_id").(string); ok {
		viewer.TenantID = v
	}
	if roles, ok := ctx.Locals("roles").([]string); ok {
		viewer.Roles = roles
	}
	if viewer.UserID == "" {
		viewer.UserID = strings.TrimSpace(ctx.Header("X-User-Id"))
	}
	if viewer.TenantID == "" {
		viewer.TenantID = strings.TrimSpace(ctx.Header("X-Tenant-Id"))
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx requestContext) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		return parseAcceptLanguage(header)
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func badRequest(ctx requestContext, err error) error {
	return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func respondError(ctx requestContext, err error) error {
	return ctx.JSON(httpapi.StatusFor(err), map[string]string{
		"error": err.Error(),
		"kind":  string(dashboard.ClassifyError(err)),
	})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboards/:id"
	}
	if routes.Layout == "" {
		routes.Layout = "/dashboards/:id/_layout"
	}
	if routes.Dashboards == "" {
		routes.Dashboards = "/api/dashboards"
	}
	if routes.Dashboard == "" {
		routes.Dashboard = "/api/dashboards/:id"
	}
	if routes.Publish == "" {
		routes.Publish = "/api/dashboards/:id/publish"
	}
	if routes.Duplicate == "" {
		routes.Duplicate = "/api/dashboards/:id/duplicate"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/api/dashboards/:id/widgets"
	}
	if routes.WidgetID == "" {
		routes.WidgetID = "/api/dashboards/:id/widgets/:widgetId"
	}
	if routes.Reorder == "" {
		routes.Reorder = "/api/dashboards/:id/reorder"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/api/dashboards/:id/widgets/:widgetId/refresh"
	}
	if routes.Preferences == "" {
		routes.Preferences = "/api/preferences"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboards/:id/ws"
	}
	return routes
}

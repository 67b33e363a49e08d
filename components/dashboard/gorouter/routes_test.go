package gorouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	router "github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/commands"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router/controller missing")
	}
}

func TestMountRegistersRoutes(t *testing.T) {
	mock := newMockRouter()
	h := &handlers{
		controller: dashboard.NewController(dashboard.ControllerOptions{}),
		api:        &recordingExecutor{},
		broadcast:  dashboard.NewBroadcastHook(),
		viewer:     viewerFromContext,
	}
	mount(mock, h, defaultRouteConfig(RouteConfig{}))

	for _, key := range []string{
		"GET:/dashboards/:id",
		"GET:/dashboards/:id/_layout",
		"POST:/api/dashboards",
		"PUT:/api/dashboards/:id",
		"DELETE:/api/dashboards/:id",
		"POST:/api/dashboards/:id/widgets",
		"PATCH:/api/dashboards/:id/widgets/:widgetId",
		"DELETE:/api/dashboards/:id/widgets/:widgetId",
		"POST:/api/dashboards/:id/reorder",
		"POST:/api/preferences",
	} {
		if _, ok := mock.routes[key]; !ok {
			t.Fatalf("expected route %s to be registered", key)
		}
	}
	if _, ok := mock.ws["/dashboards/:id/ws"]; !ok {
		t.Fatalf("expected websocket route")
	}
}

func TestMountSkipsAPIWithoutExecutor(t *testing.T) {
	mock := newMockRouter()
	mount(mock, &handlers{viewer: viewerFromContext}, defaultRouteConfig(RouteConfig{}))
	assert.Len(t, mock.routes, 2)
	assert.Empty(t, mock.ws)
}

func TestPageRendersWithDrillThroughParameters(t *testing.T) {
	resolver := &stubResolver{}
	renderer := &stubRenderer{}
	h := &handlers{
		controller: dashboard.NewController(dashboard.ControllerOptions{Service: resolver, Renderer: renderer}),
		viewer:     viewerFromContext,
	}
	ctx := newMockContext()
	ctx.params["id"] = "device-detail"
	ctx.query["parameterType"] = "deviceId"
	ctx.query["parameterId"] = "D42"
	ctx.headers["X-Tenant-Id"] = "tenant-a"

	if err := h.page(ctx); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if renderer.calls == 0 {
		t.Fatalf("renderer not invoked")
	}
	assert.Equal(t, "ok", string(ctx.body))
	assert.Equal(t, "device-detail", resolver.dashboardID)
	assert.Equal(t, "D42", resolver.params.ParameterID)
	assert.Equal(t, dashboard.ParameterDeviceID, resolver.params.ParameterType)
	assert.Equal(t, "tenant-a", resolver.viewer.TenantID)
}

func TestLayoutMapsNotFound(t *testing.T) {
	resolver := &stubResolver{err: dashboard.ErrDashboardNotFound}
	h := &handlers{
		controller: dashboard.NewController(dashboard.ControllerOptions{Service: resolver}),
		viewer:     viewerFromContext,
	}
	ctx := newMockContext()
	ctx.params["id"] = "missing"
	require.NoError(t, h.layout(ctx))
	assert.Equal(t, http.StatusNotFound, ctx.status)
}

func TestAddWidgetUsesDashboardParam(t *testing.T) {
	exec := &recordingExecutor{}
	h := &handlers{api: exec, viewer: viewerFromContext}
	ctx := newMockContext()
	ctx.params["id"] = "d1"
	ctx.body = []byte(`{"type":"gauge","title":"Pressure"}`)
	ctx.locals["user_id"] = "u1"

	require.NoError(t, h.addWidget(ctx))
	assert.Equal(t, http.StatusCreated, ctx.status)
	assert.Equal(t, "d1", exec.add.Request.DashboardID)
	assert.Equal(t, "gauge", exec.add.Request.Type)
	assert.Equal(t, "u1", exec.add.Viewer.UserID)
}

func TestRemoveWidgetRequiresID(t *testing.T) {
	h := &handlers{api: &recordingExecutor{}, viewer: viewerFromContext}
	ctx := newMockContext()
	ctx.params["id"] = "d1"
	require.NoError(t, h.removeWidget(ctx))
	assert.Equal(t, http.StatusBadRequest, ctx.status)
}

func TestSaveDashboardStatus(t *testing.T) {
	exec := &recordingExecutor{}
	h := &handlers{api: exec, viewer: viewerFromContext}

	create := newMockContext()
	create.body = []byte(`{"name":"Plant"}`)
	require.NoError(t, h.saveDashboard(create))
	assert.Equal(t, http.StatusCreated, create.status)

	update := newMockContext()
	update.params["id"] = "d7"
	update.body = []byte(`{"name":"Plant"}`)
	require.NoError(t, h.saveDashboard(update))
	assert.Equal(t, http.StatusOK, update.status)
	assert.Equal(t, "d7", exec.save.Dashboard.ID)
}

func TestParseAcceptLanguage(t *testing.T) {
	assert.Equal(t, "fr-ca", parseAcceptLanguage("fr-CA;q=0.9, en;q=0.8"))
	assert.Equal(t, "", parseAcceptLanguage(" , "))
}

// --- Test helpers ---

type mockRouter struct {
	prefix string
	routes map[string]router.HandlerFunc
	ws     map[string]func(router.WebSocketContext) error
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
		ws:     map[string]func(router.WebSocketContext) error{},
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) router.RouteInfo {
	m.routes[method+":"+m.prefix+path] = handler
	return nil
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return m.record(http.MethodGet, path, handler)
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return m.record(http.MethodPost, path, handler)
}

func (m *mockRouter) Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return m.record(http.MethodPut, path, handler)
}

func (m *mockRouter) Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return m.record(http.MethodPatch, path, handler)
}

func (m *mockRouter) Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	return m.record(http.MethodDelete, path, handler)
}

func (m *mockRouter) WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo {
	m.ws[m.prefix+path] = handler
	return nil
}

type mockContext struct {
	ctx     context.Context
	headers map[string]string
	query   map[string]string
	body    []byte
	locals  map[any]any
	params  map[string]string
	status  int
}

func newMockContext() *mockContext {
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		query:   map[string]string{},
		locals:  map[any]any{},
		params:  map[string]string{},
	}
}

func (m *mockContext) Context() context.Context { return m.ctx }

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return nil
}

func (m *mockContext) Header(k string) string { return m.headers[k] }

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.body }

func lookup(values map[string]string, name string, defaultValue []string) string {
	if v, ok := values[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Param(name string, defaultValue ...string) string {
	return lookup(m.params, name, defaultValue)
}

func (m *mockContext) Query(name string, defaultValue ...string) string {
	return lookup(m.query, name, defaultValue)
}

func (m *mockContext) Locals(key any, value ...any) any {
	if len(value) == 0 {
		return m.locals[key]
	}
	m.locals[key] = value[0]
	return value[0]
}

type stubResolver struct {
	dashboardID string
	viewer      dashboard.ViewerContext
	params      dashboard.ParameterContext
	err         error
}

func (s *stubResolver) ResolveDashboard(ctx context.Context, viewer dashboard.ViewerContext, id string) (dashboard.ResolvedDashboard, error) {
	s.dashboardID = id
	s.viewer = viewer
	s.params = dashboard.ParameterContextFrom(ctx)
	if s.err != nil {
		return dashboard.ResolvedDashboard{}, s.err
	}
	return dashboard.ResolvedDashboard{
		Dashboard:  dashboard.Dashboard{ID: id, Name: "Device detail"},
		Parameters: s.params,
	}, nil
}

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	if len(out) > 0 && out[0] != nil {
		_, _ = out[0].Write([]byte("ok"))
	}
	return "ok", nil
}

type recordingExecutor struct {
	save commands.SaveDashboardInput
	add  commands.AddWidgetInput
}

func (e *recordingExecutor) SaveDashboard(_ context.Context, in commands.SaveDashboardInput) error {
	e.save = in
	if in.Result != nil {
		*in.Result = in.Dashboard
	}
	return nil
}

func (e *recordingExecutor) DeleteDashboard(context.Context, commands.DashboardIDInput) error {
	return nil
}

func (e *recordingExecutor) PublishDashboard(context.Context, commands.DashboardIDInput) error {
	return nil
}

func (e *recordingExecutor) DuplicateDashboard(context.Context, commands.DuplicateDashboardInput) error {
	return nil
}

func (e *recordingExecutor) AddWidget(_ context.Context, in commands.AddWidgetInput) error {
	e.add = in
	return nil
}

func (e *recordingExecutor) UpdateWidget(context.Context, commands.UpdateWidgetConfigInput) error {
	return nil
}

func (e *recordingExecutor) RemoveWidget(context.Context, commands.RemoveWidgetInput) error {
	return nil
}

func (e *recordingExecutor) Reorder(context.Context, commands.ReorderWidgetsInput) error { return nil }

func (e *recordingExecutor) Refresh(context.Context, commands.RefreshWidgetInput) error { return nil }

func (e *recordingExecutor) Preferences(context.Context, commands.SavePreferencesInput) error {
	return nil
}

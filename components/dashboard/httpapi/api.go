package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/commands"
	"github.com/goliatone/go-sensormine/components/dashboard/queries"
)

// ViewerResolver extracts the viewer from a request.
type ViewerResolver func(*http.Request) dashboard.ViewerContext

// Handlers exposes REST endpoints backed by shared commands and queries.
type Handlers struct {
	API       Executor
	Dashboard gocommand.Querier[queries.DashboardInput, dashboard.ResolvedDashboard]
	Widget    gocommand.Querier[queries.WidgetInput, dashboard.ResolvedWidget]
	Assets    gocommand.Querier[queries.AssetChildrenInput, []queries.AssetNode]
	Broadcast *dashboard.BroadcastHook
	Viewer    ViewerResolver
	Logger    *slog.Logger
}

// Router mounts every endpoint on a gorilla/mux router.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	h.Mount(r)
	return r
}

// Mount registers the endpoints on r.
func (h *Handlers) Mount(r *mux.Router) {
	r.HandleFunc("/dashboards", h.HandleSaveDashboard).Methods(http.MethodPost)
	r.HandleFunc("/dashboards/{id}", h.HandleResolveDashboard).Methods(http.MethodGet)
	r.HandleFunc("/dashboards/{id}", h.HandleSaveDashboard).Methods(http.MethodPut)
	r.HandleFunc("/dashboards/{id}", h.HandleDeleteDashboard).Methods(http.MethodDelete)
	r.HandleFunc("/dashboards/{id}/publish", h.HandlePublishDashboard).Methods(http.MethodPost)
	r.HandleFunc("/dashboards/{id}/duplicate", h.HandleDuplicateDashboard).Methods(http.MethodPost)
	r.HandleFunc("/dashboards/{id}/widgets", h.HandleAddWidget).Methods(http.MethodPost)
	r.HandleFunc("/dashboards/{id}/widgets/reorder", h.HandleReorderWidgets).Methods(http.MethodPost)
	r.HandleFunc("/dashboards/{id}/widgets/{widgetId}", h.HandleUpdateWidget).Methods(http.MethodPatch)
	r.HandleFunc("/dashboards/{id}/widgets/{widgetId}", h.HandleRemoveWidget).Methods(http.MethodDelete)
	r.HandleFunc("/dashboards/{id}/widgets/{widgetId}/data", h.HandleWidgetData).Methods(http.MethodGet)
	r.HandleFunc("/dashboards/{id}/widgets/{widgetId}/refresh", h.HandleRefreshWidget).Methods(http.MethodPost)
	r.HandleFunc("/assets/children", h.HandleAssetChildren).Methods(http.MethodGet)
	r.HandleFunc("/preferences", h.HandleSavePreferences).Methods(http.MethodPost)
	if h.Broadcast != nil {
		r.HandleFunc("/events/ws", h.Broadcast.ServeWebSocket)
		r.HandleFunc("/events/sse", h.Broadcast.ServeSSE)
	}
}

func (h *Handlers) HandleResolveDashboard(w http.ResponseWriter, r *http.Request) {
	if h.Dashboard == nil {
		h.fail(w, r, errQueryMissing)
		return
	}
	out, err := h.Dashboard.Query(r.Context(), queries.DashboardInput{
		Viewer:      h.viewer(r),
		DashboardID: mux.Vars(r)["id"],
		Parameters:  dashboard.ParseParameterContext(r.URL.Query()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleSaveDashboard(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.Dashboard
	if !decode(w, r, &payload) {
		return
	}
	status := http.StatusCreated
	if id := mux.Vars(r)["id"]; id != "" {
		payload.ID = id
		status = http.StatusOK
	}
	var saved dashboard.Dashboard
	err := h.API.SaveDashboard(r.Context(), commands.SaveDashboardInput{Dashboard: payload, Viewer: h.viewer(r), Result: &saved})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, status, saved)
}

func (h *Handlers) HandleDeleteDashboard(w http.ResponseWriter, r *http.Request) {
	input := commands.DashboardIDInput{DashboardID: mux.Vars(r)["id"], Viewer: h.viewer(r)}
	if err := h.API.DeleteDashboard(r.Context(), input); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandlePublishDashboard(w http.ResponseWriter, r *http.Request) {
	var published dashboard.Dashboard
	input := commands.DashboardIDInput{DashboardID: mux.Vars(r)["id"], Viewer: h.viewer(r), Result: &published}
	if err := h.API.PublishDashboard(r.Context(), input); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, published)
}

func (h *Handlers) HandleDuplicateDashboard(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &payload) {
		return
	}
	var copied dashboard.Dashboard
	input := commands.DuplicateDashboardInput{
		DashboardID: mux.Vars(r)["id"],
		Name:        payload.Name,
		Viewer:      h.viewer(r),
		Result:      &copied,
	}
	if err := h.API.DuplicateDashboard(r.Context(), input); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, copied)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request) {
	var payload dashboard.AddWidgetRequest
	if !decode(w, r, &payload) {
		return
	}
	payload.DashboardID = mux.Vars(r)["id"]
	var created dashboard.Widget
	if err := h.API.AddWidget(r.Context(), commands.AddWidgetInput{Request: payload, Viewer: h.viewer(r), Result: &created}); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleUpdateWidget(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !decode(w, r, &patch) {
		return
	}
	vars := mux.Vars(r)
	var updated dashboard.Widget
	input := commands.UpdateWidgetConfigInput{
		DashboardID: vars["id"],
		WidgetID:    vars["widgetId"],
		Patch:       patch,
		Viewer:      h.viewer(r),
		Result:      &updated,
	}
	if err := h.API.UpdateWidget(r.Context(), input); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	input := commands.RemoveWidgetInput{DashboardID: vars["id"], WidgetID: vars["widgetId"], Viewer: h.viewer(r)}
	if err := h.API.RemoveWidget(r.Context(), input); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleReorderWidgets(w http.ResponseWriter, r *http.Request) {
	var payload commands.ReorderWidgetsInput
	if !decode(w, r, &payload) {
		return
	}
	payload.DashboardID = mux.Vars(r)["id"]
	payload.Viewer = h.viewer(r)
	if err := h.API.Reorder(r.Context(), payload); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reordered"})
}

func (h *Handlers) HandleWidgetData(w http.ResponseWriter, r *http.Request) {
	if h.Widget == nil {
		h.fail(w, r, errQueryMissing)
		return
	}
	vars := mux.Vars(r)
	out, err := h.Widget.Query(r.Context(), queries.WidgetInput{
		Viewer:      h.viewer(r),
		DashboardID: vars["id"],
		WidgetID:    vars["widgetId"],
		Parameters:  dashboard.ParseParameterContext(r.URL.Query()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleRefreshWidget(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	input := commands.RefreshWidgetInput{DashboardID: vars["id"], WidgetID: vars["widgetId"]}
	if err := h.API.Refresh(r.Context(), input); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handlers) HandleAssetChildren(w http.ResponseWriter, r *http.Request) {
	if h.Assets == nil {
		h.fail(w, r, errQueryMissing)
		return
	}
	nodes, err := h.Assets.Query(r.Context(), queries.AssetChildrenInput{
		Viewer:   h.viewer(r),
		ParentID: r.URL.Query().Get("parentId"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (h *Handlers) HandleSavePreferences(w http.ResponseWriter, r *http.Request) {
	var payload commands.SavePreferencesInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = h.viewer(r)
	if err := h.API.Preferences(r.Context(), payload); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

var errQueryMissing = errors.New("httpapi: query not configured")

func (h *Handlers) viewer(r *http.Request) dashboard.ViewerContext {
	if h.Viewer != nil {
		return h.Viewer(r)
	}
	return HeaderViewer(r)
}

// HeaderViewer reads the viewer from the X-User-Id/X-Tenant-Id headers the
// Sensormine services use.
func HeaderViewer(r *http.Request) dashboard.ViewerContext {
	viewer := dashboard.ViewerContext{
		UserID:   strings.TrimSpace(r.Header.Get("X-User-Id")),
		TenantID: strings.TrimSpace(r.Header.Get("X-Tenant-Id")),
	}
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		viewer.Locale = strings.ToLower(strings.TrimSpace(strings.SplitN(strings.SplitN(lang, ",", 2)[0], ";", 2)[0]))
	}
	return viewer
}

// StatusFor maps an error to the HTTP status returned to clients.
func StatusFor(err error) int {
	if errors.Is(err, dashboard.ErrUnknownWidgetType) || errors.Is(err, dashboard.ErrConfigTypeMismatch) {
		return http.StatusBadRequest
	}
	switch dashboard.ClassifyError(err) {
	case dashboard.KindConfiguration, dashboard.KindValidation:
		return http.StatusBadRequest
	case dashboard.KindAuthentication:
		return http.StatusUnauthorized
	case dashboard.KindAuthorization:
		return http.StatusForbidden
	case dashboard.KindNotFound:
		return http.StatusNotFound
	case dashboard.KindNetwork, dashboard.KindAPI:
		return http.StatusBadGateway
	case dashboard.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.ErrorContext(r.Context(), "httpapi: request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(dashboard.ClassifyError(err)),
	})
}

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

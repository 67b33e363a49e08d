package cad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// Mode selects what a click does.
type Mode int

const (
	// ModeView opens data popups for mapped meshes.
	ModeView Mode = iota
	// ModeEdit opens the mapping editor.
	ModeEdit
)

// EditRequest asks the designer to open the mapping editor for an element.
type EditRequest struct {
	ElementID string                          `json:"elementId"`
	Existing  *dashboard.SensorElementMapping `json:"existing,omitempty"`
}

// FieldValue is the latest reading of one mapped field.
type FieldValue struct {
	Field      string    `json:"field"`
	Value      float64   `json:"value"`
	Formatted  string    `json:"formatted"`
	Unit       string    `json:"unit,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
	ChartType  string    `json:"chartType,omitempty"`
	TimePeriod string    `json:"timePeriod,omitempty"`
	Available  bool      `json:"available"`
}

// Popup is the data panel shown for a clicked mapped mesh.
type Popup struct {
	ElementID   string                     `json:"elementId"`
	ElementName string                     `json:"elementName,omitempty"`
	SourceType  dashboard.SensorSourceType `json:"sourceType"`
	DeviceID    string                     `json:"deviceId,omitempty"`
	Values      []FieldValue               `json:"values,omitempty"`
	Alert       *dashboard.AlertInstance   `json:"alert,omitempty"`
	DrillDown   []dashboard.DrillDownLink  `json:"drillDown,omitempty"`
}

// ClickResult carries exactly one of Edit or Popup. A click on an unmapped
// mesh in view mode yields a nil result.
type ClickResult struct {
	Edit  *EditRequest `json:"edit,omitempty"`
	Popup *Popup       `json:"popup,omitempty"`
}

// ViewerOptions configures a Viewer.
type ViewerOptions struct {
	Widget dashboard.Widget
	Query  dashboard.QueryClient
	Alerts dashboard.AlertSource
	Logger *slog.Logger
}

// Viewer is the interactive state of one CAD widget.
type Viewer struct {
	query  dashboard.QueryClient
	alerts dashboard.AlertSource
	logger *slog.Logger
	scene  *Scene

	mu       sync.RWMutex
	widget   dashboard.Widget
	cfg      dashboard.CAD3DViewerConfig
	mode     Mode
	selected string
}

// NewViewer builds a viewer for a CAD widget.
func NewViewer(opts ViewerOptions) (*Viewer, error) {
	cfg, err := cadConfig(opts.Widget)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	v := &Viewer{
		query:  opts.Query,
		alerts: opts.Alerts,
		logger: logger,
		scene:  &Scene{},
		widget: opts.Widget,
		cfg:    cfg,
	}
	v.scene.LoadModel(cfg.ModelURL)
	return v, nil
}

func cadConfig(widget dashboard.Widget) (dashboard.CAD3DViewerConfig, error) {
	if widget.Type != dashboard.WidgetCAD3DViewer {
		return dashboard.CAD3DViewerConfig{}, fmt.Errorf("%w: widget %s is %s", dashboard.ErrConfigTypeMismatch, widget.ID, widget.Type)
	}
	switch c := widget.Config.(type) {
	case dashboard.CAD3DViewerConfig:
		return c.WithDefaults().(dashboard.CAD3DViewerConfig), nil
	case *dashboard.CAD3DViewerConfig:
		if c != nil {
			return c.WithDefaults().(dashboard.CAD3DViewerConfig), nil
		}
	case nil:
		return dashboard.CAD3DViewerConfig{}.WithDefaults().(dashboard.CAD3DViewerConfig), nil
	}
	return dashboard.CAD3DViewerConfig{}, fmt.Errorf("%w: widget %s holds %T", dashboard.ErrConfigTypeMismatch, widget.ID, widget.Config)
}

// Scene exposes the loaded model.
func (v *Viewer) Scene() *Scene { return v.scene }

// SetMode switches between view and edit mode.
func (v *Viewer) SetMode(mode Mode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

// Select highlights id; an empty id clears the selection.
func (v *Viewer) Select(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = id
}

// Selected returns the highlighted mesh id.
func (v *Viewer) Selected() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.selected
}

// Config returns the current widget config including mapping edits.
func (v *Viewer) Config() dashboard.CAD3DViewerConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cfg
}

// Widget returns the widget with the current config.
func (v *Viewer) Widget() dashboard.Widget {
	v.mu.RLock()
	defer v.mu.RUnlock()
	w := v.widget
	w.Config = v.cfg
	return w
}

// Colors maps every discovered mesh to its current color.
func (v *Viewer) Colors() map[string]string {
	v.mu.RLock()
	cfg, selected := v.cfg, v.selected
	v.mu.RUnlock()
	palette := PaletteFrom(cfg)
	out := make(map[string]string)
	for _, id := range v.scene.Meshes() {
		_, mapped := FindMapping(cfg, id)
		out[id] = MeshColor(id, selected, mapped, palette)
	}
	return out
}

// Click handles a mesh click. The mesh becomes the selection. In edit mode
// the result is an EditRequest and nothing is fetched. In view mode a mapped
// mesh opens a popup with freshly fetched values and an unmapped one is inert.
func (v *Viewer) Click(ctx context.Context, elementID string) (*ClickResult, error) {
	if elementID == "" {
		return nil, errors.New("cad: element id is required")
	}
	v.mu.Lock()
	v.selected = elementID
	mode, cfg, behavior := v.mode, v.cfg, v.widget.Behavior
	v.mu.Unlock()

	mapping, mapped := FindMapping(cfg, elementID)
	if mode == ModeEdit {
		req := &EditRequest{ElementID: elementID}
		if mapped {
			m := mapping
			req.Existing = &m
		}
		return &ClickResult{Edit: req}, nil
	}
	if !mapped {
		return nil, nil
	}
	popup, err := v.openPopup(ctx, mapping, behavior)
	if err != nil {
		return nil, err
	}
	return &ClickResult{Popup: popup}, nil
}

func (v *Viewer) openPopup(ctx context.Context, m dashboard.SensorElementMapping, behavior dashboard.Behavior) (*Popup, error) {
	popup := &Popup{
		ElementID:   m.ElementID,
		ElementName: m.ElementName,
		SourceType:  m.SourceType,
		DeviceID:    m.DeviceID,
	}
	switch m.SourceType {
	case dashboard.SensorSourceAlert:
		if v.alerts == nil {
			return nil, errors.New("cad: alert source not configured")
		}
		alert, err := v.alerts.AlertInstance(ctx, m.AlertID)
		if err != nil {
			return nil, fmt.Errorf("cad: load alert %s: %w", m.AlertID, err)
		}
		popup.Alert = &alert
		popup.DeviceID = alert.DeviceID
	default:
		values, err := v.latestValues(ctx, m)
		if err != nil {
			return nil, err
		}
		popup.Values = values
	}
	if popup.DeviceID != "" {
		popup.DrillDown = dashboard.DrillDownLinks(behavior, dashboard.ParameterDeviceID, popup.DeviceID, m.ElementName)
	}
	return popup, nil
}

func (v *Viewer) latestValues(ctx context.Context, m dashboard.SensorElementMapping) ([]FieldValue, error) {
	fields := m.FieldNames()
	if len(fields) == 0 {
		return nil, nil
	}
	if v.query == nil {
		return nil, errors.New("cad: query client not configured")
	}
	result, err := v.query.Realtime(ctx, dashboard.RealtimeQuery{DeviceIDs: []string{m.DeviceID}, Fields: fields})
	if err != nil {
		v.logger.Warn("cad: realtime fetch failed", "element_id", m.ElementID, "device_id", m.DeviceID, "error", err)
		return nil, fmt.Errorf("cad: load latest values for %s: %w", m.DeviceID, err)
	}
	latest := make(map[string]dashboard.RealtimeValue, len(result.Values))
	for _, rv := range result.Values {
		if rv.DeviceID != "" && rv.DeviceID != m.DeviceID {
			continue
		}
		if prev, ok := latest[rv.Field]; ok && prev.Timestamp.After(rv.Timestamp) {
			continue
		}
		latest[rv.Field] = rv
	}
	out := make([]FieldValue, 0, len(m.Fields))
	for _, f := range m.Fields {
		if f.FieldName == "" {
			continue
		}
		fv := FieldValue{Field: f.FieldName, ChartType: f.ChartType, TimePeriod: f.TimePeriod, Formatted: "-"}
		if rv, ok := latest[f.FieldName]; ok {
			fv.Value = rv.Value
			fv.Formatted = dashboard.FormatValue(rv.Value, 2)
			fv.Unit = rv.Unit
			fv.Timestamp = rv.Timestamp
			fv.Available = true
		}
		out = append(out, fv)
	}
	return out, nil
}

// UpsertMapping adds or replaces the mapping of one element.
func (v *Viewer) UpsertMapping(m dashboard.SensorElementMapping) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := UpsertMapping(v.cfg, m)
	if err != nil {
		return err
	}
	v.cfg = next
	return nil
}

// RemoveMapping unbinds an element.
func (v *Viewer) RemoveMapping(elementID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg = RemoveMapping(v.cfg, elementID)
}

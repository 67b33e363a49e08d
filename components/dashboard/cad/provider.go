package cad

import (
	"context"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// Provider renders the CAD widget payload: the model source and one entry per
// mapped element with the color it starts with.
type Provider struct{}

// NewProvider builds the CAD widget provider.
func NewProvider() *Provider { return &Provider{} }

// Register binds the provider to the CAD widget type on reg.
func Register(reg dashboard.ProviderRegistry) error {
	return reg.RegisterProvider(string(dashboard.WidgetCAD3DViewer), NewProvider())
}

// Fetch implements dashboard.Provider. No remote call is made; popups fetch
// their values when opened.
func (p *Provider) Fetch(_ context.Context, meta dashboard.WidgetContext) (dashboard.WidgetData, error) {
	widget := meta.Widget
	if meta.Config != nil {
		widget.Config = meta.Config
	}
	cfg, err := cadConfig(widget)
	if err != nil {
		return nil, err
	}
	if cfg.ModelURL == "" {
		return nil, &dashboard.ConfigurationError{
			WidgetType: dashboard.WidgetCAD3DViewer,
			Field:      "modelUrl",
			Message:    "please upload or select a CAD model",
		}
	}
	palette := PaletteFrom(cfg)
	elements := make([]map[string]any, 0, len(cfg.SensorMappings))
	for _, m := range cfg.SensorMappings {
		elements = append(elements, map[string]any{
			"elementId":   m.ElementID,
			"elementName": m.ElementName,
			"sourceType":  string(m.SourceType),
			"deviceId":    m.DeviceID,
			"alertId":     m.AlertID,
			"fields":      m.FieldNames(),
			"color":       MeshColor(m.ElementID, "", true, palette),
		})
	}
	showGrid := true
	if cfg.ShowGrid != nil {
		showGrid = *cfg.ShowGrid
	}
	return dashboard.WidgetData{
		"modelUrl":       cfg.ModelURL,
		"modelFormat":    cfg.ModelFormat,
		"elements":       elements,
		"cameraPosition": cfg.CameraPosition,
		"autoRotate":     cfg.AutoRotate,
		"showGrid":       showGrid,
		"palette": map[string]string{
			"default":   palette.Default,
			"active":    palette.Active,
			"highlight": palette.Highlight,
		},
	}, nil
}

package cad

import (
	"errors"
	"fmt"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// Palette holds the three mesh colors of the viewer.
type Palette struct {
	Default   string
	Active    string
	Highlight string
}

// PaletteFrom reads the palette from cfg with defaults applied.
func PaletteFrom(cfg dashboard.CAD3DViewerConfig) Palette {
	cfg = cfg.WithDefaults().(dashboard.CAD3DViewerConfig)
	return Palette{Default: cfg.DefaultColor, Active: cfg.ActiveColor, Highlight: cfg.HighlightColor}
}

// MeshColor picks the color of one mesh: selected beats mapped, mapped beats default.
func MeshColor(id, selected string, mapped bool, p Palette) string {
	switch {
	case id != "" && id == selected:
		return p.Highlight
	case mapped:
		return p.Active
	default:
		return p.Default
	}
}

// FindMapping returns the mapping bound to elementID.
func FindMapping(cfg dashboard.CAD3DViewerConfig, elementID string) (dashboard.SensorElementMapping, bool) {
	for _, m := range cfg.SensorMappings {
		if m.ElementID == elementID {
			return m, true
		}
	}
	return dashboard.SensorElementMapping{}, false
}

// ValidateMapping checks that a mapping names its element and its target.
func ValidateMapping(m dashboard.SensorElementMapping) error {
	if m.ElementID == "" {
		return errors.New("cad: element id is required")
	}
	switch m.SourceType {
	case dashboard.SensorSourceDevice:
		if m.DeviceID == "" {
			return fmt.Errorf("cad: element %s: please select a device", m.ElementID)
		}
	case dashboard.SensorSourceAlert:
		if m.AlertID == "" {
			return fmt.Errorf("cad: element %s: please select an alert", m.ElementID)
		}
	default:
		return fmt.Errorf("cad: element %s: unknown source type %q", m.ElementID, m.SourceType)
	}
	return nil
}

// UpsertMapping inserts m or replaces the mapping with the same element id.
// The returned config never holds two mappings for one element.
func UpsertMapping(cfg dashboard.CAD3DViewerConfig, m dashboard.SensorElementMapping) (dashboard.CAD3DViewerConfig, error) {
	if err := ValidateMapping(m); err != nil {
		return cfg, err
	}
	out := make([]dashboard.SensorElementMapping, 0, len(cfg.SensorMappings)+1)
	replaced := false
	for _, existing := range cfg.SensorMappings {
		if existing.ElementID != m.ElementID {
			out = append(out, existing)
			continue
		}
		if !replaced {
			out = append(out, m)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, m)
	}
	cfg.SensorMappings = out
	return cfg, nil
}

// RemoveMapping drops every mapping bound to elementID.
func RemoveMapping(cfg dashboard.CAD3DViewerConfig, elementID string) dashboard.CAD3DViewerConfig {
	out := make([]dashboard.SensorElementMapping, 0, len(cfg.SensorMappings))
	for _, m := range cfg.SensorMappings {
		if m.ElementID != elementID {
			out = append(out, m)
		}
	}
	cfg.SensorMappings = out
	return cfg
}

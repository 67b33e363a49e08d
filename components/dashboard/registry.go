package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var errEmptyCode = errors.New("dashboard: widget definition code is required")

// registration is everything known about one widget code.
type registration struct {
	def      WidgetDefinition
	provider Provider
	meta     ManifestProvider
}

// Registry implements ProviderRegistry. Built-in definitions are present from
// construction; providers are bound later (see RegisterProviders) because they
// need the remote clients, and custom components arrive through manifests.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registration
}

// NewRegistry builds a registry holding the built-in widget definitions.
func NewRegistry() *Registry {
	reg := &Registry{entries: map[string]*registration{}}
	for _, def := range DefaultWidgetDefinitions() {
		reg.entries[def.Code] = &registration{def: def}
	}
	return reg
}

// RegisterDefinition stores or replaces widget metadata. A provider already
// bound to the code is kept.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if def.Code == "" {
		return errEmptyCode
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[def.Code]; ok {
		e.def = def
		return nil
	}
	r.entries[def.Code] = &registration{def: def}
	return nil
}

// RegisterProvider binds provider to an existing definition.
func (r *Registry) RegisterProvider(code string, provider Provider) error {
	if code == "" {
		return errEmptyCode
	}
	if provider == nil {
		return fmt.Errorf("dashboard: nil provider for %s", code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[code]
	if !ok {
		return fmt.Errorf("dashboard: widget definition %s not found", code)
	}
	e.provider = provider
	return nil
}

// Definition fetches a widget definition by code.
func (r *Registry) Definition(code string) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[code]; ok {
		return e.def, true
	}
	return WidgetDefinition{}, false
}

// Provider fetches the provider bound to code.
func (r *Registry) Provider(code string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[code]
	if !ok || e.provider == nil {
		return nil, false
	}
	return e.provider, true
}

// ProviderMetadata returns the manifest provider block recorded for code.
func (r *Registry) ProviderMetadata(code string) (ManifestProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[code]
	if !ok || e.meta.isZero() {
		return ManifestProvider{}, false
	}
	return e.meta, true
}

// Definitions returns all definitions ordered by code.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defs := make([]WidgetDefinition, 0, len(r.entries))
	for _, e := range r.entries {
		defs = append(defs, e.def)
	}
	r.mu.RUnlock()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Code < defs[j].Code })
	return defs
}

// CustomComponents lists the definitions usable as CustomConfig.Component,
// i.e. everything that is not a built-in widget type.
func (r *Registry) CustomComponents() []WidgetDefinition {
	var out []WidgetDefinition
	for _, def := range r.Definitions() {
		if _, err := ParseWidgetType(def.Code); err != nil {
			out = append(out, def)
		}
	}
	return out
}

func (r *Registry) setMetadata(code string, meta ManifestProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[code]; ok {
		e.meta = meta
	}
}

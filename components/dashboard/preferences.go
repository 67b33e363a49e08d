package dashboard

import (
	"context"
	"fmt"
	"sync"
)

// Preferences are per-viewer overrides applied when a dashboard is resolved.
type Preferences struct {
	// WidgetOrder maps a dashboard id to the preferred widget id order.
	WidgetOrder        map[string][]string `json:"widgetOrder"`
	HiddenWidgets      map[string]bool     `json:"hiddenWidgets"`
	DefaultDashboardID string              `json:"defaultDashboardId,omitempty"`
	Theme              string              `json:"theme,omitempty"`
}

// Normalize replaces nil maps so callers can index freely.
func (p *Preferences) Normalize() {
	if p.WidgetOrder == nil {
		p.WidgetOrder = map[string][]string{}
	}
	if p.HiddenWidgets == nil {
		p.HiddenWidgets = map[string]bool{}
	}
}

func emptyPreferences() Preferences {
	p := Preferences{}
	p.Normalize()
	return p
}

// InMemoryPreferenceStore provides a concurrency-safe default store.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]Preferences
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]Preferences),
	}
}

// Preferences returns stored preferences or empty defaults.
func (s *InMemoryPreferenceStore) Preferences(_ context.Context, viewer ViewerContext) (Preferences, error) {
	if viewer.UserID == "" {
		return emptyPreferences(), nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	prefs, ok := s.data[s.key(viewer)]
	if !ok {
		return emptyPreferences(), nil
	}
	return clonePreferences(prefs), nil
}

// SavePreferences persists preferences for a viewer.
func (s *InMemoryPreferenceStore) SavePreferences(_ context.Context, viewer ViewerContext, prefs Preferences) error {
	if viewer.UserID == "" {
		return fmt.Errorf("preference store requires viewer user id")
	}
	prefs = clonePreferences(prefs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(viewer)] = prefs
	return nil
}

func (s *InMemoryPreferenceStore) key(viewer ViewerContext) string {
	if viewer.TenantID == "" {
		return viewer.UserID
	}
	return viewer.TenantID + "::" + viewer.UserID
}

func clonePreferences(p Preferences) Preferences {
	out := Preferences{
		WidgetOrder:        make(map[string][]string, len(p.WidgetOrder)),
		HiddenWidgets:      make(map[string]bool, len(p.HiddenWidgets)),
		DefaultDashboardID: p.DefaultDashboardID,
		Theme:              p.Theme,
	}
	for k, v := range p.WidgetOrder {
		out.WidgetOrder[k] = append([]string(nil), v...)
	}
	for k, v := range p.HiddenWidgets {
		out.HiddenWidgets[k] = v
	}
	return out
}

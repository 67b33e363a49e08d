package sensormine

import (
	"context"
	"net/http"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// PreferencesAPI wraps Preferences.API. Identity travels in the request
// headers, so the viewer is placed on ctx before each call.
type PreferencesAPI struct{ c *Client }

var _ dashboard.PreferenceStore = (*PreferencesAPI)(nil)

const preferencesPath = "/api/preferences"

// Preferences implements dashboard.PreferenceStore. A viewer without stored
// preferences gets an empty set.
func (a *PreferencesAPI) Preferences(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.Preferences, error) {
	var out dashboard.Preferences
	err := a.c.get(dashboard.WithViewer(ctx, viewer), ServicePreferences, preferencesPath, nil, &out)
	if IsNotFound(err) {
		err = nil
	}
	out.Normalize()
	return out, err
}

// SavePreferences implements dashboard.PreferenceStore.
func (a *PreferencesAPI) SavePreferences(ctx context.Context, viewer dashboard.ViewerContext, prefs dashboard.Preferences) error {
	return a.c.send(dashboard.WithViewer(ctx, viewer), ServicePreferences, http.MethodPut, preferencesPath, prefs, nil)
}

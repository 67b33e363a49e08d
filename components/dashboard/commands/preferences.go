package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// SavePreferencesInput captures viewer overrides for dashboard customization.
type SavePreferencesInput struct {
	Viewer             dashboard.ViewerContext `json:"viewer"`
	WidgetOrder        map[string][]string     `json:"widgetOrder"`
	HiddenWidgets      []string                `json:"hiddenWidgetIds"`
	DefaultDashboardID string                  `json:"defaultDashboardId,omitempty"`
	Theme              string                  `json:"theme,omitempty"`
}

type preferenceService interface {
	SavePreferences(ctx context.Context, viewer dashboard.ViewerContext, prefs dashboard.Preferences) error
}

// SavePreferencesCommand persists per-viewer overrides.
type SavePreferencesCommand struct {
	service   preferenceService
	telemetry Telemetry
}

// NewSavePreferencesCommand creates the command.
func NewSavePreferencesCommand(service preferenceService, telemetry Telemetry) *SavePreferencesCommand {
	return &SavePreferencesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SavePreferencesInput] = (*SavePreferencesCommand)(nil)

// Execute stores the provided overrides for the viewer.
func (c *SavePreferencesCommand) Execute(ctx context.Context, msg SavePreferencesInput) error {
	if c.service == nil {
		return errors.New("preferences command requires service")
	}
	if msg.Viewer.UserID == "" {
		return errors.New("preferences command requires viewer user id")
	}
	prefs := dashboard.Preferences{
		WidgetOrder:        msg.WidgetOrder,
		HiddenWidgets:      make(map[string]bool, len(msg.HiddenWidgets)),
		DefaultDashboardID: msg.DefaultDashboardID,
		Theme:              msg.Theme,
	}
	for _, id := range msg.HiddenWidgets {
		prefs.HiddenWidgets[id] = true
	}
	if err := c.service.SavePreferences(ctx, msg.Viewer, prefs); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.preferences.save", map[string]any{
		"user_id":    msg.Viewer.UserID,
		"dashboards": len(msg.WidgetOrder),
		"hidden_cnt": len(msg.HiddenWidgets),
	})
	return nil
}

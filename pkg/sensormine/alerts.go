package sensormine

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// AlertsAPI wraps Alerts.API.
type AlertsAPI struct{ c *Client }

// AlertRule fires instances when a device field crosses a condition.
type AlertRule struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	DeviceTypeID string   `json:"deviceTypeId,omitempty"`
	DeviceIDs    []string `json:"deviceIds,omitempty"`
	FieldName    string   `json:"fieldName"`
	Operator     string   `json:"operator"`
	Threshold    float64  `json:"threshold"`
	Severity     string   `json:"severity"`
	Enabled      bool     `json:"enabled"`
}

// AlertStatistics summarizes alert instances.
type AlertStatistics struct {
	Total        int            `json:"total"`
	Active       int            `json:"active"`
	Acknowledged int            `json:"acknowledged"`
	Resolved     int            `json:"resolved"`
	BySeverity   map[string]int `json:"bySeverity,omitempty"`
}

const (
	alertRulesPath     = "/api/alert-rules"
	alertInstancesPath = "/api/alert-instances"
)

// Rules lists alert rules.
func (a *AlertsAPI) Rules(ctx context.Context) ([]AlertRule, error) {
	var out []AlertRule
	err := a.c.get(ctx, ServiceAlerts, alertRulesPath, nil, &out)
	return out, err
}

// Rule loads one alert rule.
func (a *AlertsAPI) Rule(ctx context.Context, id string) (AlertRule, error) {
	var out AlertRule
	if err := requireID("alert rule", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceAlerts, alertRulesPath+"/"+escape(id), nil, &out)
	return out, err
}

// CreateRule stores a new alert rule.
func (a *AlertsAPI) CreateRule(ctx context.Context, rule AlertRule) (AlertRule, error) {
	var out AlertRule
	err := a.c.send(ctx, ServiceAlerts, http.MethodPost, alertRulesPath, rule, &out)
	return out, err
}

// UpdateRule overwrites an alert rule.
func (a *AlertsAPI) UpdateRule(ctx context.Context, rule AlertRule) (AlertRule, error) {
	var out AlertRule
	if err := requireID("alert rule", rule.ID); err != nil {
		return out, err
	}
	err := a.c.send(ctx, ServiceAlerts, http.MethodPut, alertRulesPath+"/"+escape(rule.ID), rule, &out)
	return out, err
}

// DeleteRule removes an alert rule.
func (a *AlertsAPI) DeleteRule(ctx context.Context, id string) error {
	if err := requireID("alert rule", id); err != nil {
		return err
	}
	return a.c.send(ctx, ServiceAlerts, http.MethodDelete, alertRulesPath+"/"+escape(id), nil, nil)
}

// Instances lists fired alerts.
func (a *AlertsAPI) Instances(ctx context.Context, filter dashboard.AlertFilter) ([]dashboard.AlertInstance, error) {
	q := url.Values{}
	if filter.DeviceID != "" {
		q.Set("deviceId", filter.DeviceID)
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Severity != "" {
		q.Set("severity", filter.Severity)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out []dashboard.AlertInstance
	err := a.c.get(ctx, ServiceAlerts, alertInstancesPath, q, &out)
	return out, err
}

// Instance loads one fired alert.
func (a *AlertsAPI) Instance(ctx context.Context, id string) (dashboard.AlertInstance, error) {
	var out dashboard.AlertInstance
	if err := requireID("alert instance", id); err != nil {
		return out, err
	}
	err := a.c.get(ctx, ServiceAlerts, alertInstancesPath+"/"+escape(id), nil, &out)
	return out, err
}

// Acknowledge marks an alert as seen.
func (a *AlertsAPI) Acknowledge(ctx context.Context, id, note string) (dashboard.AlertInstance, error) {
	return a.transition(ctx, id, "acknowledge", note)
}

// Resolve closes an alert.
func (a *AlertsAPI) Resolve(ctx context.Context, id, note string) (dashboard.AlertInstance, error) {
	return a.transition(ctx, id, "resolve", note)
}

func (a *AlertsAPI) transition(ctx context.Context, id, action, note string) (dashboard.AlertInstance, error) {
	var out dashboard.AlertInstance
	if err := requireID("alert instance", id); err != nil {
		return out, err
	}
	var body any
	if note != "" {
		body = map[string]string{"notes": note}
	}
	err := a.c.send(ctx, ServiceAlerts, http.MethodPost, alertInstancesPath+"/"+escape(id)+"/"+action, body, &out)
	return out, err
}

// Statistics summarizes alert instances.
func (a *AlertsAPI) Statistics(ctx context.Context) (AlertStatistics, error) {
	var out AlertStatistics
	err := a.c.get(ctx, ServiceAlerts, alertInstancesPath+"/statistics", nil, &out)
	return out, err
}

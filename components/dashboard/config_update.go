package dashboard

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// sourceKeys select the telemetry source; field picks are only valid for one source.
var sourceKeys = []string{"sourceType", "deviceId", "deviceTypeId"}

// fieldKeys are cleared when the source changes.
var fieldKeys = []string{"fieldName", "fieldFriendlyName", "additionalFields"}

// ApplyConfigUpdate shallow-merges patch onto the widget config and returns the
// updated widget. Keys absent from patch are preserved; a nil value removes a
// key. Changing the source clears previously picked fields unless the same
// patch picks new ones.
func ApplyConfigUpdate(widget Widget, patch map[string]any) (Widget, error) {
	current, err := ConfigMap(widget.Config)
	if err != nil {
		return widget, err
	}
	effective, err := ConfigMap(widget.ResolvedConfig())
	if err != nil {
		return widget, err
	}
	normalized, err := normalizePatch(patch)
	if err != nil {
		return widget, fmt.Errorf("dashboard: widget %s: %w", widget.ID, err)
	}
	merged := mergeConfig(current, effective, normalized)
	cfg, err := DecodeConfigMap(widget.Type, merged)
	if err != nil {
		return widget, err
	}
	widget.Config = cfg
	if err := widget.Validate(); err != nil {
		return widget, err
	}
	return widget, nil
}

// MergeConfig applies the shallow merge rules on plain maps.
func MergeConfig(current, patch map[string]any) map[string]any {
	return mergeConfig(current, current, patch)
}

// mergeConfig merges patch onto current. The source comparison runs against
// effective, the config with defaults applied, so restating a defaulted
// source is not a switch.
func mergeConfig(current, effective, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(current)+len(patch))
	for k, v := range current {
		merged[k] = v
	}
	reset := sourceChanged(effective, patch)
	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	if reset {
		for _, key := range fieldKeys {
			if _, explicit := patch[key]; explicit {
				continue
			}
			delete(merged, key)
		}
	}
	return merged
}

func sourceChanged(current, patch map[string]any) bool {
	for _, key := range sourceKeys {
		next, ok := patch[key]
		if !ok {
			continue
		}
		prev, had := current[key]
		if isBlank(next) && (!had || isBlank(prev)) {
			continue
		}
		if !had || !reflect.DeepEqual(prev, next) {
			return true
		}
	}
	return false
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func normalizePatch(patch map[string]any) (map[string]any, error) {
	if len(patch) == 0 {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode config patch: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize config patch: %w", err)
	}
	return out, nil
}

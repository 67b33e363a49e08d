// Package selectors implements the lookup, caching and ordering rules behind
// the dashboard designer's pickers.
package selectors

// Toggle returns the next value of a single-select control. Picking the
// current value deselects it.
func Toggle(current *string, picked string) *string {
	if current != nil && *current == picked {
		return nil
	}
	return &picked
}

// ToggleInSet adds picked to a multi-select, or removes it when present. The
// input slice is not modified.
func ToggleInSet(current []string, picked string) []string {
	out := make([]string, 0, len(current)+1)
	removed := false
	for _, v := range current {
		if v == picked {
			removed = true
			continue
		}
		out = append(out, v)
	}
	if !removed {
		out = append(out, picked)
	}
	return out
}

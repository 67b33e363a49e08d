package dashboard

import (
	"context"
	"testing"
)

func TestInMemoryPreferenceStore(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-1", TenantID: "tenant-1"}
	prefs := Preferences{
		WidgetOrder:        map[string][]string{"dash-1": {"w2", "w1"}},
		HiddenWidgets:      map[string]bool{"w3": true},
		DefaultDashboardID: "dash-1",
	}
	if err := store.SavePreferences(context.Background(), viewer, prefs); err != nil {
		t.Fatalf("SavePreferences returned error: %v", err)
	}
	prefs.WidgetOrder["dash-1"][0] = "mutated"

	out, err := store.Preferences(context.Background(), viewer)
	if err != nil {
		t.Fatalf("Preferences returned error: %v", err)
	}
	if got := out.WidgetOrder["dash-1"]; len(got) != 2 || got[0] != "w2" {
		t.Fatalf("expected stored order to be isolated from caller, got %v", got)
	}
	if !out.HiddenWidgets["w3"] || out.DefaultDashboardID != "dash-1" {
		t.Fatalf("unexpected preferences %+v", out)
	}

	other, err := store.Preferences(context.Background(), ViewerContext{UserID: "user-1", TenantID: "tenant-2"})
	if err != nil {
		t.Fatalf("Preferences returned error: %v", err)
	}
	if len(other.WidgetOrder) != 0 {
		t.Fatalf("expected tenants to be isolated, got %+v", other)
	}
}

func TestInMemoryPreferenceStoreRequiresUser(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	if err := store.SavePreferences(context.Background(), ViewerContext{}, Preferences{}); err == nil {
		t.Fatalf("expected error without user id")
	}
	prefs, err := store.Preferences(context.Background(), ViewerContext{})
	if err != nil {
		t.Fatalf("anonymous read should not fail: %v", err)
	}
	if prefs.WidgetOrder == nil || prefs.HiddenWidgets == nil {
		t.Fatalf("expected normalized empty preferences")
	}
}

func TestApplyOrderOverride(t *testing.T) {
	widgets := []Widget{{ID: "w1"}, {ID: "w2"}, {ID: "w3"}}
	out := applyOrderOverride(widgets, []string{"w3", "ghost", "w3", "w1"})
	got := widgetIDs(out)
	want := []string{"w3", "w1", "w2"}
	if !equalStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !equalStrings(widgetIDs(applyOrderOverride(widgets, nil)), []string{"w1", "w2", "w3"}) {
		t.Fatalf("empty order should keep widgets")
	}
}

func TestApplyHiddenFilter(t *testing.T) {
	widgets := []Widget{{ID: "w1"}, {ID: "w2"}, {ID: "w3"}}
	out := applyHiddenFilter(widgets, map[string]bool{"w2": true, "w3": false})
	if !equalStrings(widgetIDs(out), []string{"w1", "w3"}) {
		t.Fatalf("unexpected filtered widgets %v", widgetIDs(out))
	}
}

func TestReorderLayoutReflowsRows(t *testing.T) {
	layout := []LayoutItem{
		{I: "a", X: 0, Y: 0, W: 6, H: 2},
		{I: "b", X: 6, Y: 0, W: 6, H: 4},
		{I: "c", X: 0, Y: 4, W: 8, H: 3},
	}
	out := reorderLayout(layout, []string{"c", "a"})
	if len(out) != 3 {
		t.Fatalf("expected 3 items, got %d", len(out))
	}
	expect := []LayoutItem{
		{I: "c", X: 0, Y: 0, W: 8, H: 3},
		{I: "a", X: 0, Y: 3, W: 6, H: 2},
		{I: "b", X: 6, Y: 3, W: 6, H: 4},
	}
	for i, item := range expect {
		if out[i] != item {
			t.Fatalf("item %d: expected %+v, got %+v", i, item, out[i])
		}
	}
}

func widgetIDs(widgets []Widget) []string {
	ids := make([]string, 0, len(widgets))
	for _, w := range widgets {
		ids = append(ids, w.ID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

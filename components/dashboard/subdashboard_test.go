package dashboard

import (
	"context"
	"net/url"
	"testing"
)

func TestParameterContextIsSubDashboard(t *testing.T) {
	if (ParameterContext{ParameterID: "D1"}).IsSubDashboard() {
		t.Fatalf("id without type is not a sub-dashboard")
	}
	if (ParameterContext{ParameterType: ParameterDeviceID}).IsSubDashboard() {
		t.Fatalf("type without id is not a sub-dashboard")
	}
	if !(ParameterContext{ParameterID: "D1", ParameterType: ParameterDeviceID}).IsSubDashboard() {
		t.Fatalf("id and type make a sub-dashboard")
	}
}

func TestResolveDeviceIDSubstitution(t *testing.T) {
	top := context.Background()
	if got := ResolveDeviceID(top, "D1", true); got != "D1" {
		t.Fatalf("top level should keep configured id, got %s", got)
	}

	child := WithParameterContext(top, ParameterContext{ParameterID: "D9", ParameterType: ParameterDeviceID})
	if got := ResolveDeviceID(child, "D1", true); got != "D9" {
		t.Fatalf("expected substituted D9, got %s", got)
	}
	if got := ResolveDeviceID(child, "D1", false); got != "D1" {
		t.Fatalf("opted-out widget should keep D1, got %s", got)
	}
	if got := ResolveAssetID(child, "A1", true); got != "A1" {
		t.Fatalf("device parameter must not replace an asset, got %s", got)
	}
}

func TestResolveAssetIDSubstitution(t *testing.T) {
	ctx := WithParameterContext(context.Background(), ParameterContext{ParameterID: "A7", ParameterType: ParameterAssetID})
	if got := ResolveAssetID(ctx, "A1", true); got != "A7" {
		t.Fatalf("expected A7, got %s", got)
	}
	if got := ResolveDeviceID(ctx, "D1", true); got != "D1" {
		t.Fatalf("asset parameter must not replace a device, got %s", got)
	}
}

func TestParseParameterContext(t *testing.T) {
	values := url.Values{}
	values.Set("parameterId", " D9 ")
	values.Set("parameterType", "deviceId")
	values.Set("parameterName", "Pump 9")
	params := ParseParameterContext(values)
	if params.ParameterID != "D9" || params.ParameterType != ParameterDeviceID || params.ParameterName != "Pump 9" {
		t.Fatalf("unexpected params %+v", params)
	}

	values.Set("parameterType", "siteId")
	if ParseParameterContext(values).IsSubDashboard() {
		t.Fatalf("unknown parameter type should not produce a sub-dashboard")
	}
}

func TestBuildDrillDownLink(t *testing.T) {
	cfg := SubDashboardConfig{ID: "s1", Name: "Pump detail", ParameterType: ParameterDeviceID, DashboardID: "dash-2"}
	link, err := BuildDrillDownLink(cfg, "D9", "Pump 9")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	parsed, err := url.Parse(link.URL)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if parsed.Path != "/dashboards/dash-2" {
		t.Fatalf("unexpected path %s", parsed.Path)
	}
	params := ParseParameterContext(parsed.Query())
	if params != link.Params {
		t.Fatalf("url params %+v do not round trip %+v", params, link.Params)
	}
	if link.Name != "Pump detail" || link.DashboardID != "dash-2" {
		t.Fatalf("unexpected link %+v", link)
	}
}

func TestBuildDrillDownLinkRequiresTargetAndID(t *testing.T) {
	if _, err := BuildDrillDownLink(SubDashboardConfig{ParameterType: ParameterDeviceID}, "D1", ""); err == nil {
		t.Fatalf("expected missing target error")
	}
	if _, err := BuildDrillDownLink(SubDashboardConfig{DashboardID: "d", ParameterType: ParameterDeviceID}, "", ""); err == nil {
		t.Fatalf("expected missing id error")
	}
	if _, err := BuildDrillDownLink(SubDashboardConfig{DashboardID: "d", ParameterType: "siteId"}, "S1", ""); err == nil {
		t.Fatalf("expected parameter type error")
	}
}

func TestDrillDownLinksFiltersByParameterType(t *testing.T) {
	behavior := Behavior{DrillDown: DrillDown{
		Enabled: true,
		SubDashboards: []SubDashboardConfig{
			{ID: "a", Name: "Device", ParameterType: ParameterDeviceID, DashboardID: "dev"},
			{ID: "b", Name: "Asset", ParameterType: ParameterAssetID, DashboardID: "asset"},
			{ID: "c", Name: "Broken", ParameterType: ParameterDeviceID},
		},
	}}
	links := DrillDownLinks(behavior, ParameterDeviceID, "D1", "")
	if len(links) != 1 || links[0].DashboardID != "dev" {
		t.Fatalf("unexpected links %+v", links)
	}
	if DrillDownLinks(Behavior{}, ParameterDeviceID, "D1", "") != nil {
		t.Fatalf("expected no links without drill-down")
	}
}

package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/selectors"
)

type stubResolver struct {
	calls  int
	params dashboard.ParameterContext
}

func (s *stubResolver) ResolveDashboard(ctx context.Context, _ dashboard.ViewerContext, id string) (dashboard.ResolvedDashboard, error) {
	s.calls++
	s.params = dashboard.ParameterContextFrom(ctx)
	return dashboard.ResolvedDashboard{Dashboard: dashboard.Dashboard{ID: id}}, nil
}

func (s *stubResolver) FetchWidget(ctx context.Context, _ dashboard.ViewerContext, _, widgetID string) (dashboard.ResolvedWidget, error) {
	s.calls++
	s.params = dashboard.ParameterContextFrom(ctx)
	return dashboard.ResolvedWidget{Widget: dashboard.Widget{ID: widgetID}}, nil
}

func TestDashboardQueryCarriesParameters(t *testing.T) {
	service := &stubResolver{}
	query := NewDashboardQuery(service)
	out, err := query.Query(context.Background(), DashboardInput{
		DashboardID: "child",
		Parameters:  dashboard.ParameterContext{ParameterID: "D9", ParameterType: dashboard.ParameterDeviceID},
	})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 {
		t.Fatalf("expected 1 call, got %d", service.calls)
	}
	assert.Equal(t, "child", out.Dashboard.ID)
	assert.True(t, service.params.IsSubDashboard())
	assert.Equal(t, "D9", service.params.ParameterID)
}

func TestWidgetQuery(t *testing.T) {
	service := &stubResolver{}
	query := NewWidgetQuery(service)
	out, err := query.Query(context.Background(), WidgetInput{DashboardID: "d1", WidgetID: "w1"})
	require.NoError(t, err)
	assert.Equal(t, "w1", out.Widget.ID)
	assert.False(t, service.params.IsSubDashboard())

	_, err = query.Query(context.Background(), WidgetInput{DashboardID: "d1"})
	require.Error(t, err)
}

type countingAssets struct {
	children map[string][]dashboard.Asset
	calls    map[string]int
}

func (c *countingAssets) RootAssets(ctx context.Context) ([]dashboard.Asset, error) {
	return c.AssetChildren(ctx, "")
}

func (c *countingAssets) Asset(context.Context, string) (dashboard.Asset, error) {
	return dashboard.Asset{}, nil
}

func (c *countingAssets) AssetChildren(_ context.Context, parentID string) ([]dashboard.Asset, error) {
	c.calls[parentID]++
	return c.children[parentID], nil
}

func TestAssetChildrenQueryFetchesOncePerNode(t *testing.T) {
	dir := &countingAssets{
		children: map[string][]dashboard.Asset{
			"":     {{ID: "site", Name: "Site", Path: "site"}},
			"site": {{ID: "bldg", ParentID: "site", Name: "Building", Path: "site.bldg", Level: 1}},
			"bldg": {},
		},
		calls: map[string]int{},
	}
	query := NewAssetChildrenQuery(selectors.NewAssetTreeSelector(dir))
	ctx := context.Background()

	roots, err := query.Query(ctx, AssetChildrenInput{})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.True(t, roots[0].HasChildren, "unexpanded nodes keep the expand affordance")

	for range 2 {
		nodes, err := query.Query(ctx, AssetChildrenInput{ParentID: "site"})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
	}
	assert.Equal(t, 1, dir.calls["site"])

	_, err = query.Query(ctx, AssetChildrenInput{ParentID: "bldg"})
	require.NoError(t, err)
	nodes, err := query.Query(ctx, AssetChildrenInput{ParentID: "site"})
	require.NoError(t, err)
	assert.False(t, nodes[0].HasChildren, "a cached empty child list hides the affordance")
}

func TestScopedAssetQueryUsesTenantTree(t *testing.T) {
	pool := selectors.NewAssetTreePool(&countingAssets{
		children: map[string][]dashboard.Asset{"": {{ID: "site"}}},
		calls:    map[string]int{},
	})
	query := NewScopedAssetChildrenQuery(func(v dashboard.ViewerContext) AssetTree {
		return pool.For(v.TenantID)
	})

	_, err := query.Query(context.Background(), AssetChildrenInput{Viewer: dashboard.ViewerContext{TenantID: "t1"}})
	require.NoError(t, err)
	_, err = query.Query(context.Background(), AssetChildrenInput{Viewer: dashboard.ViewerContext{TenantID: "t2"}})
	require.NoError(t, err)

	assert.NotSame(t, pool.For("t1"), pool.For("t2"))
	assert.True(t, pool.For("t1").HasChildren("site"))
}

func TestAssetQueryWithoutTree(t *testing.T) {
	_, err := NewAssetChildrenQuery(nil).Query(context.Background(), AssetChildrenInput{})
	assert.Error(t, err)
}

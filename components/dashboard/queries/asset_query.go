package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// AssetChildrenInput asks for the children of one asset node. An empty
// ParentID lists the roots.
type AssetChildrenInput struct {
	Viewer   dashboard.ViewerContext `json:"viewer"`
	ParentID string                  `json:"parentId"`
}

// AssetNode is an asset with the tree affordances a picker needs.
type AssetNode struct {
	dashboard.Asset
	HasChildren bool `json:"hasChildren"`
}

// AssetTree is the lazily expanded tree behind the asset picker. The
// selectors.AssetTreeSelector satisfies it.
type AssetTree interface {
	Roots(ctx context.Context) ([]dashboard.Asset, error)
	Expand(ctx context.Context, parentID string) ([]dashboard.Asset, error)
	HasChildren(id string) bool
}

// AssetChildrenQuery expands one node of the asset tree.
type AssetChildrenQuery struct {
	trees func(dashboard.ViewerContext) AssetTree
}

// NewAssetChildrenQuery builds the query over a single shared tree.
func NewAssetChildrenQuery(tree AssetTree) *AssetChildrenQuery {
	if tree == nil {
		return &AssetChildrenQuery{}
	}
	return &AssetChildrenQuery{trees: func(dashboard.ViewerContext) AssetTree { return tree }}
}

// NewScopedAssetChildrenQuery picks the tree per viewer so cached nodes never
// cross tenants.
func NewScopedAssetChildrenQuery(trees func(dashboard.ViewerContext) AssetTree) *AssetChildrenQuery {
	return &AssetChildrenQuery{trees: trees}
}

var _ gocommand.Querier[AssetChildrenInput, []AssetNode] = (*AssetChildrenQuery)(nil)

// Query returns the children of input.ParentID, fetched once per node.
func (q *AssetChildrenQuery) Query(ctx context.Context, input AssetChildrenInput) ([]AssetNode, error) {
	var tree AssetTree
	if q.trees != nil {
		tree = q.trees(input.Viewer)
	}
	if tree == nil {
		return nil, errors.New("asset query requires an asset tree")
	}
	if input.Viewer.UserID != "" || input.Viewer.TenantID != "" {
		ctx = dashboard.WithViewer(ctx, input.Viewer)
	}
	var (
		assets []dashboard.Asset
		err    error
	)
	if input.ParentID == "" {
		assets, err = tree.Roots(ctx)
	} else {
		assets, err = tree.Expand(ctx, input.ParentID)
	}
	if err != nil {
		return nil, err
	}
	nodes := make([]AssetNode, 0, len(assets))
	for _, a := range assets {
		nodes = append(nodes, AssetNode{Asset: a, HasChildren: tree.HasChildren(a.ID)})
	}
	return nodes, nil
}

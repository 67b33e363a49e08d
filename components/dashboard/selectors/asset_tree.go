package selectors

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

const rootKey = ""

// AssetTreeSelector browses the digital twin hierarchy one level at a time.
// Children are fetched once per node and kept until invalidated.
type AssetTreeSelector struct {
	dir    dashboard.AssetDirectory
	flight singleflight.Group

	mu       sync.RWMutex
	children map[string][]dashboard.Asset
	loading  map[string]bool
	expanded map[string]bool
	selected string
}

// NewAssetTreeSelector builds a selector over dir.
func NewAssetTreeSelector(dir dashboard.AssetDirectory) *AssetTreeSelector {
	return &AssetTreeSelector{
		dir:      dir,
		children: make(map[string][]dashboard.Asset),
		loading:  make(map[string]bool),
		expanded: make(map[string]bool),
	}
}

// Roots loads the top-level assets.
func (s *AssetTreeSelector) Roots(ctx context.Context) ([]dashboard.Asset, error) {
	return s.load(ctx, rootKey)
}

// Expand marks parentID expanded and returns its children, fetching them on
// first expansion only. Concurrent expansions of one node share a fetch.
func (s *AssetTreeSelector) Expand(ctx context.Context, parentID string) ([]dashboard.Asset, error) {
	if parentID == "" {
		return nil, errors.New("selectors: parent asset id is required")
	}
	children, err := s.load(ctx, parentID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.expanded[parentID] = true
	s.mu.Unlock()
	return children, nil
}

func (s *AssetTreeSelector) load(ctx context.Context, parentID string) ([]dashboard.Asset, error) {
	if s.dir == nil {
		return nil, errors.New("selectors: asset directory not configured")
	}
	s.mu.RLock()
	cached, ok := s.children[parentID]
	s.mu.RUnlock()
	if ok {
		return cloneAssets(cached), nil
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own ctx is done.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(parentID, func() (any, error) {
		s.mu.Lock()
		if cached, ok := s.children[parentID]; ok {
			s.mu.Unlock()
			return cached, nil
		}
		s.loading[parentID] = true
		s.mu.Unlock()

		var (
			assets []dashboard.Asset
			err    error
		)
		if parentID == rootKey {
			assets, err = s.dir.RootAssets(fetchCtx)
		} else {
			assets, err = s.dir.AssetChildren(fetchCtx, parentID)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.loading, parentID)
		if err != nil {
			return nil, err
		}
		if assets == nil {
			assets = []dashboard.Asset{}
		}
		s.children[parentID] = assets
		return assets, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneAssets(res.Val.([]dashboard.Asset)), nil
	}
}

// Collapse hides a node's children without discarding them.
func (s *AssetTreeSelector) Collapse(parentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.expanded, parentID)
}

// Expanded reports whether the node is currently expanded.
func (s *AssetTreeSelector) Expanded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expanded[id]
}

// IsLoading reports whether children of id are being fetched.
func (s *AssetTreeSelector) IsLoading(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[id]
}

// HasChildren is optimistic: it is true until a fetch proves the node is a leaf.
func (s *AssetTreeSelector) HasChildren(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	children, ok := s.children[id]
	return !ok || len(children) > 0
}

// Select toggles the selected asset and returns the new selection.
func (s *AssetTreeSelector) Select(id string) *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current *string
	if s.selected != "" {
		current = &s.selected
	}
	next := Toggle(current, id)
	if next == nil {
		s.selected = ""
	} else {
		s.selected = *next
	}
	return next
}

// Selected returns the selected asset id, or "" when nothing is selected.
func (s *AssetTreeSelector) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Invalidate drops cached children of parentID so the next expand refetches.
func (s *AssetTreeSelector) Invalidate(parentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.children, parentID)
}

func cloneAssets(in []dashboard.Asset) []dashboard.Asset {
	return append([]dashboard.Asset{}, in...)
}

// AssetTreePool keeps one AssetTreeSelector per tenant.
type AssetTreePool struct {
	dir dashboard.AssetDirectory

	mu    sync.Mutex
	trees map[string]*AssetTreeSelector
}

// NewAssetTreePool builds a pool over dir.
func NewAssetTreePool(dir dashboard.AssetDirectory) *AssetTreePool {
	return &AssetTreePool{dir: dir, trees: make(map[string]*AssetTreeSelector)}
}

// For returns the selector of tenantID, creating it on first use.
func (p *AssetTreePool) For(tenantID string) *AssetTreeSelector {
	p.mu.Lock()
	defer p.mu.Unlock()
	tree, ok := p.trees[tenantID]
	if !ok {
		tree = NewAssetTreeSelector(p.dir)
		p.trees[tenantID] = tree
	}
	return tree
}

package dashboard

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// VideoProvider validates the stream source and passes playback options through.
type VideoProvider struct{}

// NewVideoProvider builds the video player provider.
func NewVideoProvider() *VideoProvider { return &VideoProvider{} }

var videoSchemes = map[string]struct{}{"http": {}, "https": {}, "rtsp": {}, "rtmp": {}}

// Fetch has no remote call; it only checks the source URL.
func (p *VideoProvider) Fetch(_ context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[VideoPlayerConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(VideoPlayerConfig)
	if strings.TrimSpace(cfg.SourceURL) == "" {
		return nil, configurationError(WidgetVideoPlayer, "sourceUrl", "please enter a video source URL")
	}
	parsed, err := url.Parse(cfg.SourceURL)
	if err != nil || parsed.Host == "" {
		return nil, configurationError(WidgetVideoPlayer, "sourceUrl", "please enter a valid video source URL")
	}
	if _, ok := videoSchemes[strings.ToLower(parsed.Scheme)]; !ok {
		return nil, configurationError(WidgetVideoPlayer, "sourceUrl", fmt.Sprintf("unsupported video scheme %q", parsed.Scheme))
	}
	return WidgetData{
		"sourceUrl":  cfg.SourceURL,
		"sourceType": cfg.SourceType,
		"posterUrl":  cfg.PosterURL,
		"autoplay":   cfg.Autoplay,
		"muted":      boolValue(cfg.Muted, true),
		"controls":   boolValue(cfg.Controls, true),
		"loop":       cfg.Loop,
	}, nil
}

// DataTableProvider renders one aggregated row per device.
type DataTableProvider struct {
	query QueryClient
}

// NewDataTableProvider builds the data table provider.
func NewDataTableProvider(query QueryClient) *DataTableProvider {
	return &DataTableProvider{query: query}
}

// Fetch validates fields and source, then queries aggregated values.
func (p *DataTableProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[DataTableConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(DataTableConfig)
	fields := compactIDs(append(append([]string(nil), cfg.Fields...), meta.Widget.DataSource.FieldMappings...))
	if len(fields) == 0 {
		return nil, configurationError(WidgetDataTable, "fields", "please select at least one field")
	}
	source, err := resolveSource(ctx, sourceSpec{
		widgetType:   WidgetDataTable,
		sourceType:   cfg.SourceType,
		deviceIDs:    append(append([]string(nil), cfg.DeviceIDs...), meta.Widget.DataSource.DeviceIDs...),
		deviceTypeID: stringOr(cfg.DeviceTypeID, meta.Widget.DataSource.DeviceTypeID),
		assetID:      stringOr(cfg.AssetID, meta.Widget.DataSource.AssetID),
		useParameter: cfg.UseSubDashboardParameter,
	})
	if err != nil {
		return nil, err
	}
	if p.query == nil {
		return nil, errMissingQuery
	}
	result, err := p.query.Aggregated(ctx, AggregatedQuery{
		DeviceIDs:    source.DeviceIDs,
		DeviceTypeID: source.DeviceTypeID,
		AssetID:      source.AssetID,
		Fields:       fields,
		TimeRange:    cfg.TimeRange,
		Aggregation:  cfg.Aggregation,
		Interval:     cfg.Interval,
	})
	if err != nil {
		return nil, err
	}
	data := WidgetData{
		"columns":     append([]string{"device"}, fields...),
		"fields":      fields,
		"aggregation": cfg.Aggregation,
		"timeRange":   cfg.TimeRange,
		"pageSize":    intValue(cfg.PageSize, 25),
	}
	if len(result.Rows) == 0 {
		return EmptyData(data, "No data for the selected devices"), nil
	}
	rows := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		device := stringOr(row.DeviceName, row.DeviceID)
		cells := make(map[string]any, len(fields)+1)
		cells["device"] = device
		values := make([]string, 0, len(fields)+1)
		values = append(values, device)
		for _, f := range fields {
			text := "-"
			if v, ok := row.Values[f]; ok {
				text = FormatValue(v, 2)
			}
			cells[f] = text
			values = append(values, text)
		}
		rows = append(rows, map[string]any{"deviceId": row.DeviceID, "cells": cells, "values": values})
	}
	data["rows"] = rows
	return data, nil
}

// AssetTreeProvider renders the digital twin subtree under the configured root.
type AssetTreeProvider struct {
	assets AssetDirectory
}

// NewAssetTreeProvider builds the digital twin tree provider.
func NewAssetTreeProvider(assets AssetDirectory) *AssetTreeProvider {
	return &AssetTreeProvider{assets: assets}
}

// AssetNode is one rendered tree node.
type AssetNode struct {
	Asset
	TypeName    string      `json:"typeName"`
	Children    []AssetNode `json:"children,omitempty"`
	HasChildren bool        `json:"hasChildren"`
}

// Fetch walks children breadth-first down to MaxDepth levels.
func (p *AssetTreeProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, err := configAs[DigitalTwinTreeConfig](meta)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults().(DigitalTwinTreeConfig)
	if p.assets == nil {
		return nil, fmt.Errorf("dashboard: asset directory not configured")
	}
	maxDepth := intValue(cfg.MaxDepth, 3)
	if maxDepth < 1 {
		maxDepth = 1
	}
	rootID := ResolveAssetID(ctx, stringOr(cfg.RootAssetID, meta.Widget.DataSource.AssetID), cfg.UseSubDashboardParameter)
	var roots []Asset
	if rootID == "" {
		roots, err = p.assets.RootAssets(ctx)
	} else {
		var root Asset
		root, err = p.assets.Asset(ctx, rootID)
		roots = []Asset{root}
	}
	if err != nil {
		return nil, err
	}
	nodes := make([]AssetNode, 0, len(roots))
	total := 0
	for _, root := range roots {
		node, count, err := p.walk(ctx, root, maxDepth-1)
		if err != nil {
			return nil, err
		}
		total += count
		nodes = append(nodes, node)
	}
	data := WidgetData{
		"rootAssetId":     rootID,
		"maxDepth":        maxDepth,
		"showDeviceCount": boolValue(cfg.ShowDeviceCount, true),
	}
	if len(nodes) == 0 {
		return EmptyData(data, "No assets found"), nil
	}
	data["nodes"] = nodes
	data["nodeCount"] = total
	return data, nil
}

func (p *AssetTreeProvider) walk(ctx context.Context, asset Asset, depth int) (AssetNode, int, error) {
	node := AssetNode{Asset: asset, TypeName: asset.AssetType.String(), HasChildren: true}
	if depth <= 0 {
		return node, 1, nil
	}
	children, err := p.assets.AssetChildren(ctx, asset.ID)
	if err != nil {
		return AssetNode{}, 0, err
	}
	sort.SliceStable(children, func(i, j int) bool {
		return strings.ToLower(children[i].Name) < strings.ToLower(children[j].Name)
	})
	node.HasChildren = len(children) > 0
	count := 1
	for _, child := range children {
		childNode, n, err := p.walk(ctx, child, depth-1)
		if err != nil {
			return AssetNode{}, 0, err
		}
		count += n
		node.Children = append(node.Children, childNode)
	}
	return node, count, nil
}

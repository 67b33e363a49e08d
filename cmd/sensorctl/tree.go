package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/selectors"
	"github.com/goliatone/go-sensormine/pkg/sensormine"
)

type treeCmd struct {
	Root       string `help:"Start from this asset instead of the roots."`
	Depth      int    `default:"3" help:"Maximum depth to expand (0 for unlimited)."`
	ServerSide bool   `name:"server-side" help:"Load the subtree in one DigitalTwin call instead of expanding lazily."`
}

func (cmd *treeCmd) Run(g *Globals, ctx context.Context) error {
	cfg, logger, err := g.load("tree")
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	if cmd.ServerSide {
		if a.client == nil {
			return errors.New("sensorctl: --server-side needs the DigitalTwin service (not available in demo mode)")
		}
		nodes, err := a.client.DigitalTwin.Tree(ctx, cmd.Root)
		if err != nil {
			return err
		}
		printNodes(os.Stdout, nodes, cmd.Depth)
		return nil
	}
	return printTree(ctx, os.Stdout, a.trees.For(cfg.TenantID), cmd.Root, cmd.Depth)
}

// printTree expands the selector level by level, the way the asset picker does.
func printTree(ctx context.Context, out io.Writer, tree *selectors.AssetTreeSelector, root string, maxDepth int) error {
	var walk func(parentID string, depth int) error
	walk = func(parentID string, depth int) error {
		if maxDepth > 0 && depth >= maxDepth {
			return nil
		}
		var (
			children []dashboard.Asset
			err      error
		)
		if parentID == "" {
			children, err = tree.Roots(ctx)
		} else {
			children, err = tree.Expand(ctx, parentID)
		}
		if err != nil {
			return err
		}
		for _, child := range children {
			fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), assetLine(child))
			if err := walk(child.ID, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, 0)
}

func printNodes(out io.Writer, nodes []sensormine.AssetNode, maxDepth int) {
	for _, node := range nodes {
		base := node.Level
		node.Walk(func(n sensormine.AssetNode) bool {
			depth := n.Level - base
			if maxDepth > 0 && depth >= maxDepth {
				return true
			}
			fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), assetLine(n.Asset))
			return true
		})
	}
}

func assetLine(a dashboard.Asset) string {
	line := fmt.Sprintf("%s (%s) [%s]", a.Name, a.ID, a.AssetType)
	if a.DeviceCount > 0 {
		line += fmt.Sprintf(" devices=%d", a.DeviceCount)
	}
	return line
}

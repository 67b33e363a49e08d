package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/queries"
)

type renderCmd struct {
	Dashboard     string `arg:"" help:"Dashboard id."`
	Format        string `enum:"html,json" default:"html" help:"Output format."`
	Out           string `short:"o" type:"path" help:"Write to this file instead of stdout."`
	ParameterType string `name:"parameter-type" help:"Drill-through parameter type (deviceId or assetId)."`
	ParameterID   string `name:"parameter-id" help:"Drill-through parameter id."`
	Seed          bool   `help:"Seed starter templates before rendering."`
}

func (cmd *renderCmd) Run(g *Globals, ctx context.Context) error {
	cfg, logger, err := g.load("render")
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	if cmd.Seed {
		if err := a.seed(ctx); err != nil {
			return err
		}
	}

	var out io.Writer = os.Stdout
	if cmd.Out != "" {
		f, err := os.Create(cmd.Out) //nolint:gosec
		if err != nil {
			return fmt.Errorf("sensorctl: create %s: %w", cmd.Out, err)
		}
		defer f.Close()
		out = f
	}
	return a.render(ctx, g.viewer(cfg), cmd.Dashboard, cmd.parameters(), cmd.Format, out)
}

func (cmd *renderCmd) parameters() dashboard.ParameterContext {
	return dashboard.ParseParameterContext(url.Values{
		"parameterId":   {cmd.ParameterID},
		"parameterType": {cmd.ParameterType},
	})
}

func (a *app) render(ctx context.Context, viewer dashboard.ViewerContext, dashboardID string, params dashboard.ParameterContext, format string, out io.Writer) error {
	ctx = dashboard.WithParameterContext(ctx, params)
	if format == "json" {
		resolved, err := a.dashboardQuery().Query(ctx, queries.DashboardInput{
			Viewer:      viewer,
			DashboardID: dashboardID,
			Parameters:  params,
		})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resolved)
	}
	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return err
	}
	controller := dashboard.NewController(dashboard.ControllerOptions{Service: a.service, Renderer: renderer})
	return controller.RenderTemplate(ctx, viewer, dashboardID, out)
}

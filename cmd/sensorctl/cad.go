package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/cad"
)

type cadCmd struct {
	Dashboard string   `arg:"" help:"Dashboard id."`
	Widget    string   `arg:"" help:"CAD 3D viewer widget id."`
	Mesh      []string `help:"Extra mesh ids to treat as part of the model (mapped elements are always included)."`
	Click     string   `help:"Simulate a click on this mesh and print the popup."`
	Edit      bool     `help:"Click in edit mode instead of view mode."`
	Fetch     bool     `help:"Download the model through the model cache and report its size."`
}

func (cmd *cadCmd) Run(g *Globals, ctx context.Context) error {
	cfg, logger, err := g.load("cad")
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	return a.inspectCAD(dashboard.WithViewer(ctx, g.viewer(cfg)), cmd, os.Stdout)
}

type cadReport struct {
	ModelURL   string            `json:"modelUrl"`
	ModelBytes int               `json:"modelBytes,omitempty"`
	Mapped     int               `json:"mapped"`
	Colors     map[string]string `json:"colors"`
	Click      *cad.ClickResult  `json:"click,omitempty"`
}

func (a *app) inspectCAD(ctx context.Context, cmd *cadCmd, out io.Writer) error {
	board, err := a.service.GetDashboard(ctx, cmd.Dashboard)
	if err != nil {
		return err
	}
	widget, ok := board.Widget(cmd.Widget)
	if !ok {
		return fmt.Errorf("%w: %s", dashboard.ErrWidgetNotFound, cmd.Widget)
	}
	viewer, err := cad.NewViewer(cad.ViewerOptions{
		Widget: widget,
		Query:  a.query,
		Alerts: a.alerts,
		Logger: a.logger,
	})
	if err != nil {
		return err
	}
	cfg := viewer.Config()
	report := cadReport{ModelURL: cfg.ModelURL, Mapped: len(cfg.SensorMappings)}

	if cmd.Fetch && cfg.ModelURL != "" {
		handle, err := a.models.Acquire(ctx, cfg.ModelURL)
		if err != nil {
			return err
		}
		report.ModelBytes = len(handle.Data())
		handle.Release()
	}

	meshes := append([]string(nil), cmd.Mesh...)
	for _, m := range cfg.SensorMappings {
		meshes = append(meshes, m.ElementID)
	}
	viewer.Scene().Discover(meshes)

	if cmd.Click != "" {
		if cmd.Edit {
			viewer.SetMode(cad.ModeEdit)
		}
		res, err := viewer.Click(ctx, cmd.Click)
		if err != nil {
			return err
		}
		report.Click = res
	}
	report.Colors = viewer.Colors()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

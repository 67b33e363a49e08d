package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/selectors"
)

type devicesCmd struct {
	Types  bool   `help:"List device types instead of devices."`
	Fields string `placeholder:"DEVICE" help:"List the queryable fields of this device."`
	Type   string `name:"type" help:"Only devices of this device type id."`
	Asset  string `help:"Only devices under this asset id."`
	Search string `short:"s" help:"Case-insensitive name filter."`
	Limit  int    `default:"50" help:"Page size."`
}

func (cmd *devicesCmd) Run(g *Globals, ctx context.Context) error {
	cfg, logger, err := g.load("devices")
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	ctx = dashboard.WithViewer(ctx, g.viewer(cfg))
	return a.listDevices(ctx, os.Stdout, cmd)
}

func (a *app) listDevices(ctx context.Context, out io.Writer, cmd *devicesCmd) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch {
	case cmd.Fields != "":
		fields, err := selectors.NewDeviceFieldSelector(a.devices).Fields(ctx, cmd.Fields)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "FIELD\tLABEL\tTYPE\tUNIT")
		for _, f := range fields {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.FieldName, f.Label(), f.DataType, f.Unit)
		}
	case cmd.Types:
		opts, err := selectors.NewDeviceTypeSelector(a.devices, a.cfg.Cache.SelectorTTL).Options(ctx, cmd.Search)
		if err != nil {
			return err
		}
		printOptions(w, opts)
	default:
		opts, err := selectors.NewDeviceSelector(a.devices, a.cfg.Cache.SelectorTTL).Options(ctx, dashboard.DeviceFilter{
			DeviceTypeID: cmd.Type,
			AssetID:      cmd.Asset,
			Search:       cmd.Search,
			Page:         1,
			PageSize:     cmd.Limit,
		})
		if err != nil {
			return err
		}
		printOptions(w, opts)
	}
	return nil
}

func printOptions(w io.Writer, opts []selectors.Option) {
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, o := range opts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.Value, o.Label, o.Description)
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

type widgetsCmd struct {
	Manifest []string `type:"existingfile" help:"Extra manifests to load before listing."`
	Custom   bool     `help:"Only list custom components."`
}

func (cmd *widgetsCmd) Run(g *Globals, _ context.Context) error {
	cfg, logger, err := g.load("widgets")
	if err != nil {
		return err
	}
	cfg.Manifests = append(cfg.Manifests, cmd.Manifest...)
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	return a.listWidgets(os.Stdout, cmd.Custom)
}

// listWidgets prints the designer palette, loading configured manifests first.
func (a *app) listWidgets(out io.Writer, customOnly bool) error {
	for _, path := range a.cfg.Manifests {
		if _, err := a.widgets.LoadManifestFile(path); err != nil {
			return err
		}
	}
	defs := a.widgets.Definitions()
	if customOnly {
		defs = a.widgets.CustomComponents()
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "CODE\tNAME\tCATEGORY\tPROVIDER")
	for _, def := range defs {
		provider := "-"
		if _, ok := a.widgets.Provider(def.Code); ok {
			provider = "built-in"
		}
		if meta, ok := a.widgets.ProviderMetadata(def.Code); ok && meta.Entry != "" {
			provider = meta.Entry
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Code, def.Name, def.Category, provider)
	}
	return nil
}

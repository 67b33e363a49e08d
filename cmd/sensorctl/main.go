package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" help:"Serve dashboards over HTTP (fiber via go-router, or net/http via gorilla/mux)."`
	Render   renderCmd   `cmd:"" help:"Resolve a dashboard and render it to HTML or JSON."`
	Tree     treeCmd     `cmd:"" help:"Print the digital twin asset hierarchy."`
	Devices  devicesCmd  `cmd:"" help:"List devices, device types, or the fields of a device."`
	Watch    watchCmd    `cmd:"" help:"Poll a widget and print every state transition."`
	CAD      cadCmd      `cmd:"" name:"cad" help:"Inspect a CAD 3D viewer widget and simulate mesh clicks."`
	Widgets  widgetsCmd  `cmd:"" help:"List the widget palette, including manifest components."`
	Scaffold scaffoldCmd `cmd:"" help:"Scaffold a custom widget definition, provider stub, and manifest entry."`
}

// Globals are flags shared by every command.
type Globals struct {
	Config  string   `short:"c" type:"path" help:"YAML config file." env:"SENSORMINE_CONFIG"`
	EnvFile []string `name:"env-file" help:"Dotenv files loaded before the config (default .env)."`
	Demo    bool     `help:"Use the in-memory demo plant instead of the Sensormine services."`
	Tenant  string   `help:"Tenant id sent with every request."`
	User    string   `help:"User id sent with every request." default:"sensorctl"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app cli
	k := kong.Parse(&app,
		kong.Name("sensorctl"),
		kong.Description("Sensormine dashboard configuration and data-binding tool."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := k.Run(&app.Globals)
	k.FatalIfErrorf(err)
}

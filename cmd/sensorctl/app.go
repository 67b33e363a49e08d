package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/cad"
	"github.com/goliatone/go-sensormine/components/dashboard/commands"
	"github.com/goliatone/go-sensormine/components/dashboard/httpapi"
	"github.com/goliatone/go-sensormine/components/dashboard/queries"
	"github.com/goliatone/go-sensormine/components/dashboard/selectors"
	"github.com/goliatone/go-sensormine/pkg/config"
	"github.com/goliatone/go-sensormine/pkg/logging"
	"github.com/goliatone/go-sensormine/pkg/metrics"
	"github.com/goliatone/go-sensormine/pkg/sensormine"
)

// app holds everything a command needs, wired from one Config.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	widgets   *dashboard.Registry
	service   *dashboard.Service
	telemetry dashboard.Telemetry
	broadcast *dashboard.BroadcastHook
	executor  *httpapi.CommandExecutor

	query   dashboard.QueryClient
	devices dashboard.DeviceDirectory
	assets  dashboard.AssetDirectory
	alerts  dashboard.AlertSource
	trees   *selectors.AssetTreePool
	models  *cad.ModelCache

	// client is nil in demo mode.
	client *sensormine.Client
}

// load resolves config and logging for command.
func (g *Globals) load(command string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.LoadOptions{File: g.Config, DotEnv: g.EnvFile})
	if err != nil {
		return config.Config{}, nil, err
	}
	if g.Demo {
		cfg.Demo = true
	}
	if g.Tenant != "" {
		cfg.TenantID = g.Tenant
	}
	logger, err := logging.Bootstrap(logging.BootstrapOptions{
		Command: "sensorctl " + command,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// viewer is the identity the CLI acts as.
func (g *Globals) viewer(cfg config.Config) dashboard.ViewerContext {
	return dashboard.ViewerContext{UserID: g.User, TenantID: cfg.TenantID}
}

func newApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		widgets:   dashboard.NewRegistry(),
		broadcast: dashboard.NewBroadcastHook(),
	}
	a.telemetry = dashboard.MultiTelemetry{
		dashboard.LogTelemetry{Logger: logger},
		metrics.NewTelemetry(reg),
	}
	if err := metrics.RegisterSubscribers(reg, a.broadcast.Subscribers); err != nil {
		return nil, err
	}

	var (
		store dashboard.DashboardStore
		prefs dashboard.PreferenceStore
	)
	if cfg.Demo {
		mock := sensormine.NewDemoMock(time.Now)
		store, a.query, a.devices, a.assets, a.alerts = mock, mock, mock, mock, mock
		prefs = dashboard.NewInMemoryPreferenceStore()
		logger.Info("using demo plant", "tenant_id", cfg.TenantID)
	} else {
		a.client = sensormine.New(cfg.ClientOptions(logger, sensormine.NewMetrics(reg)))
		dir := sensormine.NewDirectory(a.client)
		store = sensormine.NewStore(a.client)
		a.query, a.devices, a.assets, a.alerts = a.client.Query, dir, dir, dir
		prefs = a.client.Preferences
	}
	a.trees = selectors.NewAssetTreePool(a.assets)

	charts := dashboard.NewChartRenderer(dashboard.WithChartCache(dashboard.NewChartCache(cfg.Cache.ChartTTL)))
	a.service = dashboard.NewService(dashboard.Options{
		Store:           store,
		Query:           a.query,
		Devices:         a.devices,
		Assets:          a.assets,
		Alerts:          a.alerts,
		PreferenceStore: prefs,
		Providers:       a.widgets,
		RefreshHook:     dashboard.RefreshHooks{a.broadcast, dashboard.LoggingHook{Logger: logger}},
		Telemetry:       a.telemetry,
		Logger:          logger,
		Charts:          charts,
		FetchTimeout:    cfg.Timeout,
	})
	if err := cad.Register(a.widgets); err != nil {
		return nil, fmt.Errorf("sensorctl: register cad provider: %w", err)
	}

	models, err := cad.NewModelCache(cfg.Cache.Models, cad.HTTPLoader(a.modelClient()))
	if err != nil {
		return nil, err
	}
	a.models = models
	a.executor = httpapi.NewCommandExecutor(a.service, a.telemetry)
	return a, nil
}

// modelClient downloads CAD models with the same retry policy as the
// service clients.
func (a *app) modelClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = a.cfg.Timeout
	client.RetryMax = a.cfg.Retry.Attempts - 1
	client.RetryWaitMin = a.cfg.Retry.Delay
	client.RetryWaitMax = a.cfg.Retry.Delay
	return client
}

// seed loads configured manifests and creates the starter templates when
// the store is empty.
func (a *app) seed(ctx context.Context) error {
	cmd := commands.NewSeedTemplatesCommand(a.widgets, a.service, a.telemetry)
	return cmd.Execute(ctx, commands.SeedTemplatesInput{Manifests: a.cfg.Manifests})
}

func (a *app) dashboardQuery() *queries.DashboardQuery {
	return queries.NewDashboardQuery(a.service)
}

func (a *app) widgetQuery() *queries.WidgetQuery {
	return queries.NewWidgetQuery(a.service)
}

func (a *app) assetQuery() *queries.AssetChildrenQuery {
	return queries.NewScopedAssetChildrenQuery(func(v dashboard.ViewerContext) queries.AssetTree {
		return a.trees.For(v.TenantID)
	})
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-sensormine/components/dashboard"
	"github.com/goliatone/go-sensormine/components/dashboard/gorouter"
	"github.com/goliatone/go-sensormine/components/dashboard/httpapi"
	"github.com/goliatone/go-sensormine/pkg/goadmin"
	"github.com/goliatone/go-sensormine/pkg/metrics"
)

type serveCmd struct {
	Addr        string `help:"Listen address (overrides http.addr)."`
	MetricsAddr string `name:"metrics-addr" help:"Metrics listen address, or off (overrides http.metrics_addr)."`
	Transport   string `help:"HTTP stack: fiber (go-router) or mux (gorilla/mux)."`
	Seed        bool   `default:"true" negatable:"" help:"Seed starter templates when the store is empty."`
}

func (cmd *serveCmd) Run(g *Globals, ctx context.Context) error {
	cfg, logger, err := g.load("serve")
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.HTTP.Addr = cmd.Addr
	}
	if cmd.MetricsAddr != "" {
		cfg.HTTP.MetricsAddr = cmd.MetricsAddr
	}
	if cmd.Transport != "" {
		cfg.HTTP.Transport = cmd.Transport
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	if cmd.Seed {
		if err := a.seed(ctx); err != nil {
			return fmt.Errorf("sensorctl: seed templates: %w", err)
		}
	}
	menu, err := a.navigation(ctx)
	if err != nil {
		return err
	}
	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		return err
	}
	controller := dashboard.NewController(dashboard.ControllerOptions{Service: a.service, Renderer: renderer})

	_, metricsErr := metrics.StartServer(ctx, cfg.HTTP.MetricsAddr, a.registry, logger)

	serveErr := make(chan error, 1)
	var shutdown func(context.Context) error
	switch cfg.HTTP.Transport {
	case "mux":
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           a.muxRouter(controller, menu),
			ReadHeaderTimeout: 5 * time.Second,
		}
		shutdown = srv.Shutdown
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()
	default:
		server := router.NewFiberAdapter()
		if err := gorouter.Register(gorouter.Config[*fiber.App]{
			Router:     server.Router(),
			Controller: controller,
			API:        a.executor,
			Broadcast:  a.broadcast,
			BasePath:   cfg.HTTP.BasePath,
		}); err != nil {
			return err
		}
		server.Router().Get(navigationPath(cfg.HTTP.BasePath), router.WrapHandler(func(c router.Context) error {
			return c.JSON(http.StatusOK, menu.Items(navigationMenu))
		}))
		shutdown = server.Shutdown
		go func() {
			if err := server.Serve(cfg.HTTP.Addr); err != nil {
				serveErr <- err
			}
			close(serveErr)
		}()
	}
	logger.Info("dashboards listening",
		"addr", cfg.HTTP.Addr,
		"transport", cfg.HTTP.Transport,
		"base_path", cfg.HTTP.BasePath,
		"demo", cfg.Demo,
	)

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	case err := <-metricsErr:
		return fmt.Errorf("sensorctl: metrics server: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return shutdown(shutdownCtx)
}

// muxRouter mounts the REST API, the refresh streams, the HTML pages and
// /metrics on a gorilla/mux router.
func (a *app) muxRouter(controller *dashboard.Controller, menu *goadmin.MemoryMenu) *mux.Router {
	base := strings.TrimSuffix(a.cfg.HTTP.BasePath, "/")
	r := mux.NewRouter()
	handlers := &httpapi.Handlers{
		API:       a.executor,
		Dashboard: a.dashboardQuery(),
		Widget:    a.widgetQuery(),
		Assets:    a.assetQuery(),
		Broadcast: a.broadcast,
		Logger:    a.logger,
	}
	handlers.Mount(r.PathPrefix(base + "/api").Subrouter())

	r.HandleFunc(base+"/dashboards/{id}", func(w http.ResponseWriter, req *http.Request) {
		ctx := dashboard.WithParameterContext(req.Context(), dashboard.ParseParameterContext(req.URL.Query()))
		var buf bytes.Buffer
		if err := controller.RenderTemplate(ctx, httpapi.HeaderViewer(req), mux.Vars(req)["id"], &buf); err != nil {
			http.Error(w, err.Error(), httpapi.StatusFor(err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}).Methods(http.MethodGet)
	r.HandleFunc(navigationPath(base), func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(menu.Items(navigationMenu))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(a.registry))
	return r
}

const navigationMenu = "sensormine.main"

func navigationPath(base string) string {
	return strings.TrimSuffix(base, "/") + "/api/navigation"
}

// navigation links every top-level dashboard into an in-memory admin menu.
func (a *app) navigation(ctx context.Context) (*goadmin.MemoryMenu, error) {
	menu := goadmin.NewMemoryMenu()
	admin, err := goadmin.New(goadmin.Config{
		EnableDashboard: true,
		MenuCode:        navigationMenu,
		MenuBuilder:     menu,
		Service:         a.service,
		BasePath:        a.cfg.HTTP.BasePath,
	})
	if err != nil {
		return nil, err
	}
	if err := admin.Bootstrap(ctx); err != nil {
		return nil, err
	}
	return menu, nil
}

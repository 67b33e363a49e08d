// Package sensormine is the typed REST client for the Sensormine
// microservices: Dashboard.API, Device.API, DigitalTwin.API, Query.API,
// Alerts.API and Preferences.API.
package sensormine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

// PlaceholderTenantID is sent when no tenant is known outside production.
const PlaceholderTenantID = "00000000-0000-0000-0000-000000000001"

const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryMax   = 2
	DefaultRetryDelay = time.Second
)

// Service names used in logs, metrics and errors.
const (
	ServiceDashboard   = "dashboard"
	ServiceDevice      = "device"
	ServiceDigitalTwin = "digitaltwin"
	ServiceQuery       = "query"
	ServiceAlerts      = "alerts"
	ServicePreferences = "preferences"
)

// Endpoints holds the base URL of every service.
type Endpoints struct {
	Dashboard   string `mapstructure:"dashboard" yaml:"dashboard"`
	Device      string `mapstructure:"device" yaml:"device"`
	DigitalTwin string `mapstructure:"digitaltwin" yaml:"digitaltwin"`
	Query       string `mapstructure:"query" yaml:"query"`
	Alerts      string `mapstructure:"alerts" yaml:"alerts"`
	Preferences string `mapstructure:"preferences" yaml:"preferences"`
}

func (e Endpoints) base(service string) string {
	switch service {
	case ServiceDashboard:
		return e.Dashboard
	case ServiceDevice:
		return e.Device
	case ServiceDigitalTwin:
		return e.DigitalTwin
	case ServiceQuery:
		return e.Query
	case ServiceAlerts:
		return e.Alerts
	case ServicePreferences:
		return e.Preferences
	default:
		return ""
	}
}

// Options configures a Client.
type Options struct {
	Endpoints Endpoints
	// Timeout bounds a single attempt.
	Timeout time.Duration
	// RetryMax is the number of retries after the first attempt. Zero uses
	// DefaultRetryMax, a negative value disables retries.
	RetryMax   int
	RetryDelay time.Duration
	// Production disables the placeholder tenant.
	Production bool
	// DefaultTenantID overrides PlaceholderTenantID outside production.
	DefaultTenantID string
	HTTPClient      *http.Client
	Logger          *slog.Logger
	Metrics         *Metrics
}

// Client issues requests against the Sensormine services.
type Client struct {
	opts Options
	http *retryablehttp.Client

	Dashboards  *DashboardAPI
	Devices     *DeviceAPI
	DigitalTwin *DigitalTwinAPI
	Query       *QueryAPI
	Alerts      *AlertsAPI
	Preferences *PreferencesAPI
}

// New builds a client with the shared request policy: a 30s timeout per
// attempt and up to three attempts spaced one second apart, retried on
// transport failures only.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	switch {
	case opts.RetryMax == 0:
		opts.RetryMax = DefaultRetryMax
	case opts.RetryMax < 0:
		opts.RetryMax = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.DefaultTenantID == "" {
		opts.DefaultTenantID = PlaceholderTenantID
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rc := retryablehttp.NewClient()
	if opts.HTTPClient != nil {
		hc := *opts.HTTPClient
		rc.HTTPClient = &hc
	}
	rc.HTTPClient.Timeout = opts.Timeout
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = opts.RetryDelay
	rc.RetryWaitMax = opts.RetryDelay
	rc.Logger = nil
	rc.CheckRetry = retryOnTransportError
	delay := opts.RetryDelay
	rc.Backoff = func(_, _ time.Duration, _ int, _ *http.Response) time.Duration { return delay }
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	logger := opts.Logger
	rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			logger.Warn("sensormine: retrying request", "method", req.Method, "url", req.URL.Redacted(), "attempt", attempt+1)
		}
	}

	c := &Client{opts: opts, http: rc}
	c.Dashboards = &DashboardAPI{c: c}
	c.Devices = &DeviceAPI{c: c}
	c.DigitalTwin = &DigitalTwinAPI{c: c}
	c.Query = &QueryAPI{c: c}
	c.Alerts = &AlertsAPI{c: c}
	c.Preferences = &PreferencesAPI{c: c}
	return c
}

// retryOnTransportError retries when no response was received. HTTP error
// statuses are final.
func retryOnTransportError(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	return err != nil, nil
}

// request describes one call.
type request struct {
	service string
	method  string
	path    string
	query   url.Values
	body    any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	base := strings.TrimRight(c.opts.Endpoints.base(r.service), "/")
	if base == "" {
		return fmt.Errorf("sensormine: %s service URL not configured", r.service)
	}
	target := base + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body any
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("sensormine: encode %s %s: %w", r.method, r.path, err)
		}
		body = raw
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("sensormine: build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	c.applyIdentity(ctx, req.Header)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.opts.Metrics.observe(r.service, r.method, "error", time.Since(started))
		c.opts.Logger.Error("sensormine: request failed", "service", r.service, "method", r.method, "path", r.path, "error", err)
		return transportError(r, err)
	}
	defer resp.Body.Close()
	c.opts.Metrics.observe(r.service, r.method, strconv.Itoa(resp.StatusCode), time.Since(started))

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(r, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(r, resp.StatusCode, payload)
		c.opts.Logger.Warn("sensormine: request rejected", "service", r.service, "method", r.method, "path", r.path, "status", resp.StatusCode)
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("sensormine: decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) applyIdentity(ctx context.Context, h http.Header) {
	viewer, _ := dashboard.ViewerFrom(ctx)
	if viewer.UserID != "" {
		h.Set("X-User-Id", viewer.UserID)
	}
	tenant := viewer.TenantID
	if tenant == "" && !c.opts.Production {
		tenant = c.opts.DefaultTenantID
	}
	if tenant != "" {
		h.Set("X-Tenant-Id", tenant)
	}
}

func (c *Client) get(ctx context.Context, service, path string, query url.Values, out any) error {
	return c.do(ctx, request{service: service, method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) send(ctx context.Context, service, method, path string, body, out any) error {
	return c.do(ctx, request{service: service, method: method, path: path, body: body}, out)
}

func escape(id string) string { return url.PathEscape(id) }

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("sensormine: " + kind + " id is required")
	}
	return nil
}

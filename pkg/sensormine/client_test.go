package sensormine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-sensormine/components/dashboard"
)

func everyService(base string) Endpoints {
	return Endpoints{Dashboard: base, Device: base, DigitalTwin: base, Query: base, Alerts: base, Preferences: base}
}

func testClient(t *testing.T, handler http.Handler, mutate ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts := Options{Endpoints: everyService(srv.URL), RetryDelay: time.Millisecond}
	for _, fn := range mutate {
		fn(&opts)
	}
	return New(opts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientSendsIdentityHeaders(t *testing.T) {
	var got http.Header
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, []dashboard.Dashboard{})
	}))

	ctx := dashboard.WithViewer(context.Background(), dashboard.ViewerContext{UserID: "u-1", TenantID: "t-9"})
	_, err := c.Dashboards.List(ctx, dashboard.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.Get("X-User-Id"))
	assert.Equal(t, "t-9", got.Get("X-Tenant-Id"))
	assert.NotEmpty(t, got.Get("X-Request-Id"))
}

func TestClientDefaultsTenantOutsideProduction(t *testing.T) {
	var tenant atomic.Value
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant.Store(r.Header.Get("X-Tenant-Id"))
		writeJSON(w, http.StatusOK, []dashboard.Dashboard{})
	})

	dev := testClient(t, handler)
	_, err := dev.Dashboards.List(context.Background(), dashboard.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, PlaceholderTenantID, tenant.Load())

	prod := testClient(t, handler, func(o *Options) { o.Production = true })
	_, err = prod.Dashboards.List(context.Background(), dashboard.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, "", tenant.Load())
}

func TestClientRetriesTransportFailures(t *testing.T) {
	var attempts atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		writeJSON(w, http.StatusOK, dashboard.Dashboard{ID: "d-1", Name: "Plant"})
	}))

	d, err := c.Dashboards.Get(context.Background(), "d-1")
	require.NoError(t, err)
	assert.Equal(t, "Plant", d.Name)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestClientGivesUpAfterThreeAttempts(t *testing.T) {
	var attempts atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err == nil {
			conn.Close()
		}
	}))

	_, err := c.Dashboards.Get(context.Background(), "d-1")
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, dashboard.KindNetwork, dashboard.ClassifyError(err))
	assert.True(t, dashboard.ClassifyError(err).Retryable())
}

func TestClientDoesNotRetryStatusErrors(t *testing.T) {
	cases := []struct {
		status int
		kind   dashboard.ErrorKind
	}{
		{http.StatusBadRequest, dashboard.KindValidation},
		{http.StatusUnauthorized, dashboard.KindAuthentication},
		{http.StatusForbidden, dashboard.KindAuthorization},
		{http.StatusNotFound, dashboard.KindNotFound},
		{http.StatusInternalServerError, dashboard.KindAPI},
		{http.StatusServiceUnavailable, dashboard.KindAPI},
		{http.StatusUnprocessableEntity, dashboard.KindAPI},
		{http.StatusGatewayTimeout, dashboard.KindAPI},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var attempts atomic.Int32
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				writeJSON(w, tc.status, map[string]string{"message": "nope"})
			}))

			_, err := c.Dashboards.Get(context.Background(), "d-1")
			require.Error(t, err)
			assert.Equal(t, int32(1), attempts.Load())
			assert.Equal(t, tc.kind, dashboard.ClassifyError(err))
			assert.False(t, dashboard.ClassifyError(err).Retryable())

			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestClientTimeoutIsClassified(t *testing.T) {
	release := make(chan struct{})
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}), func(o *Options) {
		o.Timeout = 20 * time.Millisecond
		o.RetryMax = -1
	})
	defer close(release)

	_, err := c.Dashboards.Get(context.Background(), "d-1")
	require.Error(t, err)
	assert.Equal(t, dashboard.KindTimeout, dashboard.ClassifyError(err))
}

func TestClientRequiresServiceURL(t *testing.T) {
	c := New(Options{})
	_, err := c.Dashboards.Get(context.Background(), "d-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard service URL not configured")
}

func TestClientRecordsRequestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []dashboard.Dashboard{})
	}), func(o *Options) { o.Metrics = metrics })

	_, err := c.Dashboards.List(context.Background(), dashboard.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.requests))
}

func TestProblemMessage(t *testing.T) {
	assert.Equal(t, "bad field", problemMessage([]byte(`{"title":"Bad Request","detail":"bad field"}`)))
	assert.Equal(t, "name: required", problemMessage([]byte(`{"errors":{"name":["required"]}}`)))
	assert.Equal(t, "plain text", problemMessage([]byte("plain text")))
	assert.Equal(t, "", problemMessage([]byte(`{}`)))

	long := strings.Repeat("a", 199) + "é" + "tail"
	msg := problemMessage([]byte(long))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("a", 199), msg)
	assert.Equal(t, strings.Repeat("b", 200), problemMessage([]byte(strings.Repeat("b", 300))))
}

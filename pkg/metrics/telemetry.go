// Package metrics exposes dashboard telemetry as Prometheus collectors.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-sensormine/components/dashboard"
)

const namespace = "sensormine"

// Telemetry counts dashboard events. It implements dashboard.Telemetry.
type Telemetry struct {
	events       *prometheus.CounterVec
	widgetErrors *prometheus.CounterVec
	resolved     prometheus.Histogram
}

var _ dashboard.Telemetry = (*Telemetry)(nil)

// NewTelemetry registers the collectors on reg. A nil reg uses the default
// registerer.
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Telemetry{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "events_total",
			Help:      "Dashboard and widget operations by event name.",
		}, []string{"event"}),
		widgetErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "widget_errors_total",
			Help:      "Widget data fetch failures by widget type and error kind.",
		}, []string{"type", "kind"}),
		resolved: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "resolved_widgets",
			Help:      "Widgets resolved per dashboard render.",
			Buckets:   []float64{1, 2, 4, 8, 12, 16, 24, 32},
		}),
	}
}

// Record implements dashboard.Telemetry.
func (t *Telemetry) Record(_ context.Context, event string, payload map[string]any) {
	if t == nil {
		return
	}
	t.events.WithLabelValues(event).Inc()
	switch event {
	case "dashboard.widget.provider_error":
		t.widgetErrors.WithLabelValues(label(payload["type"]), label(payload["kind"])).Inc()
	case "dashboard.resolve":
		if n, ok := payload["widgets"].(int); ok {
			t.resolved.Observe(float64(n))
		}
	}
}

// RegisterSubscribers exposes the live refresh subscriber count.
func RegisterSubscribers(reg prometheus.Registerer, count func() int) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "refresh_subscribers",
		Help:      "Open WebSocket and SSE refresh subscriptions.",
	}, func() float64 { return float64(count()) })
	if err := reg.Register(gauge); err != nil {
		return fmt.Errorf("metrics: register subscribers gauge: %w", err)
	}
	return nil
}

func label(v any) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return "unknown"
}

package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	defaultChartHeight = "360px"
	axisTimeLayout     = "01-02 15:04"
	missingPoint       = "-"
)

var sharedChartCache = NewChartCache(5 * time.Minute)

// ChartRenderer renders server-side go-echarts HTML for chart widgets.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// ChartRendererOption customizes the renderer.
type ChartRendererOption func(*ChartRenderer)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the default theme (Westeros otherwise).
func WithChartTheme(theme string) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN or local mount.
func WithChartAssetsHost(host string) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a renderer backed by the shared chart cache.
func NewChartRenderer(options ...ChartRendererOption) *ChartRenderer {
	r := &ChartRenderer{
		cache: sharedChartCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// ChartOptions carries per-widget display settings.
type ChartOptions struct {
	Title      string
	YAxisLabel string
	ShowLegend bool
	Theme      string
}

// TimeSeries renders series as a line, area, bar, or scatter chart.
func (r *ChartRenderer) TimeSeries(key, chartType string, series []TimeSeries, options ChartOptions) (string, error) {
	chartType = strings.ToLower(strings.TrimSpace(chartType))
	render := func() (string, error) {
		labels, aligned := alignSeries(series)
		switch chartType {
		case "", "line", "area":
			return r.renderLine(labels, aligned, options, chartType == "area")
		case "bar":
			return r.renderBar(labels, aligned, options)
		case "scatter":
			return r.renderScatter(labels, aligned, options)
		default:
			return "", fmt.Errorf("dashboard: unsupported chart type: %s", chartType)
		}
	}
	return r.cached(key, render)
}

// Gauge renders a single-value gauge scaled to the percent of [min, max].
func (r *ChartRenderer) Gauge(key, title, label string, value, min, max float64) (string, error) {
	return r.cached(key, func() (string, error) {
		gauge := charts.NewGauge()
		gauge.SetGlobalOptions(r.globalOptions(ChartOptions{Title: title})...)
		gauge.AddSeries(label, []opts.GaugeData{{Name: label, Value: GaugePercent(value, min, max)}})
		return renderChart(gauge)
	})
}

func (r *ChartRenderer) cached(key string, render func() (string, error)) (string, error) {
	if r.cache == nil || key == "" {
		return render()
	}
	return r.cache.GetOrRender(key, render)
}

type alignedSeries struct {
	name   string
	values []any
}

// alignSeries projects every series onto the union of their timestamps.
func alignSeries(series []TimeSeries) ([]string, []alignedSeries) {
	stamps := map[time.Time]struct{}{}
	for _, s := range series {
		for _, p := range s.Points {
			stamps[p.Timestamp.UTC()] = struct{}{}
		}
	}
	ordered := make([]time.Time, 0, len(stamps))
	for ts := range stamps {
		ordered = append(ordered, ts)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })
	index := make(map[time.Time]int, len(ordered))
	labels := make([]string, len(ordered))
	for i, ts := range ordered {
		index[ts] = i
		labels[i] = ts.Format(axisTimeLayout)
	}
	out := make([]alignedSeries, 0, len(series))
	for _, s := range series {
		values := make([]any, len(ordered))
		for i := range values {
			values[i] = missingPoint
		}
		for _, p := range s.Points {
			values[index[p.Timestamp.UTC()]] = p.Value
		}
		out = append(out, alignedSeries{name: seriesName(s, len(series)), values: values})
	}
	return labels, out
}

func seriesName(s TimeSeries, total int) string {
	name := s.DeviceName
	if name == "" {
		name = s.DeviceID
	}
	if total == 1 && s.Field != "" {
		return s.Field
	}
	if s.Field == "" {
		return name
	}
	return name + " · " + s.Field
}

func (r *ChartRenderer) renderLine(labels []string, series []alignedSeries, options ChartOptions, area bool) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(r.globalOptions(options)...)
	line.SetXAxis(labels)
	for _, s := range series {
		data := make([]opts.LineData, len(s.values))
		for i, v := range s.values {
			data[i] = opts.LineData{Name: labels[i], Value: v}
		}
		line.AddSeries(s.name, data)
	}
	seriesOpts := []charts.SeriesOpts{charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)})}
	if area {
		seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{}))
	}
	line.SetSeriesOptions(seriesOpts...)
	return renderChart(line)
}

func (r *ChartRenderer) renderBar(labels []string, series []alignedSeries, options ChartOptions) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(options)...)
	bar.SetXAxis(labels)
	for _, s := range series {
		data := make([]opts.BarData, len(s.values))
		for i, v := range s.values {
			data[i] = opts.BarData{Name: labels[i], Value: v}
		}
		bar.AddSeries(s.name, data)
	}
	return renderChart(bar)
}

func (r *ChartRenderer) renderScatter(labels []string, series []alignedSeries, options ChartOptions) (string, error) {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(r.globalOptions(options)...)
	scatter.SetXAxis(labels)
	for _, s := range series {
		data := make([]opts.ScatterData, 0, len(s.values))
		for i, v := range s.values {
			if v == missingPoint {
				continue
			}
			data = append(data, opts.ScatterData{Name: labels[i], Value: []any{labels[i], v}})
		}
		scatter.AddSeries(s.name, data)
	}
	return renderChart(scatter)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *ChartRenderer) globalOptions(options ChartOptions) []charts.GlobalOpts {
	theme := r.theme
	if options.Theme != "" {
		theme = options.Theme
	}
	initOpts := opts.Initialization{
		Theme:  theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	global := []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: options.Title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(options.ShowLegend)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	}
	if options.YAxisLabel != "" {
		global = append(global, charts.WithYAxisOpts(opts.YAxis{Name: options.YAxisLabel}))
	}
	return global
}

package dashboard

var (
	aggregationEnum = []any{AggregationAvg, AggregationSum, AggregationMin, AggregationMax, AggregationCount, AggregationLast}
	timeRangeEnum   = []any{TimeRangeLastHour, TimeRangeLast6h, TimeRangeLast24h, TimeRangeLast7d, TimeRangeLast30d}
	sourceTypeEnum  = []any{string(SourceDevice), string(SourceDeviceType), string(SourceAsset)}
	directionEnum   = []any{string(ThresholdAbove), string(ThresholdBelow)}
)

func str() map[string]any { return map[string]any{"type": "string"} }

func strEnum(values []any) map[string]any {
	return map[string]any{"type": "string", "enum": values}
}

func num() map[string]any { return map[string]any{"type": "number"} }

func boolean() map[string]any { return map[string]any{"type": "boolean"} }

func intRange(min, max int) map[string]any {
	return map[string]any{"type": "integer", "minimum": min, "maximum": max}
}

func strList() map[string]any {
	return map[string]any{"type": "array", "items": str()}
}

func objectSchema(props map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": props}
}

func sourceProps(extra map[string]any) map[string]any {
	props := map[string]any{
		"sourceType":               strEnum(sourceTypeEnum),
		"deviceId":                 str(),
		"deviceTypeId":             str(),
		"assetId":                  str(),
		"fieldName":                str(),
		"fieldFriendlyName":        str(),
		"aggregation":              strEnum(aggregationEnum),
		"timeRange":                strEnum(timeRangeEnum),
		"useSubDashboardParameter": boolean(),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

var colorPattern = map[string]any{"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Code:        string(WidgetKPI),
		Name:        "KPI Card",
		Description: "Single aggregated value with threshold and trend",
		Category:    "telemetry",
		Schema: objectSchema(sourceProps(map[string]any{
			"decimalPlaces":      intRange(0, 6),
			"unit":               str(),
			"prefix":             str(),
			"warningThreshold":   num(),
			"criticalThreshold":  num(),
			"thresholdDirection": strEnum(directionEnum),
			"showTrend":          boolean(),
		})),
	},
	{
		Code:        string(WidgetGauge),
		Name:        "Gauge",
		Description: "Latest value against a min/max range",
		Category:    "telemetry",
		Schema: objectSchema(sourceProps(map[string]any{
			"min":                num(),
			"max":                num(),
			"decimalPlaces":      intRange(0, 6),
			"unit":               str(),
			"style":              strEnum([]any{"radial", "linear"}),
			"warningThreshold":   num(),
			"criticalThreshold":  num(),
			"thresholdDirection": strEnum(directionEnum),
			"renderChart":        boolean(),
		})),
	},
	{
		Code:        string(WidgetTimeSeries),
		Name:        "Time Series Chart",
		Description: "Bucketed telemetry over time",
		Category:    "charts",
		Schema: objectSchema(sourceProps(map[string]any{
			"deviceIds":        strList(),
			"additionalFields": strList(),
			"chartType":        strEnum([]any{"line", "area", "bar", "scatter"}),
			"interval":         strEnum([]any{"1m", "5m", "15m", "1h", "6h", "1d"}),
			"yAxisLabel":       str(),
			"showLegend":       boolean(),
			"theme":            str(),
		})),
	},
	{
		Code:        string(WidgetMap),
		Name:        "Device Map",
		Description: "Device locations with live status",
		Category:    "devices",
		Schema: objectSchema(map[string]any{
			"deviceTypeId":             str(),
			"deviceIds":                strList(),
			"assetId":                  str(),
			"centerLat":                map[string]any{"type": "number", "minimum": -90, "maximum": 90},
			"centerLng":                map[string]any{"type": "number", "minimum": -180, "maximum": 180},
			"zoom":                     intRange(1, 20),
			"showStatus":               boolean(),
			"clusterMarkers":           boolean(),
			"useSubDashboardParameter": boolean(),
		}),
	},
	{
		Code:        string(WidgetDeviceList),
		Name:        "Device List",
		Description: "Paginated devices with status badges",
		Category:    "devices",
		Schema: objectSchema(map[string]any{
			"deviceTypeId":             str(),
			"assetId":                  str(),
			"columns":                  strList(),
			"pageSize":                 intRange(1, 100),
			"sortBy":                   strEnum([]any{"name", "deviceType", "status", "lastSeenAt"}),
			"sortDirection":            strEnum([]any{"asc", "desc"}),
			"search":                   str(),
			"showStatus":               boolean(),
			"useSubDashboardParameter": boolean(),
		}),
	},
	{
		Code:        string(WidgetVideoPlayer),
		Name:        "Video Player",
		Description: "Camera or recorded video stream",
		Category:    "media",
		Schema: objectSchema(map[string]any{
			"sourceUrl":  str(),
			"sourceType": strEnum([]any{"hls", "dash", "mp4", "rtsp", "webrtc"}),
			"deviceId":   str(),
			"posterUrl":  str(),
			"autoplay":   boolean(),
			"muted":      boolean(),
			"controls":   boolean(),
			"loop":       boolean(),
		}),
	},
	{
		Code:        string(WidgetCustom),
		Name:        "Custom Widget",
		Description: "Component registered through a widget manifest",
		Category:    "custom",
		Schema: objectSchema(map[string]any{
			"component":  str(),
			"properties": map[string]any{"type": "object"},
		}),
	},
	{
		Code:        string(WidgetCAD3DViewer),
		Name:        "3D CAD Viewer",
		Description: "CAD model with sensor-bound meshes",
		Category:    "digital-twin",
		Schema: objectSchema(map[string]any{
			"modelUrl":    str(),
			"modelFormat": strEnum([]any{"stl", "obj", "gltf", "glb"}),
			"sensorMappings": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"elementId", "sourceType"},
					"properties": map[string]any{
						"elementId":   str(),
						"elementName": str(),
						"sourceType":  strEnum([]any{string(SensorSourceDevice), string(SensorSourceAlert)}),
						"deviceId":    str(),
						"alertId":     str(),
						"fields": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":     "object",
								"required": []any{"fieldName"},
								"properties": map[string]any{
									"fieldName":  str(),
									"chartType":  str(),
									"timePeriod": str(),
								},
							},
						},
					},
				},
			},
			"defaultColor":   colorPattern,
			"activeColor":    colorPattern,
			"highlightColor": colorPattern,
			"cameraPosition": objectSchema(map[string]any{"x": num(), "y": num(), "z": num()}),
			"autoRotate":     boolean(),
			"showGrid":       boolean(),
		}),
	},
	{
		Code:        string(WidgetDataTable),
		Name:        "Data Table",
		Description: "Aggregated telemetry per device",
		Category:    "telemetry",
		Schema: objectSchema(map[string]any{
			"sourceType":               strEnum(sourceTypeEnum),
			"deviceIds":                strList(),
			"deviceTypeId":             str(),
			"assetId":                  str(),
			"fields":                   strList(),
			"timeRange":                strEnum(timeRangeEnum),
			"aggregation":              strEnum(aggregationEnum),
			"interval":                 str(),
			"pageSize":                 intRange(1, 200),
			"useSubDashboardParameter": boolean(),
		}),
	},
	{
		Code:        string(WidgetDigitalTwinTree),
		Name:        "Digital Twin Tree",
		Description: "Asset hierarchy browser",
		Category:    "digital-twin",
		Schema: objectSchema(map[string]any{
			"rootAssetId":              str(),
			"maxDepth":                 intRange(1, 10),
			"showDeviceCount":          boolean(),
			"useSubDashboardParameter": boolean(),
		}),
	},
}

// DefaultWidgetDefinitions returns a copy of the built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

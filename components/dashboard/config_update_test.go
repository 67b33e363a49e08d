package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kpiWidget(cfg KPIConfig) Widget {
	return Widget{ID: "w1", Type: WidgetKPI, Title: "Temp", Config: cfg}
}

func TestApplyConfigUpdatePreservesAbsentKeys(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1", FieldName: "temperature", Unit: "C"})
	updated, err := ApplyConfigUpdate(widget, map[string]any{"prefix": "~"})
	require.NoError(t, err)
	cfg := updated.Config.(KPIConfig)
	assert.Equal(t, "D1", cfg.DeviceID)
	assert.Equal(t, "temperature", cfg.FieldName)
	assert.Equal(t, "C", cfg.Unit)
	assert.Equal(t, "~", cfg.Prefix)
}

func TestApplyConfigUpdateIsIdempotent(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1", FieldName: "temperature"})
	patch := map[string]any{"deviceId": "D2", "warningThreshold": 30}
	once, err := ApplyConfigUpdate(widget, patch)
	require.NoError(t, err)
	twice, err := ApplyConfigUpdate(once, patch)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, 30.0, *twice.Config.(KPIConfig).WarningThreshold)
}

func TestApplyConfigUpdateSourceSwitchClearsFields(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1", FieldName: "temperature", FieldFriendlyName: "Temperature"})
	updated, err := ApplyConfigUpdate(widget, map[string]any{"deviceId": "D2"})
	require.NoError(t, err)
	cfg := updated.Config.(KPIConfig)
	assert.Equal(t, "D2", cfg.DeviceID)
	assert.Empty(t, cfg.FieldName)
	assert.Empty(t, cfg.FieldFriendlyName)
}

func TestApplyConfigUpdateSourceSwitchKeepsExplicitField(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1", FieldName: "temperature"})
	updated, err := ApplyConfigUpdate(widget, map[string]any{"deviceId": "D2", "fieldName": "humidity"})
	require.NoError(t, err)
	cfg := updated.Config.(KPIConfig)
	assert.Equal(t, "D2", cfg.DeviceID)
	assert.Equal(t, "humidity", cfg.FieldName)
}

func TestApplyConfigUpdateSameSourceKeepsFields(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1", FieldName: "temperature"})
	updated, err := ApplyConfigUpdate(widget, map[string]any{"deviceId": "D1"})
	require.NoError(t, err)
	assert.Equal(t, "temperature", updated.Config.(KPIConfig).FieldName)
}

func TestApplyConfigUpdateRestatingDefaultSourceKeepsFields(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1", FieldName: "temperature", FieldFriendlyName: "Temperature"})
	updated, err := ApplyConfigUpdate(widget, map[string]any{"sourceType": "device"})
	require.NoError(t, err)
	cfg := updated.Config.(KPIConfig)
	assert.Equal(t, SourceDevice, cfg.SourceType)
	assert.Equal(t, "temperature", cfg.FieldName)
	assert.Equal(t, "Temperature", cfg.FieldFriendlyName)

	switched, err := ApplyConfigUpdate(widget, map[string]any{"sourceType": "deviceType", "deviceTypeId": "T1"})
	require.NoError(t, err)
	assert.Empty(t, switched.Config.(KPIConfig).FieldName)
}

func TestApplyConfigUpdateClearsAdditionalFields(t *testing.T) {
	widget := Widget{ID: "w2", Type: WidgetTimeSeries, Config: TimeSeriesConfig{
		DeviceIDs:        []string{"D1"},
		DeviceTypeID:     "pump",
		FieldName:        "flow",
		AdditionalFields: []string{"pressure"},
	}}
	updated, err := ApplyConfigUpdate(widget, map[string]any{"deviceTypeId": "valve"})
	require.NoError(t, err)
	cfg := updated.Config.(TimeSeriesConfig)
	assert.Equal(t, "valve", cfg.DeviceTypeID)
	assert.Empty(t, cfg.FieldName)
	assert.Empty(t, cfg.AdditionalFields)
}

func TestApplyConfigUpdateNilDeletesKey(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1", Unit: "C", WarningThreshold: f64(10)})
	updated, err := ApplyConfigUpdate(widget, map[string]any{"unit": nil, "warningThreshold": nil})
	require.NoError(t, err)
	cfg := updated.Config.(KPIConfig)
	assert.Empty(t, cfg.Unit)
	assert.Nil(t, cfg.WarningThreshold)
	assert.Equal(t, "D1", cfg.DeviceID)
}

func TestApplyConfigUpdateRejectsBadTypes(t *testing.T) {
	widget := kpiWidget(KPIConfig{DeviceID: "D1"})
	_, err := ApplyConfigUpdate(widget, map[string]any{"decimalPlaces": "two"})
	assert.Error(t, err)
}

func TestMergeConfigDoesNotMutateInputs(t *testing.T) {
	current := map[string]any{"deviceId": "D1", "fieldName": "temp"}
	patch := map[string]any{"deviceId": "D2"}
	merged := MergeConfig(current, patch)
	assert.Equal(t, "D1", current["deviceId"])
	assert.Equal(t, "temp", current["fieldName"])
	assert.Equal(t, map[string]any{"deviceId": "D2"}, merged)
}

package dashboard

import (
	"errors"
	"testing"
)

func TestJSONSchemaValidatorRejectsInvalidPayload(t *testing.T) {
	validator := NewJSONSchemaValidator()
	def := WidgetDefinition{
		Code: "demo.widget.string_required",
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"name"},
			"properties": map[string]any{
				"name": map[string]any{"type": "string", "minLength": 1},
			},
		},
	}
	if err := validator.Validate(def, map[string]any{"name": "Boiler room"}); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
	err := validator.Validate(def, map[string]any{})
	if err == nil {
		t.Fatalf("expected validation error for missing name")
	}
	if kind := ClassifyError(err); kind != KindValidation {
		t.Fatalf("expected validation kind, got %s", kind)
	}
}

func TestJSONSchemaValidatorCachesCompiledSchemas(t *testing.T) {
	validator := NewJSONSchemaValidator()
	def := WidgetDefinition{
		Code:   "demo.widget.cache",
		Schema: map[string]any{"type": "object"},
	}
	if err := validator.Validate(def, nil); err != nil {
		t.Fatalf("unexpected error validating config: %v", err)
	}
	if len(validator.compiled) != 1 {
		t.Fatalf("expected schema cache to contain 1 entry, got %d", len(validator.compiled))
	}
	if err := validator.Validate(def, map[string]any{}); err != nil {
		t.Fatalf("unexpected error on cached validation: %v", err)
	}
	if len(validator.compiled) != 1 {
		t.Fatalf("expected schema cache to remain 1 entry, got %d", len(validator.compiled))
	}
}

func TestDefaultDefinitionsCompileAndAcceptDefaults(t *testing.T) {
	validator := NewJSONSchemaValidator()
	reg := NewRegistry()
	for _, widgetType := range WidgetTypes() {
		def, ok := reg.Definition(string(widgetType))
		if !ok {
			t.Fatalf("missing definition for %s", widgetType)
		}
		cfg, err := DefaultConfig(widgetType)
		if err != nil {
			t.Fatalf("default config for %s: %v", widgetType, err)
		}
		values, err := ConfigMap(cfg)
		if err != nil {
			t.Fatalf("config map for %s: %v", widgetType, err)
		}
		if err := validator.Validate(def, values); err != nil {
			t.Fatalf("defaults for %s rejected: %v", widgetType, err)
		}
	}
}

func TestValidateWidgetRejectsEnumViolations(t *testing.T) {
	reg := NewRegistry()
	widget := Widget{ID: "w1", Type: WidgetKPI, Config: KPIConfig{FieldName: "temperature", Aggregation: "median"}}
	err := ValidateWidget(NewJSONSchemaValidator(), reg, widget)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if schemaErr.Code != string(WidgetKPI) {
		t.Fatalf("expected kpi schema, got %s", schemaErr.Code)
	}
}

func TestValidateWidgetRejectsMismatchedConfig(t *testing.T) {
	widget := Widget{ID: "w1", Type: WidgetGauge, Config: KPIConfig{}}
	if err := ValidateWidget(NewJSONSchemaValidator(), NewRegistry(), widget); !errors.Is(err, ErrConfigTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
}

func TestValidateWidgetChecksCustomComponentSchema(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterDefinition(WidgetDefinition{
		Code: "acme.pump-curve",
		Name: "Pump Curve",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"pumpId"},
		},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	validator := NewJSONSchemaValidator()
	widget := Widget{ID: "c1", Type: WidgetCustom, Config: CustomConfig{
		Component:  "acme.pump-curve",
		Properties: map[string]any{"pumpId": "P-7"},
	}}
	if err := ValidateWidget(validator, reg, widget); err != nil {
		t.Fatalf("expected valid custom widget, got %v", err)
	}
	widget.Config = CustomConfig{Component: "acme.pump-curve", Properties: map[string]any{}}
	if err := ValidateWidget(validator, reg, widget); err == nil {
		t.Fatalf("expected missing pumpId to fail")
	}
	widget.Config = CustomConfig{Component: "acme.unknown"}
	if err := ValidateWidget(validator, reg, widget); !IsConfigurationError(err) {
		t.Fatalf("expected configuration error for unknown component, got %v", err)
	}
}

func TestJSONSchemaValidatorRecompilesRedefinedSchema(t *testing.T) {
	validator := NewJSONSchemaValidator()
	v1 := WidgetDefinition{Code: "acme.gauge", Schema: map[string]any{
		"type":     "object",
		"required": []any{"deviceId"},
	}}
	v2 := WidgetDefinition{Code: "acme.gauge", Schema: map[string]any{"type": "object"}}

	if err := validator.Validate(v1, map[string]any{}); err == nil {
		t.Fatalf("expected missing deviceId to fail")
	}
	if err := validator.Validate(v2, map[string]any{}); err != nil {
		t.Fatalf("redefined schema should accept empty config: %v", err)
	}
	if len(validator.compiled) != 2 {
		t.Fatalf("expected one compiled schema per revision, got %d", len(validator.compiled))
	}
}

func TestJSONSchemaValidatorBadSchemaIsConfigurationError(t *testing.T) {
	validator := NewJSONSchemaValidator()
	def := WidgetDefinition{Code: "acme.broken", Schema: map[string]any{"type": 42}}
	err := validator.Validate(def, map[string]any{})
	if !IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

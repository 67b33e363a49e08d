package dashboard

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigValidator validates widget configuration payloads against their schema.
type ConfigValidator interface {
	Validate(def WidgetDefinition, config map[string]any) error
}

// JSONSchemaValidator compiles widget schemas and validates configuration maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks config against the definition schema. Definitions without a
// schema accept anything.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, config map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	payload, err := jsonValue(config)
	if err != nil {
		return fmt.Errorf("dashboard: normalize config for %s: %w", def.Code, err)
	}
	if err := schema.Validate(payload); err != nil {
		return &SchemaError{Code: def.Code, Err: err}
	}
	return nil
}

// jsonValue round-trips config through encoding/json so typed values (structs,
// int fields, pointers) look the way the schema validator expects.
func jsonValue(config map[string]any) (any, error) {
	if config == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SchemaError reports a widget config that does not satisfy its definition schema.
type SchemaError struct {
	Code string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dashboard: configuration for %s failed validation: %v", e.Code, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Kind classifies schema failures as validation errors.
func (e *SchemaError) Kind() string { return string(KindValidation) }

// ValidateWidget checks the type/config invariant, then the definition schema.
// Custom widgets are also checked against the schema of their component.
func ValidateWidget(validator ConfigValidator, defs ProviderRegistry, widget Widget) error {
	if err := widget.Validate(); err != nil {
		return err
	}
	if validator == nil || defs == nil {
		return nil
	}
	config, err := ConfigMap(widget.Config)
	if err != nil {
		return err
	}
	if def, ok := defs.Definition(string(widget.Type)); ok {
		if err := validator.Validate(def, config); err != nil {
			return err
		}
	}
	custom, ok := widget.Config.(CustomConfig)
	if !ok {
		if ptr, isPtr := widget.Config.(*CustomConfig); isPtr && ptr != nil {
			custom, ok = *ptr, true
		}
	}
	if !ok || custom.Component == "" {
		return nil
	}
	def, found := defs.Definition(custom.Component)
	if !found {
		return configurationError(WidgetCustom, "component", fmt.Sprintf("unknown custom widget component %q", custom.Component))
	}
	return validator.Validate(def, custom.Properties)
}

// schemaFor compiles def.Schema once per code and schema content, so a
// manifest that redefines a component picks up its new schema.
func (v *JSONSchemaValidator) schemaFor(def WidgetDefinition) (*jsonschema.Schema, error) {
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Code, err)
	}
	sum := sha1.Sum(data)
	key := def.Code + "@" + hex.EncodeToString(sum[:8])

	v.mu.RLock()
	schema, ok := v.compiled[key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	compiler := jsonschema.NewCompiler()
	name := def.Code + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Code, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, configurationError(WidgetCustom, "schema", fmt.Sprintf("dashboard: schema for %s does not compile: %v", def.Code, err))
	}
	v.mu.Lock()
	v.compiled[key] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopConfigValidator struct{}

func (noopConfigValidator) Validate(WidgetDefinition, map[string]any) error { return nil }

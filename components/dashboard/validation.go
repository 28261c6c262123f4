package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PropsValidator validates widget props against the widget type's schema.
type PropsValidator interface {
	Validate(def WidgetDefinition, props Props) error
}

// JSONSchemaValidator compiles widget schemas and validates props.
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

// Validate ensures the provided props satisfy the widget schema.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, props Props) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	payload, err := normalizeProps(props)
	if err != nil {
		return fmt.Errorf("dashboard: props for %s: %w", def.Code, err)
	}
	if payload == nil {
		payload = Props{}
	}
	if err := schema.Validate(map[string]any(payload)); err != nil {
		return fmt.Errorf("dashboard: props for %s failed validation: %w", def.Code, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(def WidgetDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Code]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Code, err)
	}
	compiler := jsonschema.NewCompiler()
	name := def.Code + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Code, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Code, err)
	}
	v.mu.Lock()
	v.compiled[def.Code] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// normalizeProps round-trips props through JSON so stored layouts only hold
// JSON-native values (map[string]any, []any, float64, string, bool, nil).
func normalizeProps(props Props) (Props, error) {
	if props == nil {
		return nil, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("props are not JSON serializable: %w", err)
	}
	var out Props
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("props are not JSON serializable: %w", err)
	}
	return out, nil
}

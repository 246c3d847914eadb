package application

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"rawg-mcp-server/internal/domain"
)

// argumentValidator checks tool arguments against each tool's input schema
// before any network I/O happens.
type argumentValidator struct {
	schemas map[string]*jsonschema.Resolved
}

// newArgumentValidator resolves the input schema of every tool once.
func newArgumentValidator(tools []domain.ToolDefinition) (*argumentValidator, error) {
	schemas := make(map[string]*jsonschema.Resolved, len(tools))
	for _, tool := range tools {
		if tool.InputSchema == nil {
			continue
		}
		resolved, err := tool.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve input schema for %s: %w", tool.Name, err)
		}
		schemas[tool.Name] = resolved
	}
	return &argumentValidator{schemas: schemas}, nil
}

// Validate returns a validation error when args do not satisfy the schema of
// tool. Tools without a schema accept anything.
func (v *argumentValidator) Validate(tool string, args map[string]interface{}) error {
	resolved, ok := v.schemas[tool]
	if !ok {
		return nil
	}

	instance := map[string]any{}
	for key, value := range args {
		instance[key] = value
	}

	if err := resolved.Validate(instance); err != nil {
		return &domain.CatalogError{
			Kind:    domain.KindValidation,
			Message: fmt.Sprintf("invalid arguments for %s", tool),
			Err:     err,
		}
	}
	return nil
}

// objectSchema builds a closed object schema: unknown properties are rejected.
func objectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	if properties == nil {
		properties = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

func stringProperty(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: description,
	}
}

// pageSizeProperty documents the bounds without enforcing them; out of range
// values are clamped by the handler and null selects the default.
func pageSizeProperty(description string, defaultSize int) *jsonschema.Schema {
	return &jsonschema.Schema{
		Types:       []string{"integer", "null"},
		Description: fmt.Sprintf("%s (between %d and %d, default %d)", description, minPageSize, maxPageSize, defaultSize),
	}
}

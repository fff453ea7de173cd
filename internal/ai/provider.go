// Package ai talks to hosted language models for the assistant features.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ErrProviderFailed wraps the last provider error once every configured
// provider has been tried.
var ErrProviderFailed = errors.New("ai provider failed")

// Request is one structured-output generation.
type Request struct {
	Prompt     string
	SchemaName string
	Schema     map[string]any // JSON Schema of the expected reply; nil for free text
}

// Provider is a single hosted model.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// generateSchema reflects v into a strict, inlined JSON Schema map.
func generateSchema(v any) (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	// Strict structured output rejects the draft marker.
	delete(schemaMap, "$schema")
	return schemaMap, nil
}

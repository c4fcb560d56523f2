package agent

import (
	"strings"
	"testing"
)

func TestValidateToolArguments(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city":  map[string]any{"type": "string"},
			"days":  map[string]any{"type": "integer"},
			"topic": map[string]any{"type": "string", "enum": []any{"tech", "sports"}},
		},
		"required":             []any{"city"},
		"additionalProperties": false,
	}

	scenarios := []struct {
		name      string
		schema    map[string]any
		arguments map[string]any
		wantError string
	}{
		{
			name:      "valid arguments",
			schema:    schema,
			arguments: map[string]any{"city": "Paris", "days": 3},
		},
		{
			name:      "missing required argument",
			schema:    schema,
			arguments: map[string]any{"days": 3},
			wantError: `missing required argument "city"`,
		},
		{
			name:      "wrong argument type",
			schema:    schema,
			arguments: map[string]any{"city": 42},
			wantError: `argument "city" must be "string"`,
		},
		{
			name:      "unknown argument rejected",
			schema:    schema,
			arguments: map[string]any{"city": "Paris", "mood": "sunny"},
			wantError: `unknown argument "mood"`,
		},
		{
			name:      "enum accepts listed value",
			schema:    schema,
			arguments: map[string]any{"city": "Paris", "topic": "tech"},
		},
		{
			name:      "enum rejects unlisted value",
			schema:    schema,
			arguments: map[string]any{"city": "Paris", "topic": "gossip"},
			wantError: `argument "topic" is not one of the allowed values`,
		},
		{
			name:      "integer accepts whole float from json decoding",
			schema:    schema,
			arguments: map[string]any{"city": "Paris", "days": float64(7)},
		},
		{
			name:      "integer rejects fractional float",
			schema:    schema,
			arguments: map[string]any{"city": "Paris", "days": 7.5},
			wantError: `argument "days" must be "integer"`,
		},
		{
			name:      "empty schema accepts anything",
			schema:    nil,
			arguments: map[string]any{"whatever": []any{1, 2, 3}},
		},
		{
			name: "additional properties allowed by default",
			schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
			},
			arguments: map[string]any{"query": "x", "limit": 10},
		},
		{
			name: "malformed required clause",
			schema: map[string]any{
				"required": "city",
			},
			arguments: map[string]any{"city": "Paris"},
			wantError: `"required" must be an array`,
		},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			err := validateToolArguments(scenario.schema, scenario.arguments)
			if scenario.wantError == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), scenario.wantError) {
				t.Fatalf("expected error containing %q, got %v", scenario.wantError, err)
			}
		})
	}
}

func TestMatchesToolArgumentType(t *testing.T) {
	t.Parallel()

	if !matchesToolArgumentType("array", []any{"a"}) {
		t.Fatalf("slice must satisfy array")
	}
	if matchesToolArgumentType("array", nil) {
		t.Fatalf("nil must not satisfy array")
	}
	if !matchesToolArgumentType("object", map[string]any{"k": "v"}) {
		t.Fatalf("map must satisfy object")
	}
	if !matchesToolArgumentType("number", 1.5) {
		t.Fatalf("float must satisfy number")
	}
	if matchesToolArgumentType("boolean", "true") {
		t.Fatalf("string must not satisfy boolean")
	}
}

func TestNormalizedToolErrorResult(t *testing.T) {
	t.Parallel()

	call := ToolCall{ID: "call-1", Name: "get_weather"}
	result := normalizedToolErrorResult(call, ToolFailureReasonUnknownTool, nil)
	if result.Content != string(ToolFailureReasonUnknownTool) {
		t.Fatalf("unexpected content: %q", result.Content)
	}
	if !result.IsError || result.CallID != "call-1" || result.Name != "get_weather" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

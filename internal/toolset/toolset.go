// Package toolset registers the built-in demo tools: canned weather lookups,
// an arithmetic calculator, a contacts directory, and news headlines.
package toolset

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"agentloop/agent"
	"agentloop/tooling/registry"
)

type weatherReport struct {
	TempC     int    `json:"temp_c"`
	Condition string `json:"condition"`
	Humidity  int    `json:"humidity"`
}

var weatherByCity = map[string]weatherReport{
	"bengaluru": {TempC: 28, Condition: "Partly Cloudy", Humidity: 65},
	"delhi":     {TempC: 42, Condition: "Extreme Heat", Humidity: 25},
	"mumbai":    {TempC: 32, Condition: "Humid", Humidity: 80},
	"london":    {TempC: 15, Condition: "Rainy", Humidity: 90},
}

type contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

var contactsByName = map[string]contact{
	"alice":   {Phone: "+91-9876543210", Email: "alice@example.com"},
	"bob":     {Phone: "+91-9123456789", Email: "bob@example.com"},
	"charlie": {Phone: "+91-9988776655", Email: "charlie@example.com"},
}

var newsByTopic = map[string]string{
	"tech":   "AI startup raises $100M",
	"sports": "India wins cricket series",
}

// Register adds every built-in tool to the registry.
func Register(r *registry.Registry) error {
	tools := []struct {
		definition agent.ToolDefinition
		handler    registry.Handler
	}{
		{
			definition: agent.ToolDefinition{
				Name:        "get_weather",
				Description: "Get current weather for a city. Returns temp_c, condition, humidity.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city": map[string]any{
							"type":        "string",
							"description": "City name",
						},
					},
					"required":             []any{"city"},
					"additionalProperties": false,
				},
			},
			handler: getWeather,
		},
		{
			definition: agent.ToolDefinition{
				Name:        "calculate",
				Description: "Evaluate a mathematical expression and return the result",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"expression": map[string]any{
							"type":        "string",
							"description": "Math expression, e.g. '42 - 28'",
						},
					},
					"required":             []any{"expression"},
					"additionalProperties": false,
				},
			},
			handler: calculate,
		},
		{
			definition: agent.ToolDefinition{
				Name:        "search_contacts",
				Description: "Search for a contact by name to get their phone number and email",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Name of the contact to search for",
						},
					},
					"required":             []any{"name"},
					"additionalProperties": false,
				},
			},
			handler: searchContacts,
		},
		{
			definition: agent.ToolDefinition{
				Name:        "get_news",
				Description: "Get the latest news headline for a topic",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic": map[string]any{
							"type": "string",
							"enum": []any{"tech", "sports"},
						},
					},
					"required":             []any{"topic"},
					"additionalProperties": false,
				},
			},
			handler: getNews,
		},
	}

	for _, tool := range tools {
		if err := r.Register(tool.definition, tool.handler); err != nil {
			return fmt.Errorf("register toolset: %w", err)
		}
	}
	return nil
}

func getWeather(_ context.Context, arguments map[string]any) (string, error) {
	city, _ := arguments["city"].(string)
	report, ok := weatherByCity[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return "", fmt.Errorf("no weather data for %q", city)
	}
	encoded, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func calculate(_ context.Context, arguments map[string]any) (string, error) {
	expression, _ := arguments["expression"].(string)
	result, err := evaluate(expression)
	if err != nil {
		return "", fmt.Errorf("cannot calculate %q: %w", expression, err)
	}
	encoded, err := json.Marshal(map[string]any{
		"expression": expression,
		"result":     result,
	})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func searchContacts(_ context.Context, arguments map[string]any) (string, error) {
	name, _ := arguments["name"].(string)
	found, ok := contactsByName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("contact %q not found", name)
	}
	encoded, err := json.Marshal(found)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func getNews(_ context.Context, arguments map[string]any) (string, error) {
	topic, _ := arguments["topic"].(string)
	headline, ok := newsByTopic[strings.ToLower(strings.TrimSpace(topic))]
	if !ok {
		return "", fmt.Errorf("no news for topic %q", topic)
	}
	return headline, nil
}

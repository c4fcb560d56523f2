// Package anthropic adapts the loop's backend contract to the Anthropic
// Messages API over plain HTTP.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentloop/agent"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultMaxTokens = 1024
	defaultTimeout   = 60 * time.Second

	maxResponseBody = 2 << 20
)

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

type Adapter struct {
	apiKey      string
	model       string
	endpointURL string
	maxTokens   int
	httpClient  *http.Client
}

var _ agent.Backend = (*Adapter)(nil)

func New(cfg Config) (*Adapter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new backend adapter: api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, fmt.Errorf("new backend adapter: model is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &Adapter{
		apiKey:      apiKey,
		model:       model,
		endpointURL: strings.TrimRight(baseURL, "/") + messagesPath,
		maxTokens:   maxTokens,
		httpClient:  httpClient,
	}, nil
}

func (a *Adapter) Complete(ctx context.Context, request agent.Request) (agent.Message, error) {
	requestPayload, err := buildRequest(a.model, a.maxTokens, request)
	if err != nil {
		return agent.Message{}, fmt.Errorf("backend request: %w", err)
	}

	encoded, err := json.Marshal(requestPayload)
	if err != nil {
		return agent.Message{}, fmt.Errorf("backend request encode: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpointURL, bytes.NewReader(encoded))
	if err != nil {
		return agent.Message{}, fmt.Errorf("backend request build: %w", err)
	}
	httpRequest.Header.Set("X-API-Key", a.apiKey)
	httpRequest.Header.Set("Anthropic-Version", anthropicVersion)
	httpRequest.Header.Set("Content-Type", "application/json")

	response, err := a.httpClient.Do(httpRequest)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return agent.Message{}, ctxErr
		}
		return agent.Message{}, fmt.Errorf("%w: %v", agent.ErrBackendUnavailable, err)
	}
	defer response.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBody))
	if err != nil {
		return agent.Message{}, fmt.Errorf("%w: read response: %v", agent.ErrBackendUnavailable, err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return agent.Message{}, fmt.Errorf(
			"%w: status=%d body=%s",
			agent.ErrBackendUnavailable,
			response.StatusCode,
			string(bodyBytes),
		)
	}

	var parsed messageResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return agent.Message{}, fmt.Errorf("backend response decode: %w", err)
	}

	return toAgentMessage(parsed)
}

// messageRequest follows the Anthropic Messages API contract.
type messageRequest struct {
	Model     string         `json:"model"`
	System    string         `json:"system,omitempty"`
	Messages  []messageParam `json:"messages"`
	Tools     []toolParam    `json:"tools,omitempty"`
	MaxTokens int            `json:"max_tokens"`
}

type messageParam struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock is a union for text, tool_use, and tool_result blocks.
type contentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

type toolParam struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type messageResponse struct {
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func buildRequest(model string, maxTokens int, request agent.Request) (messageRequest, error) {
	system, messages, err := toAnthropicMessages(request.Messages)
	if err != nil {
		return messageRequest{}, err
	}

	var tools []toolParam
	if len(request.Tools) > 0 {
		tools = make([]toolParam, len(request.Tools))
		for i := range request.Tools {
			schema := request.Tools[i].InputSchema
			if schema == nil {
				schema = map[string]any{"type": "object"}
			}
			tools[i] = toolParam{
				Name:        request.Tools[i].Name,
				Description: request.Tools[i].Description,
				InputSchema: schema,
			}
		}
	}

	return messageRequest{
		Model:     model,
		System:    system,
		Messages:  messages,
		Tools:     tools,
		MaxTokens: maxTokens,
	}, nil
}

// toAnthropicMessages folds the transcript into Anthropic turns: the system
// prompt moves to the top-level field, tool-role messages become user turns
// carrying tool_result blocks, and assistant tool calls become tool_use blocks.
func toAnthropicMessages(messages []agent.Message) (string, []messageParam, error) {
	var system string
	out := make([]messageParam, 0, len(messages))

	for i := range messages {
		message := messages[i]
		switch message.Role {
		case agent.RoleSystem:
			if system == "" {
				system = message.Content
			} else {
				system = system + "\n\n" + message.Content
			}
		case agent.RoleUser:
			out = append(out, messageParam{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: message.Content}},
			})
		case agent.RoleAssistant:
			blocks := make([]contentBlock, 0, 1+len(message.ToolCalls))
			if message.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: message.Content})
			}
			for _, call := range message.ToolCalls {
				input := call.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, contentBlock{
					Type:  "tool_use",
					ID:    call.ID,
					Name:  call.Name,
					Input: input,
				})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, contentBlock{Type: "text", Text: ""})
			}
			out = append(out, messageParam{Role: "assistant", Content: blocks})
		case agent.RoleTool:
			if message.ToolCallID == "" {
				return "", nil, fmt.Errorf("encode messages: tool message at index %d missing tool_call_id", i)
			}
			block := contentBlock{
				Type:      "tool_result",
				ToolUseID: message.ToolCallID,
				Content:   message.Content,
			}
			// Consecutive tool results share one user turn, as the API requires.
			if len(out) > 0 && out[len(out)-1].Role == "user" && isToolResultTurn(out[len(out)-1]) {
				out[len(out)-1].Content = append(out[len(out)-1].Content, block)
			} else {
				out = append(out, messageParam{Role: "user", Content: []contentBlock{block}})
			}
		default:
			return "", nil, fmt.Errorf("unsupported message role %q", message.Role)
		}
	}

	return system, out, nil
}

func isToolResultTurn(turn messageParam) bool {
	for _, block := range turn.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return len(turn.Content) > 0
}

func toAgentMessage(response messageResponse) (agent.Message, error) {
	if response.Role != "" && response.Role != "assistant" {
		return agent.Message{}, fmt.Errorf("expected assistant message role, got %q", response.Role)
	}

	var text strings.Builder
	var toolCalls []agent.ToolCall
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			input := block.Input
			if input == nil {
				input = map[string]any{}
			}
			toolCalls = append(toolCalls, agent.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: input,
			})
		}
	}

	return agent.Message{
		Role:      agent.RoleAssistant,
		Content:   text.String(),
		ToolCalls: toolCalls,
	}, nil
}

package agent

import "context"

// Request is the minimal backend input contract required by the loop.
type Request struct {
	Messages []Message
	Tools    []ToolDefinition
}

// Backend produces assistant messages that may include tool calls.
// Implementations must be safe for concurrent use by multiple loops.
type Backend interface {
	Complete(ctx context.Context, request Request) (Message, error)
}

// ToolExecutor resolves and executes tool calls.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) (ToolResult, error)
}

// ToolRegistry combines declaration listing with execution. Registries are
// read-only during a loop run and safe for concurrent use.
type ToolRegistry interface {
	ToolExecutor
	Declarations() []ToolDefinition
}

// EventSink receives normalized loop events.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// Package registry maps tool names to declarations and handlers, presenting a
// uniform invocation surface to the agent loop regardless of how each tool's
// schema was produced.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"agentloop/agent"
)

var (
	ErrToolUnregistered      = errors.New("tool is not registered")
	ErrToolAlreadyRegistered = errors.New("tool is already registered")
	ErrNilHandler            = errors.New("tool handler is nil")
	ErrToolNameEmpty         = errors.New("tool name is empty")
)

// Handler executes one tool call using parsed arguments. The returned string
// is serialized into the tool-role message content.
type Handler func(ctx context.Context, arguments map[string]any) (string, error)

type entry struct {
	definition agent.ToolDefinition
	handler    Handler
}

// Registry stores declarations and handlers by tool name and executes tool
// calls. Registration is a one-time setup step; the registry is read-only
// during loop runs and safe for concurrent use by multiple loops.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ agent.ToolRegistry = (*Registry)(nil)

func New() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Register adds one tool. The definition name wins over any zero value;
// duplicate names are rejected so loop dispatch stays unambiguous.
func (r *Registry) Register(definition agent.ToolDefinition, handler Handler) error {
	if definition.Name == "" {
		return ErrToolNameEmpty
	}
	if handler == nil {
		return fmt.Errorf("%w: %q", ErrNilHandler, definition.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[definition.Name]; exists {
		return fmt.Errorf("%w: %q", ErrToolAlreadyRegistered, definition.Name)
	}
	cloned := agent.CloneToolDefinitions([]agent.ToolDefinition{definition})
	r.entries[definition.Name] = entry{
		definition: cloned[0],
		handler:    handler,
	}
	return nil
}

// Get resolves one registered tool by name.
func (r *Registry) Get(name string) (agent.ToolDefinition, Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current, ok := r.entries[name]
	if !ok {
		return agent.ToolDefinition{}, nil, fmt.Errorf("%w: %q", ErrToolUnregistered, name)
	}
	cloned := agent.CloneToolDefinitions([]agent.ToolDefinition{current.definition})
	return cloned[0], current.handler, nil
}

// Declarations returns cloned tool definitions, sorted by name for
// deterministic backend requests.
func (r *Registry) Declarations() []agent.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]agent.ToolDefinition, 0, len(r.entries))
	for _, current := range r.entries {
		out = append(out, current.definition)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return agent.CloneToolDefinitions(out)
}

// Execute dispatches one tool call to its handler. Handler panics are
// converted to errors so a misbehaving tool stays a recoverable conversation
// event rather than a crashed run.
func (r *Registry) Execute(ctx context.Context, call agent.ToolCall) (result agent.ToolResult, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return agent.ToolResult{}, ctxErr
	}
	if call.Name == "" {
		return agent.ToolResult{}, fmt.Errorf("%w: call %q", ErrToolNameEmpty, call.ID)
	}

	r.mu.RLock()
	current, ok := r.entries[call.Name]
	r.mu.RUnlock()
	if !ok {
		return agent.ToolResult{}, fmt.Errorf("%w: %q", ErrToolUnregistered, call.Name)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result = agent.ToolResult{}
			err = fmt.Errorf("tool %q panicked: %v", call.Name, recovered)
		}
	}()

	content, err := current.handler(ctx, call.Arguments)
	if err != nil {
		return agent.ToolResult{}, err
	}

	return agent.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
	}, nil
}

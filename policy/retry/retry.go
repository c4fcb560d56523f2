// Package retry decorates backends and tool executors with deterministic,
// error-only retries. Cancellation is never retried.
package retry

import (
	"context"
	"errors"

	"agentloop/agent"
)

// Config controls retry behavior for wrapped backend and tool execution calls.
type Config struct {
	MaxAttempts int
	ShouldRetry func(error) bool
}

// WrapBackend wraps a backend with deterministic, error-only retries.
func WrapBackend(backend agent.Backend, cfg Config) agent.Backend {
	if backend == nil {
		return nil
	}
	return &backendWrapper{
		next: backend,
		cfg:  cfg,
	}
}

type backendWrapper struct {
	next agent.Backend
	cfg  Config
}

func (w *backendWrapper) Complete(ctx context.Context, request agent.Request) (agent.Message, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return agent.Message{}, ctxErr
	}

	attempts := normalizedAttempts(w.cfg.MaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		msg, err := w.next.Complete(ctx, request)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if attempt == attempts || !shouldRetry(ctx, w.cfg, err) {
			break
		}
	}
	return agent.Message{}, lastErr
}

// WrapToolExecutor wraps a tool executor with deterministic, error-only retries.
func WrapToolExecutor(executor agent.ToolExecutor, cfg Config) agent.ToolExecutor {
	if executor == nil {
		return nil
	}
	return &toolExecutorWrapper{
		next: executor,
		cfg:  cfg,
	}
}

type toolExecutorWrapper struct {
	next agent.ToolExecutor
	cfg  Config
}

func (w *toolExecutorWrapper) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return agent.ToolResult{}, ctxErr
	}

	attempts := normalizedAttempts(w.cfg.MaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := w.next.Execute(ctx, call)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == attempts || !shouldRetry(ctx, w.cfg, err) {
			break
		}
	}
	return agent.ToolResult{}, lastErr
}

func normalizedAttempts(maxAttempts int) int {
	if maxAttempts < 1 {
		return 1
	}
	return maxAttempts
}

func shouldRetry(ctx context.Context, cfg Config, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if cfg.ShouldRetry == nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		return true
	}
	return cfg.ShouldRetry(err)
}

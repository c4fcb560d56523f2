package retry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"agentloop/agent"
	"agentloop/backend/backendtest"
	"agentloop/policy/retry"
)

func TestWrapBackendRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	unavailable := fmt.Errorf("%w: status=503", agent.ErrBackendUnavailable)
	backend := backendtest.NewScripted(
		backendtest.Response{Err: unavailable},
		backendtest.Response{Err: unavailable},
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "third time lucky"}},
	)

	wrapped := retry.WrapBackend(backend, retry.Config{MaxAttempts: 3})
	message, err := wrapped.Complete(context.Background(), agent.Request{
		Messages: []agent.Message{{Role: agent.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if message.Content != "third time lucky" {
		t.Fatalf("unexpected message: %+v", message)
	}
	if backend.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", backend.Calls())
	}
}

func TestWrapBackendStopsAtMaxAttempts(t *testing.T) {
	t.Parallel()

	unavailable := fmt.Errorf("%w: status=503", agent.ErrBackendUnavailable)
	backend := backendtest.NewScripted(
		backendtest.Response{Err: unavailable},
		backendtest.Response{Err: unavailable},
	)

	wrapped := retry.WrapBackend(backend, retry.Config{MaxAttempts: 2})
	_, err := wrapped.Complete(context.Background(), agent.Request{})
	if !errors.Is(err, agent.ErrBackendUnavailable) {
		t.Fatalf("expected last error, got %v", err)
	}
	if backend.Calls() != 2 {
		t.Fatalf("expected 2 attempts, got %d", backend.Calls())
	}
}

func TestWrapBackendNeverRetriesCancellation(t *testing.T) {
	t.Parallel()

	backend := backendtest.NewScripted(
		backendtest.Response{Err: context.Canceled},
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "never reached"}},
	)

	wrapped := retry.WrapBackend(backend, retry.Config{MaxAttempts: 3})
	_, err := wrapped.Complete(context.Background(), agent.Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if backend.Calls() != 1 {
		t.Fatalf("cancellation must not be retried, got %d attempts", backend.Calls())
	}
}

func TestWrapBackendHonorsShouldRetry(t *testing.T) {
	t.Parallel()

	permanent := errors.New("bad request")
	backend := backendtest.NewScripted(
		backendtest.Response{Err: permanent},
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "never reached"}},
	)

	wrapped := retry.WrapBackend(backend, retry.Config{
		MaxAttempts: 3,
		ShouldRetry: func(err error) bool {
			return errors.Is(err, agent.ErrBackendUnavailable)
		},
	})
	_, err := wrapped.Complete(context.Background(), agent.Request{})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if backend.Calls() != 1 {
		t.Fatalf("non-retryable error must not be retried, got %d attempts", backend.Calls())
	}
}

type countingExecutor struct {
	failures int
	calls    int
}

func (e *countingExecutor) Execute(_ context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	e.calls++
	if e.calls <= e.failures {
		return agent.ToolResult{}, errors.New("transient")
	}
	return agent.ToolResult{CallID: call.ID, Name: call.Name, Content: "ok"}, nil
}

func TestWrapToolExecutorRetries(t *testing.T) {
	t.Parallel()

	executor := &countingExecutor{failures: 1}
	wrapped := retry.WrapToolExecutor(executor, retry.Config{MaxAttempts: 2})

	result, err := wrapped.Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "echo"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.Content != "ok" || executor.calls != 2 {
		t.Fatalf("unexpected outcome: %+v calls=%d", result, executor.calls)
	}
}

func TestWrapToolExecutorPreCancelledContext(t *testing.T) {
	t.Parallel()

	executor := &countingExecutor{}
	wrapped := retry.WrapToolExecutor(executor, retry.Config{MaxAttempts: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := wrapped.Execute(ctx, agent.ToolCall{ID: "c1", Name: "echo"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if executor.calls != 0 {
		t.Fatalf("executor must not run after cancellation")
	}
}

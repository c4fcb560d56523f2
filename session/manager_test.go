package session_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"agentloop/agent"
	"agentloop/backend/backendtest"
	"agentloop/session"
	"agentloop/tooling/registry"
)

func newManager(t *testing.T, backend agent.Backend) (*session.Manager, *session.Store) {
	t.Helper()

	loop, err := agent.New(backend, registry.New(), nil)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}
	store := session.NewStore()
	manager, err := session.NewManager(loop, store)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager, store
}

func TestNewManagerValidation(t *testing.T) {
	t.Parallel()

	loop, err := agent.New(backendtest.NewScripted(), registry.New(), nil)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}
	if _, err := session.NewManager(nil, session.NewStore()); !errors.Is(err, session.ErrMissingLoop) {
		t.Fatalf("expected ErrMissingLoop, got %v", err)
	}
	if _, err := session.NewManager(loop, nil); !errors.Is(err, session.ErrMissingStore) {
		t.Fatalf("expected ErrMissingStore, got %v", err)
	}
}

func TestManagerStartPersistsFirstTurn(t *testing.T) {
	t.Parallel()

	backend := backendtest.NewScripted(backendtest.Response{
		Message: agent.Message{Role: agent.RoleAssistant, Content: "hello there"},
	})
	manager, _ := newManager(t, backend)

	result, err := manager.Start(context.Background(), session.StartInput{
		SessionID:    "s1",
		SystemPrompt: "be friendly",
		UserPrompt:   "hi",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Output != "hello there" {
		t.Fatalf("unexpected output: %q", result.Output)
	}
	if result.RunID != "s1-turn-001" {
		t.Fatalf("unexpected run id: %q", result.RunID)
	}

	record, err := manager.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.Turns != 1 || record.LastStatus != agent.RunStatusCompleted {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(record.Messages) != 3 {
		t.Fatalf("unexpected transcript length: %d", len(record.Messages))
	}
}

func TestManagerStartAssignsSessionID(t *testing.T) {
	t.Parallel()

	backend := backendtest.NewScripted(
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "one"}},
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "two"}},
	)
	manager, _ := newManager(t, backend)

	first, err := manager.Start(context.Background(), session.StartInput{UserPrompt: "a"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := manager.Start(context.Background(), session.StartInput{UserPrompt: "b"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.HasPrefix(first.RunID, "session-") || first.RunID == second.RunID {
		t.Fatalf("assigned ids must be unique: %q vs %q", first.RunID, second.RunID)
	}
}

func TestManagerFollowUpCarriesHistory(t *testing.T) {
	t.Parallel()

	backend := backendtest.NewScripted(
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "Hello Alice."}},
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "Your name is Alice."}},
	)
	manager, _ := newManager(t, backend)

	ctx := context.Background()
	if _, err := manager.Start(ctx, session.StartInput{
		SessionID:    "s1",
		SystemPrompt: "remember things",
		UserPrompt:   "My name is Alice.",
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := manager.FollowUp(ctx, session.FollowUpInput{
		SessionID:  "s1",
		UserPrompt: "What is my name?",
	})
	if err != nil {
		t.Fatalf("follow up: %v", err)
	}
	if result.Output != "Your name is Alice." {
		t.Fatalf("unexpected output: %q", result.Output)
	}
	if result.RunID != "s1-turn-002" {
		t.Fatalf("unexpected run id: %q", result.RunID)
	}

	// The second backend request sees the entire first turn.
	requests := backend.Requests()
	if len(requests) != 2 {
		t.Fatalf("expected 2 backend requests, got %d", len(requests))
	}
	wantSecond := []agent.Message{
		{Role: agent.RoleSystem, Content: "remember things"},
		{Role: agent.RoleUser, Content: "My name is Alice."},
		{Role: agent.RoleAssistant, Content: "Hello Alice."},
		{Role: agent.RoleUser, Content: "What is my name?"},
	}
	if diff := cmp.Diff(wantSecond, requests[1].Messages); diff != "" {
		t.Fatalf("second request messages mismatch (-want +got):\n%s", diff)
	}
}

func TestManagerFollowUpValidation(t *testing.T) {
	t.Parallel()

	manager, _ := newManager(t, backendtest.NewScripted())
	ctx := context.Background()

	if _, err := manager.FollowUp(ctx, session.FollowUpInput{UserPrompt: "x"}); !errors.Is(err, session.ErrSessionIDEmpty) {
		t.Fatalf("expected ErrSessionIDEmpty, got %v", err)
	}
	if _, err := manager.FollowUp(ctx, session.FollowUpInput{SessionID: "ghost", UserPrompt: "x"}); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerPersistsFailedTurns(t *testing.T) {
	t.Parallel()

	unavailable := fmt.Errorf("%w: status=503", agent.ErrBackendUnavailable)
	backend := backendtest.NewScripted(
		backendtest.Response{Err: unavailable},
		backendtest.Response{Message: agent.Message{Role: agent.RoleAssistant, Content: "recovered"}},
	)
	manager, _ := newManager(t, backend)
	ctx := context.Background()

	_, err := manager.Start(ctx, session.StartInput{SessionID: "s1", UserPrompt: "hi"})
	if !errors.Is(err, agent.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}

	record, err := manager.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("failed turn must still be persisted: %v", err)
	}
	if record.LastStatus != agent.RunStatusFailed || record.Turns != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}

	// The session remains usable for a follow-up after the failure.
	result, err := manager.FollowUp(ctx, session.FollowUpInput{SessionID: "s1", UserPrompt: "hi again"})
	if err != nil {
		t.Fatalf("follow up: %v", err)
	}
	if result.Output != "recovered" {
		t.Fatalf("unexpected output: %q", result.Output)
	}
}

func TestManagerGetValidation(t *testing.T) {
	t.Parallel()

	manager, _ := newManager(t, backendtest.NewScripted())
	if _, err := manager.Get(context.Background(), ""); !errors.Is(err, session.ErrSessionIDEmpty) {
		t.Fatalf("expected ErrSessionIDEmpty, got %v", err)
	}
}

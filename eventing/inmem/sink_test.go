package inmem_test

import (
	"context"
	"errors"
	"testing"

	"agentloop/agent"
	"agentloop/eventing/inmem"
)

func TestPublishAndSnapshot(t *testing.T) {
	t.Parallel()

	sink := inmem.New()
	event := agent.Event{
		RunID:     "r1",
		Iteration: 1,
		Type:      agent.EventTypeAssistantMessage,
		Message:   &agent.Message{Role: agent.RoleAssistant, Content: "hi"},
	}
	if err := sink.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	captured := sink.Events()
	if len(captured) != 1 || captured[0].RunID != "r1" {
		t.Fatalf("unexpected snapshot: %+v", captured)
	}

	// Snapshot mutations never reach the sink's copy.
	captured[0].Message.Content = "mutated"
	if sink.Events()[0].Message.Content != "hi" {
		t.Fatalf("snapshot mutation leaked into the sink")
	}
}

func TestPublishRejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	sink := inmem.New()
	err := sink.Publish(context.Background(), agent.Event{Type: agent.EventTypeAssistantMessage})
	if !errors.Is(err, agent.ErrEventInvalid) {
		t.Fatalf("expected ErrEventInvalid, got %v", err)
	}
	if len(sink.Events()) != 0 {
		t.Fatalf("invalid event must not be captured")
	}
}

func TestPublishRejectsCancelledContext(t *testing.T) {
	t.Parallel()

	sink := inmem.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.Publish(ctx, agent.Event{Type: agent.EventTypeRunStarted})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

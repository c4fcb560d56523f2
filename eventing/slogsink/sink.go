// Package slogsink publishes loop events through a structured logger.
package slogsink

import (
	"context"
	"log/slog"

	"agentloop/agent"
)

// Sink maps loop events onto slog records. Terminal events log at Info,
// per-iteration events at Debug.
type Sink struct {
	logger *slog.Logger
}

var _ agent.EventSink = (*Sink)(nil)

func New(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{logger: logger}
}

func (s *Sink) Publish(ctx context.Context, event agent.Event) error {
	if ctx == nil {
		return agent.ErrContextNil
	}
	if err := agent.ValidateEvent(event); err != nil {
		return err
	}

	attrs := []any{
		slog.String("run_id", event.RunID),
		slog.Int("iteration", event.Iteration),
	}
	if event.Description != "" {
		attrs = append(attrs, slog.String("description", event.Description))
	}

	switch event.Type {
	case agent.EventTypeAssistantMessage:
		attrs = append(attrs, slog.Int("tool_calls", len(event.Message.ToolCalls)))
		if event.Message.Content != "" {
			attrs = append(attrs, slog.String("content", event.Message.Content))
		}
		s.logger.DebugContext(ctx, "assistant message", attrs...)
	case agent.EventTypeToolResult:
		attrs = append(attrs,
			slog.String("tool", event.ToolResult.Name),
			slog.String("call_id", event.ToolResult.CallID),
			slog.Bool("is_error", event.ToolResult.IsError),
		)
		s.logger.DebugContext(ctx, "tool result", attrs...)
	case agent.EventTypeRunStarted:
		s.logger.DebugContext(ctx, "run started", attrs...)
	case agent.EventTypeRunCompleted:
		s.logger.InfoContext(ctx, "run completed", attrs...)
	case agent.EventTypeRunCancelled:
		s.logger.InfoContext(ctx, "run cancelled", attrs...)
	case agent.EventTypeRunFailed:
		s.logger.WarnContext(ctx, "run failed", attrs...)
	default:
		s.logger.DebugContext(ctx, string(event.Type), attrs...)
	}
	return nil
}

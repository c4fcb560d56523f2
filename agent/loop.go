package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// DefaultMaxIterations bounds backend calls when RunInput leaves
	// MaxIterations unset. A loop with no cap can spin indefinitely if the
	// backend keeps requesting tools without converging.
	DefaultMaxIterations = 8
)

// Loop drives the request -> tool-execution -> response cycle to completion:
// backend -> tool calls -> tool observations -> backend -> ...
type Loop struct {
	backend Backend
	tools   ToolRegistry
	events  EventSink
}

// New wires a loop from its collaborators. A nil event sink is replaced with
// a no-op sink.
func New(backend Backend, tools ToolRegistry, events EventSink) (*Loop, error) {
	if backend == nil {
		return nil, fmt.Errorf("new loop: %w", ErrMissingBackend)
	}
	if tools == nil {
		return nil, fmt.Errorf("new loop: %w", ErrMissingToolRegistry)
	}
	if events == nil {
		events = noopEventSink{}
	}
	return &Loop{
		backend: backend,
		tools:   tools,
		events:  events,
	}, nil
}

// Run executes the loop until the backend produces a final answer, the
// iteration budget runs out, or the context is cancelled. Tool-level failures
// are conversational: they become tool-role messages and the loop continues.
// Backend and budget failures are structural and terminate the run; the full
// transcript is returned either way.
func (l *Loop) Run(ctx context.Context, input RunInput) (RunResult, error) {
	if ctx == nil {
		return RunResult{}, ErrContextNil
	}
	if strings.TrimSpace(input.UserPrompt) == "" && len(input.History) == 0 {
		return RunResult{}, ErrUserPromptEmpty
	}

	maxIterations := input.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	declarations := l.tools.Declarations()
	definitions := indexToolDefinitions(declarations)

	result := RunResult{
		RunID:    input.RunID,
		Messages: seedTranscript(input),
	}
	var status RunStatus
	if err := transitionRunStatus(&status, RunStatusPending); err != nil {
		return result, err
	}
	if err := transitionRunStatus(&status, RunStatusRunning); err != nil {
		return result, err
	}
	result.Status = status

	var eventErr error
	eventErr = errors.Join(eventErr, l.publish(ctx, Event{
		RunID:       input.RunID,
		Iteration:   0,
		Type:        EventTypeRunStarted,
		Description: "transcript seeded and ready for execution",
	}))

	for result.Iterations < maxIterations {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return l.cancelRun(ctx, result, ctxErr, eventErr)
		}

		result.Iterations++

		assistant, err := l.backend.Complete(ctx, Request{
			Messages: CloneMessages(result.Messages),
			Tools:    CloneToolDefinitions(declarations),
		})
		if err != nil {
			if cancellationErr := contextCancellationError(ctx, err); cancellationErr != nil {
				return l.cancelRun(ctx, result, cancellationErr, eventErr)
			}
			return l.failRun(ctx, result, err, eventErr)
		}
		if assistant.Role == "" {
			assistant.Role = RoleAssistant
		}
		result.Messages = append(result.Messages, CloneMessage(assistant))
		eventErr = errors.Join(eventErr, l.publish(ctx, Event{
			RunID:     input.RunID,
			Iteration: result.Iterations,
			Type:      EventTypeAssistantMessage,
			Message:   &assistant,
		}))

		if len(assistant.ToolCalls) == 0 {
			if err := transitionRunStatus(&result.Status, RunStatusCompleted); err != nil {
				return result, errors.Join(err, eventErr)
			}
			result.Output = assistant.Content
			eventErr = errors.Join(eventErr, l.publish(ctx, Event{
				RunID:       input.RunID,
				Iteration:   result.Iterations,
				Type:        EventTypeRunCompleted,
				Description: "assistant returned a final answer",
			}))
			return result, eventErr
		}

		// An in-flight batch always runs to completion; cancellation is
		// observed again once its results are in the transcript.
		results := l.executeToolBatch(ctx, assistant.ToolCalls, definitions, input.Concurrency)
		for i := range results {
			result.Messages = append(result.Messages, ToolResultMessage(results[i]))
			eventErr = errors.Join(eventErr, l.publish(ctx, Event{
				RunID:      input.RunID,
				Iteration:  result.Iterations,
				Type:       EventTypeToolResult,
				ToolResult: &results[i],
			}))
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return l.cancelRun(ctx, result, ctxErr, eventErr)
		}
	}

	if err := transitionRunStatus(&result.Status, RunStatusIterationLimit); err != nil {
		return result, errors.Join(ErrIterationLimitExceeded, err, eventErr)
	}
	eventErr = errors.Join(eventErr, l.publish(ctx, Event{
		RunID:       input.RunID,
		Iteration:   result.Iterations,
		Type:        EventTypeRunFailed,
		Description: ErrIterationLimitExceeded.Error(),
	}))
	return result, errors.Join(ErrIterationLimitExceeded, eventErr)
}

func seedTranscript(input RunInput) []Message {
	messages := CloneMessages(input.History)
	if len(messages) == 0 && input.SystemPrompt != "" {
		messages = append(messages, Message{
			Role:    RoleSystem,
			Content: input.SystemPrompt,
		})
	}
	if strings.TrimSpace(input.UserPrompt) != "" {
		messages = append(messages, Message{
			Role:    RoleUser,
			Content: input.UserPrompt,
		})
	}
	return messages
}

// executeToolBatch runs every tool call of one assistant turn and returns
// results indexed by request order, regardless of dispatch interleaving.
// A tool call is dispatched at most once.
func (l *Loop) executeToolBatch(
	ctx context.Context,
	calls []ToolCall,
	definitions map[string]ToolDefinition,
	concurrency int,
) []ToolResult {
	results := make([]ToolResult, len(calls))
	if concurrency > len(calls) {
		concurrency = len(calls)
	}
	if concurrency <= 1 {
		for i := range calls {
			results[i] = l.executeToolCall(ctx, calls[i], definitions)
		}
		return results
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = l.executeToolCall(ctx, calls[i], definitions)
		}(i)
	}
	wg.Wait()
	return results
}

func (l *Loop) executeToolCall(
	ctx context.Context,
	call ToolCall,
	definitions map[string]ToolDefinition,
) ToolResult {
	definition, defined := definitions[call.Name]
	if !defined {
		return normalizedToolErrorResult(
			call,
			ToolFailureReasonUnknownTool,
			fmt.Errorf("tool %q is not defined", call.Name),
		)
	}
	if err := validateToolCallArguments(call, definition); err != nil {
		return normalizedToolErrorResult(call, ToolFailureReasonInvalidArguments, err)
	}

	result, err := l.tools.Execute(ctx, CloneToolCall(call))
	if err != nil {
		return normalizedToolErrorResult(call, ToolFailureReasonExecutionError, err)
	}
	if result.CallID == "" {
		result.CallID = call.ID
	}
	if result.Name == "" {
		result.Name = call.Name
	}
	return result
}

func (l *Loop) publish(ctx context.Context, event Event) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}
	if err := l.events.Publish(ctx, event); err != nil {
		return errors.Join(
			ErrEventPublish,
			fmt.Errorf(
				"type=%s run_id=%s iteration=%d: %w",
				event.Type,
				event.RunID,
				event.Iteration,
				err,
			),
		)
	}
	return nil
}

func (l *Loop) cancelRun(ctx context.Context, result RunResult, runErr, eventErr error) (RunResult, error) {
	if runErr == nil {
		runErr = context.Canceled
	}
	if transitionErr := transitionRunStatus(&result.Status, RunStatusCancelled); transitionErr != nil {
		return result, errors.Join(runErr, transitionErr, eventErr)
	}
	// Cancellation events must still reach the sink after ctx is done.
	eventErr = errors.Join(eventErr, l.publish(context.WithoutCancel(ctx), Event{
		RunID:       result.RunID,
		Iteration:   result.Iterations,
		Type:        EventTypeRunCancelled,
		Description: runErr.Error(),
	}))
	return result, errors.Join(runErr, eventErr)
}

func (l *Loop) failRun(ctx context.Context, result RunResult, runErr, eventErr error) (RunResult, error) {
	if transitionErr := transitionRunStatus(&result.Status, RunStatusFailed); transitionErr != nil {
		return result, errors.Join(runErr, transitionErr, eventErr)
	}
	eventErr = errors.Join(eventErr, l.publish(ctx, Event{
		RunID:       result.RunID,
		Iteration:   result.Iterations,
		Type:        EventTypeRunFailed,
		Description: fmt.Sprintf("backend error: %v", runErr),
	}))
	return result, errors.Join(runErr, eventErr)
}

func contextCancellationError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	switch {
	case errors.Is(err, context.Canceled):
		return context.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	default:
		return nil
	}
}

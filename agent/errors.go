package agent

import "errors"

var (
	// ErrIterationLimitExceeded is returned when the loop reaches its
	// iteration budget without the backend producing a final answer.
	ErrIterationLimitExceeded = errors.New("agent loop exceeded max iterations")
	// ErrBackendUnavailable marks transport, auth, and rate-limit failures
	// talking to the model backend. Backend adapters wrap it so callers can
	// distinguish "model declined to answer" from "could not reach model".
	ErrBackendUnavailable = errors.New("model backend unavailable")
	// ErrInvalidStatusTransition is returned on a disallowed run status change.
	ErrInvalidStatusTransition = errors.New("invalid run status transition")
	// ErrTranscriptInvalid is returned when a transcript breaks ordering or
	// tool-call linkage invariants.
	ErrTranscriptInvalid = errors.New("transcript is invalid")
	// ErrMissingBackend is returned when New is called without a backend dependency.
	ErrMissingBackend = errors.New("missing backend")
	// ErrMissingToolRegistry is returned when New is called without a tool registry dependency.
	ErrMissingToolRegistry = errors.New("missing tool registry")
	// ErrUserPromptEmpty is returned when Run is called without a user prompt
	// and without prior history to continue from.
	ErrUserPromptEmpty = errors.New("user prompt is empty")
	// ErrContextNil is returned when a nil context reaches a loop boundary.
	ErrContextNil = errors.New("context is nil")
	// ErrEventInvalid is returned when an event payload breaks sink invariants.
	ErrEventInvalid = errors.New("event is invalid")
	// ErrEventPublish wraps sink failures surfaced alongside run results.
	ErrEventPublish = errors.New("event publish failed")
)

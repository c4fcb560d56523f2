package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"agentloop/agent"
)

var (
	// ErrMissingLoop is returned when NewManager is called without a loop.
	ErrMissingLoop = errors.New("missing loop")
	// ErrMissingStore is returned when NewManager is called without a store.
	ErrMissingStore = errors.New("missing store")
	// ErrSessionIDEmpty is returned when an operation names no session.
	ErrSessionIDEmpty = errors.New("session id is empty")
)

// Manager runs the loop on behalf of named sessions, feeding each run the
// session's accumulated transcript and persisting the updated transcript
// afterwards. Failed runs keep their partial transcript for diagnosis.
type Manager struct {
	loop    *agent.Loop
	store   *Store
	counter atomic.Uint64
}

func NewManager(loop *agent.Loop, store *Store) (*Manager, error) {
	if loop == nil {
		return nil, fmt.Errorf("new session manager: %w", ErrMissingLoop)
	}
	if store == nil {
		return nil, fmt.Errorf("new session manager: %w", ErrMissingStore)
	}
	return &Manager{
		loop:  loop,
		store: store,
	}, nil
}

// StartInput configures the first turn of a session.
type StartInput struct {
	// SessionID is optional; a counter-based ID is assigned when empty.
	SessionID     string
	SystemPrompt  string
	UserPrompt    string
	MaxIterations int
	Concurrency   int
}

// Start creates a session and executes its first turn.
func (m *Manager) Start(ctx context.Context, input StartInput) (agent.RunResult, error) {
	if ctx == nil {
		return agent.RunResult{}, agent.ErrContextNil
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session-%06d", m.counter.Add(1))
	}

	record := Record{ID: sessionID}
	if err := m.store.Save(ctx, record); err != nil {
		return agent.RunResult{}, err
	}
	record.Version++

	return m.runTurn(ctx, record, agent.RunInput{
		RunID:         turnRunID(sessionID, record.Turns+1),
		SystemPrompt:  input.SystemPrompt,
		UserPrompt:    input.UserPrompt,
		MaxIterations: input.MaxIterations,
		Concurrency:   input.Concurrency,
	})
}

// FollowUpInput configures one additional turn of an existing session.
type FollowUpInput struct {
	SessionID     string
	UserPrompt    string
	MaxIterations int
	Concurrency   int
}

// FollowUp appends a user prompt to the session's transcript and executes the
// loop with that history, so the model sees all prior turns.
func (m *Manager) FollowUp(ctx context.Context, input FollowUpInput) (agent.RunResult, error) {
	if ctx == nil {
		return agent.RunResult{}, agent.ErrContextNil
	}
	if input.SessionID == "" {
		return agent.RunResult{}, ErrSessionIDEmpty
	}

	record, err := m.store.Load(ctx, input.SessionID)
	if err != nil {
		return agent.RunResult{}, err
	}

	return m.runTurn(ctx, record, agent.RunInput{
		RunID:         turnRunID(record.ID, record.Turns+1),
		History:       record.Messages,
		UserPrompt:    input.UserPrompt,
		MaxIterations: input.MaxIterations,
		Concurrency:   input.Concurrency,
	})
}

// Get returns a deep copy of one session record.
func (m *Manager) Get(ctx context.Context, sessionID string) (Record, error) {
	if sessionID == "" {
		return Record{}, ErrSessionIDEmpty
	}
	return m.store.Load(ctx, sessionID)
}

func (m *Manager) runTurn(ctx context.Context, record Record, input agent.RunInput) (agent.RunResult, error) {
	result, runErr := m.loop.Run(ctx, input)

	record.Turns++
	record.LastStatus = result.Status
	record.LastOutput = result.Output
	if len(result.Messages) > 0 {
		record.Messages = result.Messages
	}

	// The transcript is persisted even when the run failed or was cancelled.
	saveCtx := ctx
	if ctx.Err() != nil {
		saveCtx = context.WithoutCancel(ctx)
	}
	if saveErr := m.store.Save(saveCtx, record); saveErr != nil {
		return result, errors.Join(runErr, saveErr)
	}
	return result, runErr
}

func turnRunID(sessionID string, turn int) string {
	return fmt.Sprintf("%s-turn-%03d", sessionID, turn)
}

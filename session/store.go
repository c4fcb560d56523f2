// Package session keeps conversation memory across loop runs: the loop itself
// owns a transcript only for the duration of one run, so multi-turn chat
// persists transcripts here between turns.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"agentloop/agent"
)

var (
	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrVersionConflict is returned when a save races a concurrent update.
	ErrVersionConflict = errors.New("session version conflict")
)

// Record is the durable per-session state.
type Record struct {
	ID         string          `json:"id"`
	Version    int64           `json:"version"`
	Turns      int             `json:"turns"`
	LastStatus agent.RunStatus `json:"last_status,omitempty"`
	LastOutput string          `json:"last_output,omitempty"`
	Messages   []agent.Message `json:"messages,omitempty"`
}

// CloneRecord returns a deep copy safe for in-memory stores.
func CloneRecord(in Record) Record {
	out := in
	out.Messages = agent.CloneMessages(in.Messages)
	return out
}

// Store persists session records in memory with optimistic version checks.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewStore() *Store {
	return &Store{records: map[string]Record{}}
}

// Save persists a record. Creates expect Version 0; updates expect the
// currently stored version. The stored version is bumped by one on success,
// and the caller's copy is not mutated.
func (s *Store) Save(_ context.Context, record Record) error {
	if record.ID == "" {
		return fmt.Errorf("save session: id is empty")
	}
	if err := agent.ValidateTranscript(record.Messages); err != nil {
		return fmt.Errorf("save session %q: %w", record.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.records[record.ID]
	switch {
	case !exists:
		if record.Version != 0 {
			return fmt.Errorf(
				"%w: session %q expected version 0 on create, got %d",
				ErrVersionConflict,
				record.ID,
				record.Version,
			)
		}
		next := CloneRecord(record)
		next.Version = 1
		s.records[record.ID] = next
		return nil
	case record.Version != current.Version:
		return fmt.Errorf(
			"%w: session %q expected version %d, got %d",
			ErrVersionConflict,
			record.ID,
			current.Version,
			record.Version,
		)
	default:
		next := CloneRecord(record)
		next.Version = current.Version + 1
		s.records[record.ID] = next
		return nil
	}
}

// Load returns a deep copy of one session record.
func (s *Store) Load(_ context.Context, sessionID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[sessionID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	return CloneRecord(record), nil
}

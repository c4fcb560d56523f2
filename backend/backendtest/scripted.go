// Package backendtest provides a deterministic backend for loop tests.
package backendtest

import (
	"context"
	"fmt"
	"sync"

	"agentloop/agent"
)

// Response configures one backend turn in a scripted sequence.
type Response struct {
	Message agent.Message
	Err     error
}

// Scripted is a deterministic backend adapter: it replays configured turns in
// order and records every request it receives.
type Scripted struct {
	mu        sync.Mutex
	index     int
	responses []Response
	requests  []agent.Request
}

func NewScripted(responses ...Response) *Scripted {
	cloned := make([]Response, len(responses))
	copy(cloned, responses)
	return &Scripted{
		responses: cloned,
	}
}

var _ agent.Backend = (*Scripted)(nil)

func (s *Scripted) Complete(_ context.Context, request agent.Request) (agent.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, agent.Request{
		Messages: agent.CloneMessages(request.Messages),
		Tools:    agent.CloneToolDefinitions(request.Tools),
	})

	if s.index >= len(s.responses) {
		return agent.Message{}, fmt.Errorf("script exhausted at call %d", s.index+1)
	}
	current := s.responses[s.index]
	s.index++
	if current.Err != nil {
		return agent.Message{}, current.Err
	}
	msg := agent.CloneMessage(current.Message)
	if msg.Role == "" {
		msg.Role = agent.RoleAssistant
	}
	return msg, nil
}

// Calls reports how many backend requests have been made.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns deep copies of every recorded request.
func (s *Scripted) Requests() []agent.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]agent.Request, len(s.requests))
	for i := range s.requests {
		out[i] = agent.Request{
			Messages: agent.CloneMessages(s.requests[i].Messages),
			Tools:    agent.CloneToolDefinitions(s.requests[i].Tools),
		}
	}
	return out
}

package agent

import (
	"errors"
	"testing"
)

func TestTransitionRunStatus(t *testing.T) {
	t.Parallel()

	scenarios := []struct {
		name    string
		from    RunStatus
		to      RunStatus
		wantErr bool
	}{
		{name: "zero value to pending", from: "", to: RunStatusPending},
		{name: "pending to running", from: RunStatusPending, to: RunStatusRunning},
		{name: "pending to cancelled", from: RunStatusPending, to: RunStatusCancelled},
		{name: "running to completed", from: RunStatusRunning, to: RunStatusCompleted},
		{name: "running to failed", from: RunStatusRunning, to: RunStatusFailed},
		{name: "running to iteration limit", from: RunStatusRunning, to: RunStatusIterationLimit},
		{name: "iteration limit resumes", from: RunStatusIterationLimit, to: RunStatusRunning},
		{name: "self transition is a no-op", from: RunStatusRunning, to: RunStatusRunning},
		{name: "completed is terminal", from: RunStatusCompleted, to: RunStatusRunning, wantErr: true},
		{name: "failed is terminal", from: RunStatusFailed, to: RunStatusRunning, wantErr: true},
		{name: "cancelled is terminal", from: RunStatusCancelled, to: RunStatusPending, wantErr: true},
		{name: "pending cannot complete directly", from: RunStatusPending, to: RunStatusCompleted, wantErr: true},
		{name: "unknown source status", from: "paused", to: RunStatusRunning, wantErr: true},
	}

	for _, scenario := range scenarios {
		scenario := scenario
		t.Run(scenario.name, func(t *testing.T) {
			t.Parallel()

			status := scenario.from
			err := transitionRunStatus(&status, scenario.to)
			if scenario.wantErr {
				if !errors.Is(err, ErrInvalidStatusTransition) {
					t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
				}
				if status != scenario.from {
					t.Fatalf("status must be untouched on rejection, got %s", status)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != scenario.to {
				t.Fatalf("status not updated: %s", status)
			}
		})
	}
}

func TestIsTerminalRunStatus(t *testing.T) {
	t.Parallel()

	terminal := []RunStatus{RunStatusCompleted, RunStatusFailed, RunStatusCancelled}
	for _, status := range terminal {
		if !IsTerminalRunStatus(status) {
			t.Fatalf("%s must be terminal", status)
		}
	}
	// Runs parked at the iteration limit can be resumed with a larger budget.
	continuable := []RunStatus{RunStatusPending, RunStatusRunning, RunStatusIterationLimit}
	for _, status := range continuable {
		if IsTerminalRunStatus(status) {
			t.Fatalf("%s must not be terminal", status)
		}
	}
}

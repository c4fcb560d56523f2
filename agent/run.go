package agent

import "fmt"

// RunStatus captures coarse execution state for observability and sessions.
type RunStatus string

const (
	RunStatusPending        RunStatus = "pending"
	RunStatusRunning        RunStatus = "running"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusIterationLimit RunStatus = "iteration_limit"
)

// RunInput configures one loop invocation.
type RunInput struct {
	// RunID tags emitted events. Optional; sessions assign one per turn.
	RunID string
	// History seeds the transcript for multi-turn conversations. The loop
	// never mutates the caller's slice.
	History []Message
	// SystemPrompt is prepended once, only when History is empty.
	SystemPrompt string
	UserPrompt   string
	// MaxIterations bounds the number of backend calls. Zero selects
	// DefaultMaxIterations.
	MaxIterations int
	// Concurrency bounds parallel tool executions within one assistant turn.
	// Zero and one both mean sequential dispatch.
	Concurrency int
}

// RunResult carries the outcome of one loop invocation. Messages holds the
// full transcript, including on failure paths, for diagnosis.
type RunResult struct {
	RunID      string
	Status     RunStatus
	Output     string
	Iterations int
	Messages   []Message
}

// IsTerminalRunStatus reports whether a run can make no further progress.
func IsTerminalRunStatus(status RunStatus) bool {
	switch status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

func validateRunStatusTransition(from, to RunStatus) error {
	if from == to {
		return nil
	}

	allowed, ok := allowedRunStatusTransitions[from]
	if !ok {
		return fmt.Errorf("%w: unknown source status %q", ErrInvalidStatusTransition, from)
	}
	if _, ok := allowed[to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}
	return nil
}

func transitionRunStatus(status *RunStatus, to RunStatus) error {
	if err := validateRunStatusTransition(*status, to); err != nil {
		return err
	}
	*status = to
	return nil
}

var allowedRunStatusTransitions = map[RunStatus]map[RunStatus]struct{}{
	"": {
		RunStatusPending: {},
	},
	RunStatusPending: {
		RunStatusRunning:   {},
		RunStatusCancelled: {},
	},
	RunStatusRunning: {
		RunStatusCompleted:      {},
		RunStatusFailed:         {},
		RunStatusCancelled:      {},
		RunStatusIterationLimit: {},
	},
	RunStatusIterationLimit: {
		RunStatusRunning:   {},
		RunStatusCancelled: {},
	},
	RunStatusCompleted: {},
	RunStatusFailed:    {},
	RunStatusCancelled: {},
}

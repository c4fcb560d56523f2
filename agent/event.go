package agent

import "fmt"

// EventType is emitted by the loop for observability and streaming.
type EventType string

const (
	EventTypeRunStarted       EventType = "run_started"
	EventTypeAssistantMessage EventType = "assistant_message"
	EventTypeToolResult       EventType = "tool_result"
	EventTypeRunCompleted     EventType = "run_completed"
	EventTypeRunFailed        EventType = "run_failed"
	EventTypeRunCancelled     EventType = "run_cancelled"
)

// Event is intentionally compact so adapters can map it to logs, metrics, or streams.
type Event struct {
	RunID       string      `json:"run_id,omitempty"`
	Iteration   int         `json:"iteration"`
	Type        EventType   `json:"type"`
	Message     *Message    `json:"message,omitempty"`
	ToolResult  *ToolResult `json:"tool_result,omitempty"`
	Description string      `json:"description,omitempty"`
}

// ValidateEvent checks event payload invariants before publish boundaries.
func ValidateEvent(event Event) error {
	if event.Type == "" {
		return fmt.Errorf("%w: field=type reason=empty", ErrEventInvalid)
	}
	if event.Iteration < 0 {
		return fmt.Errorf(
			"%w: field=iteration reason=negative value=%d type=%s",
			ErrEventInvalid,
			event.Iteration,
			event.Type,
		)
	}

	switch event.Type {
	case EventTypeAssistantMessage:
		if event.Message == nil {
			return fmt.Errorf(
				"%w: field=message reason=nil type=%s iteration=%d",
				ErrEventInvalid,
				event.Type,
				event.Iteration,
			)
		}
	case EventTypeToolResult:
		if event.ToolResult == nil {
			return fmt.Errorf(
				"%w: field=tool_result reason=nil type=%s iteration=%d",
				ErrEventInvalid,
				event.Type,
				event.Iteration,
			)
		}
		if event.ToolResult.CallID == "" {
			return fmt.Errorf(
				"%w: field=tool_result.call_id reason=empty type=%s iteration=%d",
				ErrEventInvalid,
				event.Type,
				event.Iteration,
			)
		}
		if event.ToolResult.Name == "" {
			return fmt.Errorf(
				"%w: field=tool_result.name reason=empty type=%s iteration=%d",
				ErrEventInvalid,
				event.Type,
				event.Iteration,
			)
		}
	}

	return nil
}

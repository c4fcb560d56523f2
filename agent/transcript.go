package agent

import "fmt"

// ValidateTranscript checks the structural invariants of a conversation
// transcript: tool-role messages answer exactly one prior assistant tool call,
// no tool call is answered twice, and tool calls only appear on assistant
// turns. The loop upholds these by construction; session stores validate at
// persistence boundaries.
func ValidateTranscript(messages []Message) error {
	pending := map[string]struct{}{}
	answered := map[string]struct{}{}

	for i := range messages {
		message := messages[i]
		switch message.Role {
		case RoleSystem, RoleUser:
			if len(message.ToolCalls) > 0 {
				return fmt.Errorf(
					"%w: index=%d role=%s reason=tool_calls_on_non_assistant_turn",
					ErrTranscriptInvalid,
					i,
					message.Role,
				)
			}
		case RoleAssistant:
			for _, call := range message.ToolCalls {
				if call.ID == "" {
					return fmt.Errorf(
						"%w: index=%d reason=tool_call_id_empty tool=%q",
						ErrTranscriptInvalid,
						i,
						call.Name,
					)
				}
				if _, exists := pending[call.ID]; exists {
					return fmt.Errorf(
						"%w: index=%d reason=tool_call_id_duplicate id=%q",
						ErrTranscriptInvalid,
						i,
						call.ID,
					)
				}
				if _, exists := answered[call.ID]; exists {
					return fmt.Errorf(
						"%w: index=%d reason=tool_call_id_duplicate id=%q",
						ErrTranscriptInvalid,
						i,
						call.ID,
					)
				}
				pending[call.ID] = struct{}{}
			}
		case RoleTool:
			if message.ToolCallID == "" {
				return fmt.Errorf(
					"%w: index=%d reason=tool_call_id_missing",
					ErrTranscriptInvalid,
					i,
				)
			}
			if _, exists := pending[message.ToolCallID]; !exists {
				return fmt.Errorf(
					"%w: index=%d reason=unanswered_tool_call_not_found id=%q",
					ErrTranscriptInvalid,
					i,
					message.ToolCallID,
				)
			}
			delete(pending, message.ToolCallID)
			answered[message.ToolCallID] = struct{}{}
		default:
			return fmt.Errorf(
				"%w: index=%d reason=unknown_role role=%q",
				ErrTranscriptInvalid,
				i,
				message.Role,
			)
		}
	}

	return nil
}

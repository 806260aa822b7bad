package rag

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is wrapped by every ParseRequest failure.
var ErrInvalidRequest = errors.New("invalid request")

// ParseRequest checks a decoded JSON document against the request shape:
//
//	{"request": {"current message": string, "model": string,
//	             "History": [{"role": "user"|"assistant", "content": string}, ...]}}
//
// Only type assertions are used, so arbitrary input never panics.
func ParseRequest(data any) (IncomingRequest, error) {
	top, ok := data.(map[string]any)
	if !ok {
		return IncomingRequest{}, invalid("body is not an object")
	}
	req, ok := top["request"].(map[string]any)
	if !ok {
		return IncomingRequest{}, invalid("request must be an object")
	}

	current, ok := req["current message"].(string)
	if !ok {
		return IncomingRequest{}, invalid("request.current message must be a string")
	}
	model, ok := req["model"].(string)
	if !ok {
		return IncomingRequest{}, invalid("request.model must be a string")
	}
	rawHistory, ok := req["History"].([]any)
	if !ok {
		return IncomingRequest{}, invalid("request.History must be a list")
	}

	history := make([]ConversationMessage, 0, len(rawHistory))
	for i, raw := range rawHistory {
		entry, ok := raw.(map[string]any)
		if !ok {
			return IncomingRequest{}, invalid("History[%d] must be an object", i)
		}
		role, ok := entry["role"].(string)
		if !ok || (Role(role) != RoleUser && Role(role) != RoleAssistant) {
			return IncomingRequest{}, invalid("History[%d].role must be \"user\" or \"assistant\"", i)
		}
		content, ok := entry["content"].(string)
		if !ok {
			return IncomingRequest{}, invalid("History[%d].content must be a string", i)
		}
		history = append(history, ConversationMessage{Role: Role(role), Content: content})
	}

	return IncomingRequest{
		CurrentMessage: current,
		History:        history,
		Model:          model,
	}, nil
}

// IsValid reports whether data has the request shape.
func IsValid(data any) bool {
	_, err := ParseRequest(data)
	return err == nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

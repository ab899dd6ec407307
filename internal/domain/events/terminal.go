package events

import (
	"encoding/json"
	"fmt"
)

// Host notification methods that map to terminal events.
const (
	MethodOutput = "event/output"
	MethodStatus = "event/status"
	MethodClosed = "event/closed"
)

// OutputPayload represents one chunk of raw terminal output. Data is opaque
// byte/escape-sequence text; chunks for a session arrive in emission order.
type OutputPayload struct {
	SessionID string `json:"session_id"`
	Data      string `json:"data"`
}

// StatusPayload represents a session lifecycle status change.
type StatusPayload struct {
	SessionID string `json:"session_id"`
	ProjectID string `json:"project_id"`
	Status    string `json:"status"` // "running" or "stopped"
}

// ClosedPayload represents the legacy closed notification. It carries less
// context than a status event; the project ID is looked up client-side.
type ClosedPayload struct {
	SessionID string `json:"session_id"`
}

// NewOutputEvent creates a new terminal_output event.
func NewOutputEvent(sessionID, data string) *BaseEvent {
	return NewEvent(EventTypeTerminalOutput, sessionID, OutputPayload{
		SessionID: sessionID,
		Data:      data,
	})
}

// NewStatusEvent creates a new terminal_status event.
func NewStatusEvent(sessionID, projectID, status string) *BaseEvent {
	return NewEvent(EventTypeTerminalStatus, sessionID, StatusPayload{
		SessionID: sessionID,
		ProjectID: projectID,
		Status:    status,
	})
}

// NewClosedEvent creates a new terminal_closed event.
func NewClosedEvent(sessionID string) *BaseEvent {
	return NewEvent(EventTypeTerminalClosed, sessionID, ClosedPayload{
		SessionID: sessionID,
	})
}

// FromNotification converts a host notification into a typed event.
func FromNotification(method string, params json.RawMessage) (Event, error) {
	switch method {
	case MethodOutput:
		var p OutputPayload
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid output payload: %w", err)
		}
		return NewOutputEvent(p.SessionID, p.Data), nil

	case MethodStatus:
		var p StatusPayload
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid status payload: %w", err)
		}
		return NewStatusEvent(p.SessionID, p.ProjectID, p.Status), nil

	case MethodClosed:
		var p ClosedPayload
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid closed payload: %w", err)
		}
		return NewClosedEvent(p.SessionID), nil

	default:
		return nil, fmt.Errorf("unknown event method: %s", method)
	}
}

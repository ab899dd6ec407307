// Package events defines the event types consumed from the process host.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// EventTypeTerminalOutput carries a chunk of raw terminal output.
	EventTypeTerminalOutput EventType = "terminal_output"

	// EventTypeTerminalStatus carries a session lifecycle status change.
	EventTypeTerminalStatus EventType = "terminal_status"

	// EventTypeTerminalClosed is the legacy form of a stopped-status event.
	// It carries only a session ID; the owning project is resolved client-side.
	EventTypeTerminalClosed EventType = "terminal_closed"
)

// Event is the base interface for all events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// GetSessionID returns the session ID the event belongs to.
	GetSessionID() string

	// ToJSON serializes the event to JSON.
	ToJSON() ([]byte, error)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType EventType   `json:"event"`
	EventTime time.Time   `json:"timestamp"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload"`
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// GetSessionID returns the session ID.
func (e *BaseEvent) GetSessionID() string {
	return e.SessionID
}

// ToJSON serializes the event to JSON.
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewEvent creates a new base event with the given type, session and payload.
func NewEvent(eventType EventType, sessionID string, payload interface{}) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		SessionID: sessionID,
		Payload:   payload,
	}
}

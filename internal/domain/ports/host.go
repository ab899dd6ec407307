// Package ports defines the interfaces between the sync core and its
// external collaborators: the process host and the terminal widget.
package ports

import (
	"context"

	"github.com/brianly1003/termsync/internal/domain/events"
	"github.com/brianly1003/termsync/internal/session"
)

// SessionSpec describes a terminal session to create on the host.
type SessionSpec struct {
	ProjectID   string              `json:"project_id"`
	Name        string              `json:"name"`
	DisplayMode session.DisplayMode `json:"display_mode"`
	AgentID     string              `json:"agent_id,omitempty"`
	Cols        int                 `json:"cols,omitempty"`
	Rows        int                 `json:"rows,omitempty"`
}

// Host is the request/response surface of the process host. All calls are
// blocking and may take unbounded time; callers bound them with contexts.
// Failed calls return a *domain.HostError whose cause classifies the failure.
type Host interface {
	// Create spawns a new terminal session.
	Create(ctx context.Context, spec SessionSpec) (*session.Info, error)

	// Write sends raw input bytes to a session. Fails with
	// domain.ErrChannelNotRunning when the session's channel is down and
	// domain.ErrConnectionClosed when the host itself is unreachable.
	Write(ctx context.Context, sessionID string, data []byte) error

	// Resize changes the session's terminal dimensions.
	Resize(ctx context.Context, sessionID string, cols, rows int) error

	// Close destroys a session and its host-side state.
	Close(ctx context.Context, sessionID string) error

	// Restart re-establishes a session's process. It doubles as the
	// reconnect primitive; the client decides whether to keep its ledger.
	Restart(ctx context.Context, sessionID string) (*session.Info, error)

	// History fetches the durable output history for a session.
	History(ctx context.Context, sessionID string) ([]string, error)

	// MarkStopped records a session as stopped on the host so the UI can
	// offer manual recovery.
	MarkStopped(ctx context.Context, sessionID string) (*session.Info, error)

	// SwitchAgent switches the session to a different underlying command.
	// Host-side history is discarded; the client clears its ledger too.
	SwitchAgent(ctx context.Context, sessionID, agentID string) (*session.Info, error)

	// List returns all sessions known to the host.
	List(ctx context.Context) ([]*session.Info, error)
}

// EventSource is the inbound half of the host connection: a single stream of
// output/status/closed events. The channel closes when the connection drops
// or the source is shut down.
type EventSource interface {
	Events() <-chan events.Event
}

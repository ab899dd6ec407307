// Package session provides the client-side registry of terminal sessions:
// session records, the per-session output ledger, and unseen-output tracking.
package session

import (
	"sync"
	"time"
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopped  Status = "stopped"
	StatusError    Status = "error"
)

// DisplayMode tags how a session's working directory is derived.
type DisplayMode string

const (
	DisplayModeProjectRoot DisplayMode = "project-root"
	DisplayModeSubfolder   DisplayMode = "subfolder"
	DisplayModeWorktree    DisplayMode = "worktree"
)

// Session represents one terminal session mirrored from the process host.
type Session struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"project_id"`
	Name        string      `json:"name"`
	Status      Status      `json:"status"`
	DisplayMode DisplayMode `json:"display_mode"`
	IsPrimary   bool        `json:"is_primary"` // primary sessions can never be user-closed
	CreatedAt   time.Time   `json:"created_at"`
	LastActive  time.Time   `json:"last_active"`

	mu sync.RWMutex
}

// New creates a new session record.
func New(id, projectID string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		ProjectID:   projectID,
		Status:      StatusStarting,
		DisplayMode: DisplayModeProjectRoot,
		CreatedAt:   now,
		LastActive:  now,
	}
}

// FromInfo creates a session record from a host-provided snapshot.
func FromInfo(info *Info) *Session {
	s := New(info.ID, info.ProjectID)
	s.Name = info.Name
	s.Status = info.Status
	s.DisplayMode = info.DisplayMode
	s.IsPrimary = info.IsPrimary
	return s
}

// GetStatus returns the current session status.
func (s *Session) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// SetStatus updates the session status.
func (s *Session) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.LastActive = time.Now().UTC()
}

// SetName updates the display name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Name = name
}

// ToInfo returns a serializable snapshot of the session.
func (s *Session) ToInfo() *Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Info{
		ID:          s.ID,
		ProjectID:   s.ProjectID,
		Name:        s.Name,
		Status:      s.Status,
		DisplayMode: s.DisplayMode,
		IsPrimary:   s.IsPrimary,
		LastActive:  s.LastActive,
	}
}

// Info is a serializable representation of a session. It is also the shape
// returned by host calls that create or mutate sessions.
type Info struct {
	ID          string      `json:"id"`
	ProjectID   string      `json:"project_id"`
	Name        string      `json:"name"`
	Status      Status      `json:"status"`
	DisplayMode DisplayMode `json:"display_mode"`
	IsPrimary   bool        `json:"is_primary"`
	LastActive  time.Time   `json:"last_active,omitempty"`
}

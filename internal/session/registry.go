package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/termsync/internal/activity"
)

// Registry is the long-lived, explicitly-owned container for all client-side
// session state: session records, the output ledger, activity classification,
// and unseen-output tracking. It is created at application startup, passed by
// reference to every component, and torn down with the application. It
// outlives the rendering of any single view.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ledger   *Ledger
	activity *activity.Store
	unseen   *UnseenTracker
}

// NewRegistry creates an empty registry with the given activity store.
func NewRegistry(activityStore *activity.Store) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ledger:   NewLedger(),
		activity: activityStore,
		unseen:   NewUnseenTracker(),
	}
}

// Ledger returns the output ledger.
func (r *Registry) Ledger() *Ledger {
	return r.ledger
}

// Activity returns the activity store.
func (r *Registry) Activity() *activity.Store {
	return r.activity
}

// Unseen returns the unseen-output tracker.
func (r *Registry) Unseen() *UnseenTracker {
	return r.unseen
}

// Add registers a session record and its project mapping. Idempotent on the
// session ID; an existing record is kept.
func (r *Registry) Add(s *Session) *Session {
	r.mu.Lock()
	if existing, ok := r.sessions[s.ID]; ok {
		r.mu.Unlock()
		r.unseen.Register(s.ID, s.ProjectID)
		return existing
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.unseen.Register(s.ID, s.ProjectID)
	log.Debug().
		Str("session_id", s.ID).
		Str("project_id", s.ProjectID).
		Msg("session registered")
	return s
}

// Get returns a session by ID.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Sessions returns a snapshot of all session records.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// UpdateStatus applies a status change to a session. When the new status is
// stopped, the stored activity is forced to idle with the previous signal
// preserved for debugging.
func (r *Registry) UpdateStatus(sessionID string, status Status) {
	s, ok := r.Get(sessionID)
	if !ok {
		log.Warn().Str("session_id", sessionID).Msg("status update for unknown session")
		return
	}

	s.SetStatus(status)
	if status == StatusStopped {
		r.activity.ForceIdle(sessionID)
	}
}

// GetOutput returns the full buffered output for a session in arrival order.
func (r *Registry) GetOutput(sessionID string) []string {
	return r.ledger.Snapshot(sessionID)
}

// GetActivity returns the decay-aware displayed activity for a session.
func (r *Registry) GetActivity(sessionID string) activity.Signal {
	stopped := false
	if s, ok := r.Get(sessionID); ok {
		st := s.GetStatus()
		stopped = st == StatusStopped || st == StatusError
	}
	return r.activity.SignalFor(sessionID, stopped)
}

// HasUnseen reports whether a session has unacknowledged output.
func (r *Registry) HasUnseen(sessionID string) bool {
	return r.unseen.HasUnseen(sessionID)
}

// UnseenCountForProject counts unseen sessions in a project.
func (r *Registry) UnseenCountForProject(projectID string) int {
	return r.unseen.CountForProject(projectID)
}

// SetActive marks a session as the one on screen, clearing its unseen flag.
func (r *Registry) SetActive(sessionID string) {
	r.unseen.SetActive(sessionID)
}

// ClearOutput drops a session's buffered output. Used when the session's
// agent is switched and history is no longer relevant.
func (r *Registry) ClearOutput(sessionID string) {
	r.ledger.Clear(sessionID)
}

// Remove purges a session and all derived state: its record, output ledger,
// activity state, and unseen registration.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	r.ledger.Remove(sessionID)
	r.activity.Remove(sessionID)
	r.unseen.Unregister(sessionID)

	log.Debug().Str("session_id", sessionID).Msg("session removed")
}

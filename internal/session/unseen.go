package session

import "sync"

// UnseenTracker records which sessions have unacknowledged output and owns
// the session → project reverse index used to resolve legacy closed events
// and to aggregate per-project attention counts.
//
// Invariant: the currently-active session is never in the unseen set.
// MarkUnseen suppresses the active session and SetActive clears its flag, so
// the guarantee holds from both sides.
type UnseenTracker struct {
	mu       sync.RWMutex
	projects map[string]string // session ID -> owning project ID
	unseen   map[string]struct{}
	active   string
}

// NewUnseenTracker creates an empty tracker.
func NewUnseenTracker() *UnseenTracker {
	return &UnseenTracker{
		projects: make(map[string]string),
		unseen:   make(map[string]struct{}),
	}
}

// Register establishes the session → project mapping. Idempotent.
func (t *UnseenTracker) Register(sessionID, projectID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projects[sessionID] = projectID
}

// Unregister removes a session from the unseen set and the reverse index.
// Called when a session is closed.
func (t *UnseenTracker) Unregister(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.projects, sessionID)
	delete(t.unseen, sessionID)
	if t.active == sessionID {
		t.active = ""
	}
}

// MarkUnseen flags a session as having unacknowledged output. No-op for the
// active session and for sessions that were never registered. Returns whether
// the flag was set.
func (t *UnseenTracker) MarkUnseen(sessionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sessionID == t.active {
		return false
	}
	if _, ok := t.projects[sessionID]; !ok {
		return false
	}
	t.unseen[sessionID] = struct{}{}
	return true
}

// SetActive records the session currently on screen and atomically clears its
// unseen flag. An empty ID means no session is being viewed.
func (t *UnseenTracker) SetActive(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = sessionID
	delete(t.unseen, sessionID)
}

// Active returns the session currently being viewed, or "".
func (t *UnseenTracker) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// HasUnseen returns whether a session has unacknowledged output.
func (t *UnseenTracker) HasUnseen(sessionID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.unseen[sessionID]
	return ok
}

// ProjectFor returns the owning project for a registered session.
func (t *UnseenTracker) ProjectFor(sessionID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	projectID, ok := t.projects[sessionID]
	return projectID, ok
}

// CountForProject counts unseen sessions belonging to a project. O(k) over
// the unseen set.
func (t *UnseenTracker) CountForProject(projectID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for sessionID := range t.unseen {
		if t.projects[sessionID] == projectID {
			n++
		}
	}
	return n
}

package activity

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultIdleWindow is how long a session may go without output before its
// displayed activity decays to idle.
const DefaultIdleWindow = 5 * time.Second

// State holds the stored classification for one session.
type State struct {
	Current      Signal
	Previous     Signal // kept for transition logging and debugging
	ClassifiedAt time.Time
}

// Store keeps per-session activity state. Activity is a recency-qualified
// signal, not a persistent flag: the decay is applied when a signal is read,
// never when it is written, so a process that simply stops writing output
// looks idle without any event declaring it so.
type Store struct {
	mu         sync.RWMutex
	states     map[string]State
	idleWindow time.Duration
	now        func() time.Time
}

// NewStore creates an activity store with the given idle window. A zero
// window selects DefaultIdleWindow.
func NewStore(idleWindow time.Duration) *Store {
	if idleWindow <= 0 {
		idleWindow = DefaultIdleWindow
	}
	return &Store{
		states:     make(map[string]State),
		idleWindow: idleWindow,
		now:        time.Now,
	}
}

// Observe classifies an output chunk and records the result. Returns the
// classified signal.
func (s *Store) Observe(sessionID, chunk string) Signal {
	signal := Classify(chunk)

	s.mu.Lock()
	prev := s.states[sessionID]
	s.states[sessionID] = State{
		Current:      signal,
		Previous:     prev.Current,
		ClassifiedAt: s.now(),
	}
	s.mu.Unlock()

	if prev.Current != signal {
		log.Debug().
			Str("session_id", sessionID).
			Str("from", string(prev.Current)).
			Str("to", string(signal)).
			Msg("activity transition")
	}

	return signal
}

// ForceIdle overrides the stored classification with idle, preserving the
// previous signal. Applied when a session's status becomes stopped.
func (s *Store) ForceIdle(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.states[sessionID]
	s.states[sessionID] = State{
		Current:      SignalIdle,
		Previous:     prev.Current,
		ClassifiedAt: s.now(),
	}
}

// SignalFor returns the displayed activity for a session. Stopped sessions
// are always idle regardless of recency; otherwise the stored signal decays
// to idle once the idle window has elapsed since classification.
func (s *Store) SignalFor(sessionID string, stopped bool) Signal {
	if stopped {
		return SignalIdle
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[sessionID]
	if !ok {
		return SignalIdle
	}
	if s.now().Sub(state.ClassifiedAt) > s.idleWindow {
		return SignalIdle
	}
	return state.Current
}

// StateFor returns the raw stored state for a session.
func (s *Store) StateFor(sessionID string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sessionID]
	return state, ok
}

// Remove purges a session's activity state.
func (s *Store) Remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sessionID)
}

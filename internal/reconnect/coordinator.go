// Package reconnect implements the per-session auto-reconnect protocol:
// detecting a dead session channel, driving a bounded recovery attempt
// against the process host, and guaranteeing at most one outstanding attempt
// per session.
package reconnect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/termsync/internal/domain"
	"github.com/brianly1003/termsync/internal/domain/ports"
	"github.com/brianly1003/termsync/internal/session"
)

// State is the coordinator's view of one session's channel.
type State string

const (
	// StateConnected means the channel is believed healthy (or no attempt
	// has been needed yet).
	StateConnected State = "connected"

	// StateReconnectPending means a recovery attempt is outstanding. New
	// stimuli are ignored until it settles.
	StateReconnectPending State = "reconnect_pending"

	// StateReconnectFailed means the last attempt failed or timed out. The
	// session is left visibly stopped; recovery is deferred to an explicit
	// user action. A later write failure may still re-arm an attempt.
	StateReconnectFailed State = "reconnect_failed"
)

// Default timing for recovery attempts.
const (
	DefaultAttemptTimeout = 12 * time.Second
	DefaultCooldown       = 5 * time.Second
)

type sessionState struct {
	state         State
	generation    uint64
	cooldownUntil time.Time
	lastErr       error
}

// Coordinator drives recovery for dead session channels. Attempts are
// single-flight per session and carry a generation token: a resolution is
// applied only if its generation still matches, so a settled timeout race
// can never be overwritten by the loser's late arrival. The host call itself
// cannot be cancelled; abandonment is purely a matter of ignoring the stale
// resolution.
//
// Recovery uses the host's restart primitive but never touches the output
// ledger; only an explicit user-initiated restart clears history.
type Coordinator struct {
	host     ports.Host
	registry *session.Registry

	timeout  time.Duration
	cooldown time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout overrides the attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCooldown overrides the post-success cool-down window.
func WithCooldown(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// New creates a coordinator that recovers sessions through the given host.
func New(host ports.Host, registry *session.Registry, opts ...Option) *Coordinator {
	c := &Coordinator{
		host:     host,
		registry: registry,
		timeout:  DefaultAttemptTimeout,
		cooldown: DefaultCooldown,
		now:      time.Now,
		sessions: make(map[string]*sessionState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StateFor returns the coordinator's current state for a session.
func (c *Coordinator) StateFor(sessionID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(sessionID).state
}

// HandleWriteFailure classifies a failed write call and, for a dead session
// channel, starts a recovery attempt. A host-unavailable failure never drives
// a per-session attempt: retrying one session is futile until the host itself
// recovers, so the session stays eligible and the coordinator waits for a
// host-level status event. Unknown errors are logged and not retried.
func (c *Coordinator) HandleWriteFailure(sessionID string, err error) {
	switch {
	case errors.Is(err, domain.ErrChannelNotRunning):
		c.trigger(sessionID, "write failure", true)

	case errors.Is(err, domain.ErrConnectionClosed):
		log.Warn().
			Str("session_id", sessionID).
			Msg("host unreachable, deferring recovery to host status events")

	default:
		log.Error().
			Str("session_id", sessionID).
			Err(err).
			Msg("unclassified write error, not retrying")
	}
}

// HandleStopped is the status-event stimulus: the host reported the session
// stopped while the coordinator believed it was connected. Within the
// post-success cool-down this is treated as a trailing duplicate and ignored.
func (c *Coordinator) HandleStopped(sessionID string) {
	c.trigger(sessionID, "stopped status", false)
}

// Reset returns a session to the connected-eligible state. Called after an
// explicit user-initiated restart succeeds.
func (c *Coordinator) Reset(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.get(sessionID)
	st.state = StateConnected
	st.cooldownUntil = time.Time{}
	st.lastErr = nil
}

// Forget drops all coordinator state for a session. Called on session close.
// An in-flight attempt, if any, resolves into nothing: its generation no
// longer exists.
func (c *Coordinator) Forget(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

// get returns the tracked state for a session, creating it connected.
// Caller holds c.mu.
func (c *Coordinator) get(sessionID string) *sessionState {
	st, ok := c.sessions[sessionID]
	if !ok {
		st = &sessionState{state: StateConnected}
		c.sessions[sessionID] = st
	}
	return st
}

// trigger starts a recovery attempt unless one is already outstanding, the
// cool-down window absorbs the stimulus, or (for status stimuli) a previous
// attempt already failed. Write failures may re-arm after a failure because
// they represent fresh user intent.
func (c *Coordinator) trigger(sessionID, stimulus string, fromWrite bool) {
	c.mu.Lock()
	st := c.get(sessionID)

	if st.state == StateReconnectPending {
		c.mu.Unlock()
		log.Debug().
			Str("session_id", sessionID).
			Str("stimulus", stimulus).
			Msg("reconnect already in progress, ignoring stimulus")
		return
	}

	if c.now().Before(st.cooldownUntil) {
		c.mu.Unlock()
		log.Debug().
			Str("session_id", sessionID).
			Str("stimulus", stimulus).
			Msg("within reconnect cool-down, treating as already known")
		return
	}

	if st.state == StateReconnectFailed && !fromWrite {
		c.mu.Unlock()
		log.Debug().
			Str("session_id", sessionID).
			Msg("previous reconnect failed, waiting for explicit recovery")
		return
	}

	st.state = StateReconnectPending
	st.generation++
	gen := st.generation
	c.mu.Unlock()

	log.Info().
		Str("session_id", sessionID).
		Str("stimulus", stimulus).
		Uint64("generation", gen).
		Msg("starting reconnect attempt")

	go c.attempt(sessionID, gen)
}

// attempt races the host restart call against the attempt timeout. Whichever
// settles first wins; the loser's eventual settlement is discarded by the
// generation check in finish.
func (c *Coordinator) attempt(sessionID string, gen uint64) {
	result := make(chan error, 1)
	go func() {
		_, err := c.host.Restart(context.Background(), sessionID)
		result <- err
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		c.finish(sessionID, gen, err)
	case <-timer.C:
		c.finish(sessionID, gen, domain.ErrReconnectTimeout)
	}
}

// finish applies an attempt's outcome if and only if its generation is still
// current and the attempt is still pending.
func (c *Coordinator) finish(sessionID string, gen uint64, err error) {
	c.mu.Lock()
	st, ok := c.sessions[sessionID]
	if !ok || st.generation != gen || st.state != StateReconnectPending {
		c.mu.Unlock()
		log.Debug().
			Str("session_id", sessionID).
			Uint64("generation", gen).
			Msg("discarding stale reconnect resolution")
		return
	}

	if err == nil {
		st.state = StateConnected
		st.cooldownUntil = c.now().Add(c.cooldown)
		st.lastErr = nil
		c.mu.Unlock()

		c.registry.UpdateStatus(sessionID, session.StatusRunning)
		log.Info().
			Str("session_id", sessionID).
			Uint64("generation", gen).
			Msg("reconnect succeeded")
		return
	}

	st.state = StateReconnectFailed
	st.lastErr = err
	c.mu.Unlock()

	log.Warn().
		Str("session_id", sessionID).
		Uint64("generation", gen).
		Err(err).
		Msg("reconnect failed, deferring to manual recovery")

	// Let the host record the session as stopped so every client shows the
	// manual-recovery affordance instead of a frozen terminal.
	if _, mErr := c.host.MarkStopped(context.Background(), sessionID); mErr != nil {
		log.Warn().Str("session_id", sessionID).Err(mErr).Msg("mark stopped failed")
	}
	c.registry.UpdateStatus(sessionID, session.StatusStopped)
}

// LastError returns the error recorded for the most recent failed attempt.
func (c *Coordinator) LastError(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.sessions[sessionID]; ok {
		return st.lastErr
	}
	return nil
}

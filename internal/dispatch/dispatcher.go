// Package dispatch implements the event consumption pipeline: one dispatcher
// loop drains the host's inbound event stream and feeds the output ledger,
// activity classifier, and unseen tracker.
package dispatch

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/termsync/internal/domain/events"
	"github.com/brianly1003/termsync/internal/session"
)

// DefaultFlushInterval approximates one rendering frame. Output chunks that
// arrive faster than this are coalesced into a single ledger append per
// session.
const DefaultFlushInterval = 16 * time.Millisecond

// Dispatcher consumes the host event stream. Exactly one dispatcher exists
// for the lifetime of the application; its subscription is released on
// teardown by closing the inbound channel or calling Stop.
//
// All event handling runs on the single dispatcher goroutine, which stands in
// for the UI thread of the original design: no locking is needed inside the
// loop, but handlers must tolerate being invoked from within another handler
// (the closed handler replays through the status path).
type Dispatcher struct {
	registry *session.Registry
	events   <-chan events.Event

	flushInterval time.Duration

	// pending buffers output chunks per session between flushes. Owned by
	// the run goroutine.
	pending map[string][]string
	timer   *time.Timer

	// onStopped is invoked when a session transitions to stopped, giving the
	// reconnection coordinator its status stimulus. Runs on the dispatcher
	// goroutine.
	onStopped func(sessionID string)

	// onFlush is invoked after a session's pending chunks land in the
	// ledger, so render bridges can pull the new suffix.
	onFlush func(sessionID string)

	mu      sync.Mutex
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFlushInterval overrides the batching flush interval.
func WithFlushInterval(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.flushInterval = d
		}
	}
}

// WithOnStopped sets the stopped-session callback.
func WithOnStopped(fn func(sessionID string)) Option {
	return func(disp *Dispatcher) {
		disp.onStopped = fn
	}
}

// WithOnFlush sets the post-flush callback.
func WithOnFlush(fn func(sessionID string)) Option {
	return func(disp *Dispatcher) {
		disp.onFlush = fn
	}
}

// New creates a dispatcher draining the given event stream into the registry.
func New(registry *session.Registry, stream <-chan events.Event, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:      registry,
		events:        stream,
		flushInterval: DefaultFlushInterval,
		pending:       make(map[string][]string),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start begins the dispatcher loop.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.mu.Unlock()

	log.Debug().Msg("event dispatcher started")

	go d.run()
	return nil
}

// Stop shuts the loop down, flushing any pending output first. Blocks until
// the loop has exited.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	<-d.stopped

	log.Debug().Msg("event dispatcher stopped")
	return nil
}

// IsRunning returns true if the dispatcher loop is active.
func (d *Dispatcher) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// run is the single dispatcher loop.
func (d *Dispatcher) run() {
	defer close(d.stopped)

	for {
		var flushC <-chan time.Time
		if d.timer != nil {
			flushC = d.timer.C
		}

		select {
		case ev, ok := <-d.events:
			if !ok {
				d.flush()
				log.Debug().Msg("event stream closed")
				return
			}
			d.handle(ev)

		case <-flushC:
			d.timer = nil
			d.flush()

		case <-d.done:
			if d.timer != nil {
				d.timer.Stop()
				d.timer = nil
			}
			d.flush()
			return
		}
	}
}

// handle routes one event to the downstream components.
func (d *Dispatcher) handle(ev events.Event) {
	base, ok := ev.(*events.BaseEvent)
	if !ok {
		log.Warn().Str("event_type", string(ev.Type())).Msg("unexpected event implementation")
		return
	}

	switch base.Type() {
	case events.EventTypeTerminalOutput:
		if p, ok := base.Payload.(events.OutputPayload); ok {
			d.handleOutput(p)
			return
		}

	case events.EventTypeTerminalStatus:
		if p, ok := base.Payload.(events.StatusPayload); ok {
			d.handleStatus(p)
			return
		}

	case events.EventTypeTerminalClosed:
		if p, ok := base.Payload.(events.ClosedPayload); ok {
			d.handleClosed(p)
			return
		}

	default:
		log.Warn().Str("event_type", string(base.Type())).Msg("unknown event type")
		return
	}

	log.Warn().Str("event_type", string(base.Type())).Msg("malformed event payload")
}

// handleOutput buffers the chunk for the next flush and updates the activity
// and unseen state immediately. Only the ledger append is deferred; batching
// coalesces append operations, never the logical order.
func (d *Dispatcher) handleOutput(p events.OutputPayload) {
	d.pending[p.SessionID] = append(d.pending[p.SessionID], p.Data)
	if d.timer == nil {
		d.timer = time.NewTimer(d.flushInterval)
	}

	d.registry.Activity().Observe(p.SessionID, p.Data)
	d.registry.Unseen().MarkUnseen(p.SessionID)
}

// handleStatus updates the session record. Sessions first seen through a
// status event are registered on the fly so the reverse index stays complete.
func (d *Dispatcher) handleStatus(p events.StatusPayload) {
	if _, ok := d.registry.Get(p.SessionID); !ok {
		d.registry.Add(session.New(p.SessionID, p.ProjectID))
	}

	status := session.Status(p.Status)
	switch status {
	case session.StatusStarting, session.StatusRunning, session.StatusStopped, session.StatusError:
	default:
		log.Warn().
			Str("session_id", p.SessionID).
			Str("status", p.Status).
			Msg("ignoring unknown session status")
		return
	}

	d.registry.UpdateStatus(p.SessionID, status)

	if status == session.StatusStopped && d.onStopped != nil {
		d.onStopped(p.SessionID)
	}
}

// handleClosed resolves the legacy closed notification to a stopped-status
// event via the tracker's reverse index, then replays it through the status
// path so both forms behave identically.
func (d *Dispatcher) handleClosed(p events.ClosedPayload) {
	projectID, ok := d.registry.Unseen().ProjectFor(p.SessionID)
	if !ok {
		log.Warn().Str("session_id", p.SessionID).Msg("closed event for unregistered session")
		return
	}

	d.handleStatus(events.StatusPayload{
		SessionID: p.SessionID,
		ProjectID: projectID,
		Status:    string(session.StatusStopped),
	})
}

// flush drains the pending map into the ledger, one batch append per session.
func (d *Dispatcher) flush() {
	if len(d.pending) == 0 {
		return
	}

	for sessionID, chunks := range d.pending {
		d.registry.Ledger().AppendBatch(sessionID, chunks)
		delete(d.pending, sessionID)
		if d.onFlush != nil {
			d.onFlush(sessionID)
		}
	}
}

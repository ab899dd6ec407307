// Package bridge connects a session's output ledger to a terminal widget and
// the widget's keystrokes to the host write call.
package bridge

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/brianly1003/termsync/internal/domain"
	"github.com/brianly1003/termsync/internal/domain/ports"
	"github.com/brianly1003/termsync/internal/session"
)

// WriteFunc sends raw input bytes to the session. It is expected to report
// write failures to the reconnection coordinator itself.
type WriteFunc func(data []byte) error

// Bridge replays a session's ledger into a terminal widget and binds the
// widget's input stream back to the host.
//
// The input handler is attached only after all currently-known output has
// been replayed: replayed history can contain escape-sequence queries that
// make the emulator auto-emit response bytes, and with input already bound
// those synthetic responses would reach the live process as if typed. The
// bridge attaches once per widget instance and re-arms whenever the ledger's
// generation changes, since a generation change means a new logical session
// now occupies the widget.
type Bridge struct {
	sessionID string
	ledger    *session.Ledger
	term      ports.Terminal
	write     WriteFunc

	mu         sync.Mutex
	rendered   int
	generation uint64
	attached   bool
	detach     func()
	closed     bool
}

// New creates a bridge for one widget instance. Call Sync to perform the
// initial replay and arm the input handler.
func New(sessionID string, ledger *session.Ledger, term ports.Terminal, write WriteFunc) *Bridge {
	return &Bridge{
		sessionID:  sessionID,
		ledger:     ledger,
		term:       term,
		write:      write,
		generation: ledger.Generation(sessionID),
	}
}

// Sync replays any unrendered ledger suffix into the widget. Called once
// after construction and again after every ledger flush. If the ledger has
// been cleared or replaced since the last sync, the screen and the rendered
// count are reset before resuming so nothing is replayed twice.
func (b *Bridge) Sync() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return domain.ErrBridgeClosed
	}

	chunks, gen := b.ledger.Since(b.sessionID, b.rendered)
	if gen != b.generation {
		log.Debug().
			Str("session_id", b.sessionID).
			Uint64("from", b.generation).
			Uint64("to", gen).
			Msg("ledger generation changed, resetting widget")

		b.term.Reset()
		b.generation = gen
		b.rendered = 0
		b.disarmLocked()

		chunks, _ = b.ledger.Since(b.sessionID, 0)
	}

	for _, chunk := range chunks {
		b.term.Render([]byte(chunk))
	}
	b.rendered += len(chunks)

	// Replay is complete up to everything currently known; input is safe to
	// bind from here on.
	if !b.attached {
		b.detach = b.term.OnInput(b.handleInput)
		b.attached = true
	}

	return nil
}

// Rendered returns how many chunks have been replayed into the widget.
func (b *Bridge) Rendered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rendered
}

// InputAttached reports whether the keystroke handler is currently bound.
func (b *Bridge) InputAttached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attached
}

// Close detaches the input handler and marks the bridge unusable. Called
// when the widget is torn down or the session is removed.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.disarmLocked()
}

func (b *Bridge) handleInput(data []byte) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	if err := b.write(data); err != nil {
		log.Debug().
			Str("session_id", b.sessionID).
			Err(err).
			Msg("session write failed")
	}
}

// disarmLocked detaches the input handler. Caller holds b.mu.
func (b *Bridge) disarmLocked() {
	if b.attached && b.detach != nil {
		b.detach()
	}
	b.attached = false
	b.detach = nil
}

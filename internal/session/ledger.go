package session

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Ledger is the append-only, per-session ordered sequence of output chunks.
// It is the single source of truth the render widget replays from. Chunks are
// retained in memory for the life of the session's client-side existence; the
// host owns durable history.
//
// Every destructive operation (Replace, Clear) bumps the session's generation
// counter. Consumers remember the generation they rendered against; a mismatch
// means the ledger shrank and the consumer must reset its screen and rendered
// count before resuming.
type Ledger struct {
	mu          sync.RWMutex
	chunks      map[string][]string
	generations map[string]uint64
}

// NewLedger creates an empty output ledger.
func NewLedger() *Ledger {
	return &Ledger{
		chunks:      make(map[string][]string),
		generations: make(map[string]uint64),
	}
}

// Append adds a single chunk to a session's sequence.
func (l *Ledger) Append(sessionID, chunk string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks[sessionID] = append(l.chunks[sessionID], chunk)
}

// AppendBatch adds chunks to a session's sequence in order. Batching only
// coalesces append operations, never reorders within a session.
func (l *Ledger) AppendBatch(sessionID string, chunks []string) {
	if len(chunks) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks[sessionID] = append(l.chunks[sessionID], chunks...)
}

// Replace overwrites a session's sequence wholesale. Used when (re)loading
// durable history from the host, once per session on first subscription or
// after an explicit restart.
func (l *Ledger) Replace(sessionID string, chunks []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]string, len(chunks))
	copy(cp, chunks)
	l.chunks[sessionID] = cp
	l.generations[sessionID]++
	log.Debug().
		Str("session_id", sessionID).
		Int("chunks", len(cp)).
		Uint64("generation", l.generations[sessionID]).
		Msg("ledger replaced")
}

// Clear drops a session's sequence. Used when the session's agent is switched
// to a different underlying command and history is no longer relevant.
func (l *Ledger) Clear(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chunks[sessionID] = nil
	l.generations[sessionID]++
	log.Debug().
		Str("session_id", sessionID).
		Uint64("generation", l.generations[sessionID]).
		Msg("ledger cleared")
}

// Remove purges all state for a session. Called when a session is closed.
func (l *Ledger) Remove(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.chunks, sessionID)
	delete(l.generations, sessionID)
}

// Snapshot returns a copy of a session's full sequence in arrival order.
func (l *Ledger) Snapshot(sessionID string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	chunks := l.chunks[sessionID]
	cp := make([]string, len(chunks))
	copy(cp, chunks)
	return cp
}

// Since returns a copy of the chunks beyond offset, together with the current
// generation. The offset is clamped to the sequence length so a consumer that
// missed a shrink never produces a negative-length slice; the generation tells
// it the shrink happened.
func (l *Ledger) Since(sessionID string, offset int) ([]string, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	chunks := l.chunks[sessionID]
	if offset < 0 {
		offset = 0
	}
	if offset > len(chunks) {
		offset = len(chunks)
	}
	cp := make([]string, len(chunks)-offset)
	copy(cp, chunks[offset:])
	return cp, l.generations[sessionID]
}

// Len returns the number of chunks recorded for a session.
func (l *Ledger) Len(sessionID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chunks[sessionID])
}

// Generation returns the session's current generation counter.
func (l *Ledger) Generation(sessionID string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generations[sessionID]
}

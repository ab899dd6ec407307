// Package testutil provides shared test utilities and mocks for termsync
// tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianly1003/termsync/internal/domain/ports"
	"github.com/brianly1003/termsync/internal/session"
)

// MockHost implements ports.Host for testing. Individual calls can be made
// to fail, block, or delay; every call is recorded.
type MockHost struct {
	mu sync.Mutex

	WriteErr    error
	RestartErr  error
	RestartInfo *session.Info

	// RestartGate, when non-nil, blocks Restart until the channel is closed.
	RestartGate chan struct{}

	// RestartDelay delays Restart before it resolves.
	RestartDelay time.Duration

	writes       []string
	restartCalls []string
	markStopped  []string
	closed       []string
	cleared      []string

	histories map[string][]string
	sessions  []*session.Info
}

// NewMockHost creates an empty mock host.
func NewMockHost() *MockHost {
	return &MockHost{
		histories: make(map[string][]string),
	}
}

// SetHistory configures the history returned for a session.
func (m *MockHost) SetHistory(sessionID string, chunks []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histories[sessionID] = chunks
}

// SetSessions configures the session list returned by List.
func (m *MockHost) SetSessions(infos []*session.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = infos
}

// Create returns a session derived from the requested settings.
func (m *MockHost) Create(ctx context.Context, spec ports.SessionSpec) (*session.Info, error) {
	return &session.Info{
		ID:          "mock-session",
		ProjectID:   spec.ProjectID,
		Name:        spec.Name,
		Status:      session.StatusRunning,
		DisplayMode: spec.DisplayMode,
	}, nil
}

// Write records the written data and returns the configured error.
func (m *MockHost) Write(ctx context.Context, sessionID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, string(data))
	return m.WriteErr
}

// Writes returns all written payloads.
func (m *MockHost) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}

// Resize is a no-op.
func (m *MockHost) Resize(ctx context.Context, sessionID string, cols, rows int) error {
	return nil
}

// Close records the closed session.
func (m *MockHost) Close(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, sessionID)
	return nil
}

// Restart records the call, honoring RestartGate, RestartDelay and
// RestartErr.
func (m *MockHost) Restart(ctx context.Context, sessionID string) (*session.Info, error) {
	m.mu.Lock()
	m.restartCalls = append(m.restartCalls, sessionID)
	gate := m.RestartGate
	delay := m.RestartDelay
	err := m.RestartErr
	info := m.RestartInfo
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = &session.Info{ID: sessionID, Status: session.StatusRunning}
	}
	return info, nil
}

// RestartCalls returns the session IDs Restart was invoked with.
func (m *MockHost) RestartCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.restartCalls))
	copy(out, m.restartCalls)
	return out
}

// History returns the configured history for a session.
func (m *MockHost) History(ctx context.Context, sessionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.histories[sessionID], nil
}

// MarkStopped records the call.
func (m *MockHost) MarkStopped(ctx context.Context, sessionID string) (*session.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markStopped = append(m.markStopped, sessionID)
	return &session.Info{ID: sessionID, Status: session.StatusStopped}, nil
}

// MarkStoppedCalls returns the session IDs MarkStopped was invoked with.
func (m *MockHost) MarkStoppedCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.markStopped))
	copy(out, m.markStopped)
	return out
}

// SwitchAgent records the call.
func (m *MockHost) SwitchAgent(ctx context.Context, sessionID, agentID string) (*session.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, sessionID)
	return &session.Info{ID: sessionID, Status: session.StatusRunning}, nil
}

// List returns the configured session list.
func (m *MockHost) List(ctx context.Context) ([]*session.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions, nil
}

// Ensure MockHost implements ports.Host.
var _ ports.Host = (*MockHost)(nil)

// MockTerminal implements ports.Terminal for testing.
type MockTerminal struct {
	mu       sync.Mutex
	rendered []string
	resets   int
	input    func(data []byte)
	attaches int
	detaches int
}

// NewMockTerminal creates a mock terminal widget.
func NewMockTerminal() *MockTerminal {
	return &MockTerminal{}
}

// Render records the rendered data.
func (m *MockTerminal) Render(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rendered = append(m.rendered, string(data))
}

// Reset records a screen reset.
func (m *MockTerminal) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.rendered = nil
}

// OnInput registers the input handler.
func (m *MockTerminal) OnInput(fn func(data []byte)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.input = fn
	m.attaches++
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.input = nil
		m.detaches++
	}
}

// SendInput simulates keystrokes from the widget.
func (m *MockTerminal) SendInput(data []byte) bool {
	m.mu.Lock()
	fn := m.input
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(data)
	return true
}

// Rendered returns everything rendered since the last reset.
func (m *MockTerminal) Rendered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.rendered))
	copy(out, m.rendered)
	return out
}

// Resets returns how many times the screen was reset.
func (m *MockTerminal) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// Attaches returns how many times an input handler was attached.
func (m *MockTerminal) Attaches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attaches
}

// InputAttached reports whether an input handler is currently bound.
func (m *MockTerminal) InputAttached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.input != nil
}

// Ensure MockTerminal implements ports.Terminal.
var _ ports.Terminal = (*MockTerminal)(nil)

// AssertEqual is a simple equality assertion helper.
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertTrue asserts that a condition is true.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected true, got false", msg)
	}
}

// AssertFalse asserts that a condition is false.
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Errorf("%s: expected false, got true", msg)
	}
}

// AssertNoError asserts that an error is nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

// WaitFor polls cond until it returns true or the timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("%s: condition not met within %v", msg, timeout)
}

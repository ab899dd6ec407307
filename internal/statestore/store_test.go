package statestore

import (
	"path/filepath"
	"testing"

	"github.com/brianly1003/termsync/internal/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadSessions(t *testing.T) {
	s := newTestStore(t)

	in := &session.Info{
		ID:          "s1",
		ProjectID:   "p1",
		Name:        "build",
		Status:      session.StatusRunning,
		DisplayMode: session.DisplayModeWorktree,
		IsPrimary:   true,
	}
	if err := s.SaveSession(in); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	out, err := s.LoadSessions()
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("loaded %d sessions, want 1", len(out))
	}
	got := out[0]
	if got.ID != "s1" || got.ProjectID != "p1" || got.Name != "build" {
		t.Errorf("loaded = %+v", got)
	}
	if got.Status != session.StatusRunning {
		t.Errorf("status = %s", got.Status)
	}
	if got.DisplayMode != session.DisplayModeWorktree {
		t.Errorf("display mode = %s", got.DisplayMode)
	}
	if !got.IsPrimary {
		t.Error("is_primary lost")
	}
}

func TestSaveSessionUpserts(t *testing.T) {
	s := newTestStore(t)

	info := &session.Info{ID: "s1", ProjectID: "p1", Status: session.StatusRunning, DisplayMode: session.DisplayModeProjectRoot}
	if err := s.SaveSession(info); err != nil {
		t.Fatal(err)
	}

	info.Status = session.StatusStopped
	info.Name = "renamed"
	if err := s.SaveSession(info); err != nil {
		t.Fatal(err)
	}

	out, err := s.LoadSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("loaded %d sessions, want 1 after upsert", len(out))
	}
	if out[0].Status != session.StatusStopped || out[0].Name != "renamed" {
		t.Errorf("upsert lost changes: %+v", out[0])
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)

	info := &session.Info{ID: "s1", ProjectID: "p1", Status: session.StatusRunning, DisplayMode: session.DisplayModeProjectRoot}
	if err := s.SaveSession(info); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	out, err := s.LoadSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("loaded %d sessions after delete, want 0", len(out))
	}

	// Deleting a missing session is not an error.
	if err := s.DeleteSession("s1"); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestActiveSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if got, err := s.ActiveSession("p1"); err != nil || got != "" {
		t.Fatalf("ActiveSession on empty store = %q, %v", got, err)
	}

	if err := s.SetActiveSession("p1", "s1"); err != nil {
		t.Fatalf("SetActiveSession: %v", err)
	}
	if got, _ := s.ActiveSession("p1"); got != "s1" {
		t.Errorf("ActiveSession = %q, want s1", got)
	}

	// Re-pointing a project replaces the previous value.
	if err := s.SetActiveSession("p1", "s2"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.ActiveSession("p1"); got != "s2" {
		t.Errorf("ActiveSession = %q, want s2", got)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	info := &session.Info{ID: "s1", ProjectID: "p1", Status: session.StatusRunning, DisplayMode: session.DisplayModeProjectRoot}
	if err := s.SaveSession(info); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	out, err := s2.LoadSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "s1" {
		t.Errorf("persisted data lost across reopen: %+v", out)
	}
}

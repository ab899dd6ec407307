package session

import (
	"testing"
	"time"

	"github.com/brianly1003/termsync/internal/activity"
)

func newTestRegistry() *Registry {
	return NewRegistry(activity.NewStore(5 * time.Second))
}

func TestRegistryAddAndGet(t *testing.T) {
	r := newTestRegistry()

	r.Add(New("s1", "p1"))

	s, ok := r.Get("s1")
	if !ok {
		t.Fatal("Get returned false for registered session")
	}
	if s.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", s.ProjectID)
	}

	// Registration also establishes the project mapping.
	projectID, ok := r.Unseen().ProjectFor("s1")
	if !ok || projectID != "p1" {
		t.Errorf("ProjectFor = %q, %t; want p1, true", projectID, ok)
	}
}

func TestRegistryAddIsIdempotent(t *testing.T) {
	r := newTestRegistry()

	first := r.Add(New("s1", "p1"))
	first.SetName("original")

	second := r.Add(New("s1", "p1"))
	if second != first {
		t.Error("Add replaced an existing session record")
	}
	if second.ToInfo().Name != "original" {
		t.Error("existing record lost state on duplicate Add")
	}
}

func TestRegistryUpdateStatus(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))

	r.UpdateStatus("s1", StatusRunning)

	s, _ := r.Get("s1")
	if got := s.GetStatus(); got != StatusRunning {
		t.Errorf("status = %s, want %s", got, StatusRunning)
	}
}

func TestRegistryUpdateStatusUnknownSessionIsNoop(t *testing.T) {
	r := newTestRegistry()
	r.UpdateStatus("ghost", StatusRunning)

	if _, ok := r.Get("ghost"); ok {
		t.Error("status update created a session")
	}
}

func TestRegistryStoppedForcesIdleActivity(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))
	r.UpdateStatus("s1", StatusRunning)

	r.Activity().Observe("s1", "Do you want to proceed?")
	if got := r.GetActivity("s1"); got != activity.SignalWaiting {
		t.Fatalf("activity = %s, want %s", got, activity.SignalWaiting)
	}

	r.UpdateStatus("s1", StatusStopped)
	if got := r.GetActivity("s1"); got != activity.SignalIdle {
		t.Errorf("activity after stop = %s, want %s", got, activity.SignalIdle)
	}
}

func TestRegistryErrorStatusReadsIdle(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))
	r.Activity().Observe("s1", "working")
	r.UpdateStatus("s1", StatusError)

	if got := r.GetActivity("s1"); got != activity.SignalIdle {
		t.Errorf("activity for errored session = %s, want %s", got, activity.SignalIdle)
	}
}

func TestRegistryOutputRoundTrip(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))

	r.Ledger().Append("s1", "hello")
	r.Ledger().Append("s1", "world")

	got := r.GetOutput("s1")
	if len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Errorf("GetOutput = %v", got)
	}
}

func TestRegistryClearOutputBumpsGeneration(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))
	r.Ledger().Append("s1", "x")

	before := r.Ledger().Generation("s1")
	r.ClearOutput("s1")

	if got := r.Ledger().Generation("s1"); got != before+1 {
		t.Errorf("generation = %d, want %d", got, before+1)
	}
}

func TestRegistryRemovePurgesDerivedState(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))
	r.Ledger().Append("s1", "x")
	r.Activity().Observe("s1", "x")
	r.Unseen().MarkUnseen("s1")

	r.Remove("s1")

	if _, ok := r.Get("s1"); ok {
		t.Error("session record survived Remove")
	}
	if r.Ledger().Len("s1") != 0 {
		t.Error("ledger survived Remove")
	}
	if _, ok := r.Activity().StateFor("s1"); ok {
		t.Error("activity state survived Remove")
	}
	if r.HasUnseen("s1") {
		t.Error("unseen flag survived Remove")
	}
}

func TestRegistrySetActiveClearsUnseen(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))
	r.Unseen().MarkUnseen("s1")

	r.SetActive("s1")

	if r.HasUnseen("s1") {
		t.Error("unseen flag survived SetActive")
	}
}

func TestRegistrySessionsSnapshot(t *testing.T) {
	r := newTestRegistry()
	r.Add(New("s1", "p1"))
	r.Add(New("s2", "p2"))

	if got := len(r.Sessions()); got != 2 {
		t.Errorf("Sessions len = %d, want 2", got)
	}
}

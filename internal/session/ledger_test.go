package session

import (
	"reflect"
	"testing"
)

func TestLedgerAppendPreservesOrder(t *testing.T) {
	l := NewLedger()

	l.Append("s1", "foo")
	l.Append("s1", "bar")
	l.AppendBatch("s1", []string{"baz", "qux"})

	got := l.Snapshot("s1")
	want := []string{"foo", "bar", "baz", "qux"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot = %v, want %v", got, want)
	}
}

func TestLedgerSessionsAreIndependent(t *testing.T) {
	l := NewLedger()

	l.Append("s1", "a")
	l.Append("s2", "b")

	if got := l.Len("s1"); got != 1 {
		t.Errorf("Len(s1) = %d, want 1", got)
	}
	if got := l.Len("s2"); got != 1 {
		t.Errorf("Len(s2) = %d, want 1", got)
	}
}

func TestLedgerAppendBatchEmptyIsNoop(t *testing.T) {
	l := NewLedger()
	l.AppendBatch("s1", nil)
	if got := l.Len("s1"); got != 0 {
		t.Errorf("Len = %d, want 0", got)
	}
}

func TestLedgerReplaceBumpsGeneration(t *testing.T) {
	l := NewLedger()
	l.Append("s1", "old")

	before := l.Generation("s1")
	l.Replace("s1", []string{"new-1", "new-2"})

	if got := l.Generation("s1"); got != before+1 {
		t.Errorf("generation = %d, want %d", got, before+1)
	}
	want := []string{"new-1", "new-2"}
	if got := l.Snapshot("s1"); !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot = %v, want %v", got, want)
	}
}

func TestLedgerReplaceCopiesInput(t *testing.T) {
	l := NewLedger()
	src := []string{"a", "b"}
	l.Replace("s1", src)
	src[0] = "mutated"

	if got := l.Snapshot("s1")[0]; got != "a" {
		t.Errorf("ledger saw caller mutation: %q", got)
	}
}

func TestLedgerClearBumpsGeneration(t *testing.T) {
	l := NewLedger()
	l.Append("s1", "x")

	before := l.Generation("s1")
	l.Clear("s1")

	if got := l.Generation("s1"); got != before+1 {
		t.Errorf("generation = %d, want %d", got, before+1)
	}
	if got := l.Len("s1"); got != 0 {
		t.Errorf("Len after Clear = %d, want 0", got)
	}
}

func TestLedgerAppendDoesNotBumpGeneration(t *testing.T) {
	l := NewLedger()
	before := l.Generation("s1")
	l.Append("s1", "x")
	l.AppendBatch("s1", []string{"y"})
	if got := l.Generation("s1"); got != before {
		t.Errorf("generation changed on append: %d -> %d", before, got)
	}
}

func TestLedgerSince(t *testing.T) {
	l := NewLedger()
	l.AppendBatch("s1", []string{"a", "b", "c"})

	got, gen := l.Since("s1", 1)
	if !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Since(1) = %v, want [b c]", got)
	}
	if gen != 0 {
		t.Errorf("generation = %d, want 0", gen)
	}
}

func TestLedgerSinceClampsOffset(t *testing.T) {
	l := NewLedger()
	l.AppendBatch("s1", []string{"a", "b", "c"})
	l.Replace("s1", []string{"a"})

	// A consumer still holding offset 3 from before the shrink must get an
	// empty slice and the new generation, never a panic.
	got, gen := l.Since("s1", 3)
	if len(got) != 0 {
		t.Errorf("Since past end = %v, want empty", got)
	}
	if gen != 1 {
		t.Errorf("generation = %d, want 1", gen)
	}

	if got, _ := l.Since("s1", -2); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Since(-2) = %v, want [a]", got)
	}
}

func TestLedgerRemove(t *testing.T) {
	l := NewLedger()
	l.Append("s1", "x")
	l.Replace("s1", []string{"y"})
	l.Remove("s1")

	if got := l.Len("s1"); got != 0 {
		t.Errorf("Len after Remove = %d, want 0", got)
	}
	if got := l.Generation("s1"); got != 0 {
		t.Errorf("generation after Remove = %d, want 0", got)
	}
}

func TestLedgerSnapshotIsCopy(t *testing.T) {
	l := NewLedger()
	l.Append("s1", "a")

	snap := l.Snapshot("s1")
	snap[0] = "mutated"

	if got := l.Snapshot("s1")[0]; got != "a" {
		t.Errorf("snapshot mutation leaked into ledger: %q", got)
	}
}

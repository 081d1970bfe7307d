package orchestrate

import "testing"

func TestTrackerExtend(t *testing.T) {
	tr := NewTracker()
	tr.Extend("a")
	tr.Extend("b")
	tr.Extend("a")

	if got := tr.Depth(); got != 3 {
		t.Errorf("Depth = %d, want 3", got)
	}
	if got := tr.TotalAttempts(); got != 3 {
		t.Errorf("TotalAttempts = %d, want 3", got)
	}
	if got := tr.AttemptsAt("a"); got != 2 {
		t.Errorf("AttemptsAt(a) = %d, want 2", got)
	}
	if got := tr.AttemptsAt("b"); got != 1 {
		t.Errorf("AttemptsAt(b) = %d, want 1", got)
	}
	if got := tr.AttemptsAt("c"); got != 0 {
		t.Errorf("AttemptsAt(c) = %d, want 0", got)
	}
}

func TestTrackerMarkFailed(t *testing.T) {
	tr := NewTracker()
	tr.MarkFailed("a")
	tr.MarkFailed("")

	if !tr.HasFailed("a") {
		t.Error("a should be marked failed")
	}
	if tr.HasFailed("b") {
		t.Error("b should not be marked failed")
	}
	if tr.HasFailed("") {
		t.Error("empty name must never be recorded as failed")
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	tr.Extend("a")
	tr.Extend("b")
	tr.MarkFailed("a")

	tr.Reset()

	if tr.Depth() != 0 {
		t.Errorf("Depth after reset = %d, want 0", tr.Depth())
	}
	if tr.TotalAttempts() != 0 {
		t.Errorf("TotalAttempts after reset = %d, want 0", tr.TotalAttempts())
	}
	if tr.HasFailed("a") {
		t.Error("failed set should be empty after reset")
	}
}

package session

import (
	"testing"
	"time"
)

var start = time.Date(2025, 6, 1, 21, 0, 0, 0, time.UTC)

func TestTracker_AccuracyAndErrors(t *testing.T) {
	tr := New(start, 60)
	outcomes := []bool{true, true, false, true, false, true, true, true, true, true}
	for i, ok := range outcomes {
		tr.Record(ok, 200, start.Add(time.Duration(i)*time.Second))
	}
	if tr.Keystrokes() != 10 || tr.Errors() != 2 {
		t.Fatalf("counts = (%d, %d), want (10, 2)", tr.Keystrokes(), tr.Errors())
	}
	if got := tr.Accuracy(); got != 0.8 {
		t.Errorf("Accuracy = %v, want 0.8", got)
	}
	if got := tr.RecentErrors(); got != 2 {
		t.Errorf("RecentErrors = %d, want 2", got)
	}
}

func TestTracker_EmptySessionDefaults(t *testing.T) {
	tr := New(start, 0)
	if tr.Accuracy() != 1 || tr.RecentAccuracy() != 1 {
		t.Error("empty session should report perfect accuracy")
	}
	if tr.WPM() != 0 {
		t.Errorf("WPM = %v, want 0 with no latencies", tr.WPM())
	}
}

func TestTracker_WPMFromLatency(t *testing.T) {
	tr := New(start, 60)
	for i := 0; i < 10; i++ {
		tr.Record(true, 200, start.Add(time.Duration(i)*time.Second))
	}
	// 200ms per key -> 300 keys/min -> 60 WPM at 5 chars/word.
	if got := tr.WPM(); got != 60 {
		t.Errorf("WPM = %v, want 60", got)
	}
}

func TestTracker_RecentErrorsWindowed(t *testing.T) {
	tr := New(start, 0)
	// Five early errors, then twelve clean keystrokes push them out of the
	// 10-position window.
	for i := 0; i < 5; i++ {
		tr.Record(false, 200, start.Add(time.Duration(i)*time.Second))
	}
	for i := 5; i < 17; i++ {
		tr.Record(true, 200, start.Add(time.Duration(i)*time.Second))
	}
	if got := tr.RecentErrors(); got != 0 {
		t.Errorf("RecentErrors = %d, want 0 after clean run", got)
	}
}

func TestTracker_RiskContext(t *testing.T) {
	tr := New(start, 55)
	for i := 0; i < 4; i++ {
		tr.Record(i != 1, 250, start.Add(time.Duration(i)*time.Second))
	}
	now := start.Add(10 * time.Minute)
	ctx := tr.RiskContext(now, 0.4, 0.2)
	if ctx.KeyDifficulty != 0.4 || ctx.BigramDifficulty != 0.2 {
		t.Errorf("difficulty passthrough broken: %+v", ctx)
	}
	if ctx.RecentErrors != 1 {
		t.Errorf("RecentErrors = %d, want 1", ctx.RecentErrors)
	}
	if ctx.BaselineWPM != 55 {
		t.Errorf("BaselineWPM = %v, want 55", ctx.BaselineWPM)
	}
	if ctx.HourOfDay != 21 {
		t.Errorf("HourOfDay = %d, want 21", ctx.HourOfDay)
	}
	if ctx.SessionMinutes != 10 {
		t.Errorf("SessionMinutes = %v, want 10", ctx.SessionMinutes)
	}
}

func TestTracker_UniqueIDs(t *testing.T) {
	a := New(start, 0)
	b := New(start, 0)
	if a.ID() == b.ID() || a.ID() == "" {
		t.Errorf("session ids not unique: %q vs %q", a.ID(), b.ID())
	}
}

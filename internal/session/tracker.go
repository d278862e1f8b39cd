// Package session tracks the live typing session: pace, accuracy and the
// short error history the risk predictor reads on every keystroke.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/avandel/keydrill/internal/history"
	"github.com/avandel/keydrill/internal/risk"
)

const (
	// recentWindow bounds the rolling outcome/latency series.
	recentWindow = 50
	// riskPositions is how many recent positions the error count covers.
	riskPositions = 10
)

// Tracker accumulates one session's live statistics.
type Tracker struct {
	id          string
	startedAt   time.Time
	baselineWPM float64

	keystrokes int
	errors     int

	outcomes  *history.Series // 1 = error, 0 = correct
	latencies *history.Series // inter-keystroke latency in ms
}

// New starts a session. baselineWPM is the typist's historical pace, zero
// when unknown.
func New(startedAt time.Time, baselineWPM float64) *Tracker {
	return &Tracker{
		id:          uuid.NewString(),
		startedAt:   startedAt,
		baselineWPM: baselineWPM,
		outcomes:    history.NewSeries(recentWindow),
		latencies:   history.NewSeries(recentWindow),
	}
}

// ID returns the session's unique identifier.
func (t *Tracker) ID() string {
	return t.id
}

// StartedAt returns the session start time.
func (t *Tracker) StartedAt() time.Time {
	return t.startedAt
}

// Record folds one keystroke into the session statistics.
func (t *Tracker) Record(correct bool, latencyMs float64, at time.Time) {
	t.keystrokes++
	outcome := 0.0
	if !correct {
		t.errors++
		outcome = 1.0
	}
	t.outcomes.Add(outcome, at)
	if latencyMs > 0 {
		t.latencies.Add(latencyMs, at)
	}
}

// Keystrokes returns the total keystroke count.
func (t *Tracker) Keystrokes() int {
	return t.keystrokes
}

// Errors returns the total error count.
func (t *Tracker) Errors() int {
	return t.errors
}

// Accuracy returns the whole-session accuracy, 1 when nothing was typed.
func (t *Tracker) Accuracy() float64 {
	if t.keystrokes == 0 {
		return 1
	}
	return float64(t.keystrokes-t.errors) / float64(t.keystrokes)
}

// RecentAccuracy returns accuracy over the rolling window.
func (t *Tracker) RecentAccuracy() float64 {
	vals := t.outcomes.Values()
	if len(vals) == 0 {
		return 1
	}
	errs := 0.0
	for _, v := range vals {
		errs += v
	}
	return 1 - errs/float64(len(vals))
}

// RecentErrors counts errors over the last riskPositions keystrokes.
func (t *Tracker) RecentErrors() int {
	n := 0
	for _, e := range t.outcomes.Last(riskPositions) {
		if e.Value > 0 {
			n++
		}
	}
	return n
}

// WPM estimates current words per minute from recent inter-keystroke
// latency, using the conventional five characters per word.
func (t *Tracker) WPM() float64 {
	avg, ok := t.latencies.Mean()
	if !ok || avg <= 0 {
		return 0
	}
	return 60000 / (5 * avg)
}

// Minutes returns the elapsed session duration.
func (t *Tracker) Minutes(now time.Time) float64 {
	return now.Sub(t.startedAt).Minutes()
}

// RiskContext assembles the predictor input for the next keystroke. The
// caller supplies the difficulty scores for the upcoming key and bigram.
func (t *Tracker) RiskContext(now time.Time, keyDifficulty, bigramDifficulty float64) risk.Context {
	return risk.Context{
		KeyDifficulty:    keyDifficulty,
		BigramDifficulty: bigramDifficulty,
		RecentAccuracy:   t.RecentAccuracy(),
		RecentErrors:     t.RecentErrors(),
		CurrentWPM:       t.WPM(),
		BaselineWPM:      t.baselineWPM,
		HourOfDay:        now.Hour(),
		SessionMinutes:   t.Minutes(now),
	}
}

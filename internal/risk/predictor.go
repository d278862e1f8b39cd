// Package risk estimates the probability that the next keystroke will be an
// error, cheap enough to run inside the keystroke handler.
package risk

import "math"

// Context is the per-keystroke feature set. Zero values are safe defaults;
// the predictor never errors on partial context.
type Context struct {
	// KeyDifficulty is the engine's weakness estimate for the upcoming key
	// in [0,1], 0 when unknown.
	KeyDifficulty float64
	// BigramDifficulty is the n-gram analyzer's score for the transition
	// from the previous key, in [0,1].
	BigramDifficulty float64
	// RecentAccuracy is the session accuracy over recent keystrokes in [0,1].
	RecentAccuracy float64
	// RecentErrors counts errors in the last 10 positions.
	RecentErrors int
	// CurrentWPM and BaselineWPM compare present pace against the typist's
	// norm; pushing past the baseline raises risk.
	CurrentWPM  float64
	BaselineWPM float64
	// HourOfDay is the local hour (0-23).
	HourOfDay int
	// SessionMinutes is the elapsed session duration.
	SessionMinutes float64
}

// Weights below were hand-tuned against replayed drill sessions; the model
// is a logistic blend, not a trained classifier.
const (
	wBias     = -2.2
	wKey      = 2.0
	wBigram   = 1.6
	wAccuracy = 2.4
	wErrors   = 0.35
	wPace     = 0.8
	wFatigue  = 0.5
	wLateHour = 0.3
)

// Predict returns the error probability for the next keystroke in [0,1].
// Pure and allocation-free.
func Predict(ctx Context) float64 {
	z := wBias

	z += wKey * clamp01(ctx.KeyDifficulty)
	z += wBigram * clamp01(ctx.BigramDifficulty)

	// A perfect recent run pulls risk down; a sloppy one pushes it up.
	z += wAccuracy * (1 - clamp01(accuracyOrDefault(ctx.RecentAccuracy)))

	errs := ctx.RecentErrors
	if errs < 0 {
		errs = 0
	}
	if errs > 10 {
		errs = 10
	}
	z += wErrors * float64(errs)

	// Typing faster than the personal baseline trades accuracy for speed.
	if ctx.BaselineWPM > 0 && ctx.CurrentWPM > ctx.BaselineWPM {
		over := (ctx.CurrentWPM - ctx.BaselineWPM) / ctx.BaselineWPM
		if over > 1 {
			over = 1
		}
		z += wPace * over
	}

	// Fatigue ramps in after half an hour and saturates at two hours.
	if ctx.SessionMinutes > 30 {
		fatigue := (ctx.SessionMinutes - 30) / 90
		if fatigue > 1 {
			fatigue = 1
		}
		z += wFatigue * fatigue
	}

	if ctx.HourOfDay >= 23 || ctx.HourOfDay < 6 {
		z += wLateHour
	}

	return sigmoid(z)
}

func accuracyOrDefault(a float64) float64 {
	if a == 0 {
		// No observations yet; assume a typical typist rather than a
		// catastrophic one.
		return 0.9
	}
	return a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sigmoid(z float64) float64 {
	if z < -60 {
		z = -60
	} else if z > 60 {
		z = 60
	}
	return 1 / (1 + math.Exp(-z))
}

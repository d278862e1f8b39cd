// Package schedule converts the engine's estimates into a 0-100 practice
// priority and a spaced-repetition review date.
package schedule

import (
	"math"
	"time"

	"github.com/avandel/keydrill/internal/hmm"
)

const (
	// DefaultBaseIntervalDays seeds the SM-2 style interval growth.
	DefaultBaseIntervalDays = 1.0
	// DefaultMasteryThreshold is the accuracy treated as mastered.
	DefaultMasteryThreshold = 0.95

	minEase = 1.3
	maxEase = 2.5

	minIntervalDays = 1.0
	maxIntervalDays = 30.0
)

// PriorityInput carries everything the priority formula looks at.
type PriorityInput struct {
	AccuracyEstimate      float64
	State                 hmm.State
	RecentTrend           float64 // negative = getting worse
	Confidence            float64
	DaysSinceLastPractice float64
}

// Priority computes the practice priority, clamped to [0,100]. Higher means
// practice sooner.
func Priority(in PriorityInput) float64 {
	p := (1 - in.AccuracyEstimate) * 50

	if in.State == hmm.Regressing {
		p += 20
	}
	if in.RecentTrend < 0 {
		p += math.Abs(in.RecentTrend) * 15
	}
	if in.Confidence < 0.5 {
		p += (0.5 - in.Confidence) * 10
	}
	if in.DaysSinceLastPractice > 1 {
		p += math.Min(in.DaysSinceLastPractice*2, 15)
	}

	return math.Max(0, math.Min(100, p))
}

// OptimalInterval returns the next review interval in days using a modified
// SM-2 policy: the ease factor starts at 2.5, shrinks with poor accuracy,
// recovers slightly with excellent accuracy, and the interval grows
// geometrically with the consecutive-correct count.
func OptimalInterval(accuracy float64, consecutiveCorrect int, baseIntervalDays float64) float64 {
	if baseIntervalDays <= 0 {
		baseIntervalDays = DefaultBaseIntervalDays
	}
	if consecutiveCorrect < 0 {
		consecutiveCorrect = 0
	}

	ease := maxEase
	switch {
	case accuracy < 0.6:
		ease -= 0.8
	case accuracy < 0.8:
		ease -= 0.15
	case accuracy > 0.95:
		ease += 0.1
	}
	if ease < minEase {
		ease = minEase
	}
	if ease > maxEase {
		ease = maxEase
	}

	interval := baseIntervalDays * math.Pow(ease, float64(consecutiveCorrect))
	return math.Max(minIntervalDays, math.Min(maxIntervalDays, interval))
}

// NextReview converts an interval in days into a concrete review date.
func NextReview(now time.Time, intervalDays float64) time.Time {
	return now.Add(time.Duration(intervalDays * 24 * float64(time.Hour)))
}

// SessionsToMastery solves the exponential learning curve
// accuracy(n) = 1 - (1-a0) e^(-rate*n) for the session count n at which
// accuracy reaches threshold. Returns (0, true) when already at or past the
// threshold and ok=false when the learning rate is non-positive (the curve
// never converges).
func SessionsToMastery(currentAccuracy, learningRate, threshold float64) (int, bool) {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultMasteryThreshold
	}
	if currentAccuracy >= threshold {
		return 0, true
	}
	if learningRate <= 0 {
		return 0, false
	}

	n := math.Log((1-currentAccuracy)/(1-threshold)) / learningRate
	sessions := int(math.Ceil(n))
	if sessions < 1 {
		sessions = 1
	}
	return sessions, true
}

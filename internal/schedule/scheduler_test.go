package schedule

import (
	"math"
	"testing"
	"time"

	"github.com/avandel/keydrill/internal/hmm"
)

func TestPriority_Clamped(t *testing.T) {
	// Everything bad at once still caps at 100.
	p := Priority(PriorityInput{
		AccuracyEstimate:      0,
		State:                 hmm.Regressing,
		RecentTrend:           -5,
		Confidence:            0,
		DaysSinceLastPractice: 60,
	})
	if p != 100 {
		t.Errorf("worst case priority = %v, want 100", p)
	}

	// A solid key needs little practice.
	p = Priority(PriorityInput{
		AccuracyEstimate:      1,
		State:                 hmm.Mastered,
		RecentTrend:           0.2,
		Confidence:            1,
		DaysSinceLastPractice: 0.5,
	})
	if p != 0 {
		t.Errorf("best case priority = %v, want 0", p)
	}
}

func TestPriority_Components(t *testing.T) {
	base := Priority(PriorityInput{AccuracyEstimate: 0.8, Confidence: 1})
	if base != 10 {
		t.Fatalf("base = %v, want (1-0.8)*50 = 10", base)
	}

	regressing := Priority(PriorityInput{AccuracyEstimate: 0.8, Confidence: 1, State: hmm.Regressing})
	if regressing != 30 {
		t.Errorf("regressing bonus: got %v, want 30", regressing)
	}

	declining := Priority(PriorityInput{AccuracyEstimate: 0.8, Confidence: 1, RecentTrend: -0.4})
	if declining != 16 {
		t.Errorf("trend bonus: got %v, want 10 + 0.4*15 = 16", declining)
	}

	uncertain := Priority(PriorityInput{AccuracyEstimate: 0.8, Confidence: 0.2})
	if uncertain != 13 {
		t.Errorf("confidence bonus: got %v, want 10 + 0.3*10 = 13", uncertain)
	}

	stale := Priority(PriorityInput{AccuracyEstimate: 0.8, Confidence: 1, DaysSinceLastPractice: 3})
	if stale != 16 {
		t.Errorf("staleness bonus: got %v, want 10 + 6 = 16", stale)
	}

	veryStale := Priority(PriorityInput{AccuracyEstimate: 0.8, Confidence: 1, DaysSinceLastPractice: 100})
	if veryStale != 25 {
		t.Errorf("staleness cap: got %v, want 10 + 15 = 25", veryStale)
	}
}

func TestOptimalInterval_NonDecreasingInConsecutiveCorrect(t *testing.T) {
	for _, accuracy := range []float64{0.8, 0.9, 0.97} {
		prev := 0.0
		for cc := 0; cc <= 12; cc++ {
			got := OptimalInterval(accuracy, cc, DefaultBaseIntervalDays)
			if got < prev {
				t.Fatalf("accuracy %v: interval(%d) = %v < interval(%d) = %v",
					accuracy, cc, got, cc-1, prev)
			}
			prev = got
		}
	}
}

func TestOptimalInterval_Bounds(t *testing.T) {
	if got := OptimalInterval(0.5, 0, 1); got != 1 {
		t.Errorf("floor: got %v, want 1", got)
	}
	if got := OptimalInterval(0.99, 20, 1); got != 30 {
		t.Errorf("ceiling: got %v, want 30", got)
	}
}

func TestOptimalInterval_EaseByAccuracyBand(t *testing.T) {
	// One repetition isolates the ease factor.
	if got := OptimalInterval(0.5, 1, 1); math.Abs(got-1.7) > 1e-12 {
		t.Errorf("low accuracy ease: got %v, want 1.7", got)
	}
	if got := OptimalInterval(0.7, 1, 1); math.Abs(got-2.35) > 1e-12 {
		t.Errorf("mid accuracy ease: got %v, want 2.35", got)
	}
	if got := OptimalInterval(0.9, 1, 1); got != 2.5 {
		t.Errorf("good accuracy ease: got %v, want 2.5", got)
	}
	// The bonus above 0.95 is clamped back to the 2.5 ceiling.
	if got := OptimalInterval(0.99, 1, 1); got != 2.5 {
		t.Errorf("excellent accuracy ease: got %v, want 2.5 (clamped)", got)
	}
}

func TestSessionsToMastery(t *testing.T) {
	n, ok := SessionsToMastery(0.80, 0.1, 0.95)
	if !ok || n < 1 {
		t.Errorf("SessionsToMastery(0.80, 0.1, 0.95) = (%d, %v), want positive", n, ok)
	}
	// ln(0.2/0.05)/0.1 = ln(4)*10 ~ 13.86 -> 14.
	if n != 14 {
		t.Errorf("n = %d, want 14", n)
	}

	n, ok = SessionsToMastery(0.97, 0.1, 0.95)
	if !ok || n != 0 {
		t.Errorf("already mastered: got (%d, %v), want (0, true)", n, ok)
	}

	if _, ok := SessionsToMastery(0.5, 0, 0.95); ok {
		t.Error("zero learning rate reported convergence")
	}
	if _, ok := SessionsToMastery(0.5, -0.1, 0.95); ok {
		t.Error("negative learning rate reported convergence")
	}
}

func TestNextReview(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := NextReview(now, 2.5)
	want := now.Add(60 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("NextReview = %v, want %v", got, want)
	}
}

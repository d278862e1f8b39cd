package hmm

import (
	"math"
	"math/rand"
	"testing"

	"github.com/avandel/keydrill/internal/dist"
)

func newTestTracker(seed int64) *Tracker {
	return NewTracker(dist.NewSampler(rand.New(rand.NewSource(seed))))
}

func TestTracker_BeliefSumsToOne(t *testing.T) {
	tr := newTestTracker(1)
	cases := []struct {
		correct  bool
		speed    float64
		avgSpeed float64
	}{
		{true, 150, 200},
		{false, 400, 200},
		{true, 250, 200},
		{false, 90, 200},
	}
	for i := 0; i < 200; i++ {
		c := cases[i%len(cases)]
		tr.Observe(c.correct, c.speed, c.avgSpeed)
		b := tr.Belief()
		sum := b[0] + b[1] + b[2] + b[3]
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("belief sum = %.15f after %d observations", sum, i+1)
		}
		for j, p := range b {
			if p < 0 || p > 1 {
				t.Fatalf("belief[%d] = %v out of range", j, p)
			}
		}
	}
}

func TestTracker_StartsInLearning(t *testing.T) {
	tr := newTestTracker(2)
	if tr.State() != Learning {
		t.Errorf("initial state = %s, want learning", tr.State())
	}
}

func TestTracker_DeterministicWithSeed(t *testing.T) {
	a := newTestTracker(42)
	b := newTestTracker(42)
	for i := 0; i < 100; i++ {
		sa := a.Observe(i%3 != 0, 180, 200)
		sb := b.Observe(i%3 != 0, 180, 200)
		if sa != sb {
			t.Fatalf("diverged at step %d: %s vs %s", i, sa, sb)
		}
	}
}

func TestTracker_FastCorrectStreakTrendsTowardMastery(t *testing.T) {
	// With consistently fast, correct observations the chain should spend
	// most of its time in proficient or mastered.
	tr := newTestTracker(7)
	counts := map[State]int{}
	const n = 3000
	for i := 0; i < n; i++ {
		counts[tr.Observe(true, 120, 200)]++
	}
	good := counts[Proficient] + counts[Mastered]
	if float64(good)/n < 0.7 {
		t.Errorf("good-state share = %v, want > 0.7 (counts %v)", float64(good)/n, counts)
	}
}

func TestTracker_ErrorStreakAvoidsMastery(t *testing.T) {
	tr := newTestTracker(11)
	counts := map[State]int{}
	const n = 3000
	for i := 0; i < n; i++ {
		counts[tr.Observe(false, 400, 200)]++
	}
	bad := counts[Learning] + counts[Regressing]
	if float64(bad)/n < 0.7 {
		t.Errorf("struggling-state share = %v, want > 0.7 (counts %v)", float64(bad)/n, counts)
	}
}

func TestTracker_SetStateRejectsUnknown(t *testing.T) {
	tr := newTestTracker(3)
	tr.SetState(Mastered)
	if tr.State() != Mastered {
		t.Errorf("State = %s, want mastered", tr.State())
	}
	tr.SetState(State("bogus"))
	if tr.State() != Learning {
		t.Errorf("unknown state restored as %s, want learning", tr.State())
	}
}

func TestTracker_MasteryScoreMatchesBelief(t *testing.T) {
	tr := newTestTracker(5)
	tr.Observe(true, 100, 200)
	b := tr.Belief()
	if got := tr.MasteryScore(); got != b[1]+b[2] {
		t.Errorf("MasteryScore = %v, want %v", got, b[1]+b[2])
	}
}

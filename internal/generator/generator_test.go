package generator

import (
	"math/rand"
	"testing"
)

func newDeterministic() *Generator {
	return NewWithRand(rand.New(rand.NewSource(42)))
}

func TestGenerate_CountAndMembership(t *testing.T) {
	g := newDeterministic()
	words := []string{"one", "two", "three"}
	got := g.Generate(words, 20)
	if len(got) != 20 {
		t.Fatalf("len = %d, want 20", len(got))
	}
	allowed := map[string]bool{"one": true, "two": true, "three": true}
	for _, w := range got {
		if !allowed[w] {
			t.Errorf("generated unknown word %q", w)
		}
	}
}

func TestGenerate_EmptyInputs(t *testing.T) {
	g := newDeterministic()
	if got := g.Generate(nil, 5); got != nil {
		t.Errorf("nil words produced %v", got)
	}
	if got := g.Generate([]string{"a"}, 0); got != nil {
		t.Errorf("zero count produced %v", got)
	}
}

func TestGenerateWeighted_FavorsDifficultKeys(t *testing.T) {
	g := newDeterministic()
	words := []string{"aaa", "zzz"}
	difficulty := map[rune]float64{'z': 0.9}

	const n = 2000
	got := g.GenerateWeighted(words, n, difficulty, 5)
	zCount := 0
	for _, w := range got {
		if w == "zzz" {
			zCount++
		}
	}
	// Weight of "zzz" is 1 + 3*0.9*5 = 14.5 versus 1, so its expected
	// share is ~0.935. Allow slack for sampling noise.
	if float64(zCount)/n < 0.85 {
		t.Errorf("weak-key word share = %.3f, want > 0.85", float64(zCount)/n)
	}
}

func TestGenerateWeighted_NoDifficultyIsUniform(t *testing.T) {
	g := newDeterministic()
	words := []string{"left", "right"}
	got := g.GenerateWeighted(words, 2000, nil, 5)
	left := 0
	for _, w := range got {
		if w == "left" {
			left++
		}
	}
	share := float64(left) / 2000
	if share < 0.4 || share > 0.6 {
		t.Errorf("uniform share = %.3f, want ~0.5", share)
	}
}

func TestGenerateWeighted_Deterministic(t *testing.T) {
	words := []string{"alpha", "beta", "gamma"}
	difficulty := map[rune]float64{'g': 0.5}
	a := NewWithRand(rand.New(rand.NewSource(7))).GenerateWeighted(words, 50, difficulty, 3)
	b := NewWithRand(rand.New(rand.NewSource(7))).GenerateWeighted(words, 50, difficulty, 3)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join([]string{"a", "b", "c"}); got != "a b c" {
		t.Errorf("Join = %q", got)
	}
}

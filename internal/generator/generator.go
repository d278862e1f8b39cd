// Package generator builds drill text biased toward weak keys.
package generator

import (
	"math/rand"
	"strings"
	"time"
)

// Generator produces randomized drill text.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded from the clock.
func New() *Generator {
	return NewWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Generator using the given source. A nil rnd falls
// back to a fixed seed.
func NewWithRand(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	return &Generator{rnd: rnd}
}

// Generate selects count words uniformly.
func (g *Generator) Generate(words []string, count int) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, words[g.rnd.Intn(len(words))])
	}
	return result
}

// GenerateWeighted selects count words with a bias toward words containing
// difficult keys. difficulty maps each key to a score in [0, 1]; factor
// scales how strongly difficulty inflates a word's weight. A word's weight
// is 1 plus factor times the sum of its letters' difficulties, so words
// drilling several weak keys at once are favored most.
func (g *Generator) GenerateWeighted(words []string, count int, difficulty map[rune]float64, factor float64) []string {
	if len(words) == 0 || count <= 0 {
		return nil
	}
	if len(difficulty) == 0 || factor <= 0 {
		return g.Generate(words, count)
	}

	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		sum := 0.0
		for _, r := range word {
			sum += difficulty[r]
		}
		w := 1.0 + sum*factor
		weights[i] = w
		total += w
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := len(words) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		result = append(result, words[idx])
	}
	return result
}

// Join renders generated words as a single drill line.
func Join(words []string) string {
	return strings.Join(words, " ")
}

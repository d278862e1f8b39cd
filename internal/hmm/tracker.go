// Package hmm tracks a latent learning state per key with an
// emission-adjusted, randomized transition step.
package hmm

import "github.com/avandel/keydrill/internal/dist"

// State is the latent learning state of a key.
type State string

const (
	Learning   State = "learning"
	Proficient State = "proficient"
	Mastered   State = "mastered"
	Regressing State = "regressing"
)

// States lists all states in transition-matrix column order.
var States = []State{Learning, Proficient, Mastered, Regressing}

// defaultTransitions holds the base transition probabilities, row = current
// state, columns in States order.
var defaultTransitions = map[State][4]float64{
	Learning:   {0.70, 0.25, 0.03, 0.02},
	Proficient: {0.05, 0.70, 0.20, 0.05},
	Mastered:   {0.01, 0.09, 0.85, 0.05},
	Regressing: {0.20, 0.30, 0.10, 0.40},
}

// Tracker holds the current state of one key and its last belief vector.
//
// The transition step is deliberately a stochastic draw, not a filtered
// maximum-likelihood update: downstream consumers rely on the sampled-state
// distribution, so substituting an expectation would change their
// statistics.
type Tracker struct {
	state   State
	belief  [4]float64
	sampler *dist.Sampler
}

// NewTracker starts a key in the learning state.
func NewTracker(sampler *dist.Sampler) *Tracker {
	t := &Tracker{state: Learning, sampler: sampler}
	t.belief = defaultTransitions[Learning]
	return t
}

// State returns the current sampled state.
func (t *Tracker) State() State {
	return t.state
}

// SetState forces the current state, used when restoring from a snapshot.
// Unknown values fall back to learning.
func (t *Tracker) SetState(s State) {
	if _, ok := defaultTransitions[s]; !ok {
		s = Learning
	}
	t.state = s
	t.belief = defaultTransitions[s]
}

// Belief returns the emission-adjusted, renormalized transition
// probabilities from the last observation, in States order. The four values
// sum to 1.
func (t *Tracker) Belief() [4]float64 {
	return t.belief
}

// Observe adjusts the current state's transition row by the observation's
// emission likelihood, renormalizes, and samples the next state with a
// single cumulative-probability draw.
func (t *Tracker) Observe(wasCorrect bool, speed, avgSpeed float64) State {
	row := defaultTransitions[t.state]

	emissionBonus := 0.5
	if wasCorrect {
		emissionBonus = 1.2
	}
	speedFactor := 0.9
	if speed < avgSpeed {
		speedFactor = 1.1
	}

	if wasCorrect {
		row[0] *= 0.8
		row[3] *= 0.7
	} else {
		row[0] *= 1.3
		row[3] *= 1.5
	}
	row[1] *= emissionBonus
	row[2] *= emissionBonus * speedFactor

	sum := row[0] + row[1] + row[2] + row[3]
	for i := range row {
		row[i] /= sum
	}
	t.belief = row

	u := t.sampler.Float64()
	cum := 0.0
	next := States[len(States)-1]
	for i, p := range row {
		cum += p
		if u <= cum {
			next = States[i]
			break
		}
	}
	t.state = next
	return next
}

// MasteryScore collapses the belief vector into a single competence scalar
// for the ensemble: the probability mass on proficient and mastered.
func (t *Tracker) MasteryScore() float64 {
	return t.belief[1] + t.belief[2]
}

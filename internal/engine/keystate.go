package engine

import (
	"math"
	"time"

	"github.com/avandel/keydrill/internal/dist"
	"github.com/avandel/keydrill/internal/history"
	"github.com/avandel/keydrill/internal/hmm"
)

const (
	// historyCap bounds the rolling attempt/success/speed series per key.
	historyCap = 100
	// curveSampleEvery controls how often a learning-curve point is taken.
	curveSampleEvery = 20
	// curveCap bounds the stored learning curve.
	curveCap = 50

	// plateauWindow and plateauEpsilon define plateau detection: the last
	// few curve samples moving less than epsilon while short of mastery.
	plateauWindow  = 3
	plateauEpsilon = 0.02
)

// sessionPosition buckets where in a session a keystroke landed.
type sessionPosition string

const (
	posEarly sessionPosition = "early"
	posMid   sessionPosition = "mid"
	posLate  sessionPosition = "late"
)

func bucketPosition(keystrokeIndex int) sessionPosition {
	switch {
	case keystrokeIndex < 100:
		return posEarly
	case keystrokeIndex < 300:
		return posMid
	default:
		return posLate
	}
}

// hourStats tracks per-hour attempt/success counts for best-time-of-day
// estimation.
type hourStats struct {
	Attempts  [24]int `json:"attempts"`
	Successes [24]int `json:"successes"`
}

// positionStats tracks attempt/success counts per session position bucket.
type positionStats struct {
	Attempts  map[sessionPosition]int `json:"attempts"`
	Successes map[sessionPosition]int `json:"successes"`
}

// keyState is the full mutable model of one physical key. Created lazily on
// first observation; destroyed only by a full reset.
type keyState struct {
	key rune

	// Bayesian accuracy model. The posterior is always prior + counts, so
	// it dominates the prior componentwise by construction.
	prior     dist.Beta
	successes float64
	failures  float64

	// Gamma speed model over inter-keystroke latency in seconds:
	// latency ~ Exponential(lambda), lambda ~ Gamma(shape, rate).
	shape float64
	rate  float64

	tracker *hmm.Tracker

	attempts      *history.Series // value = latency ms, one per observation
	successSeries *history.Series // 1 = correct, 0 = error
	speeds        *history.Series // latency ms, correct keystrokes only

	hours     hourStats
	positions positionStats
	adjacent  map[rune]int // previous-key co-occurrence

	fingerLoad float64
	finger     string

	learningCurve       []float64
	plateauDetected     bool
	optimalIntervalDays float64

	consecutiveCorrect int
	lastSeen           time.Time

	interventionEffects map[string]float64
	confoundingFactors  []string
}

func newKeyState(key rune, prior dist.Beta, sampler *dist.Sampler) *keyState {
	return &keyState{
		key:           key,
		prior:         prior,
		shape:         2, // weakly informative: mean rate 5 keys/sec
		rate:          0.4,
		tracker:       hmm.NewTracker(sampler),
		attempts:      history.NewSeries(historyCap),
		successSeries: history.NewSeries(historyCap),
		speeds:        history.NewSeries(historyCap),
		positions: positionStats{
			Attempts:  make(map[sessionPosition]int),
			Successes: make(map[sessionPosition]int),
		},
		adjacent:            make(map[rune]int),
		optimalIntervalDays: 1,
		interventionEffects: make(map[string]float64),
	}
}

// posterior returns the current Beta posterior over accuracy.
func (ks *keyState) posterior() dist.Beta {
	return dist.Posterior(ks.prior, ks.successes, ks.failures)
}

// observedN is the effective sample size beyond the prior.
func (ks *keyState) observedN() float64 {
	return ks.successes + ks.failures
}

// accuracy is the posterior mean.
func (ks *keyState) accuracy() float64 {
	return ks.posterior().Mean()
}

// avgSpeedMillis is the mean observed latency over the rolling window,
// falling back to the Gamma posterior when the window is empty.
func (ks *keyState) avgSpeedMillis() float64 {
	if mean, ok := ks.speeds.Mean(); ok {
		return mean
	}
	return 1000 * ks.rate / ks.shape
}

// update folds one observation into every sub-model.
func (ks *keyState) update(wasCorrect bool, speedMs float64, obs observation) {
	avgBefore := ks.avgSpeedMillis()

	if wasCorrect {
		ks.successes++
		ks.consecutiveCorrect++
	} else {
		ks.failures++
		ks.consecutiveCorrect = 0
	}

	ks.attempts.Add(speedMs, obs.at)
	outcome := 0.0
	if wasCorrect {
		outcome = 1.0
	}
	ks.successSeries.Add(outcome, obs.at)

	if speedMs > 0 && wasCorrect {
		ks.speeds.Add(speedMs, obs.at)
		ks.shape++
		ks.rate += speedMs / 1000
	}

	ks.tracker.Observe(wasCorrect, speedMs, avgBefore)

	hour := obs.at.Hour()
	ks.hours.Attempts[hour]++
	pos := bucketPosition(obs.sessionIndex)
	ks.positions.Attempts[pos]++
	if wasCorrect {
		ks.hours.Successes[hour]++
		ks.positions.Successes[pos]++
	}

	if obs.previousKey != 0 {
		ks.adjacent[obs.previousKey]++
	}
	if obs.finger != "" {
		ks.finger = obs.finger
	}
	if obs.hesitationMs > 2000 {
		// A long pause before the keystroke means the sample measures
		// recall, not motor skill.
		ks.noteConfound("long-hesitation")
	}
	ks.lastSeen = obs.at

	ks.sampleLearningCurve()
}

// noteConfound records a deduplicated confounding-factor tag.
func (ks *keyState) noteConfound(tag string) {
	for _, t := range ks.confoundingFactors {
		if t == tag {
			return
		}
	}
	ks.confoundingFactors = append(ks.confoundingFactors, tag)
}

// sampleLearningCurve appends a posterior-mean sample every
// curveSampleEvery observations and refreshes plateau detection.
func (ks *keyState) sampleLearningCurve() {
	n := int(ks.observedN())
	if n == 0 || n%curveSampleEvery != 0 {
		return
	}
	ks.learningCurve = append(ks.learningCurve, ks.accuracy())
	if len(ks.learningCurve) > curveCap {
		ks.learningCurve = ks.learningCurve[len(ks.learningCurve)-curveCap:]
	}
	ks.plateauDetected = ks.detectPlateau()
}

func (ks *keyState) detectPlateau() bool {
	if len(ks.learningCurve) < plateauWindow {
		return false
	}
	recent := ks.learningCurve[len(ks.learningCurve)-plateauWindow:]
	lo, hi := recent[0], recent[0]
	for _, v := range recent[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	// Flat while still short of mastery is a plateau; flat at the top is
	// just mastery.
	return hi-lo < plateauEpsilon && hi < 0.95
}

// learningRate estimates the exponential-curve rate from the stored curve:
// the mean per-sample improvement of -ln(1-accuracy).
func (ks *keyState) learningRate() float64 {
	if len(ks.learningCurve) < 2 {
		return 0
	}
	first := ks.learningCurve[0]
	last := ks.learningCurve[len(ks.learningCurve)-1]
	steps := float64(len(ks.learningCurve) - 1)
	lf := -math.Log(math.Max(1e-9, 1-first))
	ll := -math.Log(math.Max(1e-9, 1-last))
	return (ll - lf) / steps
}

// recentTrend compares accuracy over the last ten attempts against the ten
// before; positive means improving.
func (ks *keyState) recentTrend() float64 {
	vals := ks.successSeries.Values()
	if len(vals) < 20 {
		return 0
	}
	recent := vals[len(vals)-10:]
	prior := vals[len(vals)-20 : len(vals)-10]
	return mean(recent) - mean(prior)
}

// bestHour returns the hour of day with the highest success rate among
// hours with at least five attempts, or -1 when no hour qualifies.
func (ks *keyState) bestHour() int {
	best := -1
	bestRate := -1.0
	for h := 0; h < 24; h++ {
		if ks.hours.Attempts[h] < 5 {
			continue
		}
		rate := float64(ks.hours.Successes[h]) / float64(ks.hours.Attempts[h])
		if rate > bestRate {
			bestRate = rate
			best = h
		}
	}
	return best
}

// bestPosition returns the session position bucket with the highest success
// rate, or "" when nothing qualifies.
func (ks *keyState) bestPosition() sessionPosition {
	var best sessionPosition
	bestRate := -1.0
	for _, pos := range []sessionPosition{posEarly, posMid, posLate} {
		attempts := ks.positions.Attempts[pos]
		if attempts < 5 {
			continue
		}
		rate := float64(ks.positions.Successes[pos]) / float64(attempts)
		if rate > bestRate {
			bestRate = rate
			best = pos
		}
	}
	return best
}

// correlatedKeys returns up to n previous keys most often seen before this
// one, by co-occurrence count.
func (ks *keyState) correlatedKeys(n int) []rune {
	type pair struct {
		key   rune
		count int
	}
	pairs := make([]pair, 0, len(ks.adjacent))
	for k, c := range ks.adjacent {
		pairs = append(pairs, pair{k, c})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && (pairs[j].count > pairs[j-1].count ||
			(pairs[j].count == pairs[j-1].count && pairs[j].key < pairs[j-1].key)); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	if n > len(pairs) {
		n = len(pairs)
	}
	out := make([]rune, n)
	for i := 0; i < n; i++ {
		out[i] = pairs[i].key
	}
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

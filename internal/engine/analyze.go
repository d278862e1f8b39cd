package engine

import (
	"math"
	"sort"
	"time"

	"github.com/avandel/keydrill/internal/dist"
	"github.com/avandel/keydrill/internal/hmm"
	"github.com/avandel/keydrill/internal/schedule"
)

// EnsembleComponents exposes the three raw estimates and their blend, all
// on the competence scale (1 = strong).
type EnsembleComponents struct {
	Bayesian float64
	HMM      float64
	Temporal float64
	Blend    float64
}

// WeaknessResult is a read-only analysis snapshot for one key. It is always
// derivable from the tracked state and never persisted as a source of
// truth.
type WeaknessResult struct {
	Key rune

	Accuracy     float64
	AccuracyLow  float64
	AccuracyHigh float64

	// SpeedMillis is the estimated inter-keystroke latency with a normal
	// approximation interval from the Gamma posterior.
	SpeedMillis     float64
	SpeedMillisLow  float64
	SpeedMillisHigh float64

	State  hmm.State
	Belief map[hmm.State]float64

	Components EnsembleComponents

	WeaknessScore float64 // 1 - blend
	Confidence    float64

	Priority        float64
	NextPractice    time.Time
	IntervalDays    float64
	SessionsToGo    int
	Converges       bool
	LearningRate    float64
	PlateauDetected bool
	PlateauDate     time.Time

	BestHour       int // -1 when unknown
	BestPosition   string
	CorrelatedKeys []rune
	Interventions  []string
	RecentTrend    float64
	DaysSinceSeen  float64
	FingerLoad     float64
}

// Analyze produces the full weakness analysis for one key. Unseen keys get
// a neutral-prior result rather than an error. Deterministic given
// identical state except for the HMM belief, which reflects the stochastic
// transition history.
func (e *Engine) Analyze(key rune) *WeaknessResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzeLocked(key)
}

func (e *Engine) analyzeLocked(key rune) *WeaknessResult {
	now := e.now()
	ks, ok := e.keys[key]
	if !ok {
		ks = newKeyState(key, e.prior(), e.sampler)
	}

	post := ks.posterior()
	accuracy := post.Mean()
	lo, hi := post.CredibleInterval(e.cfg.CredibleLevel)
	confidence := dist.Confidence(ks.observedN())

	speedMs, speedLo, speedHi := ks.speedEstimate()

	bayesian := accuracy
	hmmScore := ks.tracker.MasteryScore()
	temporal := bayesian
	if rate, ok := e.analyzer.ErrorRateForKey(key); ok {
		temporal = 1 - rate
	}
	w := e.cfg.Weights
	blend := bayesian*w.Bayesian + hmmScore*w.HMM + temporal*w.Temporal

	trend := ks.recentTrend()
	daysSince := 0.0
	if !ks.lastSeen.IsZero() {
		daysSince = now.Sub(ks.lastSeen).Hours() / 24
	}

	priority := schedule.Priority(schedule.PriorityInput{
		AccuracyEstimate:      blend,
		State:                 ks.tracker.State(),
		RecentTrend:           trend,
		Confidence:            confidence,
		DaysSinceLastPractice: daysSince,
	})

	interval := schedule.OptimalInterval(accuracy, ks.consecutiveCorrect, e.cfg.BaseIntervalDays)
	ks.optimalIntervalDays = interval

	rate := ks.learningRate()
	sessions, converges := schedule.SessionsToMastery(accuracy, rate, e.cfg.MasteryThreshold)

	var plateauDate time.Time
	if converges && sessions > 0 {
		plateauDate = now.Add(time.Duration(float64(sessions) * interval * 24 * float64(time.Hour)))
	}

	belief := ks.tracker.Belief()
	beliefMap := make(map[hmm.State]float64, len(hmm.States))
	for i, s := range hmm.States {
		beliefMap[s] = belief[i]
	}

	return &WeaknessResult{
		Key:             key,
		Accuracy:        accuracy,
		AccuracyLow:     lo,
		AccuracyHigh:    hi,
		SpeedMillis:     speedMs,
		SpeedMillisLow:  speedLo,
		SpeedMillisHigh: speedHi,
		State:           ks.tracker.State(),
		Belief:          beliefMap,
		Components: EnsembleComponents{
			Bayesian: bayesian,
			HMM:      hmmScore,
			Temporal: temporal,
			Blend:    blend,
		},
		WeaknessScore:   1 - blend,
		Confidence:      confidence,
		Priority:        priority,
		NextPractice:    schedule.NextReview(now, interval),
		IntervalDays:    interval,
		SessionsToGo:    sessions,
		Converges:       converges,
		LearningRate:    rate,
		PlateauDetected: ks.plateauDetected,
		PlateauDate:     plateauDate,
		BestHour:        ks.bestHour(),
		BestPosition:    string(ks.bestPosition()),
		CorrelatedKeys:  ks.correlatedKeys(3),
		Interventions:   recommendInterventions(ks, accuracy, speedMs),
		RecentTrend:     trend,
		DaysSinceSeen:   daysSince,
		FingerLoad:      ks.fingerLoad,
	}
}

// speedEstimate returns the posterior latency estimate in milliseconds with
// a normal-approximation interval on the Gamma rate.
func (ks *keyState) speedEstimate() (mean, lo, hi float64) {
	// lambda ~ Gamma(shape, rate): mean rate shape/rate keys per second.
	lambda := ks.shape / ks.rate
	sd := math.Sqrt(ks.shape) / ks.rate
	mean = 1000 / lambda
	hiRate := lambda + 1.96*sd
	loRate := lambda - 1.96*sd
	if loRate <= 0 {
		loRate = lambda / 10
	}
	// Faster rate = lower latency, so the bounds swap.
	lo = 1000 / hiRate
	hi = 1000 / loRate
	return mean, lo, hi
}

// recommendInterventions applies simple rules over the key's state. Any
// measured intervention effects are surfaced best-first.
func recommendInterventions(ks *keyState, accuracy, speedMs float64) []string {
	var out []string
	if ks.tracker.State() == hmm.Regressing {
		out = append(out, "slow-down")
	}
	if accuracy < 0.8 {
		out = append(out, "accuracy-first")
	}
	if ks.plateauDetected {
		out = append(out, "vary-drills")
	}
	if speedMs > 450 && accuracy >= 0.9 {
		out = append(out, "burst-practice")
	}

	type effect struct {
		name  string
		delta float64
	}
	effects := make([]effect, 0, len(ks.interventionEffects))
	for name, delta := range ks.interventionEffects {
		if delta > 0 {
			effects = append(effects, effect{name, delta})
		}
	}
	sort.Slice(effects, func(i, j int) bool {
		if effects[i].delta != effects[j].delta {
			return effects[i].delta > effects[j].delta
		}
		return effects[i].name < effects[j].name
	})
	for _, ef := range effects {
		out = append(out, ef.name)
	}
	return out
}

// KeySummary is one row of the dashboard aggregate.
type KeySummary struct {
	Key      rune
	Accuracy float64
	SpeedMs  float64
	State    hmm.State
	Priority float64
	Weakness float64
	Attempts int
}

// DashboardData summarizes every tracked key, highest priority first. It is
// a derived view, not authoritative state.
func (e *Engine) DashboardData() []KeySummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]KeySummary, 0, len(e.keys))
	for key, ks := range e.keys {
		res := e.analyzeLocked(key)
		out = append(out, KeySummary{
			Key:      key,
			Accuracy: res.Accuracy,
			SpeedMs:  res.SpeedMillis,
			State:    res.State,
			Priority: res.Priority,
			Weakness: res.WeaknessScore,
			Attempts: int(ks.observedN()),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// WeakKeys returns up to n keys ranked by Thompson-sampled weakness, so
// uncertain keys get explored instead of starving behind the point
// estimates.
func (e *Engine) WeakKeys(n int) map[rune]struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	type draw struct {
		key rune
		w   float64
	}
	draws := make([]draw, 0, len(e.keys))
	for key, ks := range e.keys {
		sample := e.sampler.Thompson(ks.prior, ks.successes, ks.failures)
		draws = append(draws, draw{key: key, w: 1 - sample})
	}
	sort.Slice(draws, func(i, j int) bool {
		if draws[i].w != draws[j].w {
			return draws[i].w > draws[j].w
		}
		return draws[i].key < draws[j].key
	})
	if n > len(draws) {
		n = len(draws)
	}
	out := make(map[rune]struct{}, n)
	for i := 0; i < n; i++ {
		out[draws[i].key] = struct{}{}
	}
	return out
}

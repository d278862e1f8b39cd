// Package engine is the adaptive weakness-detection core: it ingests
// keystroke observations, maintains per-key and per-ngram statistical
// state, and produces weakness analyses and practice priorities.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/avandel/keydrill/internal/dist"
	"github.com/avandel/keydrill/internal/ngram"
	"github.com/avandel/keydrill/internal/risk"
	"github.com/avandel/keydrill/internal/schedule"
)

// Weights blends the three ensemble components. They are renormalized on
// construction, so callers may pass any positive mix.
type Weights struct {
	Bayesian float64 `toml:"bayesian"`
	HMM      float64 `toml:"hmm"`
	Temporal float64 `toml:"temporal"`
}

// DefaultWeights returns the standard (0.5, 0.3, 0.2) blend.
func DefaultWeights() Weights {
	return Weights{Bayesian: 0.5, HMM: 0.3, Temporal: 0.2}
}

func (w Weights) normalized() Weights {
	sum := w.Bayesian + w.HMM + w.Temporal
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{Bayesian: w.Bayesian / sum, HMM: w.HMM / sum, Temporal: w.Temporal / sum}
}

// Config carries the engine's tunables.
type Config struct {
	Weights          Weights
	CredibleLevel    float64
	PriorAlpha       float64
	PriorBeta        float64
	BaseIntervalDays float64
	MasteryThreshold float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		CredibleLevel:    0.95,
		PriorAlpha:       1,
		PriorBeta:        1,
		BaseIntervalDays: schedule.DefaultBaseIntervalDays,
		MasteryThreshold: schedule.DefaultMasteryThreshold,
	}
}

func (c Config) sanitized() Config {
	c.Weights = c.Weights.normalized()
	if c.CredibleLevel <= 0 || c.CredibleLevel >= 1 {
		c.CredibleLevel = 0.95
	}
	if c.PriorAlpha <= 0 {
		c.PriorAlpha = 1
	}
	if c.PriorBeta <= 0 {
		c.PriorBeta = 1
	}
	if c.BaseIntervalDays <= 0 {
		c.BaseIntervalDays = schedule.DefaultBaseIntervalDays
	}
	if c.MasteryThreshold <= 0 || c.MasteryThreshold >= 1 {
		c.MasteryThreshold = schedule.DefaultMasteryThreshold
	}
	return c
}

// observation carries the optional context of one keystroke.
type observation struct {
	at           time.Time
	previousKey  rune
	finger       string
	hesitationMs float64
	sessionIndex int
}

// UpdateContext is the caller-facing optional context for UpdateKey. Zero
// values are treated as absent.
type UpdateContext struct {
	Timestamp    time.Time
	PreviousKey  rune
	Finger       string
	HesitationMs float64
	SessionIndex int
}

// Engine owns all tracked key and n-gram state.
type Engine struct {
	mu sync.Mutex

	cfg      Config
	keys     map[rune]*keyState
	analyzer *ngram.Analyzer
	sampler  *dist.Sampler
	now      func() time.Time

	fingerCounts map[string]int
	totalStrokes int

	deb *debouncer

	initMu sync.Mutex
	init   *initState
}

// Option customizes engine construction.
type Option func(*Engine)

// WithRand injects a deterministic random source for tests.
func WithRand(rnd *rand.Rand) Option {
	return func(e *Engine) { e.sampler = dist.NewSampler(rnd) }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an engine with the given config. Dependencies are explicit:
// callers construct one engine at startup and pass the reference around.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg.sanitized(),
		keys:         make(map[rune]*keyState),
		analyzer:     ngram.NewAnalyzer(),
		sampler:      dist.NewSampler(rand.New(rand.NewSource(time.Now().UnixNano()))),
		now:          time.Now,
		fingerCounts: make(map[string]int),
		deb:          newDebouncer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoaderFunc produces the persisted snapshot, or nil when none exists.
type LoaderFunc func(ctx context.Context) (*SnapshotData, error)

type initState struct {
	done chan struct{}
	err  error
}

// Initialize loads persisted state exactly once. Concurrent and subsequent
// callers share the single in-flight load rather than starting their own.
// A failed or malformed load leaves the engine in its empty default state;
// the error is reported but the engine stays usable.
func (e *Engine) Initialize(ctx context.Context, load LoaderFunc) error {
	e.initMu.Lock()
	if st := e.init; st != nil {
		e.initMu.Unlock()
		<-st.done
		return st.err
	}
	st := &initState{done: make(chan struct{})}
	e.init = st
	e.initMu.Unlock()

	defer close(st.done)
	if load == nil {
		return nil
	}
	snap, err := load(ctx)
	if err != nil {
		st.err = err
		return err
	}
	if snap != nil {
		e.RestoreSnapshot(*snap)
	}
	return nil
}

// UpdateKey folds one keystroke into the model. It never fails: malformed
// or missing fields fall back to defaults, and unknown keys create state
// lazily.
func (e *Engine) UpdateKey(key rune, wasCorrect bool, speedMs float64, uctx UpdateContext) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obs := observation{
		at:           uctx.Timestamp,
		previousKey:  uctx.PreviousKey,
		finger:       uctx.Finger,
		hesitationMs: uctx.HesitationMs,
		sessionIndex: uctx.SessionIndex,
	}
	if obs.at.IsZero() {
		obs.at = e.now()
	}
	if speedMs < 0 {
		speedMs = 0
	}

	ks := e.keyState(key)
	ks.update(wasCorrect, speedMs, obs)

	e.totalStrokes++
	if obs.finger != "" {
		e.fingerCounts[obs.finger]++
		ks.fingerLoad = float64(e.fingerCounts[obs.finger]) / float64(e.totalStrokes)
	}

	e.analyzer.Record(key, obs.at, wasCorrect)
}

// keyState returns the tracked state for key, creating it lazily. Caller
// holds e.mu.
func (e *Engine) keyState(key rune) *keyState {
	ks, ok := e.keys[key]
	if !ok {
		ks = newKeyState(key, e.prior(), e.sampler)
		e.keys[key] = ks
	}
	return ks
}

func (e *Engine) prior() dist.Beta {
	return dist.Beta{Alpha: e.cfg.PriorAlpha, Beta: e.cfg.PriorBeta}
}

// ResetSequence clears the n-gram rolling buffer. Call at the start of each
// exercise.
func (e *Engine) ResetSequence() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.analyzer.ResetSequence()
}

// Reset atomically wipes all tracked keys and n-gram statistics.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = make(map[rune]*keyState)
	e.fingerCounts = make(map[string]int)
	e.totalStrokes = 0
	e.analyzer.Reset()
}

// TrackedKeys returns the tracked keys in no particular order.
func (e *Engine) TrackedKeys() []rune {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]rune, 0, len(e.keys))
	for k := range e.keys {
		out = append(out, k)
	}
	return out
}

// KeyDifficulty returns 1 - posterior accuracy for the key, 0 for unseen
// keys. Cheap enough for the keystroke hot path.
func (e *Engine) KeyDifficulty(key rune) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ks, ok := e.keys[key]
	if !ok {
		return 0
	}
	return 1 - ks.accuracy()
}

// BigramDifficulty proxies the n-gram analyzer's score for the hot path.
func (e *Engine) BigramDifficulty(gram string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer.DifficultyFor(gram)
}

// PredictRisk estimates the error probability of the next keystroke given
// live session context. Synchronous and allocation-light; heavier analysis
// belongs in Analyze or AnalyzeDebounced.
func (e *Engine) PredictRisk(upcoming rune, previous rune, sessionCtx risk.Context) float64 {
	e.mu.Lock()
	if ks, ok := e.keys[upcoming]; ok {
		sessionCtx.KeyDifficulty = 1 - ks.accuracy()
	}
	if previous != 0 {
		sessionCtx.BigramDifficulty = e.analyzer.DifficultyFor(string([]rune{previous, upcoming}))
	}
	e.mu.Unlock()
	return risk.Predict(sessionCtx)
}

// NgramReport pairs the slowest and most error-prone n-grams for display.
type NgramReport struct {
	Slowest    []ngram.Ranked
	ErrorProne []ngram.Ranked
}

// NgramReports returns up to n slowest and n most error-prone n-grams.
func (e *Engine) NgramReports(n int) NgramReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return NgramReport{
		Slowest:    e.analyzer.Slowest(n),
		ErrorProne: e.analyzer.ErrorProne(n),
	}
}

// RecordInterventionEffect stores the measured accuracy delta of a named
// intervention (for example a focused weak-key drill) on one key.
func (e *Engine) RecordInterventionEffect(key rune, name string, delta float64) {
	if name == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keyState(key).interventionEffects[name] = delta
}

// Thompson draws one posterior accuracy sample for the key, used by the
// drill generator to explore uncertain keys rather than always exploiting
// the point estimate.
func (e *Engine) Thompson(key rune) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ks, ok := e.keys[key]
	if !ok {
		return e.sampler.Beta(e.cfg.PriorAlpha, e.cfg.PriorBeta)
	}
	return e.sampler.Thompson(ks.prior, ks.successes, ks.failures)
}

package engine

import (
	"sort"
	"time"

	"github.com/avandel/keydrill/internal/history"
	"github.com/avandel/keydrill/internal/hmm"
	"github.com/avandel/keydrill/internal/ngram"
)

// SnapshotVersion tags the persisted artifact; bump the major on breaking
// shape changes so loaders can reject incompatible data.
const SnapshotVersion = "v1.0.0"

// CountEntry is one flattened map entry with an integer count.
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// EffectEntry is one flattened intervention-effect entry.
type EffectEntry struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// KeySnapshot is the serialization-boundary form of one key's state. All
// in-memory maps are flattened to sorted association lists.
type KeySnapshot struct {
	Key string `json:"key"`

	PriorAlpha float64 `json:"prior_alpha"`
	PriorBeta  float64 `json:"prior_beta"`
	Successes  float64 `json:"successes"`
	Failures   float64 `json:"failures"`

	Shape float64 `json:"shape"`
	Rate  float64 `json:"rate"`

	State string `json:"state"`

	Attempts []history.Entry `json:"attempts"`
	Outcomes []history.Entry `json:"outcomes"`
	Speeds   []history.Entry `json:"speeds"`

	HourAttempts  [24]int `json:"hour_attempts"`
	HourSuccesses [24]int `json:"hour_successes"`

	PositionAttempts  []CountEntry `json:"position_attempts"`
	PositionSuccesses []CountEntry `json:"position_successes"`
	Adjacent          []CountEntry `json:"adjacent"`

	FingerLoad float64 `json:"finger_load"`
	Finger     string  `json:"finger"`

	LearningCurve       []float64 `json:"learning_curve"`
	PlateauDetected     bool      `json:"plateau_detected"`
	OptimalIntervalDays float64   `json:"optimal_interval_days"`

	ConsecutiveCorrect int       `json:"consecutive_correct"`
	LastSeen           time.Time `json:"last_seen"`

	InterventionEffects []EffectEntry `json:"intervention_effects"`
	ConfoundingFactors  []string      `json:"confounding_factors"`
}

// SnapshotData is the complete persisted artifact.
type SnapshotData struct {
	Version string             `json:"version"`
	SavedAt time.Time          `json:"saved_at"`
	Keys    []KeySnapshot      `json:"keys"`
	Ngrams  ngram.SnapshotData `json:"ngrams"`
}

// Snapshot exports the full engine state as a plain data-transfer
// structure. The round trip through RestoreSnapshot is lossless for all
// numeric and state fields.
func (e *Engine) Snapshot() SnapshotData {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([]KeySnapshot, 0, len(e.keys))
	for _, ks := range e.keys {
		keys = append(keys, snapshotKey(ks))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Key < keys[j].Key })

	return SnapshotData{
		Version: SnapshotVersion,
		SavedAt: e.now(),
		Keys:    keys,
		Ngrams:  e.analyzer.SnapshotData(),
	}
}

func snapshotKey(ks *keyState) KeySnapshot {
	snap := KeySnapshot{
		Key:                 string(ks.key),
		PriorAlpha:          ks.prior.Alpha,
		PriorBeta:           ks.prior.Beta,
		Successes:           ks.successes,
		Failures:            ks.failures,
		Shape:               ks.shape,
		Rate:                ks.rate,
		State:               string(ks.tracker.State()),
		Attempts:            ks.attempts.Last(ks.attempts.Len()),
		Outcomes:            ks.successSeries.Last(ks.successSeries.Len()),
		Speeds:              ks.speeds.Last(ks.speeds.Len()),
		HourAttempts:        ks.hours.Attempts,
		HourSuccesses:       ks.hours.Successes,
		FingerLoad:          ks.fingerLoad,
		Finger:              ks.finger,
		LearningCurve:       append([]float64(nil), ks.learningCurve...),
		PlateauDetected:     ks.plateauDetected,
		OptimalIntervalDays: ks.optimalIntervalDays,
		ConsecutiveCorrect:  ks.consecutiveCorrect,
		LastSeen:            ks.lastSeen,
		ConfoundingFactors:  append([]string(nil), ks.confoundingFactors...),
	}

	for pos, n := range ks.positions.Attempts {
		snap.PositionAttempts = append(snap.PositionAttempts, CountEntry{Key: string(pos), Count: n})
	}
	for pos, n := range ks.positions.Successes {
		snap.PositionSuccesses = append(snap.PositionSuccesses, CountEntry{Key: string(pos), Count: n})
	}
	for k, n := range ks.adjacent {
		snap.Adjacent = append(snap.Adjacent, CountEntry{Key: string(k), Count: n})
	}
	for name, delta := range ks.interventionEffects {
		snap.InterventionEffects = append(snap.InterventionEffects, EffectEntry{Name: name, Delta: delta})
	}
	sortCounts(snap.PositionAttempts)
	sortCounts(snap.PositionSuccesses)
	sortCounts(snap.Adjacent)
	sort.Slice(snap.InterventionEffects, func(i, j int) bool {
		return snap.InterventionEffects[i].Name < snap.InterventionEffects[j].Name
	})
	return snap
}

func sortCounts(entries []CountEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
}

// RestoreSnapshot replaces the engine state with the snapshot contents.
// Malformed entries are skipped, never fatal: a damaged snapshot degrades
// to partial or empty state.
func (e *Engine) RestoreSnapshot(data SnapshotData) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.keys = make(map[rune]*keyState, len(data.Keys))
	for _, snap := range data.Keys {
		ks := e.restoreKey(snap)
		if ks != nil {
			e.keys[ks.key] = ks
		}
	}
	e.analyzer.Restore(data.Ngrams)
}

func (e *Engine) restoreKey(snap KeySnapshot) *keyState {
	runes := []rune(snap.Key)
	if len(runes) != 1 {
		return nil
	}
	if snap.Successes < 0 || snap.Failures < 0 {
		return nil
	}

	prior := e.prior()
	if snap.PriorAlpha > 0 && snap.PriorBeta > 0 {
		prior.Alpha = snap.PriorAlpha
		prior.Beta = snap.PriorBeta
	}

	ks := newKeyState(runes[0], prior, e.sampler)
	ks.successes = snap.Successes
	ks.failures = snap.Failures
	if snap.Shape > 0 && snap.Rate > 0 {
		ks.shape = snap.Shape
		ks.rate = snap.Rate
	}
	ks.tracker.SetState(hmm.State(snap.State))

	ks.attempts = history.FromEntries(historyCap, snap.Attempts)
	ks.successSeries = history.FromEntries(historyCap, snap.Outcomes)
	ks.speeds = history.FromEntries(historyCap, snap.Speeds)

	ks.hours.Attempts = snap.HourAttempts
	ks.hours.Successes = snap.HourSuccesses
	for _, ce := range snap.PositionAttempts {
		ks.positions.Attempts[sessionPosition(ce.Key)] = ce.Count
	}
	for _, ce := range snap.PositionSuccesses {
		ks.positions.Successes[sessionPosition(ce.Key)] = ce.Count
	}
	for _, ce := range snap.Adjacent {
		r := []rune(ce.Key)
		if len(r) == 1 && ce.Count > 0 {
			ks.adjacent[r[0]] = ce.Count
		}
	}

	ks.fingerLoad = snap.FingerLoad
	ks.finger = snap.Finger
	ks.learningCurve = append([]float64(nil), snap.LearningCurve...)
	ks.plateauDetected = snap.PlateauDetected
	if snap.OptimalIntervalDays > 0 {
		ks.optimalIntervalDays = snap.OptimalIntervalDays
	}
	if snap.ConsecutiveCorrect > 0 {
		ks.consecutiveCorrect = snap.ConsecutiveCorrect
	}
	ks.lastSeen = snap.LastSeen
	for _, ef := range snap.InterventionEffects {
		if ef.Name != "" {
			ks.interventionEffects[ef.Name] = ef.Delta
		}
	}
	ks.confoundingFactors = append([]string(nil), snap.ConfoundingFactors...)
	return ks
}

// Package ngram tracks timing and error statistics for bigrams and trigrams
// of recent keystrokes, surfacing the slowest and most error-prone
// transitions.
package ngram

import (
	"sort"
	"time"
)

const (
	// bufferSize is the number of recent keystrokes kept for span forming.
	bufferSize = 4
	// MaxSpanMillis rejects spans whose total time implies a pause rather
	// than a transition.
	MaxSpanMillis = 5000
	// DefaultMinAttempts filters reports to n-grams with enough data.
	DefaultMinAttempts = 5
)

// keystroke is one buffered observation.
type keystroke struct {
	char    rune
	at      time.Time
	correct bool
}

// Stat accumulates observations for a single bigram or trigram.
type Stat struct {
	Attempts  int       `json:"attempts"`
	Errors    int       `json:"errors"`
	TotalTime float64   `json:"total_time"`
	AvgTime   float64   `json:"avg_time"`
	ErrorRate float64   `json:"error_rate"`
	LastTyped time.Time `json:"last_typed"`
}

// Ranked pairs an n-gram with its stats for report output.
type Ranked struct {
	Gram string
	Stat Stat
}

// Analyzer consumes a keystroke stream and maintains per-ngram statistics.
type Analyzer struct {
	buffer      []keystroke
	bigrams     map[string]*Stat
	trigrams    map[string]*Stat
	minAttempts int
}

// NewAnalyzer returns an empty analyzer with the default report filter.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		bigrams:     make(map[string]*Stat),
		trigrams:    make(map[string]*Stat),
		minAttempts: DefaultMinAttempts,
	}
}

// Record appends a keystroke to the rolling buffer and updates the bigram
// and, once three keystrokes are buffered, trigram statistics.
func (a *Analyzer) Record(char rune, at time.Time, correct bool) {
	a.buffer = append(a.buffer, keystroke{char: char, at: at, correct: correct})
	if len(a.buffer) > bufferSize {
		a.buffer = a.buffer[len(a.buffer)-bufferSize:]
	}

	if len(a.buffer) >= 2 {
		a.recordSpan(a.buffer[len(a.buffer)-2:], a.bigrams)
	}
	if len(a.buffer) >= 3 {
		a.recordSpan(a.buffer[len(a.buffer)-3:], a.trigrams)
	}
}

// recordSpan validates and folds one span into the given table. Spans with
// non-letter characters or a degenerate time delta are discarded.
func (a *Analyzer) recordSpan(span []keystroke, table map[string]*Stat) {
	runes := make([]rune, len(span))
	hadError := false
	for i, k := range span {
		if k.char < 'a' || k.char > 'z' {
			return
		}
		runes[i] = k.char
		if !k.correct {
			hadError = true
		}
	}

	timeDiff := span[len(span)-1].at.Sub(span[0].at).Milliseconds()
	if timeDiff < 0 || timeDiff > MaxSpanMillis {
		return
	}

	gram := string(runes)
	st := table[gram]
	if st == nil {
		st = &Stat{}
		table[gram] = st
	}
	st.Attempts++
	if hadError {
		st.Errors++
	}
	st.TotalTime += float64(timeDiff)
	st.AvgTime = st.TotalTime / float64(st.Attempts)
	st.ErrorRate = float64(st.Errors) / float64(st.Attempts)
	st.LastTyped = span[len(span)-1].at
}

// ResetSequence clears the rolling buffer. Call at the start of each
// exercise so spans never cross exercise boundaries.
func (a *Analyzer) ResetSequence() {
	a.buffer = a.buffer[:0]
}

// Bigram returns a copy of the stats for the given bigram.
func (a *Analyzer) Bigram(gram string) (Stat, bool) {
	st, ok := a.bigrams[gram]
	if !ok {
		return Stat{}, false
	}
	return *st, true
}

// Trigram returns a copy of the stats for the given trigram.
func (a *Analyzer) Trigram(gram string) (Stat, bool) {
	st, ok := a.trigrams[gram]
	if !ok {
		return Stat{}, false
	}
	return *st, true
}

// Slowest returns up to n bigrams ranked by average time descending,
// filtered to those with at least minAttempts observations.
func (a *Analyzer) Slowest(n int) []Ranked {
	return rank(a.bigrams, n, a.minAttempts, func(s *Stat) float64 { return s.AvgTime }, nil)
}

// ErrorProne returns up to n bigrams ranked by error rate descending,
// skipping bigrams that have never produced an error.
func (a *Analyzer) ErrorProne(n int) []Ranked {
	keep := func(s *Stat) bool { return s.ErrorRate > 0 }
	return rank(a.bigrams, n, a.minAttempts, func(s *Stat) float64 { return s.ErrorRate }, keep)
}

// DifficultyFor scores the given bigram in [0,1] for the risk predictor:
// a blend of error rate and normalized slowness. Unknown bigrams score 0.
func (a *Analyzer) DifficultyFor(gram string) float64 {
	st, ok := a.bigrams[gram]
	if !ok || st.Attempts == 0 {
		return 0
	}
	slowness := st.AvgTime / MaxSpanMillis
	if slowness > 1 {
		slowness = 1
	}
	d := 0.7*st.ErrorRate + 0.3*slowness
	if d > 1 {
		d = 1
	}
	return d
}

// ErrorRateForKey returns the mean error rate across bigrams containing the
// key, feeding the ensemble's temporal component. ok is false when no
// bigram contains the key.
func (a *Analyzer) ErrorRateForKey(key rune) (float64, bool) {
	sum := 0.0
	count := 0
	for gram, st := range a.bigrams {
		for _, r := range gram {
			if r == key {
				sum += st.ErrorRate
				count++
				break
			}
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func rank(table map[string]*Stat, n, minAttempts int, score func(*Stat) float64, keep func(*Stat) bool) []Ranked {
	out := make([]Ranked, 0, len(table))
	for gram, st := range table {
		if st.Attempts < minAttempts {
			continue
		}
		if keep != nil && !keep(st) {
			continue
		}
		out = append(out, Ranked{Gram: gram, Stat: *st})
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := score(&out[i].Stat), score(&out[j].Stat)
		if si == sj {
			return out[i].Gram < out[j].Gram
		}
		return si > sj
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

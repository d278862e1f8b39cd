package ngram

import "sort"

// SnapshotEntry is one flattened map entry in the persisted form.
type SnapshotEntry struct {
	Gram string `json:"gram"`
	Stat Stat   `json:"stat"`
}

// SnapshotData is the serialization-boundary form of the analyzer: the
// in-memory maps flattened to sorted association lists.
type SnapshotData struct {
	Bigrams  []SnapshotEntry `json:"bigrams"`
	Trigrams []SnapshotEntry `json:"trigrams"`
}

// SnapshotData exports the current statistics. The rolling buffer is
// transient and intentionally not persisted.
func (a *Analyzer) SnapshotData() SnapshotData {
	return SnapshotData{
		Bigrams:  flatten(a.bigrams),
		Trigrams: flatten(a.trigrams),
	}
}

// Restore replaces the analyzer's statistics with the snapshot contents.
// Entries with invalid counts are skipped rather than erroring.
func (a *Analyzer) Restore(data SnapshotData) {
	a.bigrams = unflatten(data.Bigrams)
	a.trigrams = unflatten(data.Trigrams)
	a.buffer = a.buffer[:0]
}

// Reset drops all statistics and the rolling buffer.
func (a *Analyzer) Reset() {
	a.bigrams = make(map[string]*Stat)
	a.trigrams = make(map[string]*Stat)
	a.buffer = a.buffer[:0]
}

func flatten(table map[string]*Stat) []SnapshotEntry {
	out := make([]SnapshotEntry, 0, len(table))
	for gram, st := range table {
		out = append(out, SnapshotEntry{Gram: gram, Stat: *st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Gram < out[j].Gram })
	return out
}

func unflatten(entries []SnapshotEntry) map[string]*Stat {
	table := make(map[string]*Stat, len(entries))
	for _, e := range entries {
		if e.Gram == "" || e.Stat.Attempts < 0 || e.Stat.Errors < 0 {
			continue
		}
		st := e.Stat
		table[e.Gram] = &st
	}
	return table
}

package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avandel/keydrill/internal/engine"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "keydrill.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSnapshot(t *testing.T) engine.SnapshotData {
	t.Helper()
	e := engine.New(engine.DefaultConfig())
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		e.UpdateKey('t', i%4 != 0, 180, engine.UpdateContext{Timestamp: at.Add(time.Duration(i) * time.Second)})
		e.UpdateKey('h', true, 210, engine.UpdateContext{Timestamp: at.Add(time.Duration(i)*time.Second + 200*time.Millisecond), PreviousKey: 't'})
	}
	return e.Snapshot()
}

func TestStore_SnapshotSaveAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Empty store: no snapshot, no error.
	snap, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	want := testSnapshot(t)
	require.NoError(t, s.SaveSnapshot(ctx, want))

	got, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Version, got.Version)
	require.Len(t, got.Keys, len(want.Keys))
	for i := range want.Keys {
		assert.Equal(t, want.Keys[i].Key, got.Keys[i].Key)
		assert.Equal(t, want.Keys[i].Successes, got.Keys[i].Successes)
		assert.Equal(t, want.Keys[i].Failures, got.Keys[i].Failures)
		assert.Equal(t, want.Keys[i].Shape, got.Keys[i].Shape)
		assert.Equal(t, want.Keys[i].Rate, got.Keys[i].Rate)
		assert.Equal(t, want.Keys[i].State, got.Keys[i].State)
	}
	assert.Equal(t, want.Ngrams, got.Ngrams)
}

func TestStore_LatestReturnsMostRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := testSnapshot(t)
	require.NoError(t, s.SaveSnapshot(ctx, first))

	second := testSnapshot(t)
	second.SavedAt = first.SavedAt.Add(time.Hour)
	require.NoError(t, s.SaveSnapshot(ctx, second))

	got, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.SavedAt.Unix(), got.SavedAt.Unix())
}

func TestStore_LatestToleratesGarbage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.DB().ExecContext(ctx,
		`INSERT INTO snapshots (version, saved_at, data) VALUES ('v1.0.0', '2025-06-01', 'not json')`)
	require.NoError(t, err)

	got, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "garbage blob must degrade to no snapshot, not error")
}

func TestDecodeSnapshot_RejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing version": `{"keys": [], "ngrams": {}}`,
		"bad version":     `{"version": "1.0", "keys": [], "ngrams": {}}`,
		"keys not array":  `{"version": "v1.0.0", "keys": {}, "ngrams": {}}`,
		"negative counts": `{"version": "v1.0.0", "keys": [{"key": "a", "successes": -1, "failures": 0}], "ngrams": {}}`,
	}
	for name, blob := range cases {
		if _, ok := DecodeSnapshot([]byte(blob)); ok {
			t.Errorf("%s: decode accepted invalid blob", name)
		}
	}
}

func TestDecodeSnapshot_RejectsIncompatibleMajor(t *testing.T) {
	snap := testSnapshot(t)
	snap.Version = "v2.0.0"
	blob, err := json.Marshal(snap)
	require.NoError(t, err)
	_, ok := DecodeSnapshot(blob)
	assert.False(t, ok, "major version bump must be rejected")

	snap.Version = "v1.4.2"
	blob, err = json.Marshal(snap)
	require.NoError(t, err)
	_, ok = DecodeSnapshot(blob)
	assert.True(t, ok, "same-major newer minor must load")
}

func TestStore_PruneSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveSnapshot(ctx, testSnapshot(t)))
	}
	require.NoError(t, s.PruneSnapshots(ctx, 2))

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestStore_SessionsAndBaseline(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, wpm := range []float64{40, 50, 60} {
		require.NoError(t, s.InsertSession(ctx, SessionRecord{
			ID:         "session-" + string(rune('a'+i)),
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			EndedAt:    base.Add(time.Duration(i)*time.Hour + 10*time.Minute),
			Keystrokes: 500,
			Errors:     25,
			WPM:        wpm,
		}))
	}

	got, err := s.BaselineWPM(ctx, 10)
	require.NoError(t, err)
	assert.InDelta(t, 50, got, 1e-9)

	// Only the most recent two.
	got, err = s.BaselineWPM(ctx, 2)
	require.NoError(t, err)
	assert.InDelta(t, 55, got, 1e-9)
}

func TestStore_BaselineWPMEmpty(t *testing.T) {
	s := openTestStore(t)
	got, err := s.BaselineWPM(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestStore_WipeIsAtomicAndComplete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveSnapshot(ctx, testSnapshot(t)))
	require.NoError(t, s.InsertSession(ctx, SessionRecord{
		ID: "session-x", StartedAt: time.Now(), EndedAt: time.Now(), WPM: 42,
	}))

	require.NoError(t, s.Wipe(ctx))

	snap, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	wpm, err := s.BaselineWPM(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, wpm)
}

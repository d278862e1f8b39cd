package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/avandel/keydrill/internal/engine"
)

// snapshotSchema validates the persisted artifact's shape before any field
// is trusted. Damaged or foreign blobs are rejected up front so the engine
// falls back to defaults instead of half-loading garbage.
const snapshotSchema = `{
	"type": "object",
	"required": ["version", "keys", "ngrams"],
	"properties": {
		"version": {"type": "string", "pattern": "^v[0-9]+\\.[0-9]+\\.[0-9]+$"},
		"saved_at": {"type": "string"},
		"keys": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["key", "successes", "failures"],
				"properties": {
					"key": {"type": "string", "minLength": 1},
					"successes": {"type": "number", "minimum": 0},
					"failures": {"type": "number", "minimum": 0},
					"shape": {"type": "number"},
					"rate": {"type": "number"},
					"state": {"type": "string"}
				}
			}
		},
		"ngrams": {
			"type": "object",
			"properties": {
				"bigrams": {"type": "array"},
				"trigrams": {"type": "array"}
			}
		}
	}
}`

var (
	compileSchemaOnce sync.Once
	compiledSchema    *jsonschema.Schema
	compileSchemaErr  error
)

func snapshotValidator() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(snapshotSchema))
		if err != nil {
			compileSchemaErr = fmt.Errorf("parse snapshot schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("snapshot.json", doc); err != nil {
			compileSchemaErr = fmt.Errorf("add snapshot schema: %w", err)
			return
		}
		compiledSchema, compileSchemaErr = c.Compile("snapshot.json")
	})
	return compiledSchema, compileSchemaErr
}

// SaveSnapshot persists the engine state. Writes are fire-and-forget from
// the caller's perspective; this is rebuildable analytics, not a ledger.
func (s *Store) SaveSnapshot(ctx context.Context, data engine.SnapshotData) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (version, saved_at, data) VALUES (?, ?, ?)`,
		data.Version, data.SavedAt.Format(time.RFC3339Nano), string(blob))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent loadable snapshot, or nil when
// none exists or the stored data is invalid or from an incompatible major
// version. Bad data is never an error at load time.
func (s *Store) LatestSnapshot(ctx context.Context) (*engine.SnapshotData, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	snap, ok := DecodeSnapshot([]byte(blob))
	if !ok {
		return nil, nil
	}
	return snap, nil
}

// DecodeSnapshot validates and unmarshals a snapshot blob. ok is false for
// malformed, schema-violating, or version-incompatible input.
func DecodeSnapshot(blob []byte) (*engine.SnapshotData, bool) {
	var parsed any
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return nil, false
	}
	sch, err := snapshotValidator()
	if err != nil {
		return nil, false
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, false
	}

	var snap engine.SnapshotData
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, false
	}
	if !semver.IsValid(snap.Version) || semver.Major(snap.Version) != semver.Major(engine.SnapshotVersion) {
		return nil, false
	}
	return &snap, true
}

// PruneSnapshots deletes all but the keep most recent snapshots.
func (s *Store) PruneSnapshots(ctx context.Context, keep int) error {
	if keep < 1 {
		keep = 1
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

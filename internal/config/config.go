// Package config provides TOML configuration and XDG path helpers.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/avandel/keydrill/internal/engine"
)

// FileConfig represents the TOML configuration file. Pointer fields
// distinguish "absent" from zero.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Ensemble EnsembleConfig `toml:"ensemble"`
	Engine   EngineConfig   `toml:"engine"`
}

// PracticeConfig maps drill-related settings.
type PracticeConfig struct {
	Words      *int     `toml:"words"`
	WordList   *string  `toml:"wordlist"`
	WeakTop    *int     `toml:"weak-top"`
	WeakFactor *float64 `toml:"weak-factor"`
}

// EnsembleConfig maps the predictor blend weights.
type EnsembleConfig struct {
	Bayesian *float64 `toml:"bayesian"`
	HMM      *float64 `toml:"hmm"`
	Temporal *float64 `toml:"temporal"`
}

// EngineConfig maps core engine tunables.
type EngineConfig struct {
	CredibleLevel    *float64 `toml:"credible-level"`
	PriorAlpha       *float64 `toml:"prior-alpha"`
	PriorBeta        *float64 `toml:"prior-beta"`
	BaseIntervalDays *float64 `toml:"base-interval-days"`
	MasteryThreshold *float64 `toml:"mastery-threshold"`
}

// Load reads a TOML config from the given path. A missing file is not an
// error; an unreadable or invalid one is.
func Load(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// EngineConfig merges the file settings over the engine defaults.
func (fc FileConfig) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if fc.Ensemble.Bayesian != nil {
		cfg.Weights.Bayesian = *fc.Ensemble.Bayesian
	}
	if fc.Ensemble.HMM != nil {
		cfg.Weights.HMM = *fc.Ensemble.HMM
	}
	if fc.Ensemble.Temporal != nil {
		cfg.Weights.Temporal = *fc.Ensemble.Temporal
	}
	if fc.Engine.CredibleLevel != nil {
		cfg.CredibleLevel = *fc.Engine.CredibleLevel
	}
	if fc.Engine.PriorAlpha != nil {
		cfg.PriorAlpha = *fc.Engine.PriorAlpha
	}
	if fc.Engine.PriorBeta != nil {
		cfg.PriorBeta = *fc.Engine.PriorBeta
	}
	if fc.Engine.BaseIntervalDays != nil {
		cfg.BaseIntervalDays = *fc.Engine.BaseIntervalDays
	}
	if fc.Engine.MasteryThreshold != nil {
		cfg.MasteryThreshold = *fc.Engine.MasteryThreshold
	}
	return cfg
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "keydrill", "config.toml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "keydrill", "keydrill.db")
}

// DefaultWordListPath returns the default word list location.
func DefaultWordListPath() string {
	return filepath.Join(XDGConfigHome(), "keydrill", "words.txt")
}

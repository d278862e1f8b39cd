// Package cmd wires the keydrill CLI.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avandel/keydrill/internal/config"
	"github.com/avandel/keydrill/internal/engine"
	"github.com/avandel/keydrill/internal/generator"
	"github.com/avandel/keydrill/internal/store"
	"github.com/avandel/keydrill/internal/tui"
	"github.com/avandel/keydrill/internal/wordlist"
)

var rootCmd = &cobra.Command{
	Use:   "keydrill",
	Short: "Adaptive typing drills that target your weakest keys",
	Long: "Keydrill tracks per-key accuracy and speed with a Bayesian model,\n" +
		"schedules practice for the keys most at risk, and generates drill\n" +
		"text biased toward them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDrill(cmd)
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides KEYDRILL_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to TOML config file")

	rootCmd.Flags().Int("words", 0, "Words per drill (overrides config)")
	rootCmd.Flags().String("wordlist", "", "Word list file, one word per line")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then KEYDRILL_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if p := os.Getenv("KEYDRILL_DB"); p != "" {
		return p, store.EnsureDir(p)
	}
	p := config.DefaultDBPath()
	return p, store.EnsureDir(p)
}

func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, err := resolveDBPath(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}

// loadEngine builds the engine from config and restores the latest
// snapshot. A missing or damaged snapshot starts fresh.
func loadEngine(ctx context.Context, fc config.FileConfig, st *store.Store) *engine.Engine {
	eng := engine.New(fc.EngineConfig())
	if err := eng.Initialize(ctx, st.LatestSnapshot); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load saved state: %v\n", err)
	}
	return eng
}

func runDrill(cmd *cobra.Command) error {
	fc, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	eng := loadEngine(ctx, fc, st)

	baseline, err := st.BaselineWPM(ctx, 10)
	if err != nil {
		return err
	}

	opts := tui.DefaultOptions()
	opts.BaselineWPM = baseline
	if fc.Practice.Words != nil {
		opts.Words = *fc.Practice.Words
	}
	if fc.Practice.WeakTop != nil {
		opts.WeakTop = *fc.Practice.WeakTop
	}
	if fc.Practice.WeakFactor != nil {
		opts.WeakFactor = *fc.Practice.WeakFactor
	}
	if n, _ := cmd.Flags().GetInt("words"); n > 0 {
		opts.Words = n
	}

	listPath := ""
	if fc.Practice.WordList != nil {
		listPath = *fc.Practice.WordList
	}
	if p, _ := cmd.Flags().GetString("wordlist"); p != "" {
		listPath = p
	}
	words := wordlist.LoadOrDefault(listPath)

	return tui.Run(tui.NewModel(eng, st, generator.New(), words, opts))
}

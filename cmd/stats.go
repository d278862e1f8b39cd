package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avandel/keydrill/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats [key]",
	Short: "Show the key weakness report, or a single key's analysis",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := loadFileConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		eng := loadEngine(cmd.Context(), fc, st)

		if len(args) == 1 {
			keys := []rune(args[0])
			if len(keys) != 1 {
				return fmt.Errorf("expected a single key, got %q", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), report.KeyDetail(eng.Analyze(keys[0]), time.Now()))
			return nil
		}

		top, _ := cmd.Flags().GetInt("top")
		fmt.Fprint(cmd.OutOrStdout(), report.Dashboard(eng.DashboardData(), top))

		n := top
		if n <= 0 {
			n = 5
		}
		if section := report.NgramSection(eng.NgramReports(n)); section != "" {
			fmt.Fprint(cmd.OutOrStdout(), "\n"+section)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("top", 0, "Show only the N highest-priority keys")
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the current engine snapshot as JSON",
	Long: "Exports the latest persisted snapshot. With no file argument the\n" +
		"JSON is written to stdout.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := st.LatestSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		if snap == nil {
			return fmt.Errorf("no snapshot to export - run a drill first")
		}

		blob, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		blob = append(blob, '\n')

		if len(args) == 0 {
			_, err = cmd.OutOrStdout().Write(blob)
			return err
		}
		return os.WriteFile(args[0], blob, 0o644)
	},
}

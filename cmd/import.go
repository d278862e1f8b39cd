package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avandel/keydrill/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load an exported snapshot JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		blob, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		snap, ok := store.DecodeSnapshot(blob)
		if !ok {
			return fmt.Errorf("%s is not a valid keydrill snapshot", args[0])
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveSnapshot(cmd.Context(), *snap); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported snapshot with %d keys\n", len(snap.Keys))
		return nil
	},
}

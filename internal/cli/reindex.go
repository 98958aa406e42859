package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the digest index from Tier 2 files",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		n, err := eng.RebuildIndex()
		if err != nil {
			return err
		}
		fmt.Printf("indexed %d digest(s)\n", n)
		return nil
	},
}

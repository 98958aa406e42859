package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show storage usage for both tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		s, err := eng.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("tier1: %d record(s), %d bytes\n", s.Tier1Records, s.Tier1Bytes)
		fmt.Printf("tier2: %d digest(s), %d bytes\n", s.Tier2Digests, s.Tier2Bytes)
		return nil
	},
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	archiveCI     string
	archiveMaxAge int
	archiveDryRun bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Consolidate old records into Tier 2 digests",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, cfg, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		maxAge := archiveMaxAge
		if maxAge < 0 {
			maxAge = cfg.Archive.MaxAgeDays
		}

		if archiveDryRun {
			entries, err := eng.AtRisk(archiveCI, maxAge)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  %s\n    %s\n", e.RecordID, e.Reason, e.ContentPreview)
			}
			fmt.Printf("%d record(s) at risk\n", len(entries))
			return nil
		}

		archived, err := eng.Archive(archiveCI, maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("archived %d record(s)\n", archived)
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVar(&archiveCI, "ci", "", "owning identity (required)")
	archiveCmd.Flags().IntVar(&archiveMaxAge, "max-age-days", -1, "retention window (default from config)")
	archiveCmd.Flags().BoolVar(&archiveDryRun, "dry-run", false, "list at-risk records without archiving")
	archiveCmd.MarkFlagRequired("ci")
}

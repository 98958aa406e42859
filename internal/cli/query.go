package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/memory"
)

var (
	queryCI         string
	queryStart      int64
	queryEnd        int64
	queryType       int
	queryImportance float64
	queryLimit      int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Scan Tier 1 records, newest day first",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		records, err := eng.Query(memory.Filter{
			CIID:          queryCI,
			StartTime:     queryStart,
			EndTime:       queryEnd,
			Type:          memory.RecordType(queryType),
			MinImportance: queryImportance,
			Limit:         queryLimit,
		})
		if err != nil {
			return err
		}

		for _, r := range records {
			ts := time.Unix(r.Timestamp, 0).Format("2006-01-02 15:04")
			flag := " "
			if r.Archived {
				flag = "A"
			}
			fmt.Printf("%s %s [%s] imp=%.2f %s\n", flag, ts, r.ID, r.Importance, r.Content)
		}
		fmt.Printf("%d record(s)\n", len(records))
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryCI, "ci", "", "owning identity")
	queryCmd.Flags().Int64Var(&queryStart, "start", 0, "start of time range (unix seconds, inclusive)")
	queryCmd.Flags().Int64Var(&queryEnd, "end", 0, "end of time range (unix seconds, inclusive)")
	queryCmd.Flags().IntVar(&queryType, "type", 0, "record type filter (0 = all)")
	queryCmd.Flags().Float64Var(&queryImportance, "min-importance", 0, "minimum importance")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "max results (0 = unbounded)")
}

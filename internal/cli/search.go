package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/memory"
)

var searchField string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search archived digests by concept or keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		var digests []*memory.Digest
		switch searchField {
		case "concepts":
			digests, err = eng.SearchConcepts(args[0])
		case "keywords":
			digests, err = eng.SearchKeywords(args[0])
		default:
			return fmt.Errorf("unknown search field %q (want concepts or keywords)", searchField)
		}
		if err != nil {
			return err
		}

		for _, d := range digests {
			fmt.Printf("%s  [%s]\n    %s\n", d.ID, strings.Join(d.Themes, ", "), d.Summary)
		}
		fmt.Printf("%d digest(s)\n", len(digests))
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchField, "field", "concepts", "search field: concepts or keywords")
}

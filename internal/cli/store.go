package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/memory"
)

var (
	storeCI          string
	storeSession     string
	storeType        int
	storeImportance  float64
	storeResponse    string
	storeContext     string
	storeComponent   string
	storeEmotion     float64
	storeImportant   bool
	storeForgettable bool
)

var storeCmd = &cobra.Command{
	Use:   "store <content>",
	Short: "Store one record to Tier 1",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		rec := &memory.Record{
			CIID:              storeCI,
			SessionID:         storeSession,
			Type:              memory.RecordType(storeType),
			Importance:        storeImportance,
			Content:           args[0],
			Response:          storeResponse,
			Context:           storeContext,
			Component:         storeComponent,
			EmotionIntensity:  storeEmotion,
			MarkedImportant:   storeImportant,
			MarkedForgettable: storeForgettable,
		}
		if err := eng.Store(rec); err != nil {
			return err
		}
		fmt.Println(rec.ID)
		return nil
	},
}

func init() {
	storeCmd.Flags().StringVar(&storeCI, "ci", "", "owning identity (required)")
	storeCmd.Flags().StringVar(&storeSession, "session", "", "session id")
	storeCmd.Flags().IntVar(&storeType, "type", int(memory.TypeExperience), "record type (1-6)")
	storeCmd.Flags().Float64Var(&storeImportance, "importance", 0.5, "importance 0..1")
	storeCmd.Flags().StringVar(&storeResponse, "response", "", "response text")
	storeCmd.Flags().StringVar(&storeContext, "context", "", "additional context")
	storeCmd.Flags().StringVar(&storeComponent, "component", "", "originating component")
	storeCmd.Flags().Float64Var(&storeEmotion, "emotion", 0, "emotion intensity 0..1")
	storeCmd.Flags().BoolVar(&storeImportant, "important", false, "mark permanent-keep")
	storeCmd.Flags().BoolVar(&storeForgettable, "forgettable", false, "consent to archive")
	storeCmd.MarkFlagRequired("ci")
}

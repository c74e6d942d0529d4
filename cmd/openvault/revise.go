package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var (
	revisePrinciples   []string
	reviseMaxRevisions int
)

var reviseCmd = &cobra.Command{
	Use:   "revise [text]",
	Short: "Apply constitutional principles to a text",
	Long: `Revise runs the critique/revision loop over a text and prints the
revision result as JSON. With no --principles the full default set
(harmlessness, privacy, truthfulness, respectfulness) applies.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := orch.ApplyPrinciples(cmd.Context(), args[0], revisePrinciples, reviseMaxRevisions)
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(encoded))
		return nil
	},
}

func init() {
	reviseCmd.Flags().StringSliceVar(&revisePrinciples, "principles", nil, "Principle ids to apply (default: all)")
	reviseCmd.Flags().IntVar(&reviseMaxRevisions, "max-revisions", 0, "Cap on revision passes (default: 3)")
}

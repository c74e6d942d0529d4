package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var analyzePolicyID string

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Run the content-safety analyzer on a text",
	Long: `Analyze scans a text with the built-in detector set and, when --policy
is given, layers the organization policy verdict on top. The result is
printed as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := orch.Analyze(cmd.Context(), args[0], analyzePolicyID)
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
	analyzeCmd.Flags().StringVar(&analyzePolicyID, "policy", "", "Policy id to evaluate on top of the analyzer")
}

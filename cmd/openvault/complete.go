package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openvault/openvault/internal/llm"
	"github.com/openvault/openvault/internal/orchestrator"
)

var (
	completeMode     string
	completePolicyID string
	completeModel    string
	completeSystem   string
	completeStream   bool
)

var completeCmd = &cobra.Command{
	Use:   "complete [prompt]",
	Short: "Run a safety-gated completion",
	Long: `Complete sends the prompt through the full gating pipeline: pre-flight
analysis, the configured completion provider, post-flight analysis, and
the mode-dependent revise/block/pass-through branch. The completion text
is printed to stdout followed by the safety metadata as JSON on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		messages := []llm.Message{}
		if completeSystem != "" {
			messages = append(messages, llm.NewSystemMessage(completeSystem))
		}
		messages = append(messages, llm.NewUserMessage(args[0]))

		model := completeModel
		if model == "" {
			model = cfg.Provider.DefaultModel
		}

		mode := orchestrator.SafetyMode(completeMode)
		if completeMode == "" {
			mode = cfg.Safety.SafetyMode()
		}

		req := orchestrator.Request{
			Completion: llm.CompletionRequest{
				Model:    model,
				Messages: messages,
			},
			Mode:            mode,
			PolicyID:        completePolicyID,
			AnalysisContext: cfg.Safety.AnalysisContext,
		}
		if req.PolicyID == "" {
			req.PolicyID = cfg.Policy.DefaultPolicyID
		}

		if completeStream {
			return runStreaming(cmd, orch, req)
		}
		return runBlocking(cmd, orch, req)
	},
}

func runBlocking(cmd *cobra.Command, orch *orchestrator.Orchestrator, req orchestrator.Request) error {
	resp, err := orch.Run(cmd.Context(), req)
	if err != nil {
		return err
	}

	cmd.Println(resp.Text)
	printMetadata(cmd, resp.SafetyMetadata)
	return nil
}

func runStreaming(cmd *cobra.Command, orch *orchestrator.Orchestrator, req orchestrator.Request) error {
	events, err := orch.RunStream(cmd.Context(), req)
	if err != nil {
		return err
	}

	for event := range events {
		if event.Error != nil {
			return event.Error
		}
		if event.DeltaText != "" {
			cmd.Print(event.DeltaText)
		}
		if event.Final != nil {
			cmd.Println()
			printMetadata(cmd, *event.Final)
		}
	}
	return nil
}

func printMetadata(cmd *cobra.Command, metadata orchestrator.SafetyMetadata) {
	encoded, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return
	}
	cmd.PrintErrln(string(encoded))
}

func init() {
	completeCmd.Flags().StringVar(&completeMode, "mode", "", "Safety mode: strict, balanced, or permissive (default: from config)")
	completeCmd.Flags().StringVar(&completePolicyID, "policy", "", "Policy id to evaluate on both checks")
	completeCmd.Flags().StringVar(&completeModel, "model", "", "Model to request (default: from config)")
	completeCmd.Flags().StringVar(&completeSystem, "system", "", "Optional system message")
	completeCmd.Flags().BoolVar(&completeStream, "stream", false, "Stream the completion with windowed safety checks")
}

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/openvault/openvault/internal/types"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check completion provider health",
	Long: `Health probes every registered completion provider and prints the
aggregated status as JSON. The command exits non-zero when any provider
reports unhealthy.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, _, err := buildRegistry()
		if err != nil {
			return err
		}

		statuses := registry.HealthCheck(cmd.Context())
		encoded, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(encoded))

		for name, status := range statuses {
			if status.State == types.HealthStateUnhealthy {
				return types.NewError(types.INTERNAL_ERROR, "provider "+name+" is unhealthy: "+status.Message)
			}
		}
		return nil
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models offered by the configured provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, provider, err := buildRegistry()
		if err != nil {
			return err
		}

		models, err := provider.Models(cmd.Context())
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(models, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(encoded))
		return nil
	},
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/tripdesk/internal/config"
	"github.com/soyeahso/tripdesk/internal/version"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show tripdesk status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Tripdesk %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Printf("Config:  error loading: %v\n", err)
				return nil
			}

			fmt.Printf("Gateway: port=%d bind=%s auth=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode)
			fmt.Printf("Model:   %s\n", cfg.OpenAI.Model)
			if cfg.OpenAI.APIKey == "" {
				fmt.Println("OpenAI:  apiKey not set")
			}
			fmt.Printf("State:   checkpoint=%s\n", cfg.Checkpoint.Store)

			registry := workflow.Default()
			for _, e := range registry.Entries() {
				safe, sensitive := 0, 0
				for _, tool := range e.Tools {
					if tool.Sensitive {
						sensitive++
					} else {
						safe++
					}
				}
				fmt.Printf("Assistant: %s (%d safe, %d sensitive tools)\n", e.ID, safe, sensitive)
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

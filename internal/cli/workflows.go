package cli

import (
	"github.com/spf13/cobra"

	"github.com/Backland-Labs/outreach/internal/workflow"
)

// newWorkflowsCommand creates the workflows subcommand
func newWorkflowsCommand(deps *Dependencies, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List the workflows and whether each is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(deps, *configPath, clientOptions{})
			if err != nil {
				return err
			}

			for _, info := range workflow.Kinds() {
				if a.client.HasEndpoint(string(info.Kind)) {
					a.printer.Success("%-18s %s", info.Kind, info.Title)
				} else {
					a.printer.Detail("  %-18s %s (not configured)", info.Kind, info.Title)
				}
				a.printer.Detail("  %s", info.Description)
			}
			if a.client.HasEndpoint(chatEndpoint) {
				a.printer.Success("%-18s %s", chatEndpoint, "智能客服")
			}
			return nil
		},
	}
}

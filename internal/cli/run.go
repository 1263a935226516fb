package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/output"
	"github.com/Backland-Labs/outreach/internal/progress"
	"github.com/Backland-Labs/outreach/internal/workflow"
)

type runFlags struct {
	inputs     []string
	inputsFile string
	stream     bool
	user       string
}

// newRunCommand creates the run subcommand, a generic call of any workflow
func newRunCommand(deps *Dependencies, configPath *string) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <kind>",
		Short: "Run one workflow with raw inputs and print its outputs",
		Long: `Run one workflow with raw inputs and print its outputs as JSON.

Inputs are given as key=value pairs, or as a YAML or JSON document with
--inputs-file for typed values. Pairs override the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := workflow.ParseKind(args[0])
			if err != nil {
				return err
			}
			inputs, err := parseInputs(flags.inputsFile, flags.inputs)
			if err != nil {
				return err
			}

			a, err := setup(deps, *configPath, clientOptions{})
			if err != nil {
				return err
			}
			if !a.client.HasEndpoint(string(kind)) {
				return notConfigured(kind)
			}

			ctx, cancel := withInterrupt(cmd.Context(), a.printer)
			defer cancel()

			var out dify.Outputs
			if flags.stream {
				out, err = streamWithSteps(ctx, a, string(kind), func(ctx context.Context, opts dify.StreamOptions) (dify.Outputs, error) {
					return a.client.RunStreaming(ctx, string(kind), inputs, opts, flags.user)
				})
			} else {
				spinner := a.printer.StartProgress("Running " + string(kind))
				out, err = a.client.Run(ctx, string(kind), inputs, flags.user)
				spinner.Stop()
			}
			if err != nil {
				return fmt.Errorf("%s failed: %s", kind, dify.Message(err))
			}

			return a.printer.JSON(out)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.inputs, "input", "i", nil, "Workflow input as key=value (repeatable)")
	cmd.Flags().StringVarP(&flags.inputsFile, "inputs-file", "f", "", "YAML or JSON file of workflow inputs")
	cmd.Flags().BoolVarP(&flags.stream, "stream", "s", false, "Stream node progress while the workflow runs")
	cmd.Flags().StringVar(&flags.user, "user", "", "Caller identity (default from config)")

	return cmd
}

// parseInputs merges the inputs file with key=value pairs
func parseInputs(path string, pairs []string) (dify.Inputs, error) {
	inputs := dify.Inputs{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read inputs file: %w", err)
		}
		if err := yaml.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("failed to parse inputs file %s: %w", path, err)
		}
	}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected key=value", pair)
		}
		inputs[key] = value
	}
	return inputs, nil
}

func notConfigured(kind workflow.Kind) error {
	env := "OUTREACH_WORKFLOW_" + strings.ToUpper(string(kind)) + "_API_KEY"
	return fmt.Errorf("workflow %s is not configured; set %s or OUTREACH_DIFY_API_KEY", kind, env)
}

// streamWithSteps runs a streaming call behind a spinner that names the
// running node, then prints the deduplicated step list
func streamWithSteps[T any](ctx context.Context, a *app, label string, call func(context.Context, dify.StreamOptions) (T, error)) (T, error) {
	hidden := progress.NewHiddenSet(a.cfg.Generate.HiddenNodes...)
	var events []dify.ProgressEvent

	spinner := a.printer.StartProgress("Running " + label)
	out, err := call(ctx, dify.StreamOptions{
		OnProgress: progress.Hide(hidden, func(ev dify.ProgressEvent) {
			events = append(events, ev)
			if !ev.Finished() {
				spinner.UpdateMessage(output.StepText(ev))
			}
		}),
	})
	spinner.Stop()

	if steps := progress.Dedup(events); len(steps) > 0 {
		a.printer.Step("%s steps", label)
		a.printer.Steps(steps)
	}
	return out, err
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/outreach/internal/config"
	"github.com/Backland-Labs/outreach/internal/logger"
	"github.com/Backland-Labs/outreach/internal/output"
)

const version = "0.1.0"

// Execute runs the CLI
func Execute() error {
	return NewRootCommand(NewRealDependencies()).Execute()
}

// NewRootCommand creates the root command with its subcommands
func NewRootCommand(deps *Dependencies) *cobra.Command {
	var showVersion bool
	var configPath string

	cmd := &cobra.Command{
		Use:   "outreach",
		Short: "Outreach - workflow client for the traffic-police content dashboard",
		Long: `Outreach - workflow client for the traffic-police content dashboard

Outreach runs the dashboard's content workflows (copywriting, posters, video
scripts, review and more) from the terminal, shows their progress step by
step, and can serve the dashboard's API gateway.

Examples:
  outreach workflows
  outreach run poster --input topic=酒驾 --input num_plans=2
  outreach generate --topic "雨天安全出行" --platform weibo,douyin
  outreach review --file draft.txt
  outreach chat "电动车需要戴头盔吗？"
  outreach serve --port 3001`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "outreach version "+version)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default $OUTREACH_CONFIG)")

	cmd.AddCommand(
		newRunCommand(deps, &configPath),
		newGenerateCommand(deps, &configPath),
		newReviewCommand(deps, &configPath),
		newChatCommand(deps, &configPath),
		newWorkflowsCommand(deps, &configPath),
		newServeCommand(deps, &configPath),
	)

	return cmd
}

// app is what a subcommand works with once configuration is loaded
type app struct {
	cfg     *config.Config
	client  Client
	printer *output.Printer
}

// setup loads configuration, initializes the logger and builds the client
func setup(deps *Dependencies, configPath string, opts clientOptions) (*app, error) {
	cfg, err := deps.ConfigLoader.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitializeFromConfig(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	client, err := deps.NewClient(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow client: %w", err)
	}

	return &app{cfg: cfg, client: client, printer: deps.Printer}, nil
}

// withInterrupt returns a context that is canceled on SIGINT or SIGTERM.
// Canceling it aborts any workflow call in flight.
func withInterrupt(ctx context.Context, printer *output.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			printer.Warning("Interrupt received, canceling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Backland-Labs/outreach/internal/dify"
	"github.com/Backland-Labs/outreach/internal/history"
	"github.com/Backland-Labs/outreach/internal/logger"
	"github.com/Backland-Labs/outreach/internal/progress"
	"github.com/Backland-Labs/outreach/internal/server"
)

// newServeCommand creates the serve subcommand
func newServeCommand(deps *Dependencies, configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API gateway",
		Long: `Start the HTTP gateway the dashboard talks to. It holds the workflow
API keys, runs workflows on the browser's behalf and streams their progress
as Server-Sent Events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			a, err := setup(deps, *configPath, clientOptions{metrics: dify.NewMetrics(reg)})
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx, cancel := withInterrupt(cmd.Context(), a.printer)
			defer cancel()

			return runServer(ctx, a, reg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3001, "Port to run the HTTP server on (default from config)")

	return cmd
}

// runServer serves the gateway until ctx is canceled
func runServer(ctx context.Context, a *app, reg *prometheus.Registry) error {
	srv := server.NewServer(a.client, server.Options{
		Port:        a.cfg.Server.Port,
		AllowOrigin: a.cfg.Server.AllowOrigin,
		KeepAlive:   a.cfg.Server.KeepAlive,
		FanoutLimit: a.cfg.Generate.FanoutLimit,
		Hidden:      progress.NewHiddenSet(a.cfg.Generate.HiddenNodes...),
		History:     history.New(a.cfg.History.TTL, a.cfg.History.MaxEntries),
		Gatherer:    reg,
	})

	a.printer.Info("Gateway starting on port %d", a.cfg.Server.Port)
	logger.Infof("Starting gateway on port %d", a.cfg.Server.Port)

	err := srv.Start(ctx)
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		a.printer.Success("Gateway stopped")
		return nil
	}
	return fmt.Errorf("server error: %w", err)
}

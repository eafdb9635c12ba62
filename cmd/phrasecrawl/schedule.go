package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/phrasecrawl/internal/config"
	"github.com/nao1215/phrasecrawl/internal/scheduler"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run crawl passes periodically",
		Long: `Schedule runs one crawl pass at startup and then one pass per cron tick
until interrupted. At most one pass runs at a time; a tick that fires
while a pass is still running is skipped.

The schedule accepts standard 5-field cron expressions and descriptors
such as "@hourly" or "@every 6h".

Examples:
  # Crawl now and every six hours
  phrasecrawl schedule

  # Crawl every day at 06:30 without an initial pass
  phrasecrawl schedule --cron "30 6 * * *" --run-at-start=false`,
		Args: cobra.NoArgs,
		RunE: runScheduleCmd,
	}

	addRequestFlags(cmd)
	cmd.Flags().String("cron", config.DefaultSchedule, "Cron expression or descriptor")
	cmd.Flags().Bool("run-at-start", true, "Run one pass immediately")

	return cmd
}

// runScheduleCmd executes the schedule command.
func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyStringFlag(cmd, "cron", &cfg.Schedule); err != nil {
		return err
	}
	if cmd.Flags().Changed("run-at-start") {
		if cfg.RunAtStart, err = cmd.Flags().GetBool("run-at-start"); err != nil {
			return err
		}
	}

	logger := setupLogger(cmd, cfg)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("failed to close history database", "error", cerr)
		}
	}()

	s, err := scheduler.New(cfg.Schedule, func(ctx context.Context) error {
		_, err := a.runner.RunOnce(ctx)
		return err
	},
		scheduler.WithRunAtStart(cfg.RunAtStart),
		scheduler.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	return s.Run(ctx)
}

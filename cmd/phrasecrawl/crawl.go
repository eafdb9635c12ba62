package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/phrasecrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl pass and update the store",
		Long: `Crawl fetches the listing page, merges it with the store and fetches the
detail page of every phrase that is still missing its description.

The store is rewritten after every detail page. Phrases whose detail page
fails stay incomplete and are retried by the next crawl.

The command exits with status 1 when the listing page cannot be fetched.
Detail page failures are reported in the summary only.

Examples:
  # Crawl into phrases.json in the current directory
  phrasecrawl crawl

  # Use another store file and no pacing
  phrasecrawl crawl --store data/phrases.json --delay 0

  # Route requests through a local SOCKS5 proxy
  phrasecrawl crawl --proxy 127.0.0.1:9050`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	addRequestFlags(cmd)
	cmd.Flags().BoolP("quiet", "q", false, "Do not print the run summary")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
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

	runReport, runErr := a.runner.RunOnce(ctx)
	if !quiet && runReport != nil {
		w := report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(cfg.Verbose))
		if _, err := w.WriteRun(runReport); err != nil {
			return err
		}
	}

	if isListingFailure(runErr) {
		return fmt.Errorf("%w (check the listing URL and network access)", runErr)
	}
	return runErr
}

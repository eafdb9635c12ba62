package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/phrasecrawl/internal/database"
	"github.com/nao1215/phrasecrawl/internal/report"
)

// defaultHistoryLimit is the number of runs listed by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded crawl runs",
		Long: `History lists the crawl runs recorded in the history database, newest first.
Pass a run id to show a single run with the outcome of each detail fetch.

Examples:
  # List the last 20 runs
  phrasecrawl history

  # Show run 42
  phrasecrawl history 42

  # List phrases whose detail page failed in at least 3 runs
  phrasecrawl history --failing 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list")
	cmd.Flags().Int("failing", 0, "List phrases whose detail fetch failed in at least this many runs")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	failing, err := cmd.Flags().GetInt("failing")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg)

	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.DBFileName)); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close history database", "error", cerr)
		}
	}()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	w := report.NewSimpleWriter(out)

	switch {
	case len(args) == 1:
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		run, err := db.GetRun(ctx, id)
		if err != nil {
			return err
		}
		_, err = w.WriteRunDetail(run)
		return err

	case failing > 0:
		ids, err := db.FailingPhrases(ctx, failing)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(out, "No failing phrases.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil

	default:
		runs, err := db.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		_, err = w.WriteHistory(runs)
		return err
	}
}

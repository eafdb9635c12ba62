package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/phrasecrawl/internal/database"
)

// Crawler fetches the listing and detail pages.
// *crawler.Crawler implements it.
type Crawler interface {
	ListingFetcher
	DetailFetcher
}

// HistoryRecorder stores run summaries.
// *database.HistoryDB implements it.
type HistoryRecorder interface {
	RecordRun(ctx context.Context, run *database.RunRecord) (int64, error)
}

// digester is implemented by stores that can fingerprint their content.
type digester interface {
	Digest() (string, error)
}

// Runner executes crawl passes.
type Runner struct {
	crawler    Crawler
	store      Store
	history    HistoryRecorder
	listingURL string
	logger     *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger used by the runner and its steps.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHistory records every pass in h.
func WithHistory(h HistoryRecorder) RunnerOption {
	return func(r *Runner) {
		r.history = h
	}
}

// WithListingURL sets the listing URL reported in summaries and history.
func WithListingURL(listingURL string) RunnerOption {
	return func(r *Runner) {
		r.listingURL = listingURL
	}
}

// NewRunner creates a Runner.
func NewRunner(c Crawler, store Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		crawler: c,
		store:   store,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// RunOnce performs one crawl pass: load, fetch listing, merge, backfill.
//
// A listing failure aborts the pass before anything is written. A store
// write failure aborts the pass after the last successful write. Detail
// failures are counted and logged; the pass still succeeds. The returned
// report is never nil.
func (r *Runner) RunOnce(ctx context.Context) (*RunReport, error) {
	state := NewRunState(r.listingURL)

	p := New(WithLogger(r.logger))
	p.AddSteps(
		NewLoadStoreStep(r.store, r.logger),
		NewFetchListingStep(r.crawler),
		NewMergeStep(),
		NewBackfillStep(r.crawler, r.store, r.logger),
	)

	r.logger.Info("crawl started", "listing", r.listingURL)

	err := p.Execute(ctx, state)
	report := state.Report
	report.FinishedAt = time.Now()
	report.Err = err

	if err != nil {
		r.logger.Error("crawl failed",
			"error", err,
			"fetched", report.Fetched,
			"failed", report.Failed,
			"writes", report.Writes,
		)
	} else {
		r.logger.Info("crawl finished",
			"listed", report.Listed,
			"skipped", report.Skipped,
			"total", report.Total,
			"complete", report.Complete,
			"fetched", report.Fetched,
			"failed", report.Failed,
			"duration", report.Duration().Round(time.Millisecond),
		)
	}

	r.record(context.WithoutCancel(ctx), report)
	return report, err
}

// record stores the report in the history. Failures are logged only.
func (r *Runner) record(ctx context.Context, report *RunReport) {
	if r.history == nil {
		return
	}

	run := &database.RunRecord{
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Status:     database.StatusSucceeded,
		ListingURL: report.ListingURL,
		Listed:     report.Listed,
		Skipped:    report.Skipped,
		Total:      report.Total,
		Complete:   report.Complete,
		Fetched:    report.Fetched,
		Failed:     report.Failed,
		Writes:     report.Writes,
	}
	if report.Err != nil {
		run.Status = database.StatusFailed
		run.Error = report.Err.Error()
	}
	for _, item := range report.Items {
		rec := database.ItemRecord{PhraseID: item.ID, Outcome: database.OutcomeFetched}
		if item.Err != nil {
			rec.Outcome = database.OutcomeFailed
			rec.Error = item.Err.Error()
		}
		run.Items = append(run.Items, rec)
	}

	if d, ok := r.store.(digester); ok {
		digest, err := d.Digest()
		if err != nil {
			r.logger.Warn("failed to compute store digest", "error", err)
		}
		run.StoreDigest = digest
	}

	id, err := r.history.RecordRun(ctx, run)
	if err != nil {
		r.logger.Warn("failed to record run history", "error", err)
		return
	}
	r.logger.Debug("recorded run", "run_id", id)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/phrasecrawl/internal/crawler"
	"github.com/nao1215/phrasecrawl/internal/model"
)

// ErrPersist is returned when the store cannot be written. It aborts the pass.
var ErrPersist = errors.New("failed to persist phrases")

// Store loads and saves the phrase collection.
// *store.File implements it.
type Store interface {
	Load() (*model.Collection, error)
	Save(phrases []*model.Phrase) error
}

// ListingFetcher fetches the listing page.
type ListingFetcher interface {
	FetchListing(ctx context.Context) (*crawler.Listing, error)
}

// DetailFetcher fetches a detail page.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, url string) (*model.Detail, error)
}

// LoadStoreStep loads the stored collection. An unreadable store is logged
// and replaced by an empty collection.
type LoadStoreStep struct {
	store  Store
	logger *slog.Logger
}

// NewLoadStoreStep creates a LoadStoreStep.
func NewLoadStoreStep(store Store, logger *slog.Logger) *LoadStoreStep {
	return &LoadStoreStep{store: store, logger: loggerOrDefault(logger)}
}

// Name returns the step name.
func (s *LoadStoreStep) Name() string {
	return "load_store"
}

// Do executes the step.
func (s *LoadStoreStep) Do(_ context.Context, state *RunState) error {
	existing, err := s.store.Load()
	if err != nil {
		s.logger.Warn("store unreadable, starting fresh", "error", err)
		state.Report.StoreCorrupt = true
	}
	if existing == nil {
		existing = model.NewCollection()
	}
	state.Existing = existing

	s.logger.Debug("loaded store",
		"phrases", existing.Len(),
		"complete", existing.CompleteCount(),
	)
	return nil
}

// FetchListingStep fetches and parses the listing page.
type FetchListingStep struct {
	fetcher ListingFetcher
}

// NewFetchListingStep creates a FetchListingStep.
func NewFetchListingStep(fetcher ListingFetcher) *FetchListingStep {
	return &FetchListingStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchListingStep) Name() string {
	return "fetch_listing"
}

// Do executes the step.
func (s *FetchListingStep) Do(ctx context.Context, state *RunState) error {
	listing, err := s.fetcher.FetchListing(ctx)
	if err != nil {
		return err
	}
	state.Listing = listing
	state.Report.Listed = len(listing.Phrases)
	state.Report.Skipped = len(listing.Skipped)
	return nil
}

// MergeStep merges the listing into the stored collection.
type MergeStep struct{}

// NewMergeStep creates a MergeStep.
func NewMergeStep() *MergeStep {
	return &MergeStep{}
}

// Name returns the step name.
func (s *MergeStep) Name() string {
	return "merge"
}

// Do executes the step.
func (s *MergeStep) Do(_ context.Context, state *RunState) error {
	var listing []*model.Phrase
	if state.Listing != nil {
		listing = state.Listing.Phrases
	}
	state.Merged = model.Merge(state.Existing, listing)
	state.Report.Total = state.Merged.Len()
	state.Report.Complete = state.Merged.CompleteCount()
	return nil
}

// BackfillStep fetches the detail of every incomplete phrase in merged order
// and persists the whole collection after each attempt, successful or not.
// When no phrase needs detail the collection is persisted once.
type BackfillStep struct {
	fetcher DetailFetcher
	store   Store
	logger  *slog.Logger
}

// NewBackfillStep creates a BackfillStep.
func NewBackfillStep(fetcher DetailFetcher, store Store, logger *slog.Logger) *BackfillStep {
	return &BackfillStep{
		fetcher: fetcher,
		store:   store,
		logger:  loggerOrDefault(logger),
	}
}

// Name returns the step name.
func (s *BackfillStep) Name() string {
	return "backfill_details"
}

// Do executes the step.
func (s *BackfillStep) Do(ctx context.Context, state *RunState) error {
	report := state.Report
	attempted := 0
	defer func() { report.Complete = state.Merged.CompleteCount() }()

	for _, p := range state.Merged.Phrases() {
		if p.IsComplete() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		detail, err := s.fetcher.FetchDetail(ctx, p.URL)
		if err != nil {
			s.logger.Warn("detail fetch failed, will retry next run",
				"id", p.ID,
				"url", p.URL,
				"error", err,
			)
			report.Failed++
		} else {
			p.ApplyDetail(detail)
			report.Fetched++
			s.logger.Info("fetched phrase",
				"id", p.ID,
				"title", p.Title,
				"sentences", len(p.Sentences),
			)
		}
		report.Items = append(report.Items, ItemResult{ID: p.ID, URL: p.URL, Err: err})
		attempted++

		if err := s.persist(state); err != nil {
			return err
		}
	}

	if attempted == 0 {
		return s.persist(state)
	}
	return nil
}

func (s *BackfillStep) persist(state *RunState) error {
	if err := s.store.Save(state.Merged.Phrases()); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	state.Report.Writes++
	return nil
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

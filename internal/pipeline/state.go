package pipeline

import (
	"time"

	"github.com/nao1215/phrasecrawl/internal/crawler"
	"github.com/nao1215/phrasecrawl/internal/model"
)

// RunState is the data shared by the steps of one pass.
// It is owned by exactly one pass.
type RunState struct {
	// Existing is the collection loaded from the store.
	Existing *model.Collection

	// Listing is the parsed listing page.
	Listing *crawler.Listing

	// Merged is the collection being completed and persisted.
	Merged *model.Collection

	// Report accumulates the pass summary.
	Report *RunReport
}

// NewRunState returns an empty state with a report started now.
func NewRunState(listingURL string) *RunState {
	return &RunState{
		Report: &RunReport{
			StartedAt:  time.Now(),
			ListingURL: listingURL,
		},
	}
}

// RunReport summarizes one pass.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ListingURL string

	// StoreCorrupt is set when the store could not be read and the pass
	// started from an empty collection.
	StoreCorrupt bool

	// Listed is the number of usable listing items.
	Listed int

	// Skipped is the number of listing items dropped.
	Skipped int

	// Total is the number of phrases after the merge.
	Total int

	// Complete is the number of complete phrases at the end of the pass.
	Complete int

	// Fetched and Failed count detail fetch outcomes.
	Fetched int
	Failed  int

	// Writes is the number of times the store was written.
	Writes int

	// Items lists each attempted detail fetch in order.
	Items []ItemResult

	// Steps are the names of the steps that completed.
	Steps []string

	// Err is the error that aborted the pass, if any.
	Err error
}

// ItemResult is the outcome of one detail fetch.
type ItemResult struct {
	ID  string
	URL string
	Err error
}

// Duration returns how long the pass took.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Incomplete returns the number of phrases still lacking detail.
func (r *RunReport) Incomplete() int {
	return r.Total - r.Complete
}

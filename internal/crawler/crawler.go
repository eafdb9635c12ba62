package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/phrasecrawl/internal/config"
	"github.com/nao1215/phrasecrawl/internal/model"
)

var (
	// ErrListingFetch is returned when the listing page cannot be fetched or
	// parsed. A run cannot continue without the listing.
	ErrListingFetch = errors.New("failed to fetch listing")

	// ErrDetailFetch is returned when a detail page cannot be fetched or
	// parsed. The phrase stays incomplete and is retried on the next run.
	ErrDetailFetch = errors.New("failed to fetch detail")
)

// Fetcher retrieves the body of a page.
// *fetch.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Crawler fetches and extracts the listing and detail pages of one source.
type Crawler struct {
	fetcher Fetcher
	source  config.Source
	logger  *slog.Logger
}

// New creates a Crawler. A nil logger means slog.Default().
func New(fetcher Fetcher, source config.Source, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		fetcher: fetcher,
		source:  source,
		logger:  logger,
	}
}

// Source returns the source the crawler extracts from.
func (c *Crawler) Source() config.Source {
	return c.source
}

// FetchListing fetches the listing page and returns its phrases in document
// order. Each skipped item is logged as a warning.
func (c *Crawler) FetchListing(ctx context.Context) (*Listing, error) {
	listingURL := c.source.ListingURL

	body, err := c.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingFetch, err)
	}

	listing, err := ParseListing(body, listingURL, c.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListingFetch, err)
	}

	for _, s := range listing.Skipped {
		c.logger.Warn("skipping listing item",
			"link", s.Link,
			"title", s.Title,
			"error", s.Err,
		)
	}

	c.logger.Debug("parsed listing",
		"url", listingURL,
		"phrases", len(listing.Phrases),
		"skipped", len(listing.Skipped),
	)

	return listing, nil
}

// FetchDetail fetches a detail page and extracts its description and
// example sentences.
func (c *Crawler) FetchDetail(ctx context.Context, detailURL string) (*model.Detail, error) {
	body, err := c.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetailFetch, err)
	}

	detail, err := ParseDetail(body, c.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDetailFetch, detailURL, err)
	}

	c.logger.Debug("parsed detail page",
		"url", detailURL,
		"sentences", len(detail.Sentences),
	)
	return detail, nil
}

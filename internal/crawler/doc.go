// Package crawler extracts phrases from the listing page and from detail pages.
//
// Extraction is driven by config.Source: the selectors and the id marker are
// data, so ParseListing and ParseDetail are pure functions over a document
// that can be tested against fixture pages. Crawler adds the transport on top
// of them and maps failures to ErrListingFetch and ErrDetailFetch.
//
// # Usage
//
//	c := crawler.New(client, cfg.Source, logger)
//	listing, err := c.FetchListing(ctx)
//	if err != nil {
//	    return err // the run is aborted
//	}
//	for _, p := range listing.Phrases {
//	    detail, err := c.FetchDetail(ctx, p.URL)
//	    ...
//	}
package crawler

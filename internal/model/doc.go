// Package model defines the data structures shared across phrasecrawl.
//
// This package contains the following main types:
//   - Phrase: One lesson item harvested from the listing page, optionally
//     enriched with the description and example sentences of its detail page
//   - Detail: The fields extracted from a detail page
//   - Collection: The identity-keyed, insertion-ordered set of phrases owned
//     by a single crawl run
//
// It also provides ExtractID, which derives the stable identifier of a
// phrase from its detail link, and Merge, which combines a fresh listing with
// previously persisted phrases.
//
// The types serialize to the same JSON layout as the phrases.json file
// produced by earlier versions of the crawler (fields "desc" and "imageURL").
package model

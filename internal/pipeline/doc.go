// Package pipeline runs one crawl pass as an ordered sequence of steps.
//
// A pass loads the stored collection, fetches the listing, merges the two and
// then backfills the detail of every incomplete phrase, persisting the whole
// collection after each attempted phrase. A crash or cancellation therefore
// loses at most the phrase in flight, and the next pass only fetches what is
// still incomplete.
//
// Runner wires the steps together and records every pass in the run history
// when one is configured.
package pipeline

// Package database provides SQLite-based run history for phrasecrawl.
//
// Every crawl run is recorded with its counters, its outcome and the SHA3
// digest of the store it left behind, together with one row per detail page
// it attempted. The history answers "when did the last run succeed" and
// "which phrases keep failing" without parsing logs.
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// history is a single file in the XDG data directory.
package database

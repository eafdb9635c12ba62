// Package store persists the phrase collection as a single JSON document.
//
// The document is an array of phrase objects written with four-space
// indentation. Writes go to a temporary file in the same directory which is
// synced and renamed over the target, so a crash never leaves a truncated
// store behind.
package store

// Package report renders phrasecrawl data for people and tools.
//
// Export writers turn the persisted phrase collection into a document:
//   - JSONWriter: the same JSON array format the store uses
//   - MarkdownWriter: a readable Markdown document
//
// SimpleWriter renders crawl run summaries and run history as plain text
// for terminal display.
package report

// Package main provides the entry point for the phrasecrawl CLI.
//
// phrasecrawl harvests "today's phrase" lessons from a listing page, fetches
// each lesson's detail page and keeps the result in a JSON file. Progress is
// written after every detail page, so an interrupted crawl resumes where it
// stopped.
//
// Usage:
//
//	phrasecrawl crawl
//	phrasecrawl schedule --cron "@every 6h"
//	phrasecrawl export --format markdown -o phrases.md
//
// See --help for all available options.
package main

func main() {
	Execute()
}

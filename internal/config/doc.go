// Package config provides configuration structures and utilities for phrasecrawl.
// It defines the crawl source (listing URL and the selectors used to extract
// phrases), request settings for the HTTP transport, the storage location,
// and the schedule used by the schedule command.
package config

package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoListingURL is returned when no listing URL is configured.
	ErrNoListingURL = errors.New("no listing URL specified")

	// ErrInvalidListingURL is returned when the listing URL is not an absolute
	// http or https URL.
	ErrInvalidListingURL = errors.New("invalid listing URL: must be an absolute http(s) URL")

	// ErrMissingSelector is returned when the id marker or one of the
	// listing/detail selectors is empty.
	ErrMissingSelector = errors.New("source is missing a selector or the id marker")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRequestDelay is returned when the request delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidRequestDelay = errors.New("invalid request delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A value of 0 means the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoStorePath is returned when the store path is empty.
	ErrNoStorePath = errors.New("no store path specified")

	// ErrInvalidLogFormat is returned when the log format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")
)

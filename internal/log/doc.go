// Package log builds the slog loggers used by phrasecrawl.
//
// Every logger returned by this package wraps its handler with SecureHandler,
// which masks attributes that carry credentials: request cookies,
// authorization headers, tokens and similar values. The crawler logs its
// configured request headers and cookie at debug level, so even verbose
// output can be shared safely.
//
// # Usage
//
//	logger := log.New(os.Stderr, log.FormatText, verbose)
//	logger.Debug("request settings",
//	    "cookie", cfg.Cookie, // logged as ***REDACTED***
//	    log.Headers(cfg.Headers),
//	)
package log

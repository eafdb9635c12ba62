// Package fetch provides the HTTP transport used by the crawler.
//
// A Client performs GET requests with a descriptive User-Agent, optional
// custom headers and cookie, a per-request timeout, a cap on the body size
// and a politeness delay between requests. Requests can optionally be routed
// through a SOCKS5 proxy.
//
// Any failure, including a non-2xx status, is reported as *Error, which
// carries the URL and status code.
package fetch

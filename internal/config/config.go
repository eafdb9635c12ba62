package config

import (
	"maps"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/phrasecrawl/internal/model"
)

// Default configuration values.
const (
	// DefaultListingURL is the BBC Learning English "Today's phrase" listing.
	DefaultListingURL = "https://www.bbc.co.uk/learningenglish/chinese/features/todays-phrase"

	// DefaultIDMarker precedes the phrase id in detail links.
	DefaultIDMarker = model.DefaultIDMarker

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultRequestDelay is the minimum interval between two requests.
	// One request per second keeps the crawler polite.
	DefaultRequestDelay = 1 * time.Second

	// DefaultUserAgent identifies phrasecrawl in HTTP requests.
	DefaultUserAgent = "phrasecrawl/1.0 (+https://github.com/nao1215/phrasecrawl)"

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultStorePath is the JSON store, relative to the working directory.
	DefaultStorePath = "phrases.json"

	// DefaultSchedule runs a crawl every six hours.
	DefaultSchedule = "@every 6h"

	// AppName is the application name used for XDG directory paths.
	AppName = "phrasecrawl"

	// LogFormatText selects the human-readable slog handler.
	LogFormatText = "text"

	// LogFormatJSON selects the JSON slog handler.
	LogFormatJSON = "json"
)

// Config holds all configuration options for phrasecrawl.
// It is populated from defaults, the config file and CLI flags, in that
// order, and passed through the application explicitly.
type Config struct {
	// Source describes the site: listing URL, id marker and selectors.
	Source Source

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// RequestDelay is the minimum interval between two HTTP requests.
	// Zero disables pacing.
	RequestDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Headers are custom headers added to every request.
	Headers map[string]string

	// Cookie is sent as the Cookie header when not empty.
	Cookie string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// StorePath is the JSON file holding the phrase collection.
	StorePath string

	// DBDir is the directory of the run history database.
	// Defaults to the XDG data directory (~/.local/share/phrasecrawl on Linux).
	DBDir string

	// SaveHistory records each run in the history database.
	SaveHistory bool

	// Schedule is the cron expression used by the schedule command.
	Schedule string

	// RunAtStart runs a crawl as soon as the scheduler starts.
	RunAtStart bool

	// Verbose enables debug log output.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .phrasecrawl is searched in the current directory
	// and then in the user's home directory.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Source:       DefaultSource(),
		Timeout:      DefaultTimeout,
		RequestDelay: DefaultRequestDelay,
		UserAgent:    DefaultUserAgent,
		Headers:      make(map[string]string),
		MaxBodySize:  DefaultMaxBodySize,
		StorePath:    DefaultStorePath,
		DBDir:        XDGDataDir(),
		SaveHistory:  true,
		Schedule:     DefaultSchedule,
		RunAtStart:   true,
		LogFormat:    LogFormatText,
	}
}

// ApplyFile overlays the non-zero values of a configuration file.
// A nil file is a no-op.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	c.Source = c.Source.Merge(f.Source)

	if f.Request.UserAgent != "" {
		c.UserAgent = f.Request.UserAgent
	}
	if len(f.Request.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Request.Headers))
		}
		maps.Copy(c.Headers, f.Request.Headers)
	}
	if f.Request.Cookie != "" {
		c.Cookie = f.Request.Cookie
	}
	if f.Request.Proxy != "" {
		c.ProxyAddress = f.Request.Proxy
	}
	if f.Request.Timeout != 0 {
		c.Timeout = f.Request.Timeout
	}
	if f.Request.Delay != nil {
		c.RequestDelay = *f.Request.Delay
	}

	if f.Store.Path != "" {
		c.StorePath = f.Store.Path
	}
	if f.Store.HistoryDir != "" {
		c.DBDir = f.Store.HistoryDir
	}

	if f.Schedule.Cron != "" {
		c.Schedule = f.Schedule.Cron
	}
	if f.Schedule.RunAtStart != nil {
		c.RunAtStart = *f.Schedule.RunAtStart
	}
}

// XDGDataDir returns the XDG data directory for phrasecrawl.
// On Linux: ~/.local/share/phrasecrawl
// On macOS: ~/Library/Application Support/phrasecrawl
// On Windows: %LOCALAPPDATA%\phrasecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.Source.ListingURL == "" {
		return ErrNoListingURL
	}

	u, err := url.Parse(c.Source.ListingURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidListingURL
	}

	if err := c.Source.validate(); err != nil {
		return err
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.StorePath == "" {
		return ErrNoStorePath
	}

	if c.LogFormat != "" && c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	return nil
}

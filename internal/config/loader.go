package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".phrasecrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .phrasecrawl configuration file.
//
// Example:
//
//	source:
//	  listingURL: https://www.bbc.co.uk/learningenglish/chinese/features/todays-phrase
//	  detail:
//	    sentencesMarker: 例句
//	request:
//	  userAgent: "phrasecrawl/1.0"
//	  timeout: 30s
//	  delay: 1s
//	  headers:
//	    Accept-Language: zh-CN
//	store:
//	  path: phrases.json
//	schedule:
//	  cron: "@every 6h"
type File struct {
	Source   Source       `yaml:"source,omitempty"`
	Request  RequestFile  `yaml:"request,omitempty"`
	Store    StoreFile    `yaml:"store,omitempty"`
	Schedule ScheduleFile `yaml:"schedule,omitempty"`
}

// RequestFile holds HTTP request settings.
type RequestFile struct {
	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are custom HTTP headers added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is sent as the Cookie header on every request.
	Cookie string `yaml:"cookie,omitempty"`

	// Proxy is an optional SOCKS5 proxy in "host:port" format.
	Proxy string `yaml:"proxy,omitempty"`

	// Timeout is the per-request timeout, e.g. "30s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Delay is the minimum interval between requests, e.g. "1s".
	// A pointer so that an explicit 0 disables pacing.
	Delay *time.Duration `yaml:"delay,omitempty"`
}

// StoreFile holds storage settings.
type StoreFile struct {
	// Path is the JSON store file.
	Path string `yaml:"path,omitempty"`

	// HistoryDir is the directory of the run history database.
	HistoryDir string `yaml:"historyDir,omitempty"`
}

// ScheduleFile holds the periodic trigger settings.
type ScheduleFile struct {
	// Cron is a standard 5-field cron expression or a descriptor
	// such as "@every 6h".
	Cron string `yaml:"cron,omitempty"`

	// RunAtStart runs a pass immediately when the scheduler starts.
	RunAtStart *bool `yaml:"runAtStart,omitempty"`
}

// LoadConfigFile loads the configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers decide whether that is an error based on whether
// the path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Request.Headers == nil {
		cf.Request.Headers = make(map[string]string)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .phrasecrawl in the current directory
// 3. Look for .phrasecrawl in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

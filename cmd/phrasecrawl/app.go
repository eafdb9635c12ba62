package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/phrasecrawl/internal/config"
	"github.com/nao1215/phrasecrawl/internal/crawler"
	"github.com/nao1215/phrasecrawl/internal/database"
	"github.com/nao1215/phrasecrawl/internal/fetch"
	"github.com/nao1215/phrasecrawl/internal/log"
	"github.com/nao1215/phrasecrawl/internal/pipeline"
	"github.com/nao1215/phrasecrawl/internal/store"
)

// addRequestFlags registers the flags shared by commands that crawl.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().String("listing-url", "",
		"Listing page URL (default: "+config.DefaultListingURL+")")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Duration("delay", config.DefaultRequestDelay,
		"Minimum interval between requests (0 disables pacing)")
	cmd.Flags().String("user-agent", "",
		"User-Agent header (default: phrasecrawl/<version>)")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address, e.g. 127.0.0.1:9050")
	cmd.Flags().Bool("no-history", false,
		"Do not record this run in the history database")
}

// buildConfig creates a Config from defaults, the configuration file and
// command flags, in that order. Only flags set on the command line override
// file values.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.Verbose, err = flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	cfg.LogFormat, err = flags.GetString("log-format")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	explicitConfigPath := cfg.ConfigFilePath != ""
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := applyStringFlag(cmd, "store", &cfg.StorePath); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "history-dir", &cfg.DBDir); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "listing-url", &cfg.Source.ListingURL); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "user-agent", &cfg.UserAgent); err != nil {
		return nil, err
	}
	if err := applyStringFlag(cmd, "proxy", &cfg.ProxyAddress); err != nil {
		return nil, err
	}

	if flags.Lookup("timeout") != nil && flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("delay") != nil && flags.Changed("delay") {
		if cfg.RequestDelay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Lookup("no-history") != nil {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		if noHistory {
			cfg.SaveHistory = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	return cfg, nil
}

// applyStringFlag copies a string flag into dst when it was set explicitly.
// Commands that do not define the flag are left untouched.
func applyStringFlag(cmd *cobra.Command, name string, dst *string) error {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates the redacting logger used by all commands.
func setupLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger := log.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// app holds the collaborators of a crawl pass.
type app struct {
	runner  *pipeline.Runner
	history *database.HistoryDB
}

// Close releases the history database if it was opened.
func (a *app) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// newApp wires the transport, crawler, store and history into a Runner.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	client, err := fetch.NewClient(
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithCookie(cfg.Cookie),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRequestDelay(cfg.RequestDelay),
		fetch.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	logger.Debug("request settings",
		"user_agent", cfg.UserAgent,
		"timeout", cfg.Timeout,
		"delay", cfg.RequestDelay,
		"proxy", cfg.ProxyAddress,
		log.Headers(cfg.Headers),
		"cookie", cfg.Cookie,
	)

	a := &app{}
	opts := []pipeline.RunnerOption{
		pipeline.WithRunnerLogger(logger),
		pipeline.WithListingURL(cfg.Source.ListingURL),
	}
	if cfg.SaveHistory {
		a.history, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		logger.Debug("history database opened", "path", a.history.Path())
		opts = append(opts, pipeline.WithHistory(a.history))
	}

	c := crawler.New(client, cfg.Source, logger)
	a.runner = pipeline.NewRunner(c, store.NewFile(cfg.StorePath), opts...)

	return a, nil
}

// isListingFailure reports whether err aborted a pass before anything was
// persisted.
func isListingFailure(err error) bool {
	return errors.Is(err, crawler.ErrListingFetch)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/phrasecrawl/internal/config"
)

// NewRootCmd creates the root command for phrasecrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrasecrawl",
		Short: "Harvest daily phrase lessons into a JSON file",
		Long: `phrasecrawl harvests short lesson items ("phrases") from a listing page,
visits each item's detail page for its description and example sentences,
and merges the result into a JSON file.

The file is rewritten after every detail page, so partial progress survives
crashes and repeated runs only fetch what is still missing.

By default phrasecrawl reads BBC Learning English "Today's phrase".
Use a .phrasecrawl configuration file to point it at another source.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", config.LogFormatText,
		"Log format: text or json")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .phrasecrawl in current or home directory)")
	cmd.PersistentFlags().StringP("store", "s", "",
		"JSON store file (default: "+config.DefaultStorePath+")")
	cmd.PersistentFlags().String("history-dir", "",
		"Directory of the run history database (default: XDG data directory)")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewScheduleCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

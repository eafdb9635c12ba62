package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/phrasecrawl/internal/report"
	"github.com/nao1215/phrasecrawl/internal/store"
)

// Export formats.
const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// errUnknownFormat is returned for an unsupported --format value.
var errUnknownFormat = errors.New("unknown export format")

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the stored phrases as JSON or Markdown",
		Long: `Export writes the phrases of the store in the requested format.
Nothing is fetched from the network.

Examples:
  # Print the store as Markdown
  phrasecrawl export --format markdown

  # Write compact JSON to a file
  phrasecrawl export --compact -o out/phrases.min.json`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("format", "f", formatJSON, "Output format: json or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write to the specified file path (creates directories if needed)")
	cmd.Flags().Bool("compact", false, "Write JSON without indentation")
	cmd.Flags().String("title", "Today's Phrase", "Document title for Markdown output")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	compact, err := cmd.Flags().GetBool("compact")
	if err != nil {
		return err
	}
	title, err := cmd.Flags().GetString("title")
	if err != nil {
		return err
	}

	setupLogger(cmd, cfg)

	// Reject a bad format before touching the output file.
	if _, err := newExportWriter(io.Discard, format, compact, title); err != nil {
		return err
	}

	collection, err := store.NewFile(cfg.StorePath).Load()
	if err != nil {
		return err
	}

	if outputPath == "" {
		writer, err := newExportWriter(cmd.OutOrStdout(), format, compact, title)
		if err != nil {
			return err
		}
		_, err = writer.Write(collection.Phrases())
		return err
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writer, err := newExportWriter(f, format, compact, title)
	if err != nil {
		return err
	}
	if _, err := writer.Write(collection.Phrases()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d phrase(s) to %s\n", collection.Len(), outputPath)
	return nil
}

// newExportWriter returns the report writer for format.
func newExportWriter(output io.Writer, format string, compact bool, title string) (report.Writer, error) {
	switch format {
	case formatJSON:
		var opts []report.JSONWriterOption
		if compact {
			opts = append(opts, report.WithCompact())
		}
		return report.NewJSONWriter(output, opts...), nil
	case formatMarkdown:
		return report.NewMarkdownWriter(output, report.WithTitle(title)), nil
	default:
		return nil, fmt.Errorf("%w: %q (use %s or %s)", errUnknownFormat, format, formatJSON, formatMarkdown)
	}
}

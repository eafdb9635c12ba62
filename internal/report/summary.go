package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/phrasecrawl/internal/database"
	"github.com/nao1215/phrasecrawl/internal/pipeline"
)

const (
	ruleWidth  = 70
	timeLayout = "2006-01-02 15:04:05 MST"
)

// SimpleWriter outputs human-readable text for terminal display.
// It renders the summary of a crawl pass and the run history table.
type SimpleWriter struct {
	baseWriter

	// verbose lists every attempted detail fetch, not only failures.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-item output for successful fetches too.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteRun outputs the summary of one crawl pass.
func (w *SimpleWriter) WriteRun(report *pipeline.RunReport) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("CRAWL SUMMARY\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Listing:   %s\n", report.ListingURL)
	fmt.Fprintf(&sb, "Started:   %s\n", report.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Duration:  %s\n", report.Duration().Round(time.Millisecond))
	switch {
	case report.Err != nil:
		fmt.Fprintf(&sb, "Status:    FAILED - %v\n", report.Err)
	case report.Failed > 0:
		sb.WriteString("Status:    Partial (some details failed)\n")
	default:
		sb.WriteString("Status:    Complete\n")
	}
	if report.StoreCorrupt {
		sb.WriteString("Store:     unreadable, started from an empty collection\n")
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "  Listed:      %d\n", report.Listed)
	fmt.Fprintf(&sb, "  Skipped:     %d\n", report.Skipped)
	fmt.Fprintf(&sb, "  Total:       %d\n", report.Total)
	fmt.Fprintf(&sb, "  Complete:    %d\n", report.Complete)
	fmt.Fprintf(&sb, "  Fetched:     %d\n", report.Fetched)
	fmt.Fprintf(&sb, "  Failed:      %d\n", report.Failed)
	fmt.Fprintf(&sb, "  Store writes: %d\n", report.Writes)
	sb.WriteString("\n")

	w.writeItems(&sb, report.Items)

	writeRule(&sb, "=")

	return w.output.Write([]byte(sb.String()))
}

// writeItems lists detail fetch results. Only failures are shown unless verbose.
func (w *SimpleWriter) writeItems(sb *strings.Builder, items []pipeline.ItemResult) {
	var shown []pipeline.ItemResult
	for _, item := range items {
		if item.Err != nil || w.verbose {
			shown = append(shown, item)
		}
	}
	if len(shown) == 0 {
		return
	}

	writeRule(sb, "-")
	sb.WriteString("DETAIL FETCHES\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	for _, item := range shown {
		if item.Err != nil {
			fmt.Fprintf(sb, "  [!] %s\n", item.ID)
			fmt.Fprintf(sb, "      %s\n", truncateString(item.Err.Error(), ruleWidth-6))
			continue
		}
		fmt.Fprintf(sb, "  [+] %s\n", item.ID)
	}
	sb.WriteString("\n")
}

// WriteHistory outputs a table of recorded runs, newest first.
func (w *SimpleWriter) WriteHistory(runs []*database.RunRecord) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-6s %-23s %-10s %6s %6s %6s %6s %9s\n",
		"ID", "STARTED", "STATUS", "TOTAL", "DONE", "FETCH", "FAIL", "DURATION")
	for _, run := range runs {
		fmt.Fprintf(&sb, "%-6d %-23s %-10s %6d %6d %6d %6d %9s\n",
			run.ID,
			run.StartedAt.Local().Format(timeLayout),
			run.Status,
			run.Total,
			run.Complete,
			run.Fetched,
			run.Failed,
			run.Duration().Round(time.Second),
		)
		if run.Error != "" {
			fmt.Fprintf(&sb, "       error: %s\n", truncateString(run.Error, ruleWidth-14))
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteRunDetail outputs a single recorded run with its item outcomes.
func (w *SimpleWriter) WriteRunDetail(run *database.RunRecord) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Run %d (%s)\n", run.ID, run.Status)
	fmt.Fprintf(&sb, "Listing:   %s\n", run.ListingURL)
	fmt.Fprintf(&sb, "Started:   %s\n", run.StartedAt.Local().Format(timeLayout))
	fmt.Fprintf(&sb, "Duration:  %s\n", run.Duration().Round(time.Millisecond))
	if run.StoreDigest != "" {
		fmt.Fprintf(&sb, "Store:     sha3-256 %s\n", run.StoreDigest)
	}
	if run.Error != "" {
		fmt.Fprintf(&sb, "Error:     %s\n", run.Error)
	}
	fmt.Fprintf(&sb, "Listed %d, skipped %d, total %d, complete %d, fetched %d, failed %d, writes %d\n",
		run.Listed, run.Skipped, run.Total, run.Complete, run.Fetched, run.Failed, run.Writes)

	for _, item := range run.Items {
		if item.Outcome == database.OutcomeFailed {
			fmt.Fprintf(&sb, "  [!] %s: %s\n", item.PhraseID, item.Error)
			continue
		}
		fmt.Fprintf(&sb, "  [+] %s\n", item.PhraseID)
	}

	return w.output.Write([]byte(sb.String()))
}

func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, ruleWidth))
	sb.WriteString("\n")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/phrasecrawl/internal/model"
)

// MarkdownWriter outputs the phrase collection as a Markdown document.
type MarkdownWriter struct {
	baseWriter

	title string
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithTitle sets the document heading.
func WithTitle(title string) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.title = title
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      "Phrases",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs an index table followed by one section per phrase.
func (w *MarkdownWriter) Write(phrases []*model.Phrase) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(w.title)
	md.PlainText("")

	w.writeSummary(md, phrases)
	w.writeIndex(md, phrases)
	w.writePhrases(md, phrases)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the completion counts.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, phrases []*model.Phrase) {
	complete := countComplete(phrases)
	pending := len(phrases) - complete

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Phrases", strconv.Itoa(len(phrases))},
			{"With details", strconv.Itoa(complete)},
			{"Pending details", strconv.Itoa(pending)},
		},
	})
	md.PlainText("")

	if len(phrases) == 0 {
		md.Note("The store is empty. Run `phrasecrawl crawl` first.")
		md.PlainText("")
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Detail coverage"),
		piechart.WithShowData(true),
	)
	if complete > 0 {
		chart.LabelAndIntValue("With details", uint64(complete))
	}
	if pending > 0 {
		chart.LabelAndIntValue("Pending", uint64(pending))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	if pending > 0 {
		md.Warningf("%d phrase(s) are still missing their detail page.", pending)
		md.PlainText("")
	}
}

// writeIndex writes a table of all phrases.
func (w *MarkdownWriter) writeIndex(md *markdown.Markdown, phrases []*model.Phrase) {
	if len(phrases) == 0 {
		return
	}

	md.H2("Index")
	md.PlainText("")

	rows := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		if p == nil {
			continue
		}
		sentences := "-"
		if p.IsComplete() {
			sentences = strconv.Itoa(len(p.Sentences))
		}
		rows = append(rows, []string{
			"`" + p.ID + "`",
			escapeCell(p.Title),
			sentences,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Title", "Sentences"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePhrases writes one section per phrase.
func (w *MarkdownWriter) writePhrases(md *markdown.Markdown, phrases []*model.Phrase) {
	for _, p := range phrases {
		if p == nil {
			continue
		}

		md.H2(p.Title)
		md.PlainText("")
		md.PlainTextf("[%s](%s)", p.ID, p.URL)
		md.PlainText("")

		if !p.IsComplete() {
			md.PlainText("*Details not fetched yet.*")
			md.PlainText("")
			continue
		}

		if *p.Description != "" {
			md.PlainText(*p.Description)
			md.PlainText("")
		}

		if len(p.Sentences) > 0 {
			items := make([]string, len(p.Sentences))
			for i, s := range p.Sentences {
				items[i] = strings.ReplaceAll(s, "\n", " / ")
			}
			md.BulletList(items...)
			md.PlainText("")
		}
	}
}

// writeFooter writes the document footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [phrasecrawl](https://github.com/nao1215/phrasecrawl)*")
}

// escapeCell makes a string safe to place in a table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

package report

import (
	"io"

	"github.com/nao1215/phrasecrawl/internal/model"
)

// Writer exports a phrase collection in some output format.
type Writer interface {
	// Write outputs the phrases in order.
	// Returns the number of bytes written and any error encountered.
	Write(phrases []*model.Phrase) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countComplete returns the number of phrases with detail fields set.
func countComplete(phrases []*model.Phrase) int {
	n := 0
	for _, p := range phrases {
		if p != nil && p.IsComplete() {
			n++
		}
	}
	return n
}

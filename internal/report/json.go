package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/phrasecrawl/internal/model"
)

// DefaultJSONIndent is the indentation used by the store file format.
const DefaultJSONIndent = "    "

// JSONWriter outputs the phrase collection as a JSON array.
// With default options the output is byte-identical to the store file.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the prefix and indentation for each output line.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithCompact disables indentation.
func WithCompact() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = false
		w.indentPrefix = ""
		w.indentString = ""
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter:   newBaseWriter(output),
		indent:       true,
		indentPrefix: "",
		indentString: DefaultJSONIndent,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the phrases as a JSON array followed by a newline.
func (w *JSONWriter) Write(phrases []*model.Phrase) (int, error) {
	if phrases == nil {
		phrases = []*model.Phrase{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(phrases); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}
